package engine

import (
	"context"
	"io"
)

// Client is a container-engine client bound to one host.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: every call blocks on network I/O and must honor cancellation.
// - Errors: connection-class failures must satisfy IsConnErr.
type Client interface {
	// PullImage pulls image:tag onto the host.
	PullImage(ctx context.Context, image, tag string) error

	// StartContainer creates and starts a detached container, returning
	// its engine-assigned id.
	StartContainer(ctx context.Context, opts RunOptions) (string, error)

	// ContainerByID fetches a container with a full state snapshot.
	ContainerByID(ctx context.Context, id string) (Container, error)

	// ListContainers lists containers matching opts. Snapshots carry at
	// least Status; use ContainerByID for the full state.
	ListContainers(ctx context.Context, opts ListOptions) ([]Container, error)
}

// RunOptions describes a detached container start.
type RunOptions struct {
	Image   string
	Tag     string
	Name    string
	Command string
	Env     map[string]string
}

// ListOptions narrows a container listing.
type ListOptions struct {
	// All includes stopped containers.
	All bool

	// NamePrefix keeps only containers whose name starts with the prefix.
	NamePrefix string

	// Running keeps only containers in the running state.
	Running bool
}

// Container is one container on an engine host.
//
// The State snapshot is taken when the container is fetched; lifecycle
// operations do not refresh it.
type Container interface {
	ID() string
	Name() string
	Image() string
	State() State

	Stop(ctx context.Context) error
	Rename(ctx context.Context, name string) error
	Remove(ctx context.Context) error

	// Logs fetches the selected streams as one byte slice.
	Logs(ctx context.Context, stdout, stderr bool) ([]byte, error)

	// StreamLogs follows both streams until the container ends or the
	// connection drops. The caller owns the ReadCloser.
	StreamLogs(ctx context.Context) (io.ReadCloser, error)
}

// State mirrors the engine's container state attributes. Timestamps are the
// engine's RFC 3339 strings, unparsed.
type State struct {
	Status     string
	ExitCode   int
	Error      string
	StartedAt  string
	FinishedAt string
}
