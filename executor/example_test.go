package executor_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/jonwraymond/shipyard/blacklist"
	"github.com/jonwraymond/shipyard/breaker"
	"github.com/jonwraymond/shipyard/engine"
	"github.com/jonwraymond/shipyard/executor"
	"github.com/jonwraymond/shipyard/farm"
)

// exampleContainer is a canned terminal container.
type exampleContainer struct {
	id   string
	name string
}

func (c *exampleContainer) ID() string    { return c.id }
func (c *exampleContainer) Name() string  { return c.name }
func (c *exampleContainer) Image() string { return "busybox:latest" }

func (c *exampleContainer) State() engine.State {
	return engine.State{
		Status:     "exited",
		ExitCode:   0,
		StartedAt:  "2024-01-01T00:00:00Z",
		FinishedAt: "2024-01-01T00:00:01Z",
	}
}

func (c *exampleContainer) Stop(ctx context.Context) error                { return nil }
func (c *exampleContainer) Rename(ctx context.Context, name string) error { return nil }
func (c *exampleContainer) Remove(ctx context.Context) error              { return nil }

func (c *exampleContainer) Logs(ctx context.Context, stdout, stderr bool) ([]byte, error) {
	if stdout {
		return []byte("hi\n"), nil
	}
	return nil, nil
}

func (c *exampleContainer) StreamLogs(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("hi\n")), nil
}

// exampleClient is an engine host that pulls instantly and runs every job
// to completion.
type exampleClient struct {
	containers map[string]*exampleContainer
}

func (c *exampleClient) PullImage(ctx context.Context, image, tag string) error {
	return nil
}

func (c *exampleClient) StartContainer(ctx context.Context, opts engine.RunOptions) (string, error) {
	id := "ctr-" + opts.Name
	c.containers[id] = &exampleContainer{id: id, name: opts.Name}
	return id, nil
}

func (c *exampleClient) ContainerByID(ctx context.Context, id string) (engine.Container, error) {
	ctr, ok := c.containers[id]
	if !ok {
		return nil, fmt.Errorf("no such container: %s", id)
	}
	return ctr, nil
}

func (c *exampleClient) ListContainers(ctx context.Context, opts engine.ListOptions) ([]engine.Container, error) {
	return nil, nil
}

// Example wires the dispatch subsystem and drives one job execution from
// image pull to result collection.
func Example() {
	ctx := context.Background()

	farms, err := farm.Parse(ctx, []byte(`[
		{"match": "^gpu-", "hosts": ["hgpu:2375"], "maxRunning": 4},
		{"match": "", "hosts": ["hcpu:2375"], "maxRunning": 8}
	]`), nil)
	if err != nil {
		log.Fatal(err)
	}

	pool, err := farm.NewPool(farms, func(address string) (engine.Client, error) {
		return &exampleClient{containers: make(map[string]*exampleContainer)}, nil
	}, nil)
	if err != nil {
		log.Fatal(err)
	}

	breakers := executor.NewBreakerRegistry(
		breaker.Config{FailMax: 5, ResetTimeout: time.Minute},
		breaker.NewMemoryStore(), nil)

	exec := executor.New(pool, breakers, nil)

	execution := &executor.Execution{ID: "exec-1", Envs: map[string]string{"ENV": "prod"}}

	if err := exec.UpdateImage(ctx, "gpu-42", execution, "busybox", "latest", blacklist.Snapshot{}); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("bound to %s:%d\n", execution.Binding.Host, execution.Binding.Port)

	if _, err := exec.Run(ctx, "gpu-42", execution, "busybox", "latest", "echo hi", blacklist.Snapshot{}); err != nil {
		log.Fatal(err)
	}

	result, err := exec.GetResult(ctx, "gpu-42", execution)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("status: %s exit: %d\n", result.Status, result.ExitCode)
	fmt.Printf("log: %s", result.Log)
	// Output:
	// bound to hgpu:2375
	// status: done exit: 0
	// log: hi
}
