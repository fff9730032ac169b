package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// DockerClient implements Client over the Docker Engine API.
type DockerClient struct {
	api client.APIClient
}

// NewDockerClient dials the Docker engine at address (host:port) with API
// version negotiation. The client is created once per host and lives for the
// process lifetime.
func NewDockerClient(address string) (*DockerClient, error) {
	api, err := client.NewClientWithOpts(
		client.WithHost("tcp://"+address),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: dialing %s: %w", address, err)
	}
	return &DockerClient{api: api}, nil
}

// NewDockerClientFromAPI wraps an existing API client. Useful for tests and
// custom transports.
func NewDockerClientFromAPI(api client.APIClient) *DockerClient {
	return &DockerClient{api: api}
}

func (c *DockerClient) PullImage(ctx context.Context, img, tag string) error {
	rc, err := c.api.ImagePull(ctx, img+":"+tag, image.PullOptions{})
	if err != nil {
		return err
	}
	defer rc.Close()

	// The pull only completes once the progress stream is drained.
	_, err = io.Copy(io.Discard, rc)
	return err
}

func (c *DockerClient) StartContainer(ctx context.Context, opts RunOptions) (string, error) {
	env := make([]string, 0, len(opts.Env))
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	cfg := &container.Config{
		Image: opts.Image + ":" + opts.Tag,
		Cmd:   strslice.StrSlice(strings.Fields(opts.Command)),
		Env:   env,
	}

	created, err := c.api.ContainerCreate(ctx, cfg, nil, nil, nil, opts.Name)
	if err != nil {
		return "", err
	}

	if err := c.api.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *DockerClient) ContainerByID(ctx context.Context, id string) (Container, error) {
	inspect, err := c.api.ContainerInspect(ctx, id)
	if err != nil {
		return nil, err
	}

	ctr := &dockerContainer{
		api:  c.api,
		id:   inspect.ID,
		name: strings.TrimPrefix(inspect.Name, "/"),
	}
	if inspect.Config != nil {
		ctr.image = inspect.Config.Image
	}
	if inspect.State != nil {
		ctr.state = State{
			Status:     inspect.State.Status,
			ExitCode:   inspect.State.ExitCode,
			Error:      inspect.State.Error,
			StartedAt:  inspect.State.StartedAt,
			FinishedAt: inspect.State.FinishedAt,
		}
	}
	return ctr, nil
}

func (c *DockerClient) ListContainers(ctx context.Context, opts ListOptions) ([]Container, error) {
	args := filters.NewArgs()
	if opts.NamePrefix != "" {
		args.Add("name", opts.NamePrefix)
	}
	if opts.Running {
		args.Add("status", "running")
	}

	summaries, err := c.api.ContainerList(ctx, container.ListOptions{
		All:     opts.All,
		Filters: args,
	})
	if err != nil {
		return nil, err
	}

	out := make([]Container, 0, len(summaries))
	for _, s := range summaries {
		var name string
		if len(s.Names) > 0 {
			name = strings.TrimPrefix(s.Names[0], "/")
		}
		// The engine's name filter matches substrings; the contract here
		// is a prefix.
		if opts.NamePrefix != "" && !strings.HasPrefix(name, opts.NamePrefix) {
			continue
		}

		out = append(out, &dockerContainer{
			api:   c.api,
			id:    s.ID,
			name:  name,
			image: s.Image,
			state: State{Status: s.State},
		})
	}
	return out, nil
}

// dockerContainer is a Container backed by the Docker Engine API.
type dockerContainer struct {
	api   client.APIClient
	id    string
	name  string
	image string
	state State
}

func (c *dockerContainer) ID() string    { return c.id }
func (c *dockerContainer) Name() string  { return c.name }
func (c *dockerContainer) Image() string { return c.image }
func (c *dockerContainer) State() State  { return c.state }

func (c *dockerContainer) Stop(ctx context.Context) error {
	return c.api.ContainerStop(ctx, c.id, container.StopOptions{})
}

func (c *dockerContainer) Rename(ctx context.Context, name string) error {
	return c.api.ContainerRename(ctx, c.id, name)
}

func (c *dockerContainer) Remove(ctx context.Context) error {
	return c.api.ContainerRemove(ctx, c.id, container.RemoveOptions{})
}

func (c *dockerContainer) Logs(ctx context.Context, stdout, stderr bool) ([]byte, error) {
	rc, err := c.api.ContainerLogs(ctx, c.id, container.LogsOptions{
		ShowStdout: stdout,
		ShowStderr: stderr,
	})
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// Non-TTY log streams are multiplexed; demux into per-stream buffers
	// and keep only what was asked for.
	var outBuf, errBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&outBuf, &errBuf, rc); err != nil {
		return nil, err
	}

	switch {
	case stdout && stderr:
		outBuf.Write(errBuf.Bytes())
		return outBuf.Bytes(), nil
	case stdout:
		return outBuf.Bytes(), nil
	default:
		return errBuf.Bytes(), nil
	}
}

func (c *dockerContainer) StreamLogs(ctx context.Context) (io.ReadCloser, error) {
	rc, err := c.api.ContainerLogs(ctx, c.id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return nil, err
	}
	return demuxStream(rc), nil
}

// demuxStream converts a multiplexed log stream into a plain byte stream.
// Closing the returned reader tears down the underlying connection.
func demuxStream(rc io.ReadCloser) io.ReadCloser {
	pr, pw := io.Pipe()

	go func() {
		_, err := stdcopy.StdCopy(pw, pw, rc)
		pw.CloseWithError(err)
	}()

	return &demuxReader{pr: pr, src: rc}
}

type demuxReader struct {
	pr  *io.PipeReader
	src io.ReadCloser
}

func (r *demuxReader) Read(p []byte) (int, error) {
	return r.pr.Read(p)
}

func (r *demuxReader) Close() error {
	r.src.Close()
	return r.pr.Close()
}
