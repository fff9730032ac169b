package executor

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/shipyard/blacklist"
	"github.com/jonwraymond/shipyard/breaker"
	"github.com/jonwraymond/shipyard/engine"
	"github.com/jonwraymond/shipyard/farm"
	"github.com/jonwraymond/shipyard/observe"
)

// DefaultJobPrefix names job containers when no prefix is configured.
const DefaultJobPrefix = "fastlane-job"

// DefunctPrefix marks containers renamed by MarkAsDone as terminal.
const DefunctPrefix = "defunct-"

// Executor dispatches container-lifecycle operations to engine hosts,
// guarding every call with the host's circuit breaker.
type Executor struct {
	pool      *farm.Pool
	breakers  *breaker.Registry
	blacklist blacklist.Store
	jobPrefix string
	logger    observe.Logger
	metrics   observe.DispatchMetrics
	tracer    trace.Tracer
}

// Option configures an Executor.
type Option func(*Executor)

// WithJobPrefix overrides the job container name prefix.
func WithJobPrefix(prefix string) Option {
	return func(e *Executor) { e.jobPrefix = prefix }
}

// WithLogger attaches a logger.
func WithLogger(logger observe.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithMetrics attaches dispatch metrics.
func WithMetrics(m observe.DispatchMetrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithTracer attaches a tracer; operations run inside spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) { e.tracer = t }
}

// New creates an Executor over the pool. The breaker registry must classify
// failures with engine.IsConnErr; use NewBreakerRegistry. bl may be nil
// when every caller supplies explicit snapshots.
func New(pool *farm.Pool, breakers *breaker.Registry, bl blacklist.Store, opts ...Option) *Executor {
	e := &Executor{
		pool:      pool,
		breakers:  breakers,
		blacklist: bl,
		jobPrefix: DefaultJobPrefix,
		logger:    observe.NopLogger(),
		metrics:   observe.NopDispatchMetrics(),
		tracer:    tracenoop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewBreakerRegistry builds the breaker registry for an Executor: only
// connection-class failures count against a host, and state transitions are
// recorded on metrics.
func NewBreakerRegistry(cfg breaker.Config, store breaker.StateStore, metrics observe.DispatchMetrics) *breaker.Registry {
	cfg.IsFailure = engine.IsConnErr
	if metrics != nil {
		cfg.OnStateChange = func(key string, from, to breaker.State) {
			metrics.RecordBreakerTransition(context.Background(), key, from.String(), to.String())
		}
	}
	return breaker.NewRegistry(cfg, store)
}

// JobPrefix returns the configured job container name prefix.
func (e *Executor) JobPrefix() string { return e.jobPrefix }

// Breakers returns the executor's breaker registry.
func (e *Executor) Breakers() *breaker.Registry { return e.breakers }

// snapshot returns bl, or a fresh read of the shared blacklist when bl is
// nil. With no store configured the blacklist is empty.
func (e *Executor) snapshot(ctx context.Context, bl blacklist.Snapshot) (blacklist.Snapshot, error) {
	if bl != nil {
		return bl, nil
	}
	if e.blacklist == nil {
		return blacklist.Snapshot{}, nil
	}
	return e.blacklist.List(ctx)
}

// dispatch runs op through the breaker for hc and applies the uniform
// failure policy: circuit-open becomes CircuitOpenError; a connection-class
// failure clears the execution's host binding and becomes
// HostUnavailableError; anything else passes through unchanged.
func (e *Executor) dispatch(ctx context.Context, operation string, hc farm.HostClient, exec *Execution, op func(context.Context) error) error {
	start := time.Now()
	err := e.breakers.Get(hc.Address()).Execute(ctx, op)
	e.metrics.RecordDispatch(ctx, operation, hc.Address(), time.Since(start), err)

	if err == nil {
		return nil
	}

	if errors.Is(err, breaker.ErrOpen) {
		return &CircuitOpenError{Host: hc.Host, Port: hc.Port}
	}

	if engine.IsConnErr(err) {
		if exec != nil {
			exec.Binding.ClearHost()
		}
		e.logger.Error(ctx, "Failed to connect to engine host. Job will be retried on a new host.",
			observe.F("operation", operation),
			observe.F("host", hc.Host), observe.F("port", hc.Port),
			observe.F("error", err.Error()))
		return &HostUnavailableError{Host: hc.Host, Port: hc.Port, Cause: err}
	}

	return err
}

// boundHost resolves the execution's bound host.
func (e *Executor) boundHost(exec *Execution) (farm.HostClient, error) {
	hc, ok := e.pool.GetExplicit(exec.Binding.Host, exec.Binding.Port)
	if !ok {
		return farm.HostClient{}, &UnknownHostError{Host: exec.Binding.Host, Port: exec.Binding.Port}
	}
	return hc, nil
}

// UpdateImage selects a host for the task, pulls image:tag there, and binds
// the execution to that host. This is the binding operation: every later
// call for the execution targets the same host.
func (e *Executor) UpdateImage(ctx context.Context, taskID string, exec *Execution, image, tag string, bl blacklist.Snapshot) error {
	ctx, span := e.tracer.Start(ctx, "executor.update_image")
	defer span.End()

	bl, err := e.snapshot(ctx, bl)
	if err != nil {
		return err
	}

	hc, err := e.pool.Select(ctx, e.breakers, taskID, bl)
	if err != nil {
		return err
	}

	logger := e.logger.With(
		observe.F("task_id", taskID), observe.F("execution_id", exec.ID),
		observe.F("host", hc.Host), observe.F("port", hc.Port),
		observe.F("image", image), observe.F("tag", tag))

	logger.Debug(ctx, "Updating image on engine host.")
	err = e.dispatch(ctx, "update_image", hc, exec, func(ctx context.Context) error {
		return hc.Client.PullImage(ctx, image, tag)
	})
	if err != nil {
		return err
	}

	exec.Binding.BindHost(hc.Host, hc.Port)
	logger.Info(ctx, "Image updated. Host bound to execution.")
	return nil
}

// Run starts the job container on the bound host. A binding made by
// UpdateImage is authoritative even if the host has since been blacklisted
// or its breaker opened; an unbound execution selects a fresh host, which
// only happens when the scheduler skipped the image pull.
func (e *Executor) Run(ctx context.Context, taskID string, exec *Execution, image, tag, command string, bl blacklist.Snapshot) (bool, error) {
	ctx, span := e.tracer.Start(ctx, "executor.run")
	defer span.End()

	logger := e.logger.With(
		observe.F("task_id", taskID), observe.F("execution_id", exec.ID),
		observe.F("image", image), observe.F("tag", tag))

	var hc farm.HostClient
	var err error

	if exec.Binding.HasHost() {
		hc, err = e.boundHost(exec)
		if err != nil {
			return false, err
		}
	} else {
		bl, err = e.snapshot(ctx, bl)
		if err != nil {
			return false, err
		}
		hc, err = e.pool.Select(ctx, e.breakers, taskID, bl)
		if err != nil {
			return false, err
		}
		exec.Binding.BindHost(hc.Host, hc.Port)
		logger.Warn(ctx, "Execution had no bound host at run time. The image pull "+
			"should have bound one; selected a fresh host.",
			observe.F("new_host", hc.Host), observe.F("new_port", hc.Port))
	}

	name := e.jobPrefix + "-" + exec.ID
	logger = logger.With(observe.F("host", hc.Host), observe.F("port", hc.Port),
		observe.F("container_name", name))

	var containerID string
	logger.Debug(ctx, "Starting job container on engine host.")
	err = e.dispatch(ctx, "run", hc, exec, func(ctx context.Context) error {
		id, err := hc.Client.StartContainer(ctx, engine.RunOptions{
			Image:   image,
			Tag:     tag,
			Name:    name,
			Command: command,
			Env:     exec.Envs,
		})
		if err != nil {
			return err
		}
		containerID = id
		return nil
	})
	if err != nil {
		return false, err
	}

	exec.Binding.ContainerID = containerID
	logger.Info(ctx, "Container started.", observe.F("container_id", containerID))
	return true, nil
}

// StopJob stops the execution's container on the bound host. An execution
// that never started is a warning, not an error.
func (e *Executor) StopJob(ctx context.Context, taskID string, exec *Execution) error {
	ctx, span := e.tracer.Start(ctx, "executor.stop_job")
	defer span.End()

	logger := e.logger.With(
		observe.F("task_id", taskID), observe.F("execution_id", exec.ID))

	if exec.Binding.ContainerID == "" {
		logger.Warn(ctx, "Can't stop execution, since it has not been started. Aborting.")
		return nil
	}

	hc, err := e.boundHost(exec)
	if err != nil {
		return err
	}

	containerID := exec.Binding.ContainerID
	logger = logger.With(observe.F("host", hc.Host), observe.F("port", hc.Port),
		observe.F("container_id", containerID))

	return e.dispatch(ctx, "stop_job", hc, exec, func(ctx context.Context) error {
		ctr, err := hc.Client.ContainerByID(ctx, containerID)
		if err != nil {
			return err
		}
		logger.Debug(ctx, "Stopping container.")
		if err := ctr.Stop(ctx); err != nil {
			return err
		}
		logger.Info(ctx, "Container stopped.")
		return nil
	})
}

// GetResult fetches the container's state on the bound host and assembles
// the execution result. For terminal containers it also captures stdout as
// the result log and folds stderr into the error text; GetResult is
// idempotent for terminal containers.
func (e *Executor) GetResult(ctx context.Context, taskID string, exec *Execution) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "executor.get_result")
	defer span.End()

	hc, err := e.boundHost(exec)
	if err != nil {
		return nil, err
	}

	containerID := exec.Binding.ContainerID
	logger := e.logger.With(
		observe.F("task_id", taskID), observe.F("execution_id", exec.ID),
		observe.F("host", hc.Host), observe.F("port", hc.Port),
		observe.F("container_id", containerID))

	var result *Result
	err = e.dispatch(ctx, "get_result", hc, exec, func(ctx context.Context) error {
		ctr, err := hc.Client.ContainerByID(ctx, containerID)
		if err != nil {
			return err
		}

		state := ctr.State()
		result = &Result{
			Status:    statusFromEngine(state.Status),
			ExitCode:  state.ExitCode,
			Error:     state.Error,
			StartedAt: parseEngineTime(state.StartedAt),
		}

		if !result.Status.Terminal() {
			return nil
		}

		result.FinishedAt = parseEngineTime(state.FinishedAt)

		stdout, err := ctr.Logs(ctx, true, false)
		if err != nil {
			return err
		}
		result.Log = stdout

		stderr, err := ctr.Logs(ctx, false, true)
		if err != nil {
			return err
		}
		if result.Error != "" {
			result.Error += "\n\nstderr:\n" + string(stderr)
		} else {
			result.Error = string(stderr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "Container result found.",
		observe.F("status", string(result.Status)),
		observe.F("exit_code", result.ExitCode))
	return result, nil
}

// GetCurrentLogs fetches the container's full stdout and stderr as one
// UTF-8 string.
func (e *Executor) GetCurrentLogs(ctx context.Context, taskID string, exec *Execution) (string, error) {
	ctx, span := e.tracer.Start(ctx, "executor.get_current_logs")
	defer span.End()

	hc, err := e.boundHost(exec)
	if err != nil {
		return "", err
	}

	containerID := exec.Binding.ContainerID

	var log []byte
	err = e.dispatch(ctx, "get_current_logs", hc, exec, func(ctx context.Context) error {
		ctr, err := hc.Client.ContainerByID(ctx, containerID)
		if err != nil {
			return err
		}
		log, err = ctr.Logs(ctx, true, true)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(log), nil
}

// GetStreamingLogs follows the container's logs on the bound host. The
// returned stream is finite and non-restartable; it ends when the container
// ends or the connection drops. A mid-stream connection failure surfaces
// from LogStream.Err as HostUnavailableError.
func (e *Executor) GetStreamingLogs(ctx context.Context, taskID string, exec *Execution) (*LogStream, error) {
	ctx, span := e.tracer.Start(ctx, "executor.get_streaming_logs")
	defer span.End()

	hc, err := e.boundHost(exec)
	if err != nil {
		return nil, err
	}

	containerID := exec.Binding.ContainerID

	var rc io.ReadCloser
	err = e.dispatch(ctx, "get_streaming_logs", hc, exec, func(ctx context.Context) error {
		ctr, err := hc.Client.ContainerByID(ctx, containerID)
		if err != nil {
			return err
		}
		rc, err = ctr.StreamLogs(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return newLogStream(rc, func(cause error) error {
		exec.Binding.ClearHost()
		e.logger.Error(ctx, "Failed to connect to engine host mid-stream.",
			observe.F("host", hc.Host), observe.F("port", hc.Port),
			observe.F("error", cause.Error()))
		return &HostUnavailableError{Host: hc.Host, Port: hc.Port, Cause: cause}
	}), nil
}

// MarkAsDone renames the container to its defunct name, breaking the link
// between the execution and the job-name prefix so the scheduler sees the
// container as terminal and the reaper can claim it.
func (e *Executor) MarkAsDone(ctx context.Context, taskID string, exec *Execution) error {
	ctx, span := e.tracer.Start(ctx, "executor.mark_as_done")
	defer span.End()

	hc, err := e.boundHost(exec)
	if err != nil {
		return err
	}

	containerID := exec.Binding.ContainerID
	logger := e.logger.With(
		observe.F("task_id", taskID), observe.F("execution_id", exec.ID),
		observe.F("host", hc.Host), observe.F("port", hc.Port),
		observe.F("container_id", containerID))

	return e.dispatch(ctx, "mark_as_done", hc, exec, func(ctx context.Context) error {
		ctr, err := hc.Client.ContainerByID(ctx, containerID)
		if err != nil {
			return err
		}

		newName := DefunctPrefix + ctr.Name()
		if err := ctr.Rename(ctx, newName); err != nil {
			return err
		}
		logger.Debug(ctx, "Container renamed.", observe.F("new_name", newName))
		return nil
	})
}
