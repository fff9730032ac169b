// Package executor dispatches container workloads to a pool of engine
// hosts, tolerating host failure.
//
// The Executor is the job-facing façade of the dispatch subsystem. It
// composes the host [farm.Pool], the shared [blacklist.Store], and a
// [breaker.Registry] of per-host circuit breakers, and exposes the
// container-lifecycle operations the outer scheduler drives:
//
//	UpdateImage → Run → (GetResult | GetCurrentLogs | GetStreamingLogs)*
//	            → StopJob? → MarkAsDone
//
// plus the fleet-wide RemoveDone reaper, the ValidateMaxRunning capacity
// check, and the GetRunningContainers survey.
//
// # Host binding
//
// UpdateImage selects a host, honoring the blacklist and breaker states,
// and binds the execution to it; every later operation for the execution
// targets the bound host directly, even if the host has since been
// blacklisted (the binding predates the blacklist entry). A
// connection-class failure clears the binding and surfaces as
// [HostUnavailableError]; the scheduler retries from UpdateImage, which
// binds a fresh host.
//
// # Failure isolation
//
// Every engine call runs through the host's circuit breaker. Only
// connection-class failures (see engine.IsConnErr) count against a host;
// engine semantic errors propagate unchanged and leave the breaker alone.
//
// # Concurrency
//
// Operations are safe to call concurrently across executions. A single
// Execution is owned by one worker at a time; concurrent calls on the same
// execution are undefined.
package executor
