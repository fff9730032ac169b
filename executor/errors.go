package executor

import "fmt"

// HostUnavailableError reports a connection-class failure while talking to
// an engine host. The failing call has already cleared the execution's host
// binding and counted against the host's breaker; the caller retries from
// image pull on a fresh host.
type HostUnavailableError struct {
	Host  string
	Port  int
	Cause error
}

func (e *HostUnavailableError) Error() string {
	return fmt.Sprintf("executor: engine host %s:%d unavailable: %v", e.Host, e.Port, e.Cause)
}

func (e *HostUnavailableError) Unwrap() error {
	return e.Cause
}

// CircuitOpenError reports that the host's breaker short-circuited the call.
// Selection treats such hosts as ineligible; callers only see this when an
// already-bound host's breaker is open.
type CircuitOpenError struct {
	Host string
	Port int
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("executor: circuit open for engine host %s:%d", e.Host, e.Port)
}

// UnknownHostError reports a binding that references a host missing from
// the pool, which means the farm configuration changed under a live
// execution.
type UnknownHostError struct {
	Host string
	Port int
}

func (e *UnknownHostError) Error() string {
	return fmt.Sprintf("executor: bound host %s:%d is not in the pool", e.Host, e.Port)
}
