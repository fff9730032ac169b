package breaker

import "errors"

// Sentinel errors for breaker operations.
var (
	// ErrOpen is returned when a call is short-circuited by an open breaker.
	ErrOpen = errors.New("breaker: circuit is open")
)
