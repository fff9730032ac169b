package engine

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/docker/docker/client"
)

// ErrConnectionFailed marks a connection-class failure. Fake clients wrap it
// so IsConnErr holds without a real network error.
var ErrConnectionFailed = errors.New("engine: connection failed")

// IsConnErr reports whether err is a connection-class failure: the host is
// unreachable, the connection dropped, or the call timed out. These are the
// only errors that count against a host's circuit breaker.
func IsConnErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionFailed) {
		return true
	}
	if client.IsErrConnectionFailed(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
