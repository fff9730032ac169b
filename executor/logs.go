package executor

import (
	"errors"
	"io"

	"github.com/jonwraymond/shipyard/engine"
)

// logChunkSize bounds the single chunk buffered by a LogStream.
const logChunkSize = 4096

// LogStream is a pull-driven iterator over a container's log stream. It is
// finite and non-restartable: Next returns chunks until the container ends
// or the stream fails, and Err distinguishes the two afterwards.
//
//	stream, err := exec.GetStreamingLogs(ctx, taskID, execution)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for chunk, ok := stream.Next(); ok; chunk, ok = stream.Next() {
//	    fmt.Print(chunk)
//	}
//	if err := stream.Err(); err != nil {
//	    return err
//	}
//
// A LogStream is owned by a single consumer; Next must not be called
// concurrently.
type LogStream struct {
	rc        io.ReadCloser
	buf       []byte
	err       error
	done      bool
	onConnErr func(cause error) error
}

func newLogStream(rc io.ReadCloser, onConnErr func(cause error) error) *LogStream {
	return &LogStream{
		rc:        rc,
		buf:       make([]byte, logChunkSize),
		onConnErr: onConnErr,
	}
}

// Next returns the next UTF-8 chunk. ok is false once the stream has ended,
// whether cleanly or not; consult Err to tell the difference.
func (s *LogStream) Next() (chunk string, ok bool) {
	if s.done {
		return "", false
	}

	for {
		n, err := s.rc.Read(s.buf)
		if n > 0 {
			return string(s.buf[:n]), true
		}
		if err == nil {
			continue
		}

		s.done = true
		if !errors.Is(err, io.EOF) {
			if engine.IsConnErr(err) {
				s.err = s.onConnErr(err)
			} else {
				s.err = err
			}
		}
		return "", false
	}
}

// Err returns the error that ended the stream, or nil after a clean end.
// A connection failure surfaces as *HostUnavailableError.
func (s *LogStream) Err() error {
	return s.err
}

// Close releases the underlying connection. The consumer stopping early is
// the expected way a stream terminates without draining.
func (s *LogStream) Close() error {
	s.done = true
	return s.rc.Close()
}
