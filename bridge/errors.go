package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by New for a configuration that cannot run.
	ErrInvalidConfig = errors.New("invalid bridge configuration")

	// ErrUnexpectedStatus is a ConnectError cause for a non-200 response.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrNotEventStream is a ConnectError cause for a 200 response whose
	// content type is not text/event-stream.
	ErrNotEventStream = errors.New("response is not an event stream")

	// ErrInactivityTimeout is a StreamError cause: no bytes arrived within
	// the read timeout.
	ErrInactivityTimeout = errors.New("stream inactivity timeout")

	// ErrStreamClosed is a StreamError cause: the Gateway ended the stream.
	ErrStreamClosed = errors.New("stream closed by remote")

	// ErrWorkerPanic wraps a recovered worker panic.
	ErrWorkerPanic = errors.New("stream worker panicked")
)

// ConnectError is a failure to establish the stream: transport errors, a
// non-200 status or a malformed response. Always retried.
type ConnectError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *ConnectError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("connecting to gateway: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("connecting to gateway: %v", e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// StreamError is a failure on an established stream. Always retried.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("reading stream: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// failureReason maps an error to a short metrics label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInactivityTimeout):
		return "inactivity"
	case errors.Is(err, ErrStreamClosed):
		return "closed"
	case errors.Is(err, ErrUnexpectedStatus):
		return "status"
	case errors.Is(err, ErrNotEventStream):
		return "content_type"
	}

	var ce *ConnectError
	if errors.As(err, &ce) {
		return "transport"
	}
	return "read"
}
