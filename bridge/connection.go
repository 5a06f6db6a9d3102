package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/gatewaybridge/pkg/gateway"
)

const (
	readBufferSize = 32 << 10

	// maxDrain bounds how much of a rejected response body is read so the
	// connection can be reused.
	maxDrain = 4 << 10
)

// stream is an established upstream event stream.
//
// Inactivity is enforced by a timer that cancels the request context when no
// bytes arrive within readTimeout. The timer is armed only while a Read is
// outstanding, so time spent dispatching a chunk never counts against the
// upstream. A Read that fails after the timer fired is reported as
// ErrInactivityTimeout.
type stream struct {
	body        io.ReadCloser
	cancel      context.CancelFunc
	timer       *time.Timer
	readTimeout time.Duration
	timedOut    atomic.Bool
}

// connect opens the tenant's stream. It returns a *ConnectError for any
// failure to reach a 200 text/event-stream response.
func (b *Bridge) connect(ctx context.Context) (*stream, error) {
	reqCtx, cancel := context.WithCancel(ctx)

	req, err := b.client.StreamRequest(reqCtx, b.config.StreamPath, b.config.TenantID)
	if err != nil {
		cancel()
		return nil, &ConnectError{Err: err}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		cancel()
		return nil, &ConnectError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
		resp.Body.Close()
		cancel()
		return nil, &ConnectError{
			StatusCode: resp.StatusCode,
			Err:        ErrUnexpectedStatus,
		}
	}

	if ct := resp.Header.Get("Content-Type"); !gateway.IsEventStream(ct) {
		resp.Body.Close()
		cancel()
		return nil, &ConnectError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: content type %q", ErrNotEventStream, ct),
		}
	}

	s := &stream{
		body:        resp.Body,
		cancel:      cancel,
		readTimeout: b.config.ReadTimeout,
	}
	s.timer = time.AfterFunc(s.readTimeout, func() {
		s.timedOut.Store(true)
		cancel()
	})
	s.timer.Stop()

	return s, nil
}

// read reads the next chunk into p. Every failure is returned as a
// *StreamError. read owns the timer: it arms it for the duration of the Read
// and disarms it before returning.
func (s *stream) read(p []byte) (int, error) {
	s.timer.Reset(s.readTimeout)
	n, err := s.body.Read(p)
	s.timer.Stop()
	if err == nil {
		return n, nil
	}

	switch {
	case s.timedOut.Load():
		return n, &StreamError{Err: ErrInactivityTimeout}
	case errors.Is(err, io.EOF):
		return n, &StreamError{Err: ErrStreamClosed}
	default:
		return n, &StreamError{Err: err}
	}
}

// close releases the response body and the request context.
func (s *stream) close() {
	s.timer.Stop()
	s.cancel()
	s.body.Close()
}
