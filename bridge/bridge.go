// Package bridge relays a tenant's Gateway event stream to subscribers.
//
// A Bridge owns one long-lived streaming connection to the Gateway. Chunks
// read from it are parsed into frames, each frame is published to the
// tenant's topic, and any connection failure is retried with a doubling,
// capped delay. The bridge never stops on its own; it runs until its context
// is cancelled.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/gatewaybridge/pkg/backoff"
	"github.com/papercomputeco/gatewaybridge/pkg/diagnostics"
	"github.com/papercomputeco/gatewaybridge/pkg/eventstream"
	"github.com/papercomputeco/gatewaybridge/pkg/gateway"
	"github.com/papercomputeco/gatewaybridge/pkg/metrics"
	"github.com/papercomputeco/gatewaybridge/pkg/sse"
)

// Options are the collaborators of a Bridge.
type Options struct {
	// Publisher receives every dispatched frame. Required.
	Publisher eventstream.Publisher

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Sink receives lifecycle lines. Defaults to diagnostics.Nop.
	Sink diagnostics.Sink

	// Metrics defaults to collectors on a private registry.
	Metrics *metrics.Metrics

	// HTTPClient overrides the Gateway client's transport.
	HTTPClient *http.Client
}

// Bridge streams one tenant's events from the Gateway to a Publisher.
type Bridge struct {
	config     Config
	client     *gateway.Client
	parser     sse.Parser
	dispatcher *Dispatcher
	logger     *slog.Logger
	sink       diagnostics.Sink
	metrics    *metrics.Metrics

	mu     sync.RWMutex
	status Status
}

// New validates c and creates a Bridge. It does not connect.
func New(c Config, o Options) (*Bridge, error) {
	c = c.withDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	if o.Publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Sink == nil {
		o.Sink = diagnostics.Nop{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New()
	}

	var clientOpts []gateway.Option
	if o.HTTPClient != nil {
		clientOpts = append(clientOpts, gateway.WithHTTPClient(o.HTTPClient))
	}
	client, err := gateway.NewClient(c.GatewayURL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating gateway client: %w", err)
	}

	logger := o.Logger.With("tenant", c.TenantID)

	b := &Bridge{
		config: c,
		client: client,
		parser: sse.Parser{DefaultEvent: c.DefaultEvent},
		dispatcher: &Dispatcher{
			tenantID:  c.TenantID,
			publisher: o.Publisher,
			timeout:   c.PublishTimeout,
			logger:    logger,
			sink:      o.Sink,
			metrics:   o.Metrics,
		},
		logger:  logger,
		sink:    o.Sink,
		metrics: o.Metrics,
		status: Status{
			TenantID: c.TenantID,
			State:    StateIdle,
		},
	}
	b.metrics.SetState(StateIdle.String())

	return b, nil
}

// Config returns the configuration the bridge runs with, defaults applied.
func (b *Bridge) Config() Config {
	return b.config
}

// Status returns a snapshot of the connection state. Safe for concurrent use.
func (b *Bridge) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := b.status
	if s.ConnectedSince != nil {
		t := *s.ConnectedSince
		s.ConnectedSince = &t
	}
	return s
}

// Run streams until ctx is cancelled and then returns nil. A worker that
// panics is replaced by a fresh one, starting over from the initial backoff
// delay.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("starting bridge",
		"gateway", b.client.StreamURL(b.config.StreamPath, b.config.TenantID),
		"read_timeout", b.config.ReadTimeout,
	)

	for {
		err := b.runWorker(ctx)
		if ctx.Err() != nil {
			b.setState(StateIdle, 0)
			b.logger.Info("bridge stopped")
			return nil
		}
		if err == nil {
			continue
		}

		b.metrics.WorkerRestarts.Inc()
		b.logger.Error("stream worker crashed, restarting", "error", err)
		diagnostics.Recordf(b.sink, "worker crashed tenant=%s error=%q", b.config.TenantID, err.Error())

		b.mu.Lock()
		b.status.Restarts++
		b.status.LastError = err.Error()
		b.mu.Unlock()

		b.setState(StateBackoff, b.config.InitialBackoff)
		if backoff.Wait(ctx, b.config.InitialBackoff) != nil {
			b.setState(StateIdle, 0)
			return nil
		}
	}
}

// runWorker runs one worker and converts a panic into an error.
func (b *Bridge) runWorker(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
		}
	}()

	b.work(ctx)
	return nil
}

// work is the connect, stream, back off loop. It returns only when ctx is
// done.
func (b *Bridge) work(ctx context.Context) {
	sched := backoff.NewScheduler(b.config.InitialBackoff, b.config.MaxBackoff)

	for ctx.Err() == nil {
		err := b.attempt(ctx, sched)
		if ctx.Err() != nil {
			return
		}

		delay := sched.Next()
		b.fail(err, delay)

		if backoff.Wait(ctx, delay) != nil {
			return
		}
	}
}

// attempt makes one connection and streams from it until it fails. The
// returned error is a *ConnectError or a *StreamError.
func (b *Bridge) attempt(ctx context.Context, sched *backoff.Scheduler) error {
	attemptID := uuid.NewString()

	b.mu.Lock()
	b.status.AttemptID = attemptID
	b.mu.Unlock()
	b.setState(StateConnecting, 0)

	b.metrics.ConnectAttempts.Inc()
	b.logger.Debug("connecting", "attempt_id", attemptID)
	diagnostics.Recordf(b.sink, "connecting tenant=%s attempt=%s", b.config.TenantID, attemptID)

	s, err := b.connect(ctx)
	if err != nil {
		if ctx.Err() == nil {
			b.metrics.ConnectFailures.WithLabelValues(failureReason(err)).Inc()
		}
		return err
	}
	defer s.close()

	sched.Reset()

	now := time.Now()
	b.mu.Lock()
	b.status.ConnectedSince = &now
	b.status.LastError = ""
	b.mu.Unlock()
	b.setState(StateStreaming, 0)

	b.logger.Info("stream connected", "attempt_id", attemptID)
	diagnostics.Recordf(b.sink, "connected tenant=%s attempt=%s", b.config.TenantID, attemptID)

	err = b.consume(ctx, s)
	if ctx.Err() == nil {
		b.metrics.StreamFailures.WithLabelValues(failureReason(err)).Inc()
	}
	return err
}

// consume reads chunks from s, feeding each through the parser and
// dispatching completed frames before the next read. The accumulator is
// local, so partial frames never survive a reconnect.
func (b *Bridge) consume(ctx context.Context, s *stream) error {
	var acc sse.Accumulator
	buf := make([]byte, readBufferSize)

	for {
		n, err := s.read(buf)
		if n > 0 {
			var frames []sse.Frame
			acc, frames = b.parser.Feed(acc, buf[:n])
			for _, frame := range frames {
				b.dispatcher.Dispatch(ctx, frame)
			}
		}
		if err != nil {
			return err
		}
	}
}

func (b *Bridge) fail(err error, delay time.Duration) {
	b.mu.Lock()
	b.status.LastError = err.Error()
	b.status.ConnectedSince = nil
	b.mu.Unlock()
	b.setState(StateBackoff, delay)

	b.logger.Warn("stream failed, backing off",
		"error", err,
		"backoff", delay,
	)
	diagnostics.Recordf(b.sink, "backoff tenant=%s delay=%s error=%q", b.config.TenantID, delay, err.Error())
}

func (b *Bridge) setState(state State, delay time.Duration) {
	b.mu.Lock()
	b.status.State = state
	b.status.BackoffMillis = delay.Milliseconds()
	if state != StateStreaming {
		b.status.ConnectedSince = nil
	}
	b.mu.Unlock()

	b.metrics.SetState(state.String())
	b.metrics.BackoffSeconds.Set(delay.Seconds())
}
