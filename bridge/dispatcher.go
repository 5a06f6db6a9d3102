package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/papercomputeco/gatewaybridge/pkg/diagnostics"
	"github.com/papercomputeco/gatewaybridge/pkg/eventstream"
	"github.com/papercomputeco/gatewaybridge/pkg/metrics"
	"github.com/papercomputeco/gatewaybridge/pkg/sse"
)

// Dispatcher turns completed frames into messages on the tenant's topic.
type Dispatcher struct {
	tenantID  string
	publisher eventstream.Publisher
	timeout   time.Duration
	logger    *slog.Logger
	sink      diagnostics.Sink
	metrics   *metrics.Metrics
}

// Dispatch decodes frame and publishes it. Publish failures are logged,
// counted and recorded; they are never returned, so a broken downstream
// cannot tear down the upstream stream.
func (d *Dispatcher) Dispatch(ctx context.Context, frame sse.Frame) {
	data, ok := sse.Decode(frame.Data)
	if !ok {
		d.metrics.DecodeFallbacks.Inc()
		d.logger.Debug("frame data is not JSON, publishing raw", "event", frame.Event)
	}

	msg, err := eventstream.NewMessage(d.tenantID, eventstream.Envelope{
		Event: frame.Event,
		Data:  data,
	})
	if err != nil {
		d.failed(frame, err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.publisher.Publish(pubCtx, msg); err != nil {
		d.failed(frame, err)
		return
	}

	d.metrics.FramesDispatched.WithLabelValues(frame.Event).Inc()
	d.logger.Debug("dispatched frame", "event", frame.Event, "topic", msg.Topic)
	diagnostics.Recordf(d.sink, "dispatched tenant=%s event=%s", d.tenantID, frame.Event)
}

func (d *Dispatcher) failed(frame sse.Frame, err error) {
	d.metrics.PublishFailures.Inc()
	d.logger.Warn("publish failed",
		"event", frame.Event,
		"error", err,
	)
	diagnostics.Recordf(d.sink, "publish failed tenant=%s event=%s error=%q", d.tenantID, frame.Event, err.Error())
}
