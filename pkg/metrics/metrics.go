// Package metrics holds the prometheus collectors exported by the bridge.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bridge"

// Metrics is the set of bridge collectors. All methods are safe for
// concurrent use.
type Metrics struct {
	ConnectAttempts  prometheus.Counter
	ConnectFailures  *prometheus.CounterVec
	StreamFailures   *prometheus.CounterVec
	FramesDispatched *prometheus.CounterVec
	DecodeFallbacks  prometheus.Counter
	PublishFailures  prometheus.Counter
	WorkerRestarts   prometheus.Counter
	State            *prometheus.GaugeVec
	BackoffSeconds   prometheus.Gauge

	gatherer prometheus.Gatherer

	mu        sync.Mutex
	lastState string
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m, err := NewWithRegistry(reg, reg)
	if err != nil {
		// A fresh registry cannot hold conflicting collectors.
		panic(err)
	}
	return m
}

// NewWithRegistry creates the collectors and registers them on reg. gatherer
// backs Handler and may be nil when Handler is not used.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	m := &Metrics{
		ConnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Upstream connect attempts.",
		}),
		ConnectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Upstream connect attempts that did not reach streaming, by reason.",
		}, []string{"reason"}),
		StreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_failures_total",
			Help:      "Established streams that ended, by reason.",
		}, []string{"reason"}),
		FramesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dispatched_total",
			Help:      "Frames handed to the publisher, by upstream event name.",
		}, []string{"event"}),
		DecodeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_fallbacks_total",
			Help:      "Frames whose data was not valid JSON and was published raw.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Publish calls that returned an error.",
		}),
		WorkerRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_restarts_total",
			Help:      "Stream workers restarted after a crash.",
		}),
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "1 for the current connection state, 0 otherwise.",
		}, []string{"state"}),
		BackoffSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backoff_seconds",
			Help:      "Delay before the next reconnect attempt.",
		}),
		gatherer: gatherer,
	}

	for _, c := range []prometheus.Collector{
		m.ConnectAttempts,
		m.ConnectFailures,
		m.StreamFailures,
		m.FramesDispatched,
		m.DecodeFallbacks,
		m.PublishFailures,
		m.WorkerRestarts,
		m.State,
		m.BackoffSeconds,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// SetState marks state as current and clears the previous one.
func (m *Metrics) SetState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastState != "" && m.lastState != state {
		m.State.WithLabelValues(m.lastState).Set(0)
	}
	m.State.WithLabelValues(state).Set(1)
	m.lastState = state
}

// Handler serves the registered collectors in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
