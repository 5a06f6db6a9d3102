package bridge_test

import (
	"net/http"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/papercomputeco/gatewaybridge/bridge"
	"github.com/papercomputeco/gatewaybridge/pkg/eventstream"
	"github.com/papercomputeco/gatewaybridge/pkg/metrics"
)

var _ = Describe("New", func() {
	var base *url.URL

	BeforeEach(func() {
		var err error
		base, err = url.Parse("http://localhost:4000")
		Expect(err).NotTo(HaveOccurred())
	})

	It("applies defaults", func() {
		b, err := bridge.New(bridge.Config{TenantID: "acme", GatewayURL: base}, bridge.Options{
			Publisher: &recordingPublisher{},
		})
		Expect(err).NotTo(HaveOccurred())

		c := b.Config()
		Expect(c.StreamPath).To(Equal("/api/v1/messages/stream"))
		Expect(c.InitialBackoff).To(Equal(time.Second))
		Expect(c.MaxBackoff).To(Equal(30 * time.Second))
		Expect(c.ReadTimeout).To(Equal(30 * time.Second))
		Expect(c.PublishTimeout).To(Equal(5 * time.Second))

		Expect(b.Status().State).To(Equal(bridge.StateIdle))
		Expect(b.Status().TenantID).To(Equal("acme"))
	})

	DescribeTable("rejects invalid configuration",
		func(mutate func(*bridge.Config)) {
			c := bridge.Config{TenantID: "acme", GatewayURL: base}
			mutate(&c)
			_, err := bridge.New(c, bridge.Options{Publisher: &recordingPublisher{}})
			Expect(err).To(MatchError(bridge.ErrInvalidConfig))
		},
		Entry("missing tenant", func(c *bridge.Config) { c.TenantID = "" }),
		Entry("missing gateway URL", func(c *bridge.Config) { c.GatewayURL = nil }),
		Entry("relative gateway URL", func(c *bridge.Config) { c.GatewayURL = &url.URL{Path: "/gw"} }),
		Entry("negative backoff", func(c *bridge.Config) { c.InitialBackoff = -time.Second }),
		Entry("max below initial", func(c *bridge.Config) {
			c.InitialBackoff = 10 * time.Second
			c.MaxBackoff = time.Second
		}),
		Entry("negative read timeout", func(c *bridge.Config) { c.ReadTimeout = -1 }),
	)

	It("requires a publisher", func() {
		_, err := bridge.New(bridge.Config{TenantID: "acme", GatewayURL: base}, bridge.Options{})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Bridge", func() {
	var (
		pub *recordingPublisher
		m   *metrics.Metrics
	)

	BeforeEach(func() {
		pub = &recordingPublisher{}
		m = metrics.New()
	})

	It("requests the tenant's stream with event-stream headers", func() {
		u := newUpstream(func(w http.ResponseWriter, r *http.Request) {
			sseHeaders(w)
			holdOpen(r)
		})
		runBridge(newBridge(testConfig(u), pub, m))

		Eventually(u.Requests).Should(BeNumerically(">=", 1))
		req := u.lastReq.Load()
		Expect(req.URL.Path).To(Equal("/api/v1/messages/stream"))
		Expect(req.URL.Query().Get("tenant_id")).To(Equal("acme"))
		Expect(req.Header.Get("Accept")).To(Equal("text/event-stream"))
		Expect(req.Header.Get("Cache-Control")).To(Equal("no-cache"))
	})

	It("publishes frames in wire order across chunk boundaries", func() {
		u := newUpstream(func(w http.ResponseWriter, r *http.Request) {
			sseHeaders(w)
			writeChunks(w,
				"event: message_created\ndata: {\"id\":",
				"1}\n\nevent: message_updated\nda",
				"ta: {\"id\":2}\n",
				"\nevent: x\ndata: not-json\n\n",
			)
			holdOpen(r)
		})
		b := newBridge(testConfig(u), pub, m)
		runBridge(b)

		Eventually(pub.Events).Should(Equal([]string{"message_created", "message_updated", "x"}))

		msgs := pub.Messages()
		for _, msg := range msgs {
			Expect(msg.Topic).To(Equal("messages:acme"))
			Expect(msg.Event).To(Equal(eventstream.EventMessage))
			Expect(msg.TenantID).To(Equal("acme"))
		}
		Expect(msgs[0].Payload).To(MatchJSON(`{"event":"message_created","data":{"id":1}}`))
		Expect(msgs[1].Payload).To(MatchJSON(`{"event":"message_updated","data":{"id":2}}`))
		Expect(msgs[2].Payload).To(MatchJSON(`{"event":"x","data":{"raw":"not-json"}}`))

		Expect(b.Status().State).To(Equal(bridge.StateStreaming))
		Expect(b.Status().ConnectedSince).NotTo(BeNil())
		Expect(testutil.ToFloat64(m.DecodeFallbacks)).To(Equal(1.0))
		Expect(u.Requests()).To(Equal(1))
	})

	It("drops frames without an event name", func() {
		u := newUpstream(func(w http.ResponseWriter, r *http.Request) {
			sseHeaders(w)
			writeChunks(w, "data: oops\n\n: comment\nevent: kept\ndata: 1\n\n")
			holdOpen(r)
		})
		runBridge(newBridge(testConfig(u), pub, m))

		Eventually(pub.Events).Should(Equal([]string{"kept"}))
		Consistently(pub.Events, 100*time.Millisecond).Should(HaveLen(1))
	})

	It("names unlabeled frames when a default event is configured", func() {
		u := newUpstream(func(w http.ResponseWriter, r *http.Request) {
			sseHeaders(w)
			writeChunks(w, "data: {\"id\":7}\n\n")
			holdOpen(r)
		})
		c := testConfig(u)
		c.DefaultEvent = "message"
		runBridge(newBridge(c, pub, m))

		Eventually(pub.Events).Should(Equal([]string{"message"}))
	})

	It("reconnects after the gateway closes the stream", func() {
		u := newUpstream(func(w http.ResponseWriter, _ *http.Request) {
			sseHeaders(w)
			writeChunks(w, "event: tick\ndata: {}\n\n")
		})
		b := newBridge(testConfig(u), pub, m)
		runBridge(b)

		Eventually(u.Requests).Should(BeNumerically(">=", 3))
		Eventually(func() int { return len(pub.Events()) }).Should(BeNumerically(">=", 3))
		Expect(testutil.ToFloat64(m.StreamFailures.WithLabelValues("closed"))).To(BeNumerically(">=", 2))
	})

	It("drops a partial frame when the stream ends mid-frame", func() {
		u := newUpstream(func(w http.ResponseWriter, _ *http.Request) {
			sseHeaders(w)
			writeChunks(w, "event: first\ndata: {}\n\nevent: partial\ndata: {\"cut\":")
		})
		runBridge(newBridge(testConfig(u), pub, m))

		Eventually(u.Requests).Should(BeNumerically(">=", 2))
		Consistently(func() []string {
			var others []string
			for _, e := range pub.Events() {
				if e != "first" {
					others = append(others, e)
				}
			}
			return others
		}, 100*time.Millisecond).Should(BeEmpty())
	})

	It("backs off and retries on a non-200 response", func() {
		u := newUpstream(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		b := newBridge(testConfig(u), pub, m)
		runBridge(b)

		Eventually(u.Requests).Should(BeNumerically(">=", 3))
		Eventually(func() float64 {
			return testutil.ToFloat64(m.ConnectFailures.WithLabelValues("status"))
		}).Should(BeNumerically(">=", 3))
		Eventually(func() string { return b.Status().LastError }).Should(ContainSubstring("status 503"))
		Expect(pub.Messages()).To(BeEmpty())
	})

	It("rejects a response that is not an event stream", func() {
		u := newUpstream(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		})
		runBridge(newBridge(testConfig(u), pub, m))

		Eventually(func() float64 {
			return testutil.ToFloat64(m.ConnectFailures.WithLabelValues("content_type"))
		}).Should(BeNumerically(">=", 1))
	})

	It("retries when the gateway is unreachable", func() {
		u := newUpstream(func(http.ResponseWriter, *http.Request) {})
		c := testConfig(u)
		u.srv.Close()

		b := newBridge(c, pub, m)
		runBridge(b)

		Eventually(func() float64 {
			return testutil.ToFloat64(m.ConnectFailures.WithLabelValues("transport"))
		}).Should(BeNumerically(">=", 2))
		Eventually(func() bridge.State { return b.Status().State }).Should(Equal(bridge.StateBackoff))
	})

	It("reconnects when the stream goes quiet", func() {
		u := newUpstream(func(w http.ResponseWriter, r *http.Request) {
			sseHeaders(w)
			holdOpen(r)
		})
		c := testConfig(u)
		c.ReadTimeout = 50 * time.Millisecond
		b := newBridge(c, pub, m)
		runBridge(b)

		Eventually(func() float64 {
			return testutil.ToFloat64(m.StreamFailures.WithLabelValues("inactivity"))
		}).Should(BeNumerically(">=", 1))
		Eventually(u.Requests).Should(BeNumerically(">=", 2))
	})

	It("keeps an active stream open past the read timeout", func() {
		u := newUpstream(func(w http.ResponseWriter, r *http.Request) {
			sseHeaders(w)
			for range 10 {
				select {
				case <-r.Context().Done():
					return
				case <-time.After(20 * time.Millisecond):
				}
				writeChunks(w, ": keepalive\n")
			}
			holdOpen(r)
		})
		c := testConfig(u)
		c.ReadTimeout = 100 * time.Millisecond
		runBridge(newBridge(c, pub, m))

		Consistently(u.Requests, 180*time.Millisecond).Should(Equal(1))
	})

	It("doubles the delay up to the cap and starts over after a connect", func() {
		var u *upstream
		u = newUpstream(func(w http.ResponseWriter, _ *http.Request) {
			if u.Requests() == 5 {
				// Connects, then closes straight away.
				sseHeaders(w)
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		sink := &recordingSink{}
		b, err := bridge.New(testConfig(u), bridge.Options{
			Publisher: pub,
			Metrics:   m,
			Sink:      sink,
		})
		Expect(err).NotTo(HaveOccurred())
		runBridge(b)

		Eventually(func() int { return len(sink.Delays()) }).
			WithTimeout(2 * time.Second).Should(BeNumerically(">=", 6))
		Expect(sink.Delays()[:6]).To(Equal([]string{"10ms", "20ms", "40ms", "40ms", "10ms", "20ms"}))
	})

	It("does not count slow publishes against the read timeout", func() {
		slow := &stallingPublisher{}
		u := newUpstream(func(w http.ResponseWriter, r *http.Request) {
			sseHeaders(w)
			writeChunks(w, "event: a\ndata: {}\n\nevent: b\ndata: {}\n\nevent: c\ndata: {}\n\nevent: d\ndata: {}\n\n")
			for {
				select {
				case <-r.Context().Done():
					return
				case <-time.After(20 * time.Millisecond):
				}
				writeChunks(w, ": keepalive\n")
			}
		})
		c := testConfig(u)
		c.PublishTimeout = 100 * time.Millisecond
		c.ReadTimeout = 200 * time.Millisecond
		b := newBridge(c, slow, m)
		runBridge(b)

		Eventually(func() float64 { return testutil.ToFloat64(m.PublishFailures) }).
			WithTimeout(2 * time.Second).Should(Equal(4.0))
		Consistently(u.Requests, 300*time.Millisecond).Should(Equal(1))
		Expect(testutil.ToFloat64(m.StreamFailures.WithLabelValues("inactivity"))).To(BeZero())
		Expect(slow.calls.Load()).To(Equal(int32(4)))
		Expect(b.Status().State).To(Equal(bridge.StateStreaming))
	})

	It("keeps the stream open when publishing fails", func() {
		pub.onPublish = func(int) error { return errPublish }
		u := newUpstream(func(w http.ResponseWriter, r *http.Request) {
			sseHeaders(w)
			writeChunks(w, "event: a\ndata: {}\n\n", "event: b\ndata: {}\n\n")
			holdOpen(r)
		})
		b := newBridge(testConfig(u), pub, m)
		runBridge(b)

		Eventually(func() float64 { return testutil.ToFloat64(m.PublishFailures) }).Should(Equal(2.0))
		Consistently(u.Requests, 100*time.Millisecond).Should(Equal(1))
		Expect(b.Status().State).To(Equal(bridge.StateStreaming))
	})

	It("restarts the worker after a panic", func() {
		pub.onPublish = func(n int) error {
			if n == 1 {
				panic("publisher exploded")
			}
			return nil
		}
		u := newUpstream(func(w http.ResponseWriter, r *http.Request) {
			sseHeaders(w)
			writeChunks(w, "event: a\ndata: {}\n\n")
			holdOpen(r)
		})
		b := newBridge(testConfig(u), pub, m)
		runBridge(b)

		Eventually(func() float64 { return testutil.ToFloat64(m.WorkerRestarts) }).Should(Equal(1.0))
		Eventually(pub.Events).Should(Equal([]string{"a"}))
		Expect(u.Requests()).To(Equal(2))
		Expect(b.Status().Restarts).To(Equal(1))
	})

	It("returns to idle on shutdown", func() {
		u := newUpstream(func(w http.ResponseWriter, r *http.Request) {
			sseHeaders(w)
			holdOpen(r)
		})
		b := newBridge(testConfig(u), pub, m)
		stop := runBridge(b)

		Eventually(func() bridge.State { return b.Status().State }).Should(Equal(bridge.StateStreaming))
		stop()

		Expect(b.Status().State).To(Equal(bridge.StateIdle))
		Expect(b.Status().ConnectedSince).To(BeNil())
		Expect(b.Status().LastError).To(BeEmpty())
	})
})
