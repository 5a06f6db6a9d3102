package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gatewaybridge/pkg/gateway"
)

func mustParse(raw string) *url.URL {
	u, err := gateway.ParseBaseURL(raw)
	Expect(err).NotTo(HaveOccurred())
	return u
}

var _ = Describe("ParseBaseURL", func() {
	DescribeTable("rejects invalid base URLs",
		func(raw string) {
			_, err := gateway.ParseBaseURL(raw)
			Expect(err).To(MatchError(gateway.ErrBaseURL))
		},
		Entry("empty", ""),
		Entry("relative", "/api"),
		Entry("no host", "http://"),
		Entry("wrong scheme", "ftp://gateway.local"),
	)

	It("accepts http and https", func() {
		Expect(mustParse("http://localhost:4000").Host).To(Equal("localhost:4000"))
		Expect(mustParse("https://gateway.example.com").Scheme).To(Equal("https"))
	})
})

var _ = Describe("Client", func() {
	Describe("StreamRequest", func() {
		It("builds the stream URL with the tenant query and SSE headers", func() {
			c, err := gateway.NewClient(mustParse("http://localhost:4000"))
			Expect(err).NotTo(HaveOccurred())

			req, err := c.StreamRequest(context.Background(), gateway.DefaultStreamPath, "acme")
			Expect(err).NotTo(HaveOccurred())

			Expect(req.Method).To(Equal(http.MethodGet))
			Expect(req.URL.String()).To(Equal("http://localhost:4000/api/v1/messages/stream?tenant_id=acme"))
			Expect(req.Header.Get("Accept")).To(Equal("text/event-stream"))
			Expect(req.Header.Get("Cache-Control")).To(Equal("no-cache"))
			Expect(req.Header.Get("Connection")).To(Equal("keep-alive"))
		})

		It("joins paths against a base with a path prefix", func() {
			c, err := gateway.NewClient(mustParse("https://example.com/gw/"))
			Expect(err).NotTo(HaveOccurred())

			Expect(c.StreamURL("/stream", "a b")).To(Equal("https://example.com/gw/stream?tenant_id=a+b"))
		})
	})

	Describe("Health", func() {
		It("reports a healthy gateway", func() {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				_, _ = w.Write([]byte("ok\n"))
			}))
			defer srv.Close()

			c, err := gateway.NewClient(mustParse(srv.URL))
			Expect(err).NotTo(HaveOccurred())

			status, err := c.Health(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Healthy).To(BeTrue())
			Expect(status.StatusCode).To(Equal(http.StatusOK))
			Expect(status.Body).To(Equal("ok"))
			Expect(gotPath).To(Equal("/health"))
		})

		It("reports an unhealthy gateway without an error", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			c, err := gateway.NewClient(mustParse(srv.URL))
			Expect(err).NotTo(HaveOccurred())

			status, err := c.Health(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Healthy).To(BeFalse())
			Expect(status.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})

		It("returns an error when the gateway is unreachable", func() {
			srv := httptest.NewServer(http.NotFoundHandler())
			base := mustParse(srv.URL)
			srv.Close()

			c, err := gateway.NewClient(base)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.Health(context.Background())
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("IsEventStream", func() {
	DescribeTable("content types",
		func(ct string, ok bool) {
			Expect(gateway.IsEventStream(ct)).To(Equal(ok))
		},
		Entry("exact", "text/event-stream", true),
		Entry("with charset", "text/event-stream; charset=utf-8", true),
		Entry("case insensitive", "Text/Event-Stream", true),
		Entry("absent", "", true),
		Entry("json", "application/json", false),
	)
})
