package bridge

import (
	"errors"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("errors", func() {
	It("formats connect errors with and without a status", func() {
		Expect((&ConnectError{StatusCode: 502, Err: ErrUnexpectedStatus}).Error()).
			To(Equal("connecting to gateway: status 502: unexpected status"))
		Expect((&ConnectError{Err: io.ErrUnexpectedEOF}).Error()).
			To(Equal("connecting to gateway: unexpected EOF"))
	})

	It("unwraps to the cause", func() {
		var err error = &StreamError{Err: ErrInactivityTimeout}
		Expect(errors.Is(err, ErrInactivityTimeout)).To(BeTrue())

		var se *StreamError
		Expect(errors.As(err, &se)).To(BeTrue())
	})

	DescribeTable("failureReason",
		func(err error, reason string) {
			Expect(failureReason(err)).To(Equal(reason))
		},
		Entry("inactivity", &StreamError{Err: ErrInactivityTimeout}, "inactivity"),
		Entry("remote close", &StreamError{Err: ErrStreamClosed}, "closed"),
		Entry("read error", &StreamError{Err: io.ErrClosedPipe}, "read"),
		Entry("status", &ConnectError{StatusCode: 500, Err: ErrUnexpectedStatus}, "status"),
		Entry("content type", &ConnectError{StatusCode: 200, Err: ErrNotEventStream}, "content_type"),
		Entry("transport", &ConnectError{Err: io.EOF}, "transport"),
	)
})

var _ = Describe("State", func() {
	It("marshals by name", func() {
		b, err := StateBackoff.MarshalText()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal("backoff"))
		Expect(State(42).String()).To(Equal("unknown"))
	})
})
