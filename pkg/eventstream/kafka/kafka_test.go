package kafka

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gatewaybridge/pkg/eventstream"
	"github.com/papercomputeco/gatewaybridge/pkg/logger"
)

var _ = Describe("NewPublisher", func() {
	It("requires brokers", func() {
		_, err := NewPublisher(Config{Topic: "gateway.messages"}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("broker")))
	})

	It("requires a topic", func() {
		_, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("topic")))
	})

	It("configures the writer", func() {
		p, err := NewPublisher(Config{
			Brokers: []string{"localhost:9092"},
			Topic:   "gateway.messages",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		Expect(p.writer.Topic).To(Equal("gateway.messages"))
		Expect(p.writer.BatchTimeout).To(Equal(defaultBatchTimeout))
		Expect(p.writer.Addr.String()).To(Equal("localhost:9092"))
	})

	It("rejects nil messages", func() {
		p, err := NewPublisher(Config{
			Brokers: []string{"localhost:9092"},
			Topic:   "gateway.messages",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		Expect(p.Publish(context.Background(), nil)).To(MatchError(eventstream.ErrNilMessage))
	})
})

var _ = Describe("toKafkaMessage", func() {
	It("keys by pub/sub topic and carries event headers", func() {
		msg, err := eventstream.NewMessage("acme", eventstream.Envelope{
			Event: "message.created",
			Data:  []byte(`{"id":1}`),
		})
		Expect(err).NotTo(HaveOccurred())

		km := toKafkaMessage(msg)
		Expect(string(km.Key)).To(Equal("messages:acme"))
		Expect(km.Value).To(MatchJSON(`{"event":"message.created","data":{"id":1}}`))
		Expect(km.Headers).To(HaveLen(2))
		Expect(km.Headers[0].Key).To(Equal(HeaderEvent))
		Expect(string(km.Headers[0].Value)).To(Equal(eventstream.EventMessage))
		Expect(km.Headers[1].Key).To(Equal(HeaderTenant))
		Expect(string(km.Headers[1].Value)).To(Equal("acme"))
	})
})
