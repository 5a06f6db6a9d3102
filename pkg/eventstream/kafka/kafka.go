// Package kafka publishes bridged events to a Kafka topic. Pub/sub topics such
// as "messages:<tenant>" are not valid Kafka topic names, so every message is
// written to one configured Kafka topic and keyed by its pub/sub topic. Keying
// keeps a tenant's events on one partition and therefore in order.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/gatewaybridge/pkg/eventstream"
)

const (
	// HeaderEvent carries the event name.
	HeaderEvent = "event"

	// HeaderTenant carries the tenant ID.
	HeaderTenant = "tenant_id"

	defaultBatchTimeout = 10 * time.Millisecond
)

// Config is the Kafka publisher configuration.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the Kafka topic all messages are written to.
	Topic string

	// BatchTimeout bounds how long the writer waits to fill a batch.
	// Defaults to 10ms so single events are not held back.
	BatchTimeout time.Duration
}

// Publisher writes messages with a kafka-go Writer.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka publisher.
func NewPublisher(c Config, logger *slog.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = defaultBatchTimeout
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           c.BatchTimeout,
		AllowAutoTopicCreation: true,
	}

	return &Publisher{
		writer: w,
		logger: logger,
	}, nil
}

// Publish writes msg synchronously.
func (p *Publisher) Publish(ctx context.Context, msg *eventstream.Message) error {
	if msg == nil {
		return eventstream.ErrNilMessage
	}

	err := p.writer.WriteMessages(ctx, toKafkaMessage(msg))
	if err != nil {
		return fmt.Errorf("writing to kafka topic %s: %w", p.writer.Topic, err)
	}

	p.logger.Debug("published message",
		"topic", msg.Topic,
		"event", msg.Event,
		"kafka_topic", p.writer.Topic,
	)

	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func toKafkaMessage(msg *eventstream.Message) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(msg.Topic),
		Value: msg.Payload,
		Headers: []kafkago.Header{
			{Key: HeaderEvent, Value: []byte(msg.Event)},
			{Key: HeaderTenant, Value: []byte(msg.TenantID)},
		},
	}
}
