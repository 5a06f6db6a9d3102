// Package eventstreamutils builds an eventstream.Publisher from configuration.
package eventstreamutils

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/gatewaybridge/pkg/eventstream"
	"github.com/papercomputeco/gatewaybridge/pkg/eventstream/kafka"
	"github.com/papercomputeco/gatewaybridge/pkg/eventstream/nop"
	"github.com/papercomputeco/gatewaybridge/pkg/eventstream/redis"
)

const (
	ProviderRedis = "redis"
	ProviderKafka = "kafka"
	ProviderNop   = "nop"
)

type NewPublisherOpts struct {
	// ProviderType is one of "redis", "kafka" or "nop".
	ProviderType string

	// Target is the Redis address, or a comma separated Kafka broker list.
	Target string

	// KafkaTopic is the Kafka topic used by the kafka provider.
	KafkaTopic string

	Logger *slog.Logger
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case ProviderRedis:
		return redis.NewPublisher(redis.Config{
			Addr: o.Target,
		}, o.Logger)
	case ProviderKafka:
		return kafka.NewPublisher(kafka.Config{
			Brokers: splitBrokers(o.Target),
			Topic:   o.KafkaTopic,
		}, o.Logger)
	case ProviderNop:
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("%w: %q", eventstream.ErrUnknownProvider, o.ProviderType)
	}
}

// ValidProviders lists the supported publisher providers.
func ValidProviders() []string {
	return []string{ProviderRedis, ProviderKafka, ProviderNop}
}

func splitBrokers(target string) []string {
	var brokers []string
	for _, b := range strings.Split(target, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
