// Package redis publishes bridged events over Redis pub/sub. Each message is
// sent with PUBLISH to its topic channel; the body is the JSON encoded
// eventstream.Message so subscribers receive the event name with the payload.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/papercomputeco/gatewaybridge/pkg/eventstream"
)

// Config is the Redis publisher configuration.
type Config struct {
	// Addr is the Redis host:port.
	Addr string

	// Username and Password are optional ACL credentials.
	Username string
	Password string

	// DB selects the logical database.
	DB int
}

// Publisher publishes messages with Redis PUBLISH.
type Publisher struct {
	client *goredis.Client
	logger *slog.Logger
}

// NewPublisher creates a Redis publisher. The connection is established lazily
// by the client on first use.
func NewPublisher(c Config, logger *slog.Logger) (*Publisher, error) {
	if c.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     c.Addr,
		Username: c.Username,
		Password: c.Password,
		DB:       c.DB,
	})

	return &Publisher{
		client: client,
		logger: logger,
	}, nil
}

// Ping checks the Redis server is reachable.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Publish sends msg to the channel named by msg.Topic.
func (p *Publisher) Publish(ctx context.Context, msg *eventstream.Message) error {
	if msg == nil {
		return eventstream.ErrNilMessage
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	receivers, err := p.client.Publish(ctx, msg.Topic, body).Result()
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", msg.Topic, err)
	}

	p.logger.Debug("published message",
		"topic", msg.Topic,
		"event", msg.Event,
		"receivers", receivers,
	)

	return nil
}

// Close closes the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
