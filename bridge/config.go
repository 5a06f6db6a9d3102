package bridge

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/papercomputeco/gatewaybridge/pkg/backoff"
	"github.com/papercomputeco/gatewaybridge/pkg/gateway"
)

const (
	// DefaultReadTimeout is how long a stream may stay silent before it is
	// considered dead.
	DefaultReadTimeout = 30 * time.Second

	// DefaultPublishTimeout bounds a single publish call.
	DefaultPublishTimeout = 5 * time.Second
)

// Config is the configuration for one bridge. It is read once by New and
// never changes afterwards.
type Config struct {
	// TenantID scopes the upstream stream and the publish topic. Required.
	TenantID string

	// GatewayURL is the absolute http(s) base URL of the Gateway. Required.
	GatewayURL *url.URL

	// StreamPath is the stream endpoint path, relative to GatewayURL.
	StreamPath string

	// InitialBackoff is the first reconnect delay.
	InitialBackoff time.Duration

	// MaxBackoff caps the reconnect delay.
	MaxBackoff time.Duration

	// ReadTimeout is the inactivity timeout on an open stream.
	ReadTimeout time.Duration

	// DefaultEvent names frames that have data but no event line. Empty
	// drops them.
	DefaultEvent string

	// PublishTimeout bounds each publish call.
	PublishTimeout time.Duration
}

// withDefaults returns c with zero values replaced by defaults. Negative
// values are left for validate to reject.
func (c Config) withDefaults() Config {
	if c.StreamPath == "" {
		c.StreamPath = gateway.DefaultStreamPath
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = backoff.DefaultInitial
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = backoff.DefaultMax
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.PublishTimeout == 0 {
		c.PublishTimeout = DefaultPublishTimeout
	}
	return c
}

func (c Config) validate() error {
	var errs []error

	if c.TenantID == "" {
		errs = append(errs, errors.New("tenant ID is required"))
	}
	if c.GatewayURL == nil {
		errs = append(errs, errors.New("gateway URL is required"))
	} else if _, err := gateway.ParseBaseURL(c.GatewayURL.String()); err != nil {
		errs = append(errs, err)
	}
	if c.InitialBackoff <= 0 {
		errs = append(errs, fmt.Errorf("initial backoff must be positive, got %s", c.InitialBackoff))
	}
	if c.MaxBackoff <= 0 {
		errs = append(errs, fmt.Errorf("max backoff must be positive, got %s", c.MaxBackoff))
	}
	if c.InitialBackoff > 0 && c.MaxBackoff > 0 && c.MaxBackoff < c.InitialBackoff {
		errs = append(errs, fmt.Errorf("max backoff %s is less than initial backoff %s", c.MaxBackoff, c.InitialBackoff))
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("read timeout must be positive, got %s", c.ReadTimeout))
	}
	if c.PublishTimeout <= 0 {
		errs = append(errs, fmt.Errorf("publish timeout must be positive, got %s", c.PublishTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
