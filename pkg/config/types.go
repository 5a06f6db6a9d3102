package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent bridge configuration stored as config.toml
// in the .bridge/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Gateway     GatewayConfig     `toml:"gateway"`
	Stream      StreamConfig      `toml:"stream"`
	Publisher   PublisherConfig   `toml:"publisher"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	API         APIConfig         `toml:"api"`
}

// GatewayConfig holds the upstream Gateway location.
type GatewayConfig struct {
	BaseURL    string `toml:"base_url,omitempty"`
	StreamPath string `toml:"stream_path,omitempty"`
}

// StreamConfig holds per-stream settings. Durations are in milliseconds.
type StreamConfig struct {
	TenantID         string `toml:"tenant_id,omitempty"`
	ReadTimeoutMs    uint   `toml:"read_timeout_ms,omitempty"`
	InitialBackoffMs uint   `toml:"initial_backoff_ms,omitempty"`
	MaxBackoffMs     uint   `toml:"max_backoff_ms,omitempty"`
	DefaultEvent     string `toml:"default_event,omitempty"`
}

// PublisherConfig selects the downstream publish transport.
type PublisherConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	KafkaTopic string `toml:"kafka_topic,omitempty"`
	TimeoutMs  uint   `toml:"timeout_ms,omitempty"`
}

// DiagnosticsConfig holds the diagnostics log settings. A relative Path is
// resolved against the .bridge/ directory.
type DiagnosticsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// APIConfig holds status API server settings.
type APIConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"gateway.base_url": {
		get: func(c *Config) string { return c.Gateway.BaseURL },
		set: func(c *Config, v string) error { c.Gateway.BaseURL = v; return nil },
	},
	"gateway.stream_path": {
		get: func(c *Config) string { return c.Gateway.StreamPath },
		set: func(c *Config, v string) error { c.Gateway.StreamPath = v; return nil },
	},
	"stream.tenant_id": {
		get: func(c *Config) string { return c.Stream.TenantID },
		set: func(c *Config, v string) error { c.Stream.TenantID = v; return nil },
	},
	"stream.read_timeout_ms": uintKey("stream.read_timeout_ms", func(c *Config) *uint {
		return &c.Stream.ReadTimeoutMs
	}),
	"stream.initial_backoff_ms": uintKey("stream.initial_backoff_ms", func(c *Config) *uint {
		return &c.Stream.InitialBackoffMs
	}),
	"stream.max_backoff_ms": uintKey("stream.max_backoff_ms", func(c *Config) *uint {
		return &c.Stream.MaxBackoffMs
	}),
	"stream.default_event": {
		get: func(c *Config) string { return c.Stream.DefaultEvent },
		set: func(c *Config, v string) error { c.Stream.DefaultEvent = v; return nil },
	},
	"publisher.provider": {
		get: func(c *Config) string { return c.Publisher.Provider },
		set: func(c *Config, v string) error { c.Publisher.Provider = v; return nil },
	},
	"publisher.target": {
		get: func(c *Config) string { return c.Publisher.Target },
		set: func(c *Config, v string) error { c.Publisher.Target = v; return nil },
	},
	"publisher.kafka_topic": {
		get: func(c *Config) string { return c.Publisher.KafkaTopic },
		set: func(c *Config, v string) error { c.Publisher.KafkaTopic = v; return nil },
	},
	"publisher.timeout_ms": uintKey("publisher.timeout_ms", func(c *Config) *uint {
		return &c.Publisher.TimeoutMs
	}),
	"diagnostics.enabled": boolKey("diagnostics.enabled", func(c *Config) *bool {
		return &c.Diagnostics.Enabled
	}),
	"diagnostics.path": {
		get: func(c *Config) string { return c.Diagnostics.Path },
		set: func(c *Config, v string) error { c.Diagnostics.Path = v; return nil },
	},
	"api.enabled": boolKey("api.enabled", func(c *Config) *bool {
		return &c.API.Enabled
	}),
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
}
