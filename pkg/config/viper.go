package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/gatewaybridge/pkg/dotdir"
)

// envAliases are short environment variable names accepted in addition to
// the BRIDGE_ prefixed form. The prefixed form wins when both are set.
var envAliases = map[string][]string{
	"gateway.base_url": {"GATEWAY_URL"},
	"stream.tenant_id": {"TENANT_ID"},
}

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the BRIDGE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (BRIDGE_STREAM_TENANT_ID, GATEWAY_URL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
//
// The resolved .bridge/ directory is stored under the "config_dir" key.
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
		v.Set("config_dir", target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: BRIDGE_GATEWAY_BASE_URL, BRIDGE_DIAGNOSTICS_PATH, etc.
	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		envs := append([]string{envName(key)}, aliases...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	return v, nil
}

func envName(key string) string {
	return "BRIDGE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Gateway
	v.SetDefault("gateway.base_url", d.Gateway.BaseURL)
	v.SetDefault("gateway.stream_path", d.Gateway.StreamPath)

	// Stream
	v.SetDefault("stream.tenant_id", d.Stream.TenantID)
	v.SetDefault("stream.read_timeout_ms", d.Stream.ReadTimeoutMs)
	v.SetDefault("stream.initial_backoff_ms", d.Stream.InitialBackoffMs)
	v.SetDefault("stream.max_backoff_ms", d.Stream.MaxBackoffMs)
	v.SetDefault("stream.default_event", d.Stream.DefaultEvent)

	// Publisher
	v.SetDefault("publisher.provider", d.Publisher.Provider)
	v.SetDefault("publisher.target", d.Publisher.Target)
	v.SetDefault("publisher.kafka_topic", d.Publisher.KafkaTopic)
	v.SetDefault("publisher.timeout_ms", d.Publisher.TimeoutMs)

	// Diagnostics
	v.SetDefault("diagnostics.enabled", d.Diagnostics.Enabled)
	v.SetDefault("diagnostics.path", d.Diagnostics.Path)

	// API
	v.SetDefault("api.enabled", d.API.Enabled)
	v.SetDefault("api.listen", d.API.Listen)
}

// FromViper reads every config key out of v into a Config.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Gateway: GatewayConfig{
			BaseURL:    v.GetString("gateway.base_url"),
			StreamPath: v.GetString("gateway.stream_path"),
		},
		Stream: StreamConfig{
			TenantID:         v.GetString("stream.tenant_id"),
			ReadTimeoutMs:    v.GetUint("stream.read_timeout_ms"),
			InitialBackoffMs: v.GetUint("stream.initial_backoff_ms"),
			MaxBackoffMs:     v.GetUint("stream.max_backoff_ms"),
			DefaultEvent:     v.GetString("stream.default_event"),
		},
		Publisher: PublisherConfig{
			Provider:   v.GetString("publisher.provider"),
			Target:     v.GetString("publisher.target"),
			KafkaTopic: v.GetString("publisher.kafka_topic"),
			TimeoutMs:  v.GetUint("publisher.timeout_ms"),
		},
		Diagnostics: DiagnosticsConfig{
			Enabled: v.GetBool("diagnostics.enabled"),
			Path:    v.GetString("diagnostics.path"),
		},
		API: APIConfig{
			Enabled: v.GetBool("api.enabled"),
			Listen:  v.GetString("api.listen"),
		},
	}
}
