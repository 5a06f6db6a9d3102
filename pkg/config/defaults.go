package config

const (
	defaultGatewayURL = "http://localhost:4000"
	defaultStreamPath = "/api/v1/messages/stream"

	defaultReadTimeoutMs    = 30000
	defaultInitialBackoffMs = 1000
	defaultMaxBackoffMs     = 30000

	defaultPublisherProvider = "redis"
	defaultPublisherTarget   = "localhost:6379"
	defaultKafkaTopic        = "gateway.messages"
	defaultPublishTimeoutMs  = 5000

	defaultDiagnosticsPath = "bridge.log"

	defaultAPIListen = ":8090"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Gateway: GatewayConfig{
			BaseURL:    defaultGatewayURL,
			StreamPath: defaultStreamPath,
		},
		Stream: StreamConfig{
			ReadTimeoutMs:    defaultReadTimeoutMs,
			InitialBackoffMs: defaultInitialBackoffMs,
			MaxBackoffMs:     defaultMaxBackoffMs,
		},
		Publisher: PublisherConfig{
			Provider:   defaultPublisherProvider,
			Target:     defaultPublisherTarget,
			KafkaTopic: defaultKafkaTopic,
			TimeoutMs:  defaultPublishTimeoutMs,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled: true,
			Path:    defaultDiagnosticsPath,
		},
		API: APIConfig{
			Enabled: true,
			Listen:  defaultAPIListen,
		},
	}
}
