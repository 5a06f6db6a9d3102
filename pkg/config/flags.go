package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --gateway-url
// on both "bridge run" and "bridge health").
type Flag struct {
	// Name is the long flag name (e.g. "gateway-url").
	Name string

	// Shorthand is the one-letter short flag (e.g. "g"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "gateway.base_url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagGatewayURL        = "gateway-url"
	FlagStreamPath        = "stream-path"
	FlagTenant            = "tenant"
	FlagReadTimeout       = "read-timeout-ms"
	FlagInitialBackoff    = "initial-backoff-ms"
	FlagMaxBackoff        = "max-backoff-ms"
	FlagDefaultEvent      = "default-event"
	FlagPublisherProvider = "publisher"
	FlagPublisherTarget   = "publisher-target"
	FlagKafkaTopic        = "kafka-topic"
	FlagPublishTimeout    = "publish-timeout-ms"
	FlagDiagnosticsPath   = "diagnostics-path"
	FlagAPIListen         = "api-listen"
)

// Flags is the registry of every bridge flag.
var Flags = FlagSet{
	FlagGatewayURL:        {Name: "gateway-url", Shorthand: "g", ViperKey: "gateway.base_url", Description: "Gateway base URL"},
	FlagStreamPath:        {Name: "stream-path", ViperKey: "gateway.stream_path", Description: "Gateway stream endpoint path"},
	FlagTenant:            {Name: "tenant", Shorthand: "t", ViperKey: "stream.tenant_id", Description: "Tenant whose stream is bridged"},
	FlagReadTimeout:       {Name: "read-timeout-ms", ViperKey: "stream.read_timeout_ms", Description: "Reconnect after this many milliseconds without data"},
	FlagInitialBackoff:    {Name: "initial-backoff-ms", ViperKey: "stream.initial_backoff_ms", Description: "First reconnect delay in milliseconds"},
	FlagMaxBackoff:        {Name: "max-backoff-ms", ViperKey: "stream.max_backoff_ms", Description: "Reconnect delay cap in milliseconds"},
	FlagDefaultEvent:      {Name: "default-event", ViperKey: "stream.default_event", Description: "Event name for frames without an event line (default: drop them)"},
	FlagPublisherProvider: {Name: "publisher", Shorthand: "p", ViperKey: "publisher.provider", Description: "Publisher provider (redis, kafka, nop)"},
	FlagPublisherTarget:   {Name: "publisher-target", ViperKey: "publisher.target", Description: "Redis address or comma separated Kafka brokers"},
	FlagKafkaTopic:        {Name: "kafka-topic", ViperKey: "publisher.kafka_topic", Description: "Kafka topic for the kafka publisher"},
	FlagPublishTimeout:    {Name: "publish-timeout-ms", ViperKey: "publisher.timeout_ms", Description: "Timeout for a single publish in milliseconds"},
	FlagDiagnosticsPath:   {Name: "diagnostics-path", ViperKey: "diagnostics.path", Description: "Diagnostics log file, relative to the config dir"},
	FlagAPIListen:         {Name: "api-listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the status API to listen on"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
