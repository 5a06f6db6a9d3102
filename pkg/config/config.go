package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/gatewaybridge/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// orderedKeys is the stable, logical key order matching the TOML section layout.
var orderedKeys = []string{
	"gateway.base_url",
	"gateway.stream_path",
	"stream.tenant_id",
	"stream.read_timeout_ms",
	"stream.initial_backoff_ms",
	"stream.max_backoff_ms",
	"stream.default_event",
	"publisher.provider",
	"publisher.target",
	"publisher.kafka_topic",
	"publisher.timeout_ms",
	"diagnostics.enabled",
	"diagnostics.path",
	"api.enabled",
	"api.listen",
}

type Configer struct {
	ddm        *dotdir.Manager
	dir        string
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .bridge/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.dir = target
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the list of all supported configuration key names
// in a stable order.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	// Append any keys in the map that we missed in the ordered list.
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

// GetTarget returns the path of config.toml.
func (c *Configer) GetTarget() string {
	return c.targetPath
}

// Dir returns the resolved .bridge/ directory.
func (c *Configer) Dir() string {
	return c.dir
}

// LoadConfig loads the configuration from config.toml in the target .bridge/ directory.
// If the file does not exist, returns NewDefaultConfig() so callers always receive
// a fully-populated Config with sane defaults. Fields explicitly set in the file
// override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	// Merge in defaults: fill in any zero-value fields from the loaded config
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
// Booleans are left alone: false is a meaningful setting.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = defaults.Gateway.BaseURL
	}
	if cfg.Gateway.StreamPath == "" {
		cfg.Gateway.StreamPath = defaults.Gateway.StreamPath
	}

	if cfg.Stream.ReadTimeoutMs == 0 {
		cfg.Stream.ReadTimeoutMs = defaults.Stream.ReadTimeoutMs
	}
	if cfg.Stream.InitialBackoffMs == 0 {
		cfg.Stream.InitialBackoffMs = defaults.Stream.InitialBackoffMs
	}
	if cfg.Stream.MaxBackoffMs == 0 {
		cfg.Stream.MaxBackoffMs = defaults.Stream.MaxBackoffMs
	}

	if cfg.Publisher.Provider == "" {
		cfg.Publisher.Provider = defaults.Publisher.Provider
	}
	if cfg.Publisher.Target == "" {
		cfg.Publisher.Target = defaults.Publisher.Target
	}
	if cfg.Publisher.KafkaTopic == "" {
		cfg.Publisher.KafkaTopic = defaults.Publisher.KafkaTopic
	}
	if cfg.Publisher.TimeoutMs == 0 {
		cfg.Publisher.TimeoutMs = defaults.Publisher.TimeoutMs
	}

	if cfg.Diagnostics.Path == "" {
		cfg.Diagnostics.Path = defaults.Diagnostics.Path
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
}

// SaveConfig persists the configuration to config.toml in the target .bridge/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with sane defaults for the named publisher preset.
// Supported presets: "redis", "kafka", "nop".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "redis":
		return cfg, nil

	case "kafka":
		cfg.Publisher.Provider = "kafka"
		cfg.Publisher.Target = "localhost:9092"
		return cfg, nil

	case "nop":
		cfg.Publisher.Provider = "nop"
		cfg.Publisher.Target = ""
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: redis, kafka, nop)", name)
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"redis", "kafka", "nop"}
}

// ParseConfigTOML parses raw TOML bytes into a Config. Fields absent from
// data keep their defaults.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}

// ResolvePath resolves a possibly relative path against dir. An empty path
// stays empty.
func ResolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
