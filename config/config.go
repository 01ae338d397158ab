package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML/JSON support for values like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full engine configuration.
type Config struct {
	Processor ProcessorConfig   `yaml:"processor" json:"processor"`
	Loader    LoaderConfig      `yaml:"loader" json:"loader"`
	Cache     CacheConfig       `yaml:"cache" json:"cache"`
	NATS      NATSConfig        `yaml:"nats" json:"nats"`
	Logging   LoggingConfig     `yaml:"logging" json:"logging"`
	Preload   map[string]string `yaml:"preload,omitempty" json:"preload,omitempty"`
}

// ProcessorConfig controls context processing behavior.
type ProcessorConfig struct {
	// Base is the default document base IRI.
	Base string `yaml:"base,omitempty" json:"base,omitempty"`

	// ProcessingMode selects json-ld-1.0 or json-ld-1.1.
	ProcessingMode string `yaml:"processing_mode" json:"processing_mode"`

	// MaxRemoteContexts is the remote-context fetch ceiling per parse.
	MaxRemoteContexts int `yaml:"max_remote_contexts" json:"max_remote_contexts"`

	// Validate makes loading and parsing failures strict errors.
	Validate bool `yaml:"validate" json:"validate"`
}

// LoaderConfig controls the HTTP document loader.
type LoaderConfig struct {
	// Enabled turns remote context fetching on.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Timeout bounds a single fetch.
	Timeout Duration `yaml:"timeout" json:"timeout"`

	// RateLimit caps outbound fetches per second. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`

	// Burst is the rate limiter burst size.
	Burst int `yaml:"burst" json:"burst"`

	// MaxBodyBytes bounds the response body size.
	MaxBodyBytes int64 `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// CacheConfig controls the in-process document cache.
type CacheConfig struct {
	// Size is the maximum number of cached documents. Zero disables the
	// in-process cache.
	Size int `yaml:"size" json:"size"`

	// MetricsPrefix registers Prometheus metrics under this prefix when
	// non-empty.
	MetricsPrefix string `yaml:"metrics_prefix,omitempty" json:"metrics_prefix,omitempty"`
}

// NATSConfig controls the optional shared JetStream KV document cache.
type NATSConfig struct {
	// URL of the NATS server. Empty disables the KV cache.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// Bucket is the KV bucket name.
	Bucket string `yaml:"bucket" json:"bucket"`

	// TTL expires cached documents.
	TTL Duration `yaml:"ttl" json:"ttl"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format" json:"format"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Processor: ProcessorConfig{
			ProcessingMode:    "json-ld-1.1",
			MaxRemoteContexts: 8,
			Validate:          true,
		},
		Loader: LoaderConfig{
			Enabled:      true,
			Timeout:      Duration(10 * time.Second),
			RateLimit:    0,
			Burst:        1,
			MaxBodyBytes: 8 << 20,
		},
		Cache: CacheConfig{
			Size: 64,
		},
		NATS: NATSConfig{
			Bucket: "semld_contexts",
			TTL:    Duration(24 * time.Hour),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Loader loads configuration from layered YAML files with environment
// overrides on top.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a configuration loader with the SEMLD env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "SEMLD"}
}

// AddLayer adds a configuration file layer. Later layers override earlier
// ones key by key.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation turns schema validation of the merged config on or off.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file.
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges defaults, file layers, and environment overrides.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range l.layers {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		// Unmarshaling onto the accumulated config only overrides keys
		// present in the layer.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// applyEnvOverrides layers SEMLD_* environment variables over cfg.
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv(l.envPrefix + "_BASE"); val != "" {
		cfg.Processor.Base = val
	}
	if val := os.Getenv(l.envPrefix + "_PROCESSING_MODE"); val != "" {
		cfg.Processor.ProcessingMode = val
	}
	if val := os.Getenv(l.envPrefix + "_MAX_REMOTE_CONTEXTS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s_MAX_REMOTE_CONTEXTS: %w", l.envPrefix, err)
		}
		cfg.Processor.MaxRemoteContexts = n
	}
	if val := os.Getenv(l.envPrefix + "_VALIDATE"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %s_VALIDATE: %w", l.envPrefix, err)
		}
		cfg.Processor.Validate = b
	}
	if val := os.Getenv(l.envPrefix + "_CACHE_SIZE"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s_CACHE_SIZE: %w", l.envPrefix, err)
		}
		cfg.Cache.Size = n
	}
	if val := os.Getenv(l.envPrefix + "_NATS_URL"); val != "" {
		cfg.NATS.URL = val
	}
	if val := os.Getenv(l.envPrefix + "_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = strings.ToLower(val)
	}
	if val := os.Getenv(l.envPrefix + "_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = strings.ToLower(val)
	}
	return nil
}
