// Package config loads the service configuration from an optional YAML file
// overlaid with WUFFCHAT_*-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the environment overrides, e.g. WUFFCHAT_PROVIDER.
const EnvPrefix = "WUFFCHAT_"

// ProviderType selects the text generation backend.
type ProviderType string

// Recognized providers.
const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
)

// RedisConfig holds the Redis connection settings for feedback persistence.
type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// Config is the service configuration.
type Config struct {
	// Provider selects the generation backend.
	Provider ProviderType `koanf:"provider"`
	// Model is the provider-specific model name; empty uses the adapter's
	// default.
	Model string `koanf:"model"`
	// Temperature for free-form generation.
	Temperature float64 `koanf:"temperature"`

	// MatchThreshold is the search distance below which a symptom counts as
	// matched.
	MatchThreshold float64 `koanf:"match_threshold"`
	// FeedbackTTLDays is how long feedback records are retained.
	FeedbackTTLDays int `koanf:"feedback_ttl_days"`

	Redis RedisConfig `koanf:"redis"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Provider:        ProviderOpenAI,
		Temperature:     0.7,
		MatchThreshold:  0.6,
		FeedbackTTLDays: 90,
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load reads the configuration from the given YAML file (missing files are
// fine), then overlays WUFFCHAT_* environment variables. Nested keys use
// underscores in the environment: WUFFCHAT_REDIS_ADDR -> redis.addr.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		// Only redis has nested keys; everything else maps flat.
		if rest, ok := strings.CutPrefix(key, "redis_"); ok {
			return "redis." + rest
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

var validProviders = map[ProviderType]bool{
	ProviderOpenAI:    true,
	ProviderAnthropic: true,
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be openai or anthropic", c.Provider)
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold must be in (0, 1], got %v", c.MatchThreshold)
	}
	if c.FeedbackTTLDays <= 0 {
		return fmt.Errorf("feedback_ttl_days must be positive, got %d", c.FeedbackTTLDays)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid log_format %q: must be json or text", c.LogFormat)
	}
	return nil
}
