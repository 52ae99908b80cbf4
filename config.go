package dialogstate

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable thresholds of the state tracker and the settings
// of the optional trace store.
type Config struct {
	// Slot activity at or above this value lets the turn touch the slot.
	ActivationThreshold float64 `yaml:"activation_threshold"`

	// Requested probability strictly above this value marks a slot as requested.
	RequestedThreshold float64 `yaml:"requested_threshold"`

	// Similarity ratio (0-100) at which two slot values are the same value.
	FuzzyThreshold int `yaml:"fuzzy_threshold"`

	// Longest span, in tokens, considered when decoding start/end
	// distributions. 0 means unbounded.
	MaxSpanLength int `yaml:"max_span_length"`

	Store StoreConfig `yaml:"store"`
}

// StoreConfig selects where finished traces and checkpoints are kept.
type StoreConfig struct {
	Type      string `yaml:"type"` // memory, redis, or empty for none
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	TTL       string `yaml:"ttl"`
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		ActivationThreshold: 0.5,
		RequestedThreshold:  0.5,
		FuzzyThreshold:      90,
		MaxSpanLength:       0,
		Store: StoreConfig{
			TTL: "24h",
		},
	}
}

// LoadConfig reads a YAML config file over the defaults, then applies DST_*
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v, err := strconv.ParseFloat(os.Getenv("DST_ACTIVATION_THRESHOLD"), 64); err == nil {
		c.ActivationThreshold = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("DST_REQUESTED_THRESHOLD"), 64); err == nil {
		c.RequestedThreshold = v
	}
	if v, err := strconv.Atoi(os.Getenv("DST_FUZZY_THRESHOLD")); err == nil {
		c.FuzzyThreshold = v
	}
	if v, err := strconv.Atoi(os.Getenv("DST_MAX_SPAN_LENGTH")); err == nil {
		c.MaxSpanLength = v
	}
	if addr := os.Getenv("DST_REDIS_ADDR"); addr != "" {
		c.Store.RedisAddr = addr
		if c.Store.Type == "" {
			c.Store.Type = "redis"
		}
	}
}

// Validate checks that thresholds are within range.
func (c *Config) Validate() error {
	if c.ActivationThreshold < 0 || c.ActivationThreshold > 1 {
		return fmt.Errorf("activation_threshold must be in [0,1], got %v", c.ActivationThreshold)
	}
	if c.RequestedThreshold < 0 || c.RequestedThreshold > 1 {
		return fmt.Errorf("requested_threshold must be in [0,1], got %v", c.RequestedThreshold)
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy_threshold must be in [0,100], got %d", c.FuzzyThreshold)
	}
	if c.MaxSpanLength < 0 {
		return fmt.Errorf("max_span_length must not be negative, got %d", c.MaxSpanLength)
	}
	switch c.Store.Type {
	case "", "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for redis store")
		}
	default:
		return fmt.Errorf("invalid store type: %s (valid: memory, redis)", c.Store.Type)
	}
	if _, err := time.ParseDuration(c.Store.TTL); c.Store.TTL != "" && err != nil {
		return fmt.Errorf("invalid store.ttl %q: %w", c.Store.TTL, err)
	}
	return nil
}

// StoreTTL returns the parsed store TTL, defaulting to 24 hours.
func (c *Config) StoreTTL() time.Duration {
	if c.Store.TTL == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(c.Store.TTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}
