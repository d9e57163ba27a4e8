package classifications

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderLexicon = "lexicon"
	ProviderOpenAI  = "openai"
	ProviderRemote  = "remote"
)

// Config selects and tunes the classifier collaborator.
type Config struct {
	Provider  string        `toml:"provider"`
	Threshold *float64      `toml:"threshold"`
	BaseURL   string        `toml:"base_url"`
	Model     string        `toml:"model"`
	APIKey    string        `toml:"api_key"`
	Timeout   string        `toml:"timeout"`
	RateLimit float64       `toml:"rate_limit"`
	Burst     int           `toml:"burst"`
	Breaker   BreakerConfig `toml:"breaker"`
}

// BreakerConfig tunes the circuit breaker guarding network providers.
type BreakerConfig struct {
	MaxRequests uint32 `toml:"max_requests"`
	Interval    string `toml:"interval"`
	Timeout     string `toml:"timeout"`
	Failures    uint32 `toml:"failures"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider           string
	Threshold          string
	BaseURL            string
	Model              string
	APIKey             string
	Timeout            string
	RateLimit          string
	Burst              string
	BreakerMaxRequests string
	BreakerInterval    string
	BreakerTimeout     string
	BreakerFailures    string
}

// ThresholdValue returns the confidence cut-off. An unset threshold selects
// DefaultThreshold; an explicit zero disables the cut-off.
func (c *Config) ThresholdValue() float64 {
	if c.Threshold == nil {
		return DefaultThreshold
	}
	return *c.Threshold
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// IntervalDuration returns Interval as a time.Duration.
func (c *BreakerConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *BreakerConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Threshold != nil {
		threshold := *overlay.Threshold
		c.Threshold = &threshold
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.RateLimit != 0 {
		c.RateLimit = overlay.RateLimit
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
	if overlay.Breaker.MaxRequests != 0 {
		c.Breaker.MaxRequests = overlay.Breaker.MaxRequests
	}
	if overlay.Breaker.Interval != "" {
		c.Breaker.Interval = overlay.Breaker.Interval
	}
	if overlay.Breaker.Timeout != "" {
		c.Breaker.Timeout = overlay.Breaker.Timeout
	}
	if overlay.Breaker.Failures != 0 {
		c.Breaker.Failures = overlay.Breaker.Failures
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLexicon
	}
	if c.Threshold == nil {
		threshold := DefaultThreshold
		c.Threshold = &threshold
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.RateLimit == 0 {
		c.RateLimit = 5
	}
	if c.Burst == 0 {
		c.Burst = 5
	}
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 1
	}
	if c.Breaker.Interval == "" {
		c.Breaker.Interval = "1m"
	}
	if c.Breaker.Timeout == "" {
		c.Breaker.Timeout = "30s"
	}
	if c.Breaker.Failures == 0 {
		c.Breaker.Failures = 5
	}
}

func (c *Config) loadEnv(env *Env) {
	str := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	u32 := func(name string, dst *uint32) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				*dst = uint32(n)
			}
		}
	}
	f64 := func(name string, dst *float64) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	str(env.Provider, &c.Provider)
	if env.Threshold != "" {
		if v := os.Getenv(env.Threshold); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.Threshold = &f
			}
		}
	}
	str(env.BaseURL, &c.BaseURL)
	str(env.Model, &c.Model)
	str(env.APIKey, &c.APIKey)
	str(env.Timeout, &c.Timeout)
	f64(env.RateLimit, &c.RateLimit)
	if env.Burst != "" {
		if v := os.Getenv(env.Burst); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Burst = n
			}
		}
	}
	u32(env.BreakerMaxRequests, &c.Breaker.MaxRequests)
	str(env.BreakerInterval, &c.Breaker.Interval)
	str(env.BreakerTimeout, &c.Breaker.Timeout)
	u32(env.BreakerFailures, &c.Breaker.Failures)
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderLexicon:
	case ProviderOpenAI, ProviderRemote:
		if c.Provider == ProviderRemote && c.BaseURL == "" {
			return fmt.Errorf("base_url required for %s provider", c.Provider)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, c.Provider)
	}
	if t := c.ThresholdValue(); t < 0 || t >= 1 {
		return fmt.Errorf("threshold must be in [0, 1): %v", t)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be positive")
	}
	if _, err := time.ParseDuration(c.Breaker.Interval); err != nil {
		return fmt.Errorf("invalid breaker interval: %w", err)
	}
	if _, err := time.ParseDuration(c.Breaker.Timeout); err != nil {
		return fmt.Errorf("invalid breaker timeout: %w", err)
	}
	return nil
}
