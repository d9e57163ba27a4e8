// Package config loads the speechmark configuration from TOML files and
// SPEECHMARK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/speechmark/internal/classifications"
	"github.com/JaimeStill/speechmark/internal/documents"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvSpeechmarkEnv             = "SPEECHMARK_ENV"
	EnvSpeechmarkShutdownTimeout = "SPEECHMARK_SHUTDOWN_TIMEOUT"
	EnvSpeechmarkVersion         = "SPEECHMARK_VERSION"
)

var documentsEnv = &documents.Env{
	Workers:     "SPEECHMARK_DOCUMENTS_WORKERS",
	MailboxSize: "SPEECHMARK_DOCUMENTS_MAILBOX_SIZE",
}

var classifierEnv = &classifications.Env{
	Provider:           "SPEECHMARK_CLASSIFIER_PROVIDER",
	Threshold:          "SPEECHMARK_CLASSIFIER_THRESHOLD",
	BaseURL:            "SPEECHMARK_CLASSIFIER_BASE_URL",
	Model:              "SPEECHMARK_CLASSIFIER_MODEL",
	APIKey:             "SPEECHMARK_CLASSIFIER_API_KEY",
	Timeout:            "SPEECHMARK_CLASSIFIER_TIMEOUT",
	RateLimit:          "SPEECHMARK_CLASSIFIER_RATE_LIMIT",
	Burst:              "SPEECHMARK_CLASSIFIER_BURST",
	BreakerMaxRequests: "SPEECHMARK_CLASSIFIER_BREAKER_MAX_REQUESTS",
	BreakerInterval:    "SPEECHMARK_CLASSIFIER_BREAKER_INTERVAL",
	BreakerTimeout:     "SPEECHMARK_CLASSIFIER_BREAKER_TIMEOUT",
	BreakerFailures:    "SPEECHMARK_CLASSIFIER_BREAKER_FAILURES",
}

// Config is the root configuration for the speechmark service.
type Config struct {
	Server          ServerConfig           `toml:"server"`
	API             APIConfig              `toml:"api"`
	Documents       documents.Config       `toml:"documents"`
	Classifier      classifications.Config `toml:"classifier"`
	Labels          LabelsConfig           `toml:"labels"`
	Logging         LoggingConfig          `toml:"logging"`
	ShutdownTimeout string                 `toml:"shutdown_timeout"`
	Version         string                 `toml:"version"`
}

// Env returns the SPEECHMARK_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSpeechmarkEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Load reads the base config, applies any environment overlay, and
// finalizes all values. An empty path means config.toml in the working
// directory, which may be absent; an explicit path must exist. The overlay
// config.<env>.toml is looked up next to the base file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	base := path
	if base == "" {
		base = BaseConfigFile
	}

	switch _, err := os.Stat(base); {
	case err == nil:
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case path != "" || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config: %w", err)
	}

	if overlay := overlayPath(base); overlay != "" {
		loaded, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(loaded)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	mergeString(&c.ShutdownTimeout, overlay.ShutdownTimeout)
	mergeString(&c.Version, overlay.Version)

	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Documents.Merge(&overlay.Documents)
	c.Classifier.Merge(&overlay.Classifier)
	c.Labels.Merge(&overlay.Labels)
	c.Logging.Merge(&overlay.Logging)
}

func (c *Config) finalize() error {
	defaultString(&c.ShutdownTimeout, "30s")
	defaultString(&c.Version, "0.1.0")
	envString(EnvSpeechmarkShutdownTimeout, &c.ShutdownTimeout)
	envString(EnvSpeechmarkVersion, &c.Version)

	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"api", c.API.Finalize},
		{"documents", func() error { return c.Documents.Finalize(documentsEnv) }},
		{"classifier", func() error { return c.Classifier.Finalize(classifierEnv) }},
		{"labels", c.Labels.Finalize},
		{"logging", c.Logging.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvSpeechmarkEnv)
	if env == "" {
		return ""
	}

	name := fmt.Sprintf(OverlayConfigPattern, env)
	if ext := filepath.Ext(base); ext != "" && ext != ".toml" {
		name = strings.TrimSuffix(name, ".toml") + ext
	}
	path := filepath.Join(filepath.Dir(base), name)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
