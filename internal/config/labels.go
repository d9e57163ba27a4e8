package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	EnvLabelsFile     = "SPEECHMARK_LABELS_FILE"
	EnvLabelsWatch    = "SPEECHMARK_LABELS_WATCH"
	EnvLabelsDebounce = "SPEECHMARK_LABELS_DEBOUNCE"
)

// LabelsConfig points at an optional label map file applied at startup
// and, when Watch is set, re-applied whenever it changes.
type LabelsConfig struct {
	File     string `toml:"file"`
	Watch    bool   `toml:"watch"`
	Debounce string `toml:"debounce"`
}

// DebounceDuration returns Debounce as a time.Duration.
func (c *LabelsConfig) DebounceDuration() time.Duration {
	return mustDuration(c.Debounce)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LabelsConfig) Finalize() error {
	defaultString(&c.Debounce, "250ms")

	envString(EnvLabelsFile, &c.File)
	envString(EnvLabelsDebounce, &c.Debounce)
	if v := os.Getenv(EnvLabelsWatch); v != "" {
		if watch, err := strconv.ParseBool(v); err == nil {
			c.Watch = watch
		}
	}

	if _, err := time.ParseDuration(c.Debounce); err != nil {
		return fmt.Errorf("invalid debounce: %w", err)
	}
	if c.File == "" {
		if c.Watch {
			return fmt.Errorf("watch requires a file")
		}
		return nil
	}
	switch strings.ToLower(filepath.Ext(c.File)) {
	case ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("unsupported label file extension: %s", c.File)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *LabelsConfig) Merge(overlay *LabelsConfig) {
	mergeString(&c.File, overlay.File)
	mergeString(&c.Debounce, overlay.Debounce)
	if overlay.Watch {
		c.Watch = true
	}
}
