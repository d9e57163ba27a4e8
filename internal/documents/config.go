package documents

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// Config bounds the coordinator's concurrency.
type Config struct {
	Workers     int `toml:"workers"`
	MailboxSize int `toml:"mailbox_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Workers     string
	MailboxSize string
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
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.MailboxSize != 0 {
		c.MailboxSize = overlay.MailboxSize
	}
}

func (c *Config) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.MailboxSize == 0 {
		c.MailboxSize = 256
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Workers != "" {
		if v := os.Getenv(env.Workers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Workers = n
			}
		}
	}
	if env.MailboxSize != "" {
		if v := os.Getenv(env.MailboxSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MailboxSize = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if c.MailboxSize < 1 {
		return fmt.Errorf("mailbox_size must be positive")
	}
	return nil
}
