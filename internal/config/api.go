package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/speechmark/pkg/formatting"
	"github.com/JaimeStill/speechmark/pkg/middleware"
	"github.com/JaimeStill/speechmark/pkg/openapi"
	"github.com/JaimeStill/speechmark/pkg/pagination"
)

const (
	EnvAPIBasePath     = "SPEECHMARK_API_BASE_PATH"
	EnvAPIMaxBodySize  = "SPEECHMARK_API_MAX_BODY_SIZE"
	EnvAPIFetchTimeout = "SPEECHMARK_API_FETCH_TIMEOUT"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SPEECHMARK_CORS_ENABLED",
	Origins:          "SPEECHMARK_CORS_ORIGINS",
	AllowedMethods:   "SPEECHMARK_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SPEECHMARK_CORS_ALLOWED_HEADERS",
	AllowCredentials: "SPEECHMARK_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SPEECHMARK_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "SPEECHMARK_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "SPEECHMARK_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "SPEECHMARK_OPENAPI_TITLE",
	Description: "SPEECHMARK_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, request limits, CORS, pagination and
// OpenAPI settings.
type APIConfig struct {
	BasePath     string                `toml:"base_path"`
	MaxBodySize  string                `toml:"max_body_size"`
	FetchTimeout string                `toml:"fetch_timeout"`
	CORS         middleware.CORSConfig `toml:"cors"`
	Pagination   pagination.Config     `toml:"pagination"`
	OpenAPI      openapi.Config        `toml:"openapi"`
}

// MaxBodySizeBytes returns MaxBodySize as a byte count.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return 4 << 20
	}
	return size
}

// FetchTimeoutDuration returns FetchTimeout as a time.Duration.
func (c *APIConfig) FetchTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.FetchTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}
	if overlay.FetchTimeout != "" {
		c.FetchTimeout = overlay.FetchTimeout
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "4MB"
	}
	if c.FetchTimeout == "" {
		c.FetchTimeout = "30s"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxBodySize); v != "" {
		c.MaxBodySize = v
	}
	if v := os.Getenv(EnvAPIFetchTimeout); v != "" {
		c.FetchTimeout = v
	}
}

func (c *APIConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return fmt.Errorf("invalid fetch_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("fetch_timeout must be positive")
	}
	return nil
}
