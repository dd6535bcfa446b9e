package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/jobcheck/pkg/formatting"
	"github.com/JaimeStill/jobcheck/pkg/middleware"
	"github.com/JaimeStill/jobcheck/pkg/openapi"
	"github.com/JaimeStill/jobcheck/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "JOBCHECK_CORS_ENABLED",
	Origins:          "JOBCHECK_CORS_ORIGINS",
	AllowedMethods:   "JOBCHECK_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "JOBCHECK_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "JOBCHECK_CORS_EXPOSED_HEADERS",
	AllowCredentials: "JOBCHECK_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "JOBCHECK_CORS_MAX_AGE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "JOBCHECK_OPENAPI_TITLE",
	Description: "JOBCHECK_OPENAPI_DESCRIPTION",
	Path:        "JOBCHECK_OPENAPI_PATH",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "JOBCHECK_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "JOBCHECK_PAGINATION_MAX_PAGE_SIZE",
	MaxSearchLength: "JOBCHECK_PAGINATION_MAX_SEARCH_LENGTH",
}

// APIConfig holds API routing, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath       string                `toml:"base_path"`
	MaxRequestSize string                `toml:"max_request_size"`
	CORS           middleware.CORSConfig `toml:"cors"`
	Pagination     pagination.Config     `toml:"pagination"`
	OpenAPI        openapi.Config        `toml:"openapi"`
}

// MaxRequestSizeBytes returns MaxRequestSize in bytes.
func (c *APIConfig) MaxRequestSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxRequestSize)
	if err != nil {
		return 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if _, err := formatting.ParseBytes(c.MaxRequestSize); err != nil {
		return fmt.Errorf("invalid max_request_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxRequestSize != "" {
		c.MaxRequestSize = overlay.MaxRequestSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxRequestSize == "" {
		c.MaxRequestSize = "1MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("JOBCHECK_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("JOBCHECK_API_MAX_REQUEST_SIZE"); v != "" {
		c.MaxRequestSize = v
	}
}
