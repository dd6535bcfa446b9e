// Package pagination reads page requests from queries and bodies and
// shapes paged listings for JSON responses.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds page requests. MaxSearchLength is counted in runes.
type Config struct {
	DefaultPageSize int `toml:"default_page_size" json:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size" json:"max_page_size"`
	MaxSearchLength int `toml:"max_search_length" json:"max_search_length"`
}

// ConfigEnv names the environment variables that override each field.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
	MaxSearchLength string
}

// Finalize applies defaults, environment overrides and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies positive values from overlay.
func (c *Config) Merge(overlay *Config) {
	for dst, src := range c.fields(overlay.DefaultPageSize, overlay.MaxPageSize, overlay.MaxSearchLength) {
		if src > 0 {
			*dst = src
		}
	}
}

func (c *Config) fields(def, maxSize, maxSearch int) map[*int]int {
	return map[*int]int{
		&c.DefaultPageSize: def,
		&c.MaxPageSize:     maxSize,
		&c.MaxSearchLength: maxSearch,
	}
}

func (c *Config) loadDefaults() {
	for dst, def := range c.fields(20, 100, 200) {
		if *dst <= 0 {
			*dst = def
		}
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	names := map[*int]string{
		&c.DefaultPageSize: env.DefaultPageSize,
		&c.MaxPageSize:     env.MaxPageSize,
		&c.MaxSearchLength: env.MaxSearchLength,
	}
	for dst, name := range names {
		if name == "" {
			continue
		}
		if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
			*dst = n
		}
	}
}

func (c *Config) validate() error {
	switch {
	case c.DefaultPageSize < 1:
		return fmt.Errorf("default_page_size must be positive, got %d", c.DefaultPageSize)
	case c.MaxPageSize < 1:
		return fmt.Errorf("max_page_size must be positive, got %d", c.MaxPageSize)
	case c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("default_page_size %d exceeds max_page_size %d", c.DefaultPageSize, c.MaxPageSize)
	case c.MaxSearchLength < 1:
		return fmt.Errorf("max_search_length must be positive, got %d", c.MaxSearchLength)
	}
	return nil
}
