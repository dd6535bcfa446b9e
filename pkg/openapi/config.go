package openapi

import (
	"fmt"
	"os"
	"strings"
)

// Config describes the published document and where it is served,
// relative to the module prefix.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Path        string `toml:"path"`
}

// ConfigEnv names the environment variables that override each field.
type ConfigEnv struct {
	Title       string
	Description string
	Path        string
}

// Finalize applies defaults and environment overrides, then requires Path
// to be absolute.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("openapi path must start with /: %q", c.Path)
	}
	return nil
}

// Merge overwrites non-empty fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for dst, src := range c.fields(overlay.Title, overlay.Description, overlay.Path) {
		if src != "" {
			*dst = src
		}
	}
}

func (c *Config) fields(title, description, path string) map[*string]string {
	return map[*string]string{
		&c.Title:       title,
		&c.Description: description,
		&c.Path:        path,
	}
}

func (c *Config) loadDefaults() {
	defaults := c.fields(
		"jobcheck API",
		"Fake job posting detection: prediction, prediction log, and model lifecycle.",
		"/openapi.json",
	)
	for dst, def := range defaults {
		if *dst == "" {
			*dst = def
		}
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	overrides := c.fields(getenv(env.Title), getenv(env.Description), getenv(env.Path))
	for dst, v := range overrides {
		if v != "" {
			*dst = v
		}
	}
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
