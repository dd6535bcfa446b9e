// Package config loads the service configuration from TOML files and
// JOBCHECK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/jobcheck/pkg/auth"
	"github.com/JaimeStill/jobcheck/pkg/database"
	"github.com/JaimeStill/jobcheck/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvJobcheckEnv             = "JOBCHECK_ENV"
	EnvJobcheckShutdownTimeout = "JOBCHECK_SHUTDOWN_TIMEOUT"
	EnvJobcheckVersion         = "JOBCHECK_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "JOBCHECK_DB_HOST",
	Port:            "JOBCHECK_DB_PORT",
	Name:            "JOBCHECK_DB_NAME",
	User:            "JOBCHECK_DB_USER",
	Password:        "JOBCHECK_DB_PASSWORD",
	SSLMode:         "JOBCHECK_DB_SSL_MODE",
	ApplicationName: "JOBCHECK_DB_APPLICATION_NAME",
	MaxOpenConns:    "JOBCHECK_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "JOBCHECK_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "JOBCHECK_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "JOBCHECK_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "JOBCHECK_STORAGE_PROVIDER",
	Root:             "JOBCHECK_STORAGE_ROOT",
	ContainerName:    "JOBCHECK_STORAGE_CONTAINER_NAME",
	ConnectionString: "JOBCHECK_STORAGE_CONNECTION_STRING",
	AccountURL:       "JOBCHECK_STORAGE_ACCOUNT_URL",
}

var authEnv = &auth.Env{
	Provider:  "JOBCHECK_AUTH_PROVIDER",
	Secret:    "JOBCHECK_AUTH_SECRET",
	Issuer:    "JOBCHECK_AUTH_ISSUER",
	ClientID:  "JOBCHECK_AUTH_CLIENT_ID",
	AdminRole: "JOBCHECK_AUTH_ADMIN_ROLE",
}

// Config is the root configuration for the jobcheck service.
// ShutdownTimeout bounds the whole lifecycle shutdown; Server.ShutdownTimeout
// bounds only the HTTP drain within it.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Logging         LoggingConfig   `toml:"logging"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Model           ModelConfig     `toml:"model"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the JOBCHECK_ENV value, defaulting to "local".
func (c *Config) Env() string {
	return envOr(EnvJobcheckEnv, "local")
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Load builds the configuration in three layers: config.toml when present,
// then config.<JOBCHECK_ENV>.toml when present, then JOBCHECK_* variables
// and defaults. Unknown keys in either file are an error.
func Load() (*Config, error) {
	cfg := &Config{}

	if exists(BaseConfigFile) {
		if err := decodeFile(BaseConfigFile, cfg); err != nil {
			return nil, err
		}
	}

	if path := fmt.Sprintf(OverlayConfigPattern, cfg.Env()); os.Getenv(EnvJobcheckEnv) != "" && exists(path) {
		var overlay Config
		if err := decodeFile(path, &overlay); err != nil {
			return nil, err
		}
		cfg.Merge(&overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Logging.Merge(&overlay.Logging)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Model.Merge(&overlay.Model)
}

func (c *Config) finalize() error {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	c.ShutdownTimeout = envOr(EnvJobcheckShutdownTimeout, c.ShutdownTimeout)
	c.Version = envOr(EnvJobcheckVersion, c.Version)

	if d, err := time.ParseDuration(c.ShutdownTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid shutdown_timeout %q", c.ShutdownTimeout)
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"logging", c.Logging.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"auth", func() error { return c.Auth.Finalize(authEnv) }},
		{"model", c.Model.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	if c.Server.ShutdownTimeoutDuration() > c.ShutdownTimeoutDuration() {
		return fmt.Errorf("server.shutdown_timeout %s exceeds shutdown_timeout %s",
			c.Server.ShutdownTimeout, c.ShutdownTimeout)
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
