package config_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/pkg/auth"
	"github.com/JaimeStill/jobcheck/pkg/storage"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080

[database]
host = "localhost"
port = 5432
name = "jobcheck"
user = "jobcheck"
password = "jobcheck"

[storage]
provider = "filesystem"
root = "data"
container_name = "models"

[api]
base_path = "/api"
max_request_size = "256KB"

[api.pagination]
default_page_size = 25
max_page_size = 50

[auth]
provider = "none"

[model]
dataset_path = "data/postings.csv"
seed = 7
test_ratio = 0.25
max_features = 5000
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[model]
train_on_startup = true
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func loadBase(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadBase(t)

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr: got %s", cfg.Server.Addr())
	}
	if cfg.Storage.Provider != storage.ProviderFilesystem || cfg.Storage.Root != "data" {
		t.Errorf("storage: got %+v", cfg.Storage)
	}
	if cfg.API.MaxRequestSizeBytes() != 256*1024 {
		t.Errorf("max request size: got %d", cfg.API.MaxRequestSizeBytes())
	}
	if cfg.API.Pagination.DefaultPageSize != 25 || cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination: got %+v", cfg.API.Pagination)
	}
	if cfg.Auth.Provider != auth.ProviderNone || cfg.Auth.AdminRole != "admin" {
		t.Errorf("auth: got %+v", cfg.Auth)
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout: got %v", cfg.ShutdownTimeoutDuration())
	}
	if cfg.API.OpenAPI.Title != "jobcheck API" || cfg.API.OpenAPI.Description == "" {
		t.Errorf("openapi defaults: got %+v", cfg.API.OpenAPI)
	}
}

func TestModelConfig(t *testing.T) {
	cfg := loadBase(t)

	opts := cfg.Model.TrainingOptions()
	if opts.Seed != 7 || opts.TestRatio != 0.25 || opts.Features.MaxFeatures != 5000 || opts.Features.MinDF != 2 {
		t.Errorf("training options: got %+v", opts)
	}

	synthetic := cfg.Model.SyntheticOptions()
	if synthetic.Size != 2000 || synthetic.Seed != 7 || synthetic.FakeRatio != 0.15 {
		t.Errorf("synthetic options: got %+v", synthetic)
	}
	if cfg.Model.FallbackConfidence != 0.85 || cfg.Model.TrainOnStartup {
		t.Errorf("model: got %+v", cfg.Model)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv(config.EnvJobcheckEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" || cfg.Database.Port != 5432 {
		t.Errorf("database: got %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if !cfg.Model.TrainOnStartup || cfg.Model.Seed != 7 {
		t.Errorf("model: got %+v", cfg.Model)
	}
	if cfg.Env() != "staging" {
		t.Errorf("env: got %s", cfg.Env())
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	t.Setenv("JOBCHECK_VERSION", "2.0.0")
	t.Setenv("JOBCHECK_SERVER_PORT", "3000")
	t.Setenv("JOBCHECK_STORAGE_PROVIDER", "azure")
	t.Setenv("JOBCHECK_STORAGE_ACCOUNT_URL", "https://acct.blob.core.windows.net")
	t.Setenv("JOBCHECK_AUTH_PROVIDER", "hmac")
	t.Setenv("JOBCHECK_AUTH_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv(config.EnvModelFallbackConfidence, "0.7")
	t.Setenv(config.EnvModelTrainOnStartup, "true")
	t.Setenv("JOBCHECK_OPENAPI_TITLE", "Staging jobcheck")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" || cfg.Server.Port != 3000 {
		t.Errorf("version/port: got %s/%d", cfg.Version, cfg.Server.Port)
	}
	if cfg.Storage.Provider != storage.ProviderAzure || cfg.Storage.AccountURL == "" {
		t.Errorf("storage: got %+v", cfg.Storage)
	}
	if cfg.Auth.Provider != auth.ProviderHMAC {
		t.Errorf("auth provider: got %s", cfg.Auth.Provider)
	}
	if cfg.Model.FallbackConfidence != 0.7 || !cfg.Model.TrainOnStartup {
		t.Errorf("model: got %+v", cfg.Model)
	}
	if cfg.API.OpenAPI.Title != "Staging jobcheck" {
		t.Errorf("openapi title: got %q", cfg.API.OpenAPI.Title)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("JOBCHECK_DB_NAME", "testdb")
	t.Setenv("JOBCHECK_DB_USER", "testuser")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.API.BasePath != "/api" {
		t.Errorf("defaults: got port %d, base path %s", cfg.Server.Port, cfg.API.BasePath)
	}
	if cfg.API.MaxRequestSizeBytes() != 1024*1024 {
		t.Errorf("max request size default: got %d", cfg.API.MaxRequestSizeBytes())
	}
	if cfg.Model.DatasetPath != "data/fake_job_postings.csv" || cfg.Model.Seed != 42 {
		t.Errorf("model defaults: got %+v", cfg.Model)
	}
	if cfg.Env() != "local" {
		t.Errorf("env: got %s", cfg.Env())
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"malformed toml", `shutdown_timeout = `, nil},
		{"bad shutdown timeout", baseConfig, map[string]string{"JOBCHECK_SHUTDOWN_TIMEOUT": "soon"}},
		{"bad test ratio", baseConfig, map[string]string{config.EnvModelTestRatio: "1.5"}},
		{"bad fallback", baseConfig, map[string]string{config.EnvModelFallbackConfidence: "1.2"}},
		{"bad request size", baseConfig, map[string]string{"JOBCHECK_API_MAX_REQUEST_SIZE": "lots"}},
		{"short hmac secret", baseConfig, map[string]string{"JOBCHECK_AUTH_PROVIDER": "hmac", "JOBCHECK_AUTH_SECRET": "short"}},
		{"unknown storage", baseConfig, map[string]string{"JOBCHECK_STORAGE_PROVIDER": "s3"}},
		{"unknown key", baseConfig + "\n[metrics]\nenabled = true\n", nil},
		{"misspelled key", "shutdown_timeot = \"10s\"\n", nil},
		{"bad log level", baseConfig, map[string]string{config.EnvLogLevel: "verbose"}},
		{"drain exceeds shutdown", baseConfig, map[string]string{
			"JOBCHECK_SHUTDOWN_TIMEOUT":        "5s",
			"JOBCHECK_SERVER_SHUTDOWN_TIMEOUT": "10s",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, config.BaseConfigFile, tt.content)
			chdir(t, dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := config.Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestServerConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var c config.ServerConfig
		if err := c.Finalize(); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if c.ReadHeaderTimeoutDuration() != 10*time.Second || c.IdleTimeoutDuration() != 2*time.Minute {
			t.Errorf("timeouts: got %+v", c)
		}
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv(config.EnvServerIdleTimeout, "45s")
		t.Setenv(config.EnvServerHost, "::1")

		c := config.ServerConfig{IdleTimeout: "5m"}
		if err := c.Finalize(); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if c.IdleTimeoutDuration() != 45*time.Second {
			t.Errorf("idle timeout: got %v", c.IdleTimeoutDuration())
		}
		if c.Addr() != "[::1]:8080" {
			t.Errorf("addr: got %s", c.Addr())
		}
	})

	t.Run("merge keeps unset fields", func(t *testing.T) {
		c := config.ServerConfig{WriteTimeout: "5m", ShutdownTimeout: "30s"}
		c.Merge(&config.ServerConfig{ShutdownTimeout: "10s"})
		if c.WriteTimeout != "5m" || c.ShutdownTimeout != "10s" {
			t.Errorf("merge: got %+v", c)
		}
	})

	invalid := []struct {
		name string
		cfg  config.ServerConfig
	}{
		{"bad duration", config.ServerConfig{ReadTimeout: "soon"}},
		{"negative duration", config.ServerConfig{IdleTimeout: "-1s"}},
		{"port range", config.ServerConfig{Port: 70000}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	t.Setenv(config.EnvLogFormat, "JSON")

	c := config.LoggingConfig{Level: "debug"}
	if err := c.Finalize(); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if c.Format != "json" {
		t.Errorf("format: got %q", c.Format)
	}

	var buf bytes.Buffer
	logger := c.NewLogger(&buf)
	logger.Debug("model reloaded", "version", "v2_20250101_000000")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "model reloaded" || entry["level"] != "DEBUG" {
		t.Errorf("entry: got %v", entry)
	}

	quiet := config.LoggingConfig{Level: "warn", Format: "text"}
	t.Setenv(config.EnvLogFormat, "")
	if err := quiet.Finalize(); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	buf.Reset()
	quiet.NewLogger(&buf).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
}
