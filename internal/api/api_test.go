package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JaimeStill/jobcheck/internal/api"
	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/internal/infrastructure"
	"github.com/JaimeStill/jobcheck/internal/predictions"
	"github.com/JaimeStill/jobcheck/pkg/auth"
	"github.com/JaimeStill/jobcheck/pkg/database"
	"github.com/JaimeStill/jobcheck/pkg/openapi"
	"github.com/JaimeStill/jobcheck/pkg/pagination"
	"github.com/JaimeStill/jobcheck/pkg/storage"
)

const secret = "0123456789abcdef0123456789abcdef"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	return &config.Config{
		Database: database.Config{
			Host:            "127.0.0.1",
			Port:            1,
			Name:            "jobcheck",
			User:            "jobcheck",
			SSLMode:         "disable",
			MaxOpenConns:    2,
			MaxIdleConns:    1,
			ConnMaxLifetime: "1m",
			ConnTimeout:     "200ms",
		},
		Storage: storage.Config{
			Provider: storage.ProviderFilesystem,
			Root:     filepath.Join(dir, "blobs"),
		},
		API: config.APIConfig{
			BasePath:       "/api",
			MaxRequestSize: "64KB",
			Pagination:     pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
			OpenAPI:        openapi.Config{Title: "jobcheck API", Path: "/openapi.json"},
		},
		Auth: auth.Config{
			Provider:  auth.ProviderHMAC,
			Secret:    secret,
			AdminRole: "admin",
		},
		Model: config.ModelConfig{
			DatasetPath:        filepath.Join(dir, "missing.csv"),
			Seed:               7,
			TestRatio:          0.2,
			MaxFeatures:        500,
			MinDF:              1,
			Workers:            2,
			SyntheticSize:      300,
			SyntheticFakeRatio: 0.3,
			TrainOnStartup:     true,
			FallbackConfidence: 0.85,
		},
		ShutdownTimeout: "5s",
		Version:         "0.1.0",
	}
}

func token(t *testing.T, roles ...string) string {
	t.Helper()
	claims := auth.Claims{
		Email: "ops@example.com",
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newModule(t *testing.T, cfg *config.Config) (*api.Module, *infrastructure.Infrastructure) {
	t.Helper()

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	t.Cleanup(func() { infra.Database.Connection().Close() })

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	return m, infra
}

func serve(m *api.Module, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	return rec
}

func TestNewRuntime(t *testing.T) {
	cfg := testConfig(t)
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	defer infra.Database.Connection().Close()

	runtime := api.NewRuntime(cfg, infra)

	if runtime.Pagination != cfg.API.Pagination {
		t.Errorf("pagination: got %+v", runtime.Pagination)
	}
	if runtime.BodyLimit != 64*1024 {
		t.Errorf("body limit: got %d", runtime.BodyLimit)
	}
	if runtime.Logger == infra.Logger {
		t.Error("runtime logger should be module scoped")
	}
	if runtime.Models != infra.Models || runtime.Artifacts != infra.Artifacts {
		t.Error("model stack not shared with infrastructure")
	}
	if api.NewDomain(runtime, cfg) == nil {
		t.Error("NewDomain() returned nil")
	}
}

func TestNewModuleUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Provider = "kerberos"

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	defer infra.Database.Connection().Close()

	if _, err := api.NewModule(cfg, infra); err == nil {
		t.Error("expected auth init failure")
	}
}

func TestBootstrapWithoutTraining(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.TrainOnStartup = false
	m, infra := newModule(t, cfg)

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if infra.Models.Ready() {
		t.Error("no model should be loaded")
	}

	rec := serve(m, "POST", "/api/predict", `{"job_text":"Earn money from home with no experience"}`, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("predict without model: got %d, want 503", rec.Code)
	}
}

func TestServe(t *testing.T) {
	cfg := testConfig(t)
	m, infra := newModule(t, cfg)

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if !infra.Models.Ready() {
		t.Fatal("startup training should load a model")
	}
	first := infra.Models.Current().Version

	rec := serve(m, "POST", "/api/predict",
		`{"job_text":"Work from home, earn $5000 weekly, no experience needed, pay a small fee"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("predict: got %d: %s", rec.Code, rec.Body.String())
	}

	var result predictions.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Prediction != predictions.LabelFake && result.Prediction != predictions.LabelReal {
		t.Errorf("label: got %q", result.Prediction)
	}
	if result.Confidence < 0 || result.Confidence > 100 || result.Version != first {
		t.Errorf("result: got %+v", result)
	}
	if result.PredictionID != nil {
		t.Error("prediction id must be absent when the log is unavailable")
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		bearer string
		want   int
	}{
		{"short text", "POST", "/api/predict", `{"job_text":"too short"}`, "", http.StatusBadRequest},
		{"body too large", "POST", "/api/predict", `{"job_text":"` + strings.Repeat("a", 70*1024) + `"}`, "", http.StatusRequestEntityTooLarge},
		{"active model", "GET", "/api/models/active", "", "", http.StatusOK},
		{"versions", "GET", "/api/models", "", "", http.StatusOK},
		{"unknown version", "GET", "/api/models/v99_20250101_000000", "", "", http.StatusNotFound},
		{"retrain anonymous", "POST", "/api/models/retrain", "", "", http.StatusUnauthorized},
		{"retrain non-admin", "POST", "/api/models/retrain", "", token(t, "user"), http.StatusForbidden},
		{"invalid token", "GET", "/api/models", "", "garbage", http.StatusUnauthorized},
		{"storage anonymous", "GET", "/api/storage", "", "", http.StatusUnauthorized},
		{"storage list", "GET", "/api/storage?prefix=models/", "", token(t, "admin"), http.StatusOK},
		{"storage traversal", "GET", "/api/storage/download/models/a..b", "", token(t, "admin"), http.StatusBadRequest},
		{"storage download", "GET", "/api/storage/download/models/" + first + "/metadata.json", "", token(t, "admin"), http.StatusOK},
		{"openapi", "GET", "/api/openapi.json", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(m, tt.method, tt.path, tt.body, tt.bearer)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec = serve(m, "POST", "/api/models/retrain", "", token(t, "admin"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("retrain: got %d: %s", rec.Code, rec.Body.String())
	}
	if second := infra.Models.Current().Version; second == first {
		t.Errorf("retrain did not swap the served model: still %s", second)
	}

	rec = serve(m, "POST", "/api/models/"+first+"/activate", "", token(t, "admin"))
	if rec.Code != http.StatusOK {
		t.Fatalf("activate: got %d: %s", rec.Code, rec.Body.String())
	}
	if got := infra.Models.Current().Version; got != first {
		t.Errorf("rollback: serving %s, want %s", got, first)
	}
}

func TestOpenAPISpec(t *testing.T) {
	m, _ := newModule(t, testConfig(t))

	rec := serve(m, "GET", "/api/openapi.json", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	var spec struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths      map[string]map[string]json.RawMessage `json:"paths"`
		Components struct {
			SecuritySchemes map[string]json.RawMessage `json:"securitySchemes"`
		} `json:"components"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if spec.OpenAPI != "3.1.0" || spec.Info.Title != "jobcheck API" {
		t.Errorf("header: got %s %q", spec.OpenAPI, spec.Info.Title)
	}

	operations := []struct {
		path   string
		method string
	}{
		{"/predict", "post"},
		{"/predict/document", "post"},
		{"/predictions", "get"},
		{"/predictions/{id}/flag", "post"},
		{"/models/retrain", "post"},
		{"/models/{version}/activate", "post"},
		{"/registry", "get"},
		{"/storage/download/{key}", "get"},
	}
	for _, op := range operations {
		if _, ok := spec.Paths[op.path][op.method]; !ok {
			t.Errorf("missing %s %s", op.method, op.path)
		}
	}

	if _, ok := spec.Components.SecuritySchemes["bearerAuth"]; !ok {
		t.Error("hmac auth should publish the bearer scheme")
	}
	var retrain struct {
		Security []map[string][]string `json:"security"`
	}
	if err := json.Unmarshal(spec.Paths["/models/retrain"]["post"], &retrain); err != nil {
		t.Fatalf("decode retrain: %v", err)
	}
	if len(retrain.Security) != 1 {
		t.Errorf("retrain security: got %+v", retrain.Security)
	}
}
