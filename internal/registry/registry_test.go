package registry_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/JaimeStill/jobcheck/internal/registry"
	"github.com/JaimeStill/jobcheck/pkg/pagination"
	"github.com/JaimeStill/jobcheck/pkg/routes"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stub struct {
	versions map[string]registry.ModelVersion
	page     pagination.PageRequest
	filters  registry.Filters
}

func (s *stub) Handler() *registry.Handler {
	return registry.NewHandler(s, discard(), pagination.Config{DefaultPageSize: 10, MaxPageSize: 50})
}

func (s *stub) List(_ context.Context, page pagination.PageRequest, filters registry.Filters) (*pagination.PageResult[registry.ModelVersion], error) {
	s.page, s.filters = page, filters
	items := make([]registry.ModelVersion, 0, len(s.versions))
	for _, v := range s.versions {
		items = append(items, v)
	}
	result := pagination.NewPageResult(items, len(items), page.Page, page.PageSize)
	return &result, nil
}

func (s *stub) Find(_ context.Context, version string) (*registry.ModelVersion, error) {
	v, ok := s.versions[version]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return &v, nil
}

func (s *stub) Register(context.Context, registry.RegisterCommand) (*registry.ModelVersion, error) {
	return nil, errors.New("not implemented")
}

func (s *stub) SetActive(context.Context, string) error {
	return errors.New("not implemented")
}

func TestFiltersFromQuery(t *testing.T) {
	f := registry.FiltersFromQuery(url.Values{
		"model_name": {"Random Forest"},
		"is_active":  {"true"},
	})

	if f.ModelName == nil || *f.ModelName != "Random Forest" {
		t.Errorf("model_name: got %v", f.ModelName)
	}
	if f.IsActive == nil || !*f.IsActive {
		t.Errorf("is_active: got %v", f.IsActive)
	}
	if f.TrainedBy != nil {
		t.Errorf("trained_by should be unset, got %v", *f.TrainedBy)
	}

	if f := registry.FiltersFromQuery(url.Values{"is_active": {"maybe"}}); f.IsActive != nil {
		t.Error("invalid boolean should be ignored")
	}
}

func TestHandler(t *testing.T) {
	s := &stub{versions: map[string]registry.ModelVersion{
		"v1_20250101_000000": {Version: "v1_20250101_000000", ModelName: "Logistic Regression", IsActive: true},
	}}

	mux := http.NewServeMux()
	routes.Register(mux, s.Handler().Routes())

	tests := []struct {
		name string
		path string
		want int
	}{
		{"list", "/models/history?page_size=500&is_active=true", http.StatusOK},
		{"find", "/models/history/v1_20250101_000000", http.StatusOK},
		{"missing", "/models/history/v9_20250101_000000", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d", w.Code, tt.want)
			}
		})
	}

	if s.page.PageSize != 50 {
		t.Errorf("page size not clamped: %d", s.page.PageSize)
	}
	if s.filters.IsActive == nil || !*s.filters.IsActive {
		t.Error("is_active filter not forwarded")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	if got := registry.MapHTTPStatus(registry.ErrNotFound); got != http.StatusNotFound {
		t.Errorf("not found: got %d", got)
	}
	if got := registry.MapHTTPStatus(registry.ErrDuplicate); got != http.StatusConflict {
		t.Errorf("duplicate: got %d", got)
	}
}
