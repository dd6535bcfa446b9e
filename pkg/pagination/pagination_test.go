package pagination_test

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/jobcheck/pkg/pagination"
	"github.com/JaimeStill/jobcheck/pkg/query"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100, MaxSearchLength: 200}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := pagination.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg != defaultConfig() {
			t.Errorf("got %+v, want %+v", cfg, defaultConfig())
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("JOBCHECK_TEST_PAGE_SIZE", "25")
		t.Setenv("JOBCHECK_TEST_MAX_PAGE", "50")

		cfg := pagination.Config{}
		err := cfg.Finalize(&pagination.ConfigEnv{
			DefaultPageSize: "JOBCHECK_TEST_PAGE_SIZE",
			MaxPageSize:     "JOBCHECK_TEST_MAX_PAGE",
		})
		if err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.DefaultPageSize != 25 || cfg.MaxPageSize != 50 {
			t.Errorf("got %+v", cfg)
		}
	})

	t.Run("default exceeds max", func(t *testing.T) {
		cfg := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
		err := cfg.Finalize(nil)
		if err == nil || !strings.Contains(err.Error(), "exceeds max_page_size") {
			t.Errorf("got %v, want page size validation error", err)
		}
	})
}

func TestConfigMerge(t *testing.T) {
	base := defaultConfig()
	base.Merge(&pagination.Config{MaxPageSize: 50})

	if base.DefaultPageSize != 20 || base.MaxPageSize != 50 || base.MaxSearchLength != 200 {
		t.Errorf("got %+v", base)
	}
}

func TestNormalizeSearch(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxSearchLength = 5

	ptr := func(s string) *string { return &s }
	tests := []struct {
		name   string
		search *string
		want   *string
	}{
		{"unset", nil, nil},
		{"blank dropped", ptr("   "), nil},
		{"trimmed", ptr("  data  "), ptr("data")},
		{"cut by rune", ptr("ingeniería"), ptr("ingen")},
		{"multibyte kept whole", ptr("ñandú remoto"), ptr("ñandú")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pagination.PageRequest{Search: tt.search}
			req.Normalize(cfg)

			switch {
			case tt.want == nil && req.Search != nil:
				t.Errorf("got %q, want nil", *req.Search)
			case tt.want != nil && (req.Search == nil || *req.Search != *tt.want):
				t.Errorf("got %v, want %q", req.Search, *tt.want)
			}
		})
	}
}

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		req          pagination.PageRequest
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{"zero values", pagination.PageRequest{}, 1, 20, 0},
		{"negative page", pagination.PageRequest{Page: -1, PageSize: 10}, 1, 10, 0},
		{"clamped size", pagination.PageRequest{Page: 2, PageSize: 500}, 2, 100, 100},
		{"preserved", pagination.PageRequest{Page: 3, PageSize: 25}, 3, 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(defaultConfig())
			if tt.req.Page != tt.wantPage || tt.req.PageSize != tt.wantPageSize {
				t.Errorf("got page %d size %d, want %d and %d",
					tt.req.Page, tt.req.PageSize, tt.wantPage, tt.wantPageSize)
			}
			if got := tt.req.Offset(); got != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", got, tt.wantOffset)
			}
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	req := pagination.PageRequestFromQuery(url.Values{
		"page":      {"2"},
		"page_size": {"15"},
		"search":    {"remote"},
		"sort":      {"Prediction,-CreatedAt"},
	}, defaultConfig())

	if req.Page != 2 || req.PageSize != 15 {
		t.Errorf("page: got %d/%d", req.Page, req.PageSize)
	}
	if req.Search == nil || *req.Search != "remote" {
		t.Errorf("search: got %v", req.Search)
	}

	want := pagination.SortFields{{Field: "Prediction"}, {Field: "CreatedAt", Descending: true}}
	if !slices.Equal(req.Sort, want) {
		t.Errorf("sort: got %v, want %v", req.Sort, want)
	}

	empty := pagination.PageRequestFromQuery(url.Values{}, defaultConfig())
	if empty.Page != 1 || empty.PageSize != 20 || empty.Search != nil || empty.Sort != nil {
		t.Errorf("empty query: got %+v", empty)
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		page           int
		wantTotalPages int
		wantNext       bool
	}{
		{"exact division", 100, 1, 5, true},
		{"remainder", 101, 6, 6, false},
		{"single page", 5, 1, 1, false},
		{"empty", 0, 1, 1, false},
		{"past the end", 30, 4, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult([]string{"a"}, tt.total, tt.page, 20)
			if result.TotalPages != tt.wantTotalPages || result.HasNext != tt.wantNext {
				t.Errorf("TotalPages = %d, HasNext = %v, want %d, %v",
					result.TotalPages, result.HasNext, tt.wantTotalPages, tt.wantNext)
			}
			if result.Total != tt.total || result.Page != tt.page || result.PageSize != 20 {
				t.Errorf("got %+v", result)
			}
		})
	}

	if result := pagination.NewPageResult[string](nil, 0, 1, 20); result.Data == nil {
		t.Error("nil data should become an empty slice")
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	want := pagination.SortFields{
		{Field: "Confidence", Descending: true},
		query.SortField{Field: "CreatedAt"},
	}

	tests := []struct {
		name  string
		input string
	}{
		{"string", `"-Confidence,CreatedAt"`},
		{"array", `[{"field":"Confidence","descending":true},{"field":"CreatedAt"}]`},
		{"padded string", ` "-Confidence, CreatedAt" `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got pagination.SortFields
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if !slices.Equal(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}

	var none pagination.SortFields
	if err := json.Unmarshal([]byte("null"), &none); err != nil || none != nil {
		t.Errorf("null: got %v, %v", none, err)
	}
}
