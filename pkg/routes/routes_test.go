package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/jobcheck/pkg/routes"
)

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Route", name)
		if v := r.PathValue("version"); v != "" {
			w.Header().Set("X-Version", v)
		}
		w.WriteHeader(http.StatusOK)
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux,
		routes.Group{
			Prefix: "/models",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: named("list")},
				{Method: "GET", Pattern: "/active", Handler: named("active")},
				{Method: "GET", Pattern: "/{version}", Handler: named("version")},
				{Method: "POST", Pattern: "/{version}/activate", Handler: named("activate")},
			},
			Children: []routes.Group{
				{
					Prefix: "/history",
					Routes: []routes.Route{
						{Method: "GET", Pattern: "", Handler: named("history")},
					},
				},
			},
		},
	)

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantRoute   string
		wantVersion string
	}{
		{"list", "GET", "/models", http.StatusOK, "list", ""},
		{"literal beats wildcard", "GET", "/models/active", http.StatusOK, "active", ""},
		{"nested group", "GET", "/models/history", http.StatusOK, "history", ""},
		{"wildcard", "GET", "/models/v3_20250101_000000", http.StatusOK, "version", "v3_20250101_000000"},
		{"wildcard with suffix", "POST", "/models/v3_20250101_000000/activate", http.StatusOK, "activate", "v3_20250101_000000"},
		{"wrong method", "DELETE", "/models/active", http.StatusMethodNotAllowed, "", ""},
		{"unknown", "GET", "/predictions", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("X-Route"); got != tt.wantRoute {
				t.Errorf("route: got %q, want %q", got, tt.wantRoute)
			}
			if got := rec.Header().Get("X-Version"); got != tt.wantVersion {
				t.Errorf("version: got %q, want %q", got, tt.wantVersion)
			}
		})
	}
}

func tag(name string) routes.Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", name)
			next(w, r)
		}
	}
}

func TestGroupMiddleware(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix:     "/api",
		Middleware: []routes.Middleware{tag("outer")},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/open", Handler: named("open")},
		},
		Children: []routes.Group{
			{
				Prefix:     "/admin",
				Middleware: []routes.Middleware{tag("inner"), tag("last")},
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/retrain", Handler: named("retrain")},
				},
			},
			{
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/sibling", Handler: named("sibling")},
				},
			},
		},
	})

	tests := []struct {
		name   string
		method string
		path   string
		want   []string
	}{
		{"group only", "GET", "/api/open", []string{"outer"}},
		{"inherited", "POST", "/api/admin/retrain", []string{"outer", "inner", "last"}},
		{"sibling unaffected", "GET", "/api/sibling", []string{"outer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d", rec.Code)
			}
			got := rec.Header().Values("X-Chain")
			if len(got) != len(tt.want) {
				t.Fatalf("chain: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chain[%d]: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPatterns(t *testing.T) {
	got := routes.Patterns(routes.Group{
		Prefix: "/storage",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: named("list")},
			{Pattern: "/raw", Handler: named("raw")},
		},
		Children: []routes.Group{{
			Prefix: "/download",
			Routes: []routes.Route{{Method: "GET", Pattern: "/{key...}", Handler: named("download")}},
		}},
	})

	want := []string{"GET /storage", "/storage/raw", "GET /storage/download/{key...}"}
	if len(got) != len(want) {
		t.Fatalf("patterns: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pattern[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}
