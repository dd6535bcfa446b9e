package module

import (
	"fmt"
	"maps"
	"net/http"
	"strings"

	"github.com/JaimeStill/jobcheck/pkg/handlers"
	"github.com/JaimeStill/jobcheck/pkg/lifecycle"
)

// Router dispatches by the first path segment to mounted modules and
// falls back to a native ServeMux for everything else.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// Mount registers m under its prefix. Prefixes must be unique.
func (r *Router) Mount(m *Module) error {
	if _, exists := r.modules[m.prefix]; exists {
		return fmt.Errorf("module %s already mounted", m.prefix)
	}
	r.modules[m.prefix] = m
	return nil
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

type readiness struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks,omitempty"`
}

// Health registers GET /healthz, which always succeeds, and GET /readyz,
// which reports each named check and returns 503 unless all are ready.
func (r *Router) Health(checks map[string]lifecycle.ReadinessChecker) {
	checks = maps.Clone(checks)

	r.HandleNative("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, readiness{Status: "ok"})
	})

	r.HandleNative("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		body := readiness{Status: "ready", Checks: make(map[string]bool, len(checks))}
		status := http.StatusOK

		for name, c := range checks {
			ok := c.Ready()
			body.Checks[name] = ok
			if !ok {
				body.Status = "not ready"
				status = http.StatusServiceUnavailable
			}
		}

		handlers.RespondJSON(w, status, body)
	})
}

// ServeHTTP trims one trailing slash and dispatches the request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req = req.Clone(req.Context())
		req.URL.Path = strings.TrimSuffix(p, "/")
	}

	if m, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		m.ServeHTTP(w, req)
		return
	}

	r.native.ServeHTTP(w, req)
}

func firstSegment(path string) string {
	rest := strings.TrimPrefix(path, "/")
	seg, _, _ := strings.Cut(rest, "/")
	return "/" + seg
}
