// Package module mounts self-contained HTTP modules under single-segment
// path prefixes, each with its own middleware stack.
package module

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/jobcheck/pkg/middleware"
)

// ErrInvalidPrefix is returned for prefixes that are not a single path
// segment such as "/api".
var ErrInvalidPrefix = errors.New("invalid module prefix")

// Module serves requests under prefix. The prefix is removed from the
// request path before the inner handler sees it.
type Module struct {
	prefix string
	inner  http.Handler
	stack  middleware.System

	once    sync.Once
	handler http.Handler
}

// New creates a Module for prefix.
func New(prefix string, inner http.Handler) (*Module, error) {
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{
		prefix: prefix,
		inner:  inner,
		stack:  middleware.New(),
	}, nil
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. The stack is fixed once the first request has
// been served.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.stack.Use(mw)
}

// ServeHTTP strips the prefix and dispatches through the middleware stack.
func (m *Module) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.once.Do(func() {
		m.handler = m.stack.Apply(m.inner)
	})
	m.handler.ServeHTTP(w, strip(req, m.prefix))
}

// strip returns a shallow copy of req whose path has prefix removed.
func strip(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	out := req.Clone(req.Context())
	out.URL = new(url.URL)
	*out.URL = *req.URL
	out.URL.Path = path
	out.URL.RawPath = ""
	return out
}

func validatePrefix(prefix string) error {
	rest, ok := strings.CutPrefix(prefix, "/")
	switch {
	case !ok:
		return fmt.Errorf("%w %q: must start with /", ErrInvalidPrefix, prefix)
	case rest == "":
		return fmt.Errorf("%w %q: empty segment", ErrInvalidPrefix, prefix)
	case strings.Contains(rest, "/"):
		return fmt.Errorf("%w %q: must be a single segment", ErrInvalidPrefix, prefix)
	}
	return nil
}
