package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrDuplicatePath is returned by AddPaths when a path is already described.
var ErrDuplicatePath = errors.New("duplicate path")

// Spec is an OpenAPI 3.1 document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec creates a Spec described by cfg with the shared error responses
// already registered.
func NewSpec(cfg *Config, version string) *Spec {
	return &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:       cfg.Title,
			Description: cfg.Description,
			Version:     version,
		},
		Components: NewComponents(),
		Paths:      make(map[string]*PathItem),
	}
}

// AddServer appends a server entry.
func (s *Spec) AddServer(url, description string) {
	s.Servers = append(s.Servers, &Server{URL: url, Description: description})
}

// AddPaths adds every path in paths. Nothing is added if any path is
// already present.
func (s *Spec) AddPaths(paths map[string]*PathItem) error {
	for p := range paths {
		if _, exists := s.Paths[p]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicatePath, p)
		}
	}
	for p, item := range paths {
		s.Paths[p] = item
	}
	return nil
}

// MarshalIndent renders the document as indented JSON.
func (s *Spec) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// ServeSpec returns a handler for a serialized document. Responses carry a
// strong ETag and conditional requests that match it get 304.
func ServeSpec(body []byte) http.HandlerFunc {
	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}
