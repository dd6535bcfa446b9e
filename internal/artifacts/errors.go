package artifacts

import (
	"errors"
	"net/http"
)

// Domain errors for artifact persistence and loading.
var (
	ErrNoActiveVersion   = errors.New("no active model version")
	ErrArtifactCorrupt   = errors.New("model artifact corrupt")
	ErrPersistFailed     = errors.New("model artifact persist failed")
	ErrIncompleteVersion = errors.New("model version incomplete")
	ErrInvalidVersion    = errors.New("invalid model version id")
)

// MapHTTPStatus maps artifact errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNoActiveVersion) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrIncompleteVersion) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidVersion) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
