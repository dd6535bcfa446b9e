package training

import (
	"errors"
	"net/http"
)

// Domain errors for training runs.
var (
	// ErrTrainingAborted marks a dataset that cannot produce a usable model:
	// empty, a single class, too few rows per class, or no vocabulary.
	ErrTrainingAborted = errors.New("training aborted")
	// ErrInvalidCorpus marks a training file that cannot be parsed.
	ErrInvalidCorpus = errors.New("invalid training corpus")
)

// MapHTTPStatus maps training errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrTrainingAborted) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrInvalidCorpus) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
