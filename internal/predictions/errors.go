package predictions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/jobcheck/internal/serving"
)

// Domain errors for prediction operations.
var (
	ErrEmptyInput   = errors.New("job text is empty after preprocessing")
	ErrInvalidInput = errors.New("job text length out of range")
	ErrNotFound     = errors.New("prediction not found")
	ErrDuplicate    = errors.New("prediction already flagged")
)

// MapHTTPStatus maps prediction domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return serving.MapHTTPStatus(err)
}
