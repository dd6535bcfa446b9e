// Package registry records every trained model version in the database and
// tracks which one is active.
package registry

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Domain errors for registry operations.
var (
	ErrNotFound  = errors.New("model version not found")
	ErrDuplicate = errors.New("model version already registered")
)

// MapHTTPStatus maps registry domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ModelVersion is a registered training run.
type ModelVersion struct {
	ID          uuid.UUID `json:"id"`
	Version     string    `json:"version"`
	ModelName   string    `json:"model_name"`
	Accuracy    float64   `json:"accuracy"`
	Precision   float64   `json:"precision"`
	Recall      float64   `json:"recall"`
	F1          float64   `json:"f1_score"`
	DatasetSize int       `json:"dataset_size"`
	TrainedBy   *string   `json:"trained_by"`
	TrainedAt   time.Time `json:"trained_at"`
	IsActive    bool      `json:"is_active"`
}

// RegisterCommand carries a persisted version to be registered.
type RegisterCommand struct {
	Version     string
	ModelName   string
	Accuracy    float64
	Precision   float64
	Recall      float64
	F1          float64
	DatasetSize int
	TrainedBy   string
	TrainedAt   time.Time
	Active      bool
}
