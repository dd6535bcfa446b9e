package retrain

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/jobcheck/internal/artifacts"
	"github.com/JaimeStill/jobcheck/internal/serving"
	"github.com/JaimeStill/jobcheck/internal/training"
)

// ErrRetrainInProgress rejects a retrain or activation while another runs.
var ErrRetrainInProgress = errors.New("retrain already in progress")

// MapHTTPStatus maps retrain errors, including those of the training,
// artifact and serving layers, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrRetrainInProgress):
		return http.StatusConflict
	case errors.Is(err, training.ErrTrainingAborted), errors.Is(err, training.ErrInvalidCorpus):
		return training.MapHTTPStatus(err)
	case errors.Is(err, serving.ErrModelUnavailable):
		return serving.MapHTTPStatus(err)
	}
	return artifacts.MapHTTPStatus(err)
}
