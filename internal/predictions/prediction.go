// Package predictions classifies job postings with the served model and keeps
// a log of predictions and user flags.
package predictions

import (
	"time"

	"github.com/google/uuid"
)

// Prediction labels.
const (
	LabelFake = "Fake"
	LabelReal = "Real"
)

// Bounds on submitted job text, in runes.
const (
	MinTextLength = 10
	MaxTextLength = 50000
	// StoredTextLength is the prefix of the job text kept in the log.
	StoredTextLength = 5000
)

// Result is the outcome of classifying one posting. Confidence is a
// percentage with two decimals.
type Result struct {
	Prediction   string     `json:"prediction"`
	Confidence   float64    `json:"confidence"`
	Version      string     `json:"version"`
	ModelName    string     `json:"model_name"`
	PredictionID *uuid.UUID `json:"prediction_id,omitempty"`
	AnalyzedAt   time.Time  `json:"analyzed_at"`

	probability float64
}

// Probability returns the confidence as a fraction rounded to four decimals.
func (r *Result) Probability() float64 {
	return r.probability
}

// Prediction is a logged prediction. Confidence is a fraction in [0, 1].
type Prediction struct {
	ID         uuid.UUID `json:"id"`
	JobText    string    `json:"job_text"`
	Label      string    `json:"prediction"`
	Confidence float64   `json:"confidence"`
	Version    string    `json:"version"`
	ModelName  string    `json:"model_name"`
	UserID     *string   `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	Flagged    bool      `json:"flagged"`
}

// Flag marks a prediction as suspicious.
type Flag struct {
	ID           uuid.UUID `json:"id"`
	PredictionID uuid.UUID `json:"prediction_id"`
	Reason       string    `json:"reason"`
	FlaggedBy    string    `json:"flagged_by"`
	FlaggedAt    time.Time `json:"flagged_at"`
}

// PredictCommand is the body of a prediction request.
type PredictCommand struct {
	JobText string `json:"job_text"`
}

// FlagCommand is the body of a flag request.
type FlagCommand struct {
	Reason string `json:"reason"`
}

// RecordCommand carries a prediction to be logged.
type RecordCommand struct {
	JobText    string
	Label      string
	Confidence float64
	Version    string
	ModelName  string
	UserID     *string
}
