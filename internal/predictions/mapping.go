package predictions

import (
	"net/url"
	"strconv"
	"time"

	"github.com/JaimeStill/jobcheck/pkg/query"
	"github.com/JaimeStill/jobcheck/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "predictions", "p").
	Project("id", "ID").
	Project("job_text", "JobText").
	Project("prediction", "Prediction").
	Project("confidence", "Confidence").
	Project("version", "Version").
	Project("model_name", "ModelName").
	Project("user_id", "UserID").
	Project("created_at", "CreatedAt").
	ProjectExpr("(f.id IS NOT NULL)", "Flagged").
	Join("LEFT JOIN public.prediction_flags f ON f.prediction_id = p.id")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var flagProjection = query.
	NewProjectionMap("public", "prediction_flags", "f").
	Project("id", "ID").
	Project("prediction_id", "PredictionID").
	Project("reason", "Reason").
	Project("flagged_by", "FlaggedBy").
	Project("flagged_at", "FlaggedAt")

var flagSort = query.SortField{
	Field:      "FlaggedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for prediction queries.
// Nil fields are ignored. Since, Until and MinConfidence are inclusive
// bounds; the rest match exactly.
type Filters struct {
	Prediction    *string    `json:"prediction,omitempty"`
	Version       *string    `json:"version,omitempty"`
	ModelName     *string    `json:"model_name,omitempty"`
	UserID        *string    `json:"user_id,omitempty"`
	Flagged       *bool      `json:"flagged,omitempty"`
	Since         *time.Time `json:"since,omitempty"`
	Until         *time.Time `json:"until,omitempty"`
	MinConfidence *float64   `json:"min_confidence,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Prediction", f.Prediction).
		WhereEquals("Version", f.Version).
		WhereEquals("ModelName", f.ModelName).
		WhereEquals("UserID", f.UserID).
		WhereEquals("Flagged", f.Flagged).
		WhereMin("CreatedAt", f.Since).
		WhereMax("CreatedAt", f.Until).
		WhereMin("Confidence", f.MinConfidence)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("prediction"); p != "" {
		f.Prediction = &p
	}

	if v := values.Get("version"); v != "" {
		f.Version = &v
	}

	if m := values.Get("model_name"); m != "" {
		f.ModelName = &m
	}

	if u := values.Get("user_id"); u != "" {
		f.UserID = &u
	}

	if fl := values.Get("flagged"); fl != "" {
		if b, err := strconv.ParseBool(fl); err == nil {
			f.Flagged = &b
		}
	}

	if t, err := time.Parse(time.RFC3339, values.Get("since")); err == nil {
		f.Since = &t
	}

	if t, err := time.Parse(time.RFC3339, values.Get("until")); err == nil {
		f.Until = &t
	}

	if c, err := strconv.ParseFloat(values.Get("min_confidence"), 64); err == nil {
		f.MinConfidence = &c
	}

	return f
}

func scanPrediction(s repository.Scanner) (Prediction, error) {
	var p Prediction
	err := s.Scan(
		&p.ID,
		&p.JobText,
		&p.Label,
		&p.Confidence,
		&p.Version,
		&p.ModelName,
		&p.UserID,
		&p.CreatedAt,
		&p.Flagged,
	)
	return p, err
}

func scanFlag(s repository.Scanner) (Flag, error) {
	var f Flag
	err := s.Scan(
		&f.ID,
		&f.PredictionID,
		&f.Reason,
		&f.FlaggedBy,
		&f.FlaggedAt,
	)
	return f, err
}
