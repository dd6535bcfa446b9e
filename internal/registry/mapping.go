package registry

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/jobcheck/pkg/query"
	"github.com/JaimeStill/jobcheck/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "model_versions", "m").
	Project("id", "ID").
	Project("version", "Version").
	Project("model_name", "ModelName").
	Project("accuracy", "Accuracy").
	Project("precision", "Precision").
	Project("recall", "Recall").
	Project("f1_score", "F1").
	Project("dataset_size", "DatasetSize").
	Project("trained_by", "TrainedBy").
	Project("trained_at", "TrainedAt").
	Project("is_active", "IsActive")

var defaultSort = query.SortField{
	Field:      "TrainedAt",
	Descending: true,
}

const returning = `RETURNING id, version, model_name, accuracy, precision, recall,
			  f1_score, dataset_size, trained_by, trained_at, is_active`

// Filters contains optional filtering criteria for model version queries.
type Filters struct {
	ModelName *string `json:"model_name,omitempty"`
	TrainedBy *string `json:"trained_by,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ModelName", f.ModelName).
		WhereEquals("TrainedBy", f.TrainedBy).
		WhereEquals("IsActive", f.IsActive)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if m := values.Get("model_name"); m != "" {
		f.ModelName = &m
	}

	if t := values.Get("trained_by"); t != "" {
		f.TrainedBy = &t
	}

	if a := values.Get("is_active"); a != "" {
		if b, err := strconv.ParseBool(a); err == nil {
			f.IsActive = &b
		}
	}

	return f
}

func scanModelVersion(s repository.Scanner) (ModelVersion, error) {
	var m ModelVersion
	err := s.Scan(
		&m.ID,
		&m.Version,
		&m.ModelName,
		&m.Accuracy,
		&m.Precision,
		&m.Recall,
		&m.F1,
		&m.DatasetSize,
		&m.TrainedBy,
		&m.TrainedAt,
		&m.IsActive,
	)
	return m, err
}
