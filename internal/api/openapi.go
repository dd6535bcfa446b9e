package api

import (
	"maps"
	"net/http"

	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/pkg/auth"
	"github.com/JaimeStill/jobcheck/pkg/openapi"
	"github.com/JaimeStill/jobcheck/pkg/routes"
)

func openAPIRoutes(cfg *config.Config) (routes.Group, error) {
	doc, err := buildSpec(cfg)
	if err != nil {
		return routes.Group{}, err
	}
	spec, err := doc.MarshalIndent()
	if err != nil {
		return routes.Group{}, err
	}

	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: cfg.API.OpenAPI.Path, Handler: openapi.ServeSpec(spec)},
		},
	}, nil
}

func buildSpec(cfg *config.Config) (*openapi.Spec, error) {
	spec := openapi.NewSpec(&cfg.API.OpenAPI, cfg.Version)
	spec.AddServer(cfg.API.BasePath, "jobcheck API")
	spec.Components.AddSchemas(schemas())
	if cfg.Auth.Provider != auth.ProviderNone {
		spec.Components.AddBearerAuth("JWT; admin endpoints require the " + cfg.Auth.AdminRole + " role")
	}

	for _, paths := range []map[string]*openapi.PathItem{
		predictionPaths(),
		modelPaths(),
		storagePaths(),
	} {
		if err := spec.AddPaths(paths); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

var zero, one = 0.0, 1.0

func str(description string) *openapi.Schema {
	return &openapi.Schema{Type: "string", Description: description}
}

func num(description string) *openapi.Schema {
	return &openapi.Schema{Type: "number", Description: description}
}

func integer(description string) *openapi.Schema {
	return &openapi.Schema{Type: "integer", Description: description}
}

func timestamp() *openapi.Schema {
	return &openapi.Schema{Type: "string", Format: "date-time"}
}

func page(item string) *openapi.Schema {
	return &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef(item)},
			"total":       integer("Total matching rows"),
			"page":        integer("Current page"),
			"page_size":   integer("Rows per page"),
			"total_pages": integer("Page count"),
			"has_next":    {Type: "boolean"},
		},
	}
}

func pageParams() []*openapi.Parameter {
	return []*openapi.Parameter{
		openapi.QueryParam("page", "1-indexed page number", &openapi.Schema{Type: "integer"}),
		openapi.QueryParam("page_size", "Rows per page", &openapi.Schema{Type: "integer"}),
		openapi.QueryParam("search", "Case-insensitive substring filter", &openapi.Schema{Type: "string"}),
		openapi.QueryParam("sort", "Comma-separated view fields, - for descending", &openapi.Schema{Type: "string"}),
	}
}

func schemas() map[string]*openapi.Schema {
	metrics := map[string]*openapi.Schema{
		"accuracy":  num("Holdout accuracy"),
		"precision": num("Holdout precision for the Fake class"),
		"recall":    num("Holdout recall for the Fake class"),
		"f1_score":  num("Holdout F1 for the Fake class"),
	}

	metadata := map[string]*openapi.Schema{
		"version":           str("Version id, v<seq>_YYYYMMDD_HHMMSS"),
		"model_name":        str("Selected classifier"),
		"trained_at":        timestamp(),
		"dataset_size":      integer("Rows used for training"),
		"features":          str("Feature extractor summary"),
		"all_results":       {Type: "array", Items: openapi.SchemaRef("Result")},
		"classifier_sha256": str("Checksum of classifier.bin"),
		"extractor_sha256":  str("Checksum of extractor.bin"),
		"trained_by":        str("Actor that triggered training"),
	}
	maps.Copy(metadata, metrics)

	result := map[string]*openapi.Schema{"model": str("Candidate classifier")}
	maps.Copy(result, metrics)

	active := map[string]*openapi.Schema{
		"activated_at": timestamp(),
		"loaded":       {Type: "boolean", Description: "Whether the serving cache holds this version"},
	}
	maps.Copy(active, metadata)

	return map[string]*openapi.Schema{
		"PredictCommand": {
			Type:     "object",
			Required: []string{"job_text"},
			Properties: map[string]*openapi.Schema{
				"job_text": str("Posting text to classify"),
			},
		},
		"Document": {
			Type:        "object",
			Description: "Posting fields joined in order before classification",
			Properties: map[string]*openapi.Schema{
				"title":           str(""),
				"company_profile": str(""),
				"description":     str(""),
				"requirements":    str(""),
				"benefits":        str(""),
				"text":            str(""),
			},
		},
		"PredictResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"prediction":    {Type: "string", Enum: []any{"Fake", "Real"}},
				"confidence":    num("Percentage confidence of the predicted class"),
				"version":       str("Model version that produced the prediction"),
				"model_name":    str("Classifier name"),
				"prediction_id": {Type: "string", Format: "uuid", Description: "Omitted when the prediction could not be recorded"},
				"analyzed_at":   timestamp(),
			},
		},
		"Prediction": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"job_text":   str(""),
				"prediction": {Type: "string", Enum: []any{"Fake", "Real"}},
				"confidence": num("Fraction in [0, 1]"),
				"version":    str(""),
				"model_name": str(""),
				"user_id":    str("Caller subject, null when anonymous"),
				"created_at": timestamp(),
				"flagged":    {Type: "boolean"},
			},
		},
		"PredictionPage": page("Prediction"),
		"FlagCommand": {
			Type:     "object",
			Required: []string{"reason"},
			Properties: map[string]*openapi.Schema{
				"reason": str("Why the prediction is wrong"),
			},
		},
		"Flag": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":            {Type: "string", Format: "uuid"},
				"prediction_id": {Type: "string", Format: "uuid"},
				"reason":        str(""),
				"flagged_by":    str(""),
				"flagged_at":    timestamp(),
			},
		},
		"FlagPage":      page("Flag"),
		"Result":        {Type: "object", Properties: result},
		"ModelMetadata": {Type: "object", Properties: metadata},
		"ActiveModel":   {Type: "object", Properties: active},
		"ModelVersion": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"version":      str(""),
				"model_name":   str(""),
				"accuracy":     num(""),
				"precision":    num(""),
				"recall":       num(""),
				"f1_score":     num(""),
				"dataset_size": integer(""),
				"trained_by":   str(""),
				"trained_at":   timestamp(),
				"is_active":    {Type: "boolean"},
			},
		},
		"ModelVersionPage": page("ModelVersion"),
		"StorageListing": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"prefix": str("Requested key prefix"),
				"keys":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"count":  integer("Number of keys"),
			},
		},
	}
}

func predictionPaths() map[string]*openapi.PathItem {
	tags := []string{"Predictions"}
	id := openapi.PathParam("id", "Prediction ID", "uuid")

	return map[string]*openapi.PathItem{
		"/predict": {
			Post: &openapi.Operation{
				Summary:     "Classify a job posting",
				Tags:        tags,
				RequestBody: openapi.RequestBodyJSON("PredictCommand", true),
				Responses: map[int]*openapi.Response{
					http.StatusOK:                 openapi.ResponseJSON("Prediction", "PredictResult"),
					http.StatusBadRequest:         openapi.ResponseRef("BadRequest"),
					http.StatusServiceUnavailable: openapi.ResponseRef("Unavailable"),
				},
			},
		},
		"/predict/document": {
			Post: &openapi.Operation{
				Summary:     "Classify a job posting given as fields",
				Tags:        tags,
				RequestBody: openapi.RequestBodyJSON("Document", true),
				Responses: map[int]*openapi.Response{
					http.StatusOK:                 openapi.ResponseJSON("Prediction", "PredictResult"),
					http.StatusBadRequest:         openapi.ResponseRef("BadRequest"),
					http.StatusServiceUnavailable: openapi.ResponseRef("Unavailable"),
				},
			},
		},
		"/predictions": {
			Get: &openapi.Operation{
				Summary: "List recorded predictions",
				Tags:    tags,
				Parameters: append(pageParams(),
					openapi.QueryParam("prediction", "Predicted label", &openapi.Schema{Type: "string", Enum: []any{"Fake", "Real"}}),
					openapi.QueryParam("version", "Model version", &openapi.Schema{Type: "string"}),
					openapi.QueryParam("flagged", "Only rows with or without a flag", &openapi.Schema{Type: "boolean"}),
					openapi.QueryParam("since", "Created at or after", timestamp()),
					openapi.QueryParam("until", "Created at or before", timestamp()),
					openapi.QueryParam("min_confidence", "Lower bound on the stored fraction", &openapi.Schema{Type: "number", Minimum: &zero, Maximum: &one}),
				),
				Responses: map[int]*openapi.Response{
					http.StatusOK: openapi.ResponseJSON("Predictions", "PredictionPage"),
				},
			},
		},
		"/predictions/search": {
			Post: &openapi.Operation{
				Summary:     "Search recorded predictions",
				Tags:        tags,
				RequestBody: openapi.RequestBodyJSON("PageRequest", true),
				Responses: map[int]*openapi.Response{
					http.StatusOK:         openapi.ResponseJSON("Predictions", "PredictionPage"),
					http.StatusBadRequest: openapi.ResponseRef("BadRequest"),
				},
			},
		},
		"/predictions/flagged": {
			Get: &openapi.Operation{
				Summary:    "List prediction flags",
				Tags:       tags,
				Parameters: pageParams(),
				Responses: map[int]*openapi.Response{
					http.StatusOK: openapi.ResponseJSON("Flags", "FlagPage"),
				},
			},
		},
		"/predictions/{id}": {
			Get: &openapi.Operation{
				Summary:    "Find a prediction",
				Tags:       tags,
				Parameters: []*openapi.Parameter{id},
				Responses: map[int]*openapi.Response{
					http.StatusOK:         openapi.ResponseJSON("Prediction", "Prediction"),
					http.StatusBadRequest: openapi.ResponseRef("BadRequest"),
					http.StatusNotFound:   openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/predictions/{id}/flag": {
			Post: &openapi.Operation{
				Summary:     "Flag a prediction as incorrect",
				Tags:        tags,
				Parameters:  []*openapi.Parameter{id},
				RequestBody: openapi.RequestBodyJSON("FlagCommand", true),
				Responses: map[int]*openapi.Response{
					http.StatusCreated:    openapi.ResponseJSON("Flag", "Flag"),
					http.StatusBadRequest: openapi.ResponseRef("BadRequest"),
					http.StatusNotFound:   openapi.ResponseRef("NotFound"),
					http.StatusConflict:   openapi.ResponseRef("Conflict"),
				},
			},
		},
	}
}

func modelPaths() map[string]*openapi.PathItem {
	tags := []string{"Models"}
	version := openapi.PathParam("version", "Model version", "")

	return map[string]*openapi.PathItem{
		"/models": {
			Get: &openapi.Operation{
				Summary: "List persisted model versions, newest first",
				Tags:    tags,
				Responses: map[int]*openapi.Response{
					http.StatusOK: openapi.ResponseJSONArray("Versions", "ModelMetadata"),
				},
			},
		},
		"/models/active": {
			Get: &openapi.Operation{
				Summary: "Describe the active model",
				Tags:    tags,
				Responses: map[int]*openapi.Response{
					http.StatusOK:       openapi.ResponseJSON("Active model", "ActiveModel"),
					http.StatusNotFound: openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/models/{version}": {
			Get: &openapi.Operation{
				Summary:    "Read a version's metadata",
				Tags:       tags,
				Parameters: []*openapi.Parameter{version},
				Responses: map[int]*openapi.Response{
					http.StatusOK:         openapi.ResponseJSON("Metadata", "ModelMetadata"),
					http.StatusBadRequest: openapi.ResponseRef("BadRequest"),
					http.StatusNotFound:   openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/models/retrain": {
			Post: &openapi.Operation{
				Summary:     "Train, persist, and activate a new version",
				Description: "Requires the admin role. Concurrent requests receive 409.",
				Tags:        tags,
				Security:    openapi.Bearer(),
				Responses: map[int]*openapi.Response{
					http.StatusCreated:      openapi.ResponseJSON("New version", "ModelMetadata"),
					http.StatusUnauthorized: openapi.ResponseRef("Unauthorized"),
					http.StatusForbidden:    openapi.ResponseRef("Forbidden"),
					http.StatusConflict:     openapi.ResponseRef("Conflict"),
				},
			},
		},
		"/models/{version}/activate": {
			Post: &openapi.Operation{
				Summary:     "Activate an existing version",
				Description: "Requires the admin role.",
				Tags:        tags,
				Security:    openapi.Bearer(),
				Parameters:  []*openapi.Parameter{version},
				Responses: map[int]*openapi.Response{
					http.StatusOK:           openapi.ResponseJSON("Active model", "ActiveModel"),
					http.StatusBadRequest:   openapi.ResponseRef("BadRequest"),
					http.StatusUnauthorized: openapi.ResponseRef("Unauthorized"),
					http.StatusForbidden:    openapi.ResponseRef("Forbidden"),
					http.StatusNotFound:     openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/registry": {
			Get: &openapi.Operation{
				Summary:    "List registered model versions",
				Tags:       []string{"Registry"},
				Parameters: pageParams(),
				Responses: map[int]*openapi.Response{
					http.StatusOK: openapi.ResponseJSON("Registered versions", "ModelVersionPage"),
				},
			},
		},
		"/registry/{version}": {
			Get: &openapi.Operation{
				Summary:    "Find a registered version",
				Tags:       []string{"Registry"},
				Parameters: []*openapi.Parameter{version},
				Responses: map[int]*openapi.Response{
					http.StatusOK:       openapi.ResponseJSON("Registered version", "ModelVersion"),
					http.StatusNotFound: openapi.ResponseRef("NotFound"),
				},
			},
		},
	}
}

func storagePaths() map[string]*openapi.PathItem {
	tags := []string{"Storage"}

	return map[string]*openapi.PathItem{
		"/storage": {
			Get: &openapi.Operation{
				Summary:  "List artifact keys",
				Tags:     tags,
				Security: openapi.Bearer(),
				Parameters: []*openapi.Parameter{
					openapi.QueryParam("prefix", "Key prefix", &openapi.Schema{Type: "string"}),
				},
				Responses: map[int]*openapi.Response{
					http.StatusOK:           openapi.ResponseJSON("Keys", "StorageListing"),
					http.StatusUnauthorized: openapi.ResponseRef("Unauthorized"),
					http.StatusForbidden:    openapi.ResponseRef("Forbidden"),
				},
			},
		},
		"/storage/download/{key}": {
			Get: &openapi.Operation{
				Summary:    "Download an artifact file",
				Tags:       tags,
				Security:   openapi.Bearer(),
				Parameters: []*openapi.Parameter{openapi.PathParam("key", "Storage key", "")},
				Responses: map[int]*openapi.Response{
					http.StatusOK:           {Description: "File contents"},
					http.StatusBadRequest:   openapi.ResponseRef("BadRequest"),
					http.StatusUnauthorized: openapi.ResponseRef("Unauthorized"),
					http.StatusForbidden:    openapi.ResponseRef("Forbidden"),
					http.StatusNotFound:     openapi.ResponseRef("NotFound"),
				},
			},
		},
	}
}
