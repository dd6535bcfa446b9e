package registry

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/jobcheck/pkg/handlers"
	"github.com/JaimeStill/jobcheck/pkg/pagination"
	"github.com/JaimeStill/jobcheck/pkg/routes"
)

// Handler provides HTTP endpoints for the model version registry.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "registry"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for registry endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/models/history",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{version}", Handler: h.Find},
		},
	}
}

// List returns a paginated list of registered versions, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns the registry entry of one version.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	m, err := h.sys.Find(r.Context(), r.PathValue("version"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, m)
}
