package retrain

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/jobcheck/pkg/auth"
	"github.com/JaimeStill/jobcheck/pkg/handlers"
	"github.com/JaimeStill/jobcheck/pkg/routes"
)

// Handler provides HTTP endpoints for model versions. Mutating endpoints
// require the admin role.
type Handler struct {
	sys       System
	logger    *slog.Logger
	adminRole string
}

// NewHandler creates a Handler guarding mutations with adminRole.
func NewHandler(sys System, logger *slog.Logger, adminRole string) *Handler {
	return &Handler{
		sys:       sys,
		logger:    logger.With("handler", "models"),
		adminRole: adminRole,
	}
}

// Routes returns the route group definition for model endpoints.
func (h *Handler) Routes() routes.Group {
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return auth.RequireRole(h.adminRole, h.logger, next)
	}

	return routes.Group{
		Prefix: "/models",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/active", Handler: h.Active},
			{Method: "GET", Pattern: "/{version}", Handler: h.Find},
		},
		Children: []routes.Group{{
			Middleware: []routes.Middleware{admin},
			Routes: []routes.Route{
				{Method: "POST", Pattern: "/retrain", Handler: h.Retrain},
				{Method: "POST", Pattern: "/{version}/activate", Handler: h.Activate},
			},
		}},
	}
}

// List returns the metadata of every stored version, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	versions, err := h.sys.Versions(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, versions)
}

// Active returns the metadata of the active version.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	active, err := h.sys.Active(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, active)
}

// Find returns the metadata of one version.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	md, err := h.sys.Version(r.Context(), r.PathValue("version"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, md)
}

// Retrain trains and activates a new version. Returns 201 with its metadata.
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	md, err := h.sys.Retrain(r.Context(), actor(r))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, md)
}

// Activate makes an existing version active.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	md, err := h.sys.Activate(r.Context(), r.PathValue("version"), actor(r))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, md)
}

func actor(r *http.Request) string {
	if id := auth.FromContext(r.Context()); id != nil {
		return id.Name()
	}
	return ""
}
