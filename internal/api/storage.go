package api

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/JaimeStill/jobcheck/pkg/auth"
	"github.com/JaimeStill/jobcheck/pkg/handlers"
	"github.com/JaimeStill/jobcheck/pkg/routes"
	"github.com/JaimeStill/jobcheck/pkg/storage"
)

// artifactTypes maps artifact file extensions to response content types.
var artifactTypes = map[string]string{
	".json": "application/json",
	".bin":  "application/zstd",
}

// storageListing is the response of GET /storage.
type storageListing struct {
	Prefix string   `json:"prefix"`
	Keys   []string `json:"keys"`
	Count  int      `json:"count"`
}

// storageHandler gives administrators read access to the artifact store.
type storageHandler struct {
	store     storage.System
	logger    *slog.Logger
	adminRole string
}

func newStorageHandler(store storage.System, logger *slog.Logger, adminRole string) *storageHandler {
	return &storageHandler{
		store:     store,
		logger:    logger.With("handler", "storage"),
		adminRole: adminRole,
	}
}

func (h *storageHandler) routes() routes.Group {
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return auth.RequireRole(h.adminRole, h.logger, next)
	}

	return routes.Group{
		Prefix:     "/storage",
		Middleware: []routes.Middleware{admin},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download},
		},
	}
}

func (h *storageHandler) list(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	keys, err := h.store.List(r.Context(), prefix)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	if keys == nil {
		keys = []string{}
	}

	handlers.RespondJSON(w, http.StatusOK, storageListing{
		Prefix: prefix,
		Keys:   keys,
		Count:  len(keys),
	})
}

func (h *storageHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	ct, ok := artifactTypes[path.Ext(key)]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)}))
	w.WriteHeader(http.StatusOK)

	if n, err := io.Copy(w, body); err != nil {
		h.logger.Warn("download interrupted", "key", key, "written", n, "error", err)
	}
}
