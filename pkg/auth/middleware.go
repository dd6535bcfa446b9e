package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/jobcheck/pkg/handlers"
)

// Authenticate verifies the bearer token of each request and stores the
// identity in the request context. Requests without a token pass through as
// anonymous; requests with an invalid token are rejected. A nil verifier
// leaves every request anonymous.
func Authenticate(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok || v == nil {
				next.ServeHTTP(w, r)
				return
			}

			id, err := v.Verify(r.Context(), token)
			if err != nil {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrUnauthorized)
				logger.Debug("token rejected", "error", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole wraps next so that only identities carrying role reach it.
func RequireRole(role string, logger *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := FromContext(r.Context())
		if id == nil {
			handlers.RespondError(w, logger, http.StatusUnauthorized, ErrUnauthorized)
			return
		}
		if !id.HasRole(role) {
			handlers.RespondError(w, logger, http.StatusForbidden, fmt.Errorf("%w: role %q required", ErrForbidden, role))
			return
		}
		next(w, r)
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
