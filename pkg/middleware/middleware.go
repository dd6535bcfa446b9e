// Package middleware holds the HTTP middleware stack and the CORS, request
// logging and panic recovery layers mounted on the API.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"

	"github.com/JaimeStill/jobcheck/pkg/handlers"
)

// System is an ordered middleware stack. The first middleware added is
// the outermost.
type System interface {
	Use(mw func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type stack []func(http.Handler) http.Handler

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mw func(http.Handler) http.Handler) {
	*s = append(*s, mw)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(*s) {
		handler = mw(handler)
	}
	return handler
}

// Recover turns a panic in next into a 500 response and logs it with the
// stack trace. http.ErrAbortHandler is re-raised so the server can abort
// the connection.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.ErrorContext(r.Context(), "handler panic",
					"method", r.Method,
					"uri", r.URL.RequestURI(),
					"panic", v,
					"stack", string(debug.Stack()),
				)
				handlers.RespondJSON(w, http.StatusInternalServerError,
					handlers.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
