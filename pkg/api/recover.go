package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/blogfront/internal/errors"
)

// Recover turns a handler panic into a 500 with the unexpected-error
// envelope. Deferred cleanup in the handler has already run by the time
// the panic reaches here.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := errors.New(errors.CodeUnexpectedError).Wrap(fmt.Errorf("panic: %v", rec))
				logger.ErrorContext(r.Context(), "handler panic",
					"path", r.URL.Path,
					"request_id", chimw.GetReqID(r.Context()),
					"error", err.Error(),
					"stack", string(debug.Stack()),
				)
				// Upgraded connections have no response to write.
				if r.Header.Get("Connection") == "Upgrade" {
					return
				}
				writeJSON(w, err.Status, err.Envelope())
			}()
			next.ServeHTTP(w, r)
		})
	}
}
