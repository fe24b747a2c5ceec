package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/blogfront/pkg/middleware"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Metrics, if set, records per-route request metrics.
	Metrics *middleware.Metrics

	// MetricsHandler is mounted at MetricsPath when set.
	MetricsHandler http.Handler

	// MetricsPath defaults to "/metrics".
	MetricsPath string

	// Feed is mounted at /api/feed when set.
	Feed http.Handler

	// Tracing enables server spans.
	Tracing bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewRouter wires h and the auxiliary endpoints into a chi router.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Handler)
	}
	if opts.Tracing {
		r.Use(middleware.Tracing(middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != opts.MetricsPath
		})))
	}
	r.Use(Recover(opts.Logger))

	// Method checks live in the handlers so 405s carry the plain-text body.
	r.HandleFunc("/api/createPost", h.CreatePost)
	r.HandleFunc("/api/getCategories", h.GetCategories)
	r.HandleFunc("/api/getPosts", h.GetPosts)

	if opts.Feed != nil {
		r.Handle("/api/feed", opts.Feed)
	}
	if opts.MetricsHandler != nil {
		r.Handle(opts.MetricsPath, opts.MetricsHandler)
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("component", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				logger.InfoContext(r.Context(), "request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", chimw.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
