package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/blogfront/internal/config"
	"github.com/vango-dev/blogfront/pkg/api"
	"github.com/vango-dev/blogfront/pkg/feed"
	"github.com/vango-dev/blogfront/pkg/middleware"
	"github.com/vango-dev/blogfront/pkg/upload"
	"github.com/vango-dev/blogfront/pkg/upstream"
)

// Option configures a Server.
type Option func(*Server)

// WithStore replaces the configured staging backend.
func WithStore(store upload.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHTTPClient sets the client used for content API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) {
		s.httpClient = client
	}
}

// Server is a configured blogfront instance.
type Server struct {
	cfg        *config.Config
	store      upload.Store
	hub        *feed.Hub
	metrics    *middleware.Metrics
	registry   *prometheus.Registry
	handler    http.Handler
	httpClient *http.Client
	logger     *slog.Logger
}

// New wires a Server from cfg. cfg should already be validated.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	base := s.logger
	s.logger = base.With("component", "server")

	if s.store == nil {
		store, err := NewStore(ctx, cfg.Staging)
		if err != nil {
			return nil, err
		}
		s.store = store
	}

	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = middleware.NewMetrics(middleware.WithRegistry(s.registry))

	client := upstream.New(upstream.Options{
		BaseURL:     cfg.Upstream.BaseURL,
		Token:       cfg.Upstream.Token,
		TokenHeader: cfg.Upstream.TokenHeader,
		HTTPClient:  s.httpClient,
		Timeout:     cfg.Upstream.Timeout.Std(),
		Observe:     s.metrics.ObserveUpstream,
		Logger:      base,
	})

	var publisher api.Publisher
	routerOpts := api.RouterOptions{
		Tracing: true,
		Logger:  base,
	}
	if !cfg.Feed.Disabled {
		s.hub = feed.NewHub(feed.Options{
			OnSubscribers: s.metrics.SetFeedSubscribers,
			Logger:        base,
		})
		publisher = s.hub
		routerOpts.Feed = s.hub
	}
	if !cfg.Metrics.Disabled {
		routerOpts.Metrics = s.metrics
		routerOpts.MetricsPath = cfg.Metrics.Path
		routerOpts.MetricsHandler = promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	}

	h := api.NewHandler(api.Options{
		Upstream: client,
		Store:    s.store,
		Feed:     publisher,
		Metrics:  s.metrics,
		Logger:   base,
	})
	s.handler = api.NewRouter(h, routerOpts)

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Store returns the staging backend.
func (s *Server) Store() upload.Store {
	return s.store
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done or a component fails, then shuts
// everything down. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout.Std(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), s.cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
		s.logger.Info("server shutdown complete")
		return nil
	})

	if s.hub != nil {
		g.Go(func() error {
			return s.hub.Run(gctx)
		})
	}

	g.Go(func() error {
		s.sweepLoop(gctx)
		return nil
	})

	return g.Wait()
}

// Sweep removes staged entries older than the configured max age.
func (s *Server) Sweep(ctx context.Context) (int, error) {
	n, err := s.store.Sweep(ctx, s.cfg.Staging.MaxAge.Std())
	s.metrics.Swept(n)
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.logger.Info("swept stale staged uploads", "removed", n)
	}
	return n, nil
}

// sweepLoop sweeps once at startup and then every SweepInterval.
func (s *Server) sweepLoop(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("sweep failed", "error", err)
	}

	interval := s.cfg.Staging.SweepInterval.Std()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("sweep failed", "error", err)
			}
		}
	}
}
