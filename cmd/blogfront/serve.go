package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/vango-dev/blogfront/internal/config"
	"github.com/vango-dev/blogfront/internal/server"
)

type serveFlags struct {
	addr            string
	upstream        string
	upstreamTimeout time.Duration
	stagingBackend  string
	stagingDir      string
	logLevel        string
	logFormat       string
	noFeed          bool
	noMetrics       bool
}

func serveCmd(opts *globalOptions) *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the blogfront HTTP server.

Configuration is read from blogfront.json, .env and the environment;
flags override all of them. API_TOKEN must be set.

Examples:
  blogfront serve
  blogfront serve --addr=:8080
  API_TOKEN=... blogfront serve --staging-backend=s3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().StringVarP(&f.addr, "addr", "a", "", "Listen address (default "+config.DefaultAddress+")")
	cmd.Flags().StringVar(&f.upstream, "upstream", "", "Content API base URL")
	cmd.Flags().DurationVar(&f.upstreamTimeout, "upstream-timeout", 0, "Timeout for each content API call (0 = none)")
	cmd.Flags().StringVar(&f.stagingBackend, "staging-backend", "", "Staging backend: disk or s3")
	cmd.Flags().StringVar(&f.stagingDir, "staging-dir", "", "Directory for the disk staging backend")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: text or json")
	cmd.Flags().BoolVar(&f.noFeed, "no-feed", false, "Disable the live post feed")
	cmd.Flags().BoolVar(&f.noMetrics, "no-metrics", false, "Disable the metrics endpoint")

	return cmd
}

// apply copies the flags the user set onto cfg.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("addr") {
		cfg.Server.Address = f.addr
	}
	if changed("upstream") {
		cfg.Upstream.BaseURL = f.upstream
	}
	if changed("upstream-timeout") {
		cfg.Upstream.Timeout = config.Duration(f.upstreamTimeout)
	}
	if changed("staging-backend") {
		cfg.Staging.Backend = f.stagingBackend
	}
	if changed("staging-dir") {
		cfg.Staging.Dir = f.stagingDir
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if changed("no-feed") {
		cfg.Feed.Disabled = f.noFeed
	}
	if changed("no-metrics") {
		cfg.Metrics.Disabled = f.noMetrics
	}
}

func runServe(ctx context.Context, out io.Writer, cfg *config.Config) error {
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.New(ctx, cfg, server.WithLogger(logger))
	if err != nil {
		return err
	}

	printBanner(out)
	success(out, "Listening on %s", cfg.Server.Address)
	info(out, "Upstream:  %s", cfg.Upstream.BaseURL)
	info(out, "Staging:   %s", stagingDescription(cfg))
	if !cfg.Metrics.Disabled {
		info(out, "Metrics:   %s", cfg.Metrics.Path)
	}
	if cfg.Feed.Disabled {
		warn(out, "Live feed disabled")
	}
	fmt.Fprintln(out)

	return s.Run(ctx)
}

func stagingDescription(cfg *config.Config) string {
	if cfg.Staging.Backend == config.BackendS3 {
		return fmt.Sprintf("s3://%s/%s", cfg.Staging.S3.Bucket, cfg.Staging.S3.Prefix)
	}
	return cfg.Staging.Dir
}

// newLogger builds the process logger from the log config. Validate has
// already checked level and format.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}
