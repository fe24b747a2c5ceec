package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/blogfront/internal/config"
	"github.com/vango-dev/blogfront/internal/server"
)

func sweepCmd(opts *globalOptions) *cobra.Command {
	var (
		maxAge     time.Duration
		backend    string
		stagingDir string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale staged uploads",
		Long: `Remove staged uploads left behind by a crashed server.

Only entries older than the max age are removed, so it is safe to run
next to a live server.

Examples:
  blogfront sweep
  blogfront sweep --max-age=10m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-age") {
				cfg.Staging.MaxAge = config.Duration(maxAge)
			}
			if cmd.Flags().Changed("staging-backend") {
				cfg.Staging.Backend = backend
			}
			if cmd.Flags().Changed("staging-dir") {
				cfg.Staging.Dir = stagingDir
			}

			store, err := server.NewStore(cmd.Context(), cfg.Staging)
			if err != nil {
				return err
			}
			n, err := store.Sweep(cmd.Context(), cfg.Staging.MaxAge.Std())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			success(out, "Removed %d stale staged upload(s)", n)
			info(out, "Older than %s in %s", cfg.Staging.MaxAge, stagingDescription(cfg))
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove entries older than this (default from config)")
	cmd.Flags().StringVar(&backend, "staging-backend", "", "Staging backend: disk or s3")
	cmd.Flags().StringVar(&stagingDir, "staging-dir", "", "Directory for the disk staging backend")

	return cmd
}
