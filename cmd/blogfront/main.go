package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/blogfront/internal/config"
	"github.com/vango-dev/blogfront/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┐ ┬  ┌─┐┌─┐┌─┐┬─┐┌─┐┌┐┌┌┬┐
  ├┴┐│  │ ││ ┬├┤ ├┬┘│ ││││ │
  └─┘┴─┘└─┘└─┘└  ┴└─└─┘┘└┘ ┴
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	envFile    string
	noColor    bool
}

// load reads the layered configuration. Flags are applied by the caller.
func (o *globalOptions) load() (*config.Config, error) {
	return config.Load(config.LoadOptions{
		File:    o.configFile,
		EnvFile: o.envFile,
	})
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "blogfront",
		Short: "Blog backend that relays posts to a content API",
		Long: `blogfront serves the local API behind the blog UI.

It relays new posts, including their image upload, to the remote
content API with the configured token, and proxies the category
and post listings. Features include:

  • Streaming multipart relay with guaranteed upload cleanup
  • Disk or S3 staging for in-flight uploads
  • Live post feed over WebSocket
  • Prometheus metrics and OpenTelemetry tracing`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (default ./blogfront.json if present)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Dotenv file (default ./.env if present)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		serveCmd(opts),
		sweepCmd(opts),
		initCmd(),
		codesCmd(),
		versionCmd(),
	)

	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
