package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactiveurl/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reactiveurl",
		Short: "Keep filter fields in sync with a URL query string",
		Long: `reactiveurl tracks a set of filter fields, keeps them in a URL query
string and pushes the resulting URL to connected clients.

  • filter[key] namespacing for selected fields
  • debounced URL pushes over websocket
  • Prometheus metrics and OpenTelemetry spans per change`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		serveCmd(),
		queryCmd(),
		initCmd(),
		versionCmd(),
	)
	return cmd
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
