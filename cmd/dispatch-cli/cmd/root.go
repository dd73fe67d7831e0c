package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/emergency-dispatch/internal/config"
	"github.com/oshokin/emergency-dispatch/internal/service/client"
	"github.com/oshokin/emergency-dispatch/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverURL overrides the server URL from config.
	serverURL string
	// token is the bearer token for authenticated calls.
	token string

	// rootCmd represents the base command for dispatch operations.
	rootCmd = &cobra.Command{
		Use:   "dispatch-cli",
		Short: "Interact with the emergency dispatch server.",
		Long: `Command-line client for the emergency dispatch server.

Reports emergencies, dispatches responders, allocates resources and inspects
coordinator state over the server's HTTP API. Mutating commands require a
bearer token, obtained with "dispatch-cli token" and passed via --token or
the DISPATCH_TOKEN environment variable.`,
	}
)

// commandContext returns a context canceled on SIGTERM/SIGINT plus the
// shared client options assembled from the persistent flags.
func commandContext() (context.Context, context.CancelFunc, *client.Options) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	return ctx, stop, &client.Options{
		ConfigPath: cfgPath,
		ServerURL:  serverURL,
		Token:      token,
	}
}

// Execute runs the dispatch-cli and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup persistent flags shared by every subcommand.
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "dispatch server URL override")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token for authenticated calls")
}
