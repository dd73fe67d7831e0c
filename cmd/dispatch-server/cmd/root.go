package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/emergency-dispatch/internal/config"
	"github.com/oshokin/emergency-dispatch/internal/service/server"
	"github.com/oshokin/emergency-dispatch/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where dispatch state is persisted.
	stateFile string

	// rootCmd represents the base command for running the HTTP server.
	rootCmd = &cobra.Command{
		Use:   "dispatch-server [listen-address]",
		Short: "Run the emergency dispatch server.",
		Long: `Starts the HTTP server that coordinates emergencies, responders and resources.

The server listens on the specified address or uses settings from the configuration file.
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:8080).
Dispatch state is persisted to a JSON file for recovery across restarts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				StateFile:     stateFile,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the dispatch-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&stateFile, "state-file", "s", "", "path to persist dispatch state (defaults to the settings file value)")
}
