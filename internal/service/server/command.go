package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	api "github.com/oshokin/emergency-dispatch/internal/api/http"
	"github.com/oshokin/emergency-dispatch/internal/config"
	"github.com/oshokin/emergency-dispatch/internal/logger"
	repository "github.com/oshokin/emergency-dispatch/internal/repository/state"
)

// Options controls the dispatch-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override.
	ListenAddress string
	// StateFile specifies the path to persist dispatch state JSON.
	StateFile string
}

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// errJWTSecretRequired indicates missing token-signing configuration.
var errJWTSecretRequired = errors.New("JWT secret must be configured")

// Run starts the HTTP server and blocks until the context is canceled or
// the server stops. Loads configuration first, then restores persisted
// state before accepting requests.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "dispatch-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	// Tokens cannot be verified without a signing secret.
	if settings.JWTSecret == "" {
		return errJWTSecretRequired
	}

	// Command line options override the persisted settings.
	stateFile := resolveStateFile(settings.StateFile, opts.StateFile)

	listenAddress := settings.ListenAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	repo := repository.NewFileRepository(stateFile)

	svc, err := newService(ctx, repo, settings.AdminIdentity)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	handler := api.NewServer(api.Config{
		Service:         svc,
		JWTSecret:       []byte(settings.JWTSecret),
		BootstrapSecret: settings.BootstrapSecret,
		TokenTTL:        settings.TokenTTL,
	})

	httpServer := &http.Server{
		Addr:              listenAddress,
		Handler:           handler.Router(),
		ReadHeaderTimeout: settings.Timeout,
	}

	logger.InfoKV(ctx, "Dispatch server listening",
		"listen_address", listenAddress, "state_file", stateFile)

	// Done channel is closed after Shutdown finishes so we block until
	// in-flight requests have drained before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.ErrorKV(ctx, "Failed to shut down HTTP server", "error", shutdownErr)
		}

		close(done)
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "HTTP server stopped")

	return nil
}

// resolveStateFile picks the state path: a non-empty command line override
// wins, otherwise the settings file value is used.
func resolveStateFile(configured, override string) string {
	if override != "" {
		return override
	}

	return configured
}
