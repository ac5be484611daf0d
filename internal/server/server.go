package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrew-woosnam/crossgrant/internal/config"
	"github.com/andrew-woosnam/crossgrant/internal/constants"
	"github.com/andrew-woosnam/crossgrant/internal/credentials"
	"github.com/andrew-woosnam/crossgrant/internal/probe"
)

// Run starts the probe HTTP server and blocks until shutdown.
func Run(ctx context.Context, cfg *config.Env, log *slog.Logger) error {
	provider, err := credentials.New(cfg.Credentials)
	if err != nil {
		return fmt.Errorf("failed to build credential provider: %w", err)
	}

	runner, err := probe.NewRunner(ctx, cfg, provider, log)
	if err != nil {
		return fmt.Errorf("failed to initialize probe runner: %w", err)
	}

	router := NewRouter(cfg, runner, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  constants.ServerReadTimeout,
		WriteTimeout: constants.ServerWriteTimeout,
		IdleTimeout:  constants.ServerIdleTimeout,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting probe server",
			"port", cfg.Port,
			"version", *constants.GetVersion(),
			"credential", provider.Name(),
			"checks", runner.CheckNames(),
		)

		if serveErr := srv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("failed to start server: %w", serveErr)
		}
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case runErr := <-serverErrors:
		return runErr
	case <-ctx.Done():
		log.Info("shutting down probe server (context canceled)...")
	case <-quit:
		log.Info("shutting down probe server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(), constants.ServerShutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return fmt.Errorf("server shutdown error: %w", shutdownErr)
	}

	log.Info("probe server shutdown complete")
	return nil
}
