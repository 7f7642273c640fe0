package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/j0hanz/cortex"
	"github.com/j0hanz/cortex/config"
	"github.com/j0hanz/cortex/httpapi"
	"github.com/j0hanz/cortex/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cortex HTTP server",
	Long:  "Start the cortex API server that manages reasoning sessions and background tasks.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	}).WithComponent("server")

	engine := cortex.New(
		cortex.FromConfig(cfg),
		func(o *cortex.Options) { o.Logger = logger },
	)
	if err := engine.Start(); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer engine.Stop()

	handler := httpapi.New(engine, logger)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "\nShutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
