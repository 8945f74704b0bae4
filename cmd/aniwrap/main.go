package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/amaumene/aniwrap/internal/api"
	"github.com/amaumene/aniwrap/internal/config"
	"github.com/amaumene/aniwrap/internal/controllers"
	"github.com/amaumene/aniwrap/internal/models"
	"github.com/amaumene/aniwrap/internal/scheduler"
	"github.com/amaumene/aniwrap/internal/services/anilist"
	"github.com/amaumene/aniwrap/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aniwrap",
		Short:         "Yearly anime watch statistics from AniList",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newWrappedCmd())
	root.AddCommand(newUserCmd())
	return root
}

// setup loads configuration and builds a logger. CLI commands other than
// serve log to stderr so their stdout stays machine readable.
func setup(logOutput io.Writer) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if logOutput != nil {
		logger.SetOutput(logOutput)
	}
	return cfg, logger, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the snapshot refresh scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	// 1. Load configuration
	cfg, logger, err := setup(nil)
	if err != nil {
		return err
	}
	logger.Info("Starting aniwrap")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 2. Tracing
	shutdownTracing := utils.NewTracerProvider("aniwrap")
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to shut down tracer provider")
		}
	}()

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize services
	anilistClient, err := anilist.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize AniList client: %w", err)
	}
	logger.Info("AniList client initialized")

	// 5. Initialize controllers
	wrappedCtrl := controllers.NewWrappedController(anilistClient, logger)
	refreshCtrl := controllers.NewRefreshController(db, wrappedCtrl, cfg.SnapshotRetention, logger)
	logger.Info("Controllers initialized")

	// 6. Initialize scheduler
	if cfg.RefreshEnabled {
		sched := scheduler.NewScheduler(refreshCtrl, cfg.RefreshSchedule, logger)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	} else {
		logger.Info("Snapshot refresh disabled")
	}

	// 7. Initialize HTTP server
	server := api.NewServer(cfg, db, wrappedCtrl, refreshCtrl, logger)

	// Start server in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 8. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("aniwrap is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("aniwrap stopped")
	return nil
}
