package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"reminderengine/internal/infrastructure/rpc"
	"reminderengine/internal/interfaces/api/handler"
	"reminderengine/internal/interfaces/api/router"
	"reminderengine/internal/pkg/config"
	appLogger "reminderengine/internal/pkg/logger"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// newServeCmd creates the "engine serve" subcommand.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine",
		Long:  "Runs the HTTP surface, the application bridge, the alarm scheduler\nand the work runner until interrupted. Alarms are restored on start.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log appLogger.Logger) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.cron.AddJob(fmt.Sprintf("@every %s", cfg.JobPollInterval), a.runner.Kick); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	// --- API Handlers ---
	var lineHandler *handler.LineHandler
	if a.line != nil {
		lineHandler = handler.NewLineHandler(a.line, a.recipients, a.dispatcher, a.alarms, cfg.SnoozeDelay, cfg.HandlerTimeout, log)
	}
	echoRouter := router.NewRouter(&router.Config{
		ActionHandler: handler.NewActionHandler(a.dispatcher, a.boot, a.alarms, a.bridge, cfg.HandlerTimeout, log),
		BridgeHandler: handler.NewBridgeHandler(gctx, rpc.NewServer(a.commands, a.notifier, log), log),
		LineHandler:   lineHandler,
		Gatherer:      a.registry,
		Logger:        log,
	})

	// --- HTTP Server ---
	// No read/write timeouts: bridge connections are long-lived.
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           echoRouter,
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// A (re)started engine has lost every in-memory wake trigger.
	if err := a.boot.OnBoot(gctx); err != nil {
		log.Error("Failed to queue alarm restore on startup", err)
	}

	g.Go(func() error {
		return a.runner.Start(gctx)
	})
	g.Go(func() error {
		log.Info(fmt.Sprintf("Server starting on port %d", cfg.Port))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info("Graceful shutdown complete.")
	return err
}
