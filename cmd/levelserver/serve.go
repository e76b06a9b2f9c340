package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/milk9111/slingshot/config"
	"github.com/milk9111/slingshot/levelstore"
	"github.com/milk9111/slingshot/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServer(flagConfig)
	if err != nil {
		return err
	}
	applyFlags(cfg, cmd)

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(logger.Named("hub"))
	store, closeStore, err := openStore(ctx, cfg.Storage, hub, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := server.New(store, hub, logger.Named("http"))
	// directory watching already reports writes made through the API
	srv.PublishWrites = cfg.Storage.Driver == "sqlite" || !cfg.Storage.Watch

	httpServer := &http.Server{
		Addr:         cfg.HTTP.BindAddress,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("level server listening",
			zap.String("addr", cfg.HTTP.BindAddress),
			zap.String("driver", cfg.Storage.Driver))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// applyFlags overrides config values with the flags the user set.
func applyFlags(cfg *config.ServerConfig, cmd *cobra.Command) {
	if cmd.Flags().Changed("addr") {
		cfg.HTTP.BindAddress = flagAddr
	}
	if cmd.Flags().Changed("driver") {
		cfg.Storage.Driver = flagDriver
	}
	if cmd.Flags().Changed("dir") {
		cfg.Storage.Dir = flagDir
	}
	if cmd.Flags().Changed("dsn") {
		cfg.Storage.DSN = flagDSN
	}
}

// openStore opens the configured backend. For the file driver with watching
// enabled, directory changes are forwarded to hub until ctx is done.
func openStore(ctx context.Context, cfg config.StorageConfig, hub *server.Hub, logger *zap.Logger) (levelstore.Store, func(), error) {
	switch cfg.Driver {
	case "file", "":
		fs, err := levelstore.NewFileStore(cfg.Dir, logger.Named("store"))
		if err != nil {
			return nil, nil, err
		}
		if !cfg.Watch {
			return fs, func() {}, nil
		}
		w, err := levelstore.NewWatcher(fs.Dir())
		if err != nil {
			return nil, nil, fmt.Errorf("watch %s: %w", fs.Dir(), err)
		}
		go hub.Forward(ctx, w.Events)
		go func() {
			for err := range w.Errors {
				logger.Warn("watch error", zap.Error(err))
			}
		}()
		return fs, func() { w.Close() }, nil
	case "sqlite":
		db, err := levelstore.OpenSQL(ctx, cfg.DSN, logger.Named("store"))
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
