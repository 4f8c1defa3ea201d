package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/doctalk0/doctalk/internal/api"
	"github.com/doctalk0/doctalk/internal/app"
)

// runServe initializes the application and starts the HTTP API server.
func runServe() error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	addr, err := parseServeAddr(cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting HTTP API server", "version", Version)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	srv, err := api.NewServer(api.ServerConfig{
		Logger:       logger,
		Indexer:      a.Store,
		Responder:    a.Responder,
		Sessions:     a.Sessions,
		Loader:       a.Loader,
		HistoryDepth: cfg.HistoryDepth,
		Folders:      a.Folders,
		Catalog:      a.Catalog,
		Pool:         a.DBPool,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx, addr)
}
