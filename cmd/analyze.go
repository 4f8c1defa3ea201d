package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/doctalk0/doctalk/internal/app"
)

// runAnalyze refreshes the document catalog for a folder. Requires the
// catalog (and therefore PostgreSQL) to be enabled in config.
func runAnalyze() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: doctalk analyze <folder>")
	}
	folder := os.Args[2]

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	if a.Analyzer == nil {
		return fmt.Errorf("document catalog is disabled, set DOCTALK_CATALOG_ENABLED=true and configure PostgreSQL")
	}

	if err := a.Analyzer.Analyze(ctx, folder); err != nil {
		return fmt.Errorf("analyzing folder: %w", err)
	}
	fmt.Println("Catalog updated.")
	return nil
}
