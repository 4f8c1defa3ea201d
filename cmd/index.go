package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/doctalk0/doctalk/internal/app"
	"github.com/doctalk0/doctalk/internal/document"
	"github.com/doctalk0/doctalk/internal/session"
)

// runIndex builds or loads the index for a folder and makes it the current
// knowledge base for subsequent ask invocations.
func runIndex() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: doctalk index <folder>")
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

	folder, err = a.Folders.Validate(folder)
	if err != nil {
		return fmt.Errorf("folder not allowed: %w", err)
	}

	ok, message := a.Store.LoadOrBuild(ctx, folder)
	fmt.Println(message)
	if !ok {
		os.Exit(1)
	}

	if empty, err := a.Loader.EmptyDocs(folder); err == nil && len(empty) > 0 {
		fmt.Println("\nFiles with no extractable text (scanned or image-only?):")
		for _, name := range empty {
			fmt.Printf("  %s\n", name)
		}
	}

	if err := session.SaveCurrentFolder(folder); err != nil {
		logger.Warn("saving current knowledge base failed", "error", err)
	}
	return nil
}

// runEmptyDocs lists files that yielded no text, without touching any model
// provider.
func runEmptyDocs() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: doctalk empty-docs <folder>")
	}
	folder := os.Args[2]

	_, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	loader := document.NewLoader(logger)
	empty, err := loader.EmptyDocs(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(empty) == 0 {
		fmt.Println("All documents have extractable text.")
		return nil
	}
	for _, name := range empty {
		fmt.Println(name)
	}
	return nil
}

// runTokens counts model tokens across a folder's documents.
func runTokens() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: doctalk tokens <folder>")
	}
	folder := os.Args[2]

	_, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	loader := document.NewLoader(logger)
	total, err := loader.CountTokens(folder)
	if err != nil {
		return fmt.Errorf("counting tokens: %w", err)
	}

	fmt.Printf("%d tokens\n", total)
	return nil
}
