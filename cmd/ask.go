package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/doctalk0/doctalk/internal/app"
	"github.com/doctalk0/doctalk/internal/session"
)

// runAsk answers a single question against the current knowledge base, set
// by a previous `doctalk index` invocation.
func runAsk() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: doctalk ask <question>")
	}
	question := strings.Join(os.Args[2:], " ")

	folder, err := session.LoadCurrentFolder()
	if err != nil {
		return fmt.Errorf("loading current knowledge base: %w", err)
	}
	if folder == "" {
		return fmt.Errorf("no knowledge base selected, run: doctalk index <folder>")
	}

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

	if ok, message := a.Store.LoadOrBuild(ctx, folder); !ok {
		return fmt.Errorf("preparing knowledge base: %s", message)
	}

	resp := a.Responder.Generate(ctx, folder, question, nil)

	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range resp.Sources {
			fmt.Printf("  %s\n", src)
		}
	}
	if len(resp.Suggestions) > 0 {
		fmt.Println("\nYou could also ask:")
		for _, s := range resp.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	return nil
}
