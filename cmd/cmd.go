// Package cmd provides the doctalk CLI commands.
//
// Commands:
//   - index: build or load the vector index for a documents folder
//   - ask: answer a question against the current knowledge base
//   - empty-docs: list files with no extractable text
//   - tokens: count model tokens across a folder
//   - analyze: refresh the document catalog (requires PostgreSQL)
//   - serve: HTTP JSON API server
//
// Signal handling and graceful shutdown are implemented for all commands
// via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/doctalk0/doctalk/internal/config"
	"github.com/doctalk0/doctalk/internal/log"
)

// Execute is the main entry point for the doctalk CLI.
func Execute() error {
	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "index":
		return runIndex()
	case "ask":
		return runAsk()
	case "empty-docs":
		return runEmptyDocs()
	case "tokens":
		return runTokens()
	case "analyze":
		return runAnalyze()
	case "serve":
		return runServe()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// loadConfigAndLogger loads the configuration and builds the root logger.
func loadConfigAndLogger() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})

	return cfg, logger, nil
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("doctalk - document question answering over your own files")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  doctalk index <folder>      Index a documents folder and make it current")
	fmt.Println("  doctalk ask <question>      Answer a question from the current knowledge base")
	fmt.Println("  doctalk empty-docs <folder> List files with no extractable text")
	fmt.Println("  doctalk tokens <folder>     Count model tokens across a folder")
	fmt.Println("  doctalk analyze <folder>    Refresh the document catalog (needs PostgreSQL)")
	fmt.Println("  doctalk serve [addr]        Start the HTTP API server (default: 127.0.0.1:3500)")
	fmt.Println("  doctalk --version           Show version information")
	fmt.Println("  doctalk --help              Show this help")
	fmt.Println()
	fmt.Println("Supported document types: PDF, Word (.docx), Excel (.xlsx)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY   API key for the default gemini provider")
	fmt.Println("  DOCTALK_*        Configuration overrides (see config documentation)")
	fmt.Println("  DEBUG            Enable debug logging")
}
