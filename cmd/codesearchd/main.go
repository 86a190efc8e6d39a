// Package main is the entry point for codesearchd, the MCP daemon that
// exposes the index service over stdio JSON-RPC. It is the outer
// transport layer: this file and server.go contain wiring only, no
// indexing logic.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cortexsearch/codesearch/internal/catalogue"
	"github.com/cortexsearch/codesearch/internal/config"
	"github.com/cortexsearch/codesearch/internal/indexsvc"
	"github.com/cortexsearch/codesearch/internal/logging"
	"github.com/cortexsearch/codesearch/internal/typecontext"
)

// defaultSweepInterval is how often the inactivity sweeper checks for
// index contexts idle past the configured threshold.
const defaultSweepInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "codesearchd:", err)
		os.Exit(1)
	}
}

func run() error {
	cleanup, err := logging.SetupMCPMode()
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer cleanup()
	logger := slog.Default()

	baseDir := config.GetUserConfigDir()
	if envDir := os.Getenv("CODESEARCH_BASE_DIR"); envDir != "" {
		baseDir = envDir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create base directory: %w", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		logger.Warn("failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.NewConfig()
	}

	cat, err := catalogue.Open(baseDir + "/catalogue.db")
	if err != nil {
		return fmt.Errorf("failed to open workspace catalogue: %w", err)
	}
	defer cat.Close()

	extractor := typecontext.NewTreeSitterExtractor()
	defer extractor.Close()

	idx, err := indexsvc.New(cfg, baseDir, cat, extractor, logger)
	if err != nil {
		return fmt.Errorf("failed to construct index service: %w", err)
	}
	defer idx.Close()

	idx.StartInactivitySweeper(defaultSweepInterval)
	defer idx.StopInactivitySweeper()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := newServer(idx, cfg, logger)
	return srv.Serve(ctx)
}
