// Package main is the entry point for the shopping list API server.
//
// The main package is kept minimal. Its job is to:
// 1. Read configuration (defaults, .env, environment, flags)
// 2. Create dependencies (logger, database directory)
// 3. Start the application
//
// All actual logic lives in the internal/ packages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/flacode/shopping-list-api/internal/config"
	"github.com/flacode/shopping-list-api/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Later sources win: defaults < .env < environment < flags.
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	// === 2. SET UP LOGGING ===
	logger, err := cfg.NewLogger(os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	// === 3. DATABASE DIRECTORY ===
	// os.MkdirAll works like `mkdir -p`.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
