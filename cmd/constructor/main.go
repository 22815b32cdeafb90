package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/constructhq/constructor/internal/collab"
	"github.com/constructhq/constructor/internal/config"
	"github.com/constructhq/constructor/internal/library"
	"github.com/constructhq/constructor/internal/logger"
	"github.com/constructhq/constructor/internal/palette"
	"github.com/constructhq/constructor/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to JSON config file")
		addr       = flag.String("addr", "", "listen address (overrides config)")
		dbPath     = flag.String("db", "", "SQLite database path (overrides config)")
		logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error, none")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Global().Close()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	templates, err := library.OpenDB(db)
	if err != nil {
		return err
	}
	palettes, err := palette.OpenDB(db)
	if err != nil {
		return err
	}
	if err := palettes.SeedPresets(); err != nil {
		return err
	}

	registry := collab.NewRegistry(time.Duration(cfg.RoomGraceSeconds) * time.Second)
	settings := collab.Settings{
		MaxMessageBytes: cfg.MaxMessageBytes,
		SendQueueSize:   cfg.SendQueueSize,
	}

	srv := server.New(cfg.Addr, registry, settings, templates, palettes)
	if err := srv.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	return srv.Stop()
}
