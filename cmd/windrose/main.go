package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/windrose-analytics/windrose/internal/catalog"
	"github.com/windrose-analytics/windrose/internal/config"
	"github.com/windrose-analytics/windrose/internal/core/storage/postgres"
	"github.com/windrose-analytics/windrose/internal/migrations"
	"github.com/windrose-analytics/windrose/internal/planner"
	"github.com/windrose-analytics/windrose/internal/server"
	"github.com/windrose-analytics/windrose/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "windrose.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	// 2. Initialize Definition Storage
	var repo catalog.Repository
	var db *sql.DB
	if cfg.Database.DSN != "" {
		adapter, err := postgres.NewAdapter(
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
		)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer adapter.Close()

		if err := migrations.RunMigrations(adapter.DB(), cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}

		repo = adapter
		db = adapter.DB()
	} else {
		slog.Info("No database configured; definitions are held in memory")
		repo = catalog.NewMemoryRepository()
	}

	registry := catalog.NewRegistry(repo)

	// 3. Seed Definitions from Files
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defs, err := catalog.LoadDir(cfg.Catalog.ConfigDir)
	if err != nil {
		slog.Error("Failed to load metric definitions", "dir", cfg.Catalog.ConfigDir, "error", err)
		os.Exit(1)
	}
	if cfg.Catalog.RequireDefinitions && len(defs) == 0 {
		slog.Error("No metric definitions found", "dir", cfg.Catalog.ConfigDir)
		os.Exit(1)
	}
	seeded := 0
	for _, def := range defs {
		if _, err := registry.Register(ctx, def); err != nil {
			// Already-stored file definitions are fine on restart.
			if errors.Is(err, catalog.ErrAlreadyExists) {
				continue
			}
			slog.Error("Failed to register definition", "name", def.Name, "error", err)
			os.Exit(1)
		}
		seeded++
	}
	telemetry.DefinitionsLoaded.Set(float64(len(defs)))
	slog.Info("Definition catalog ready", "loaded", len(defs), "seeded", seeded)

	// 4. Initialize HTTP Server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := server.New(addr, db, cfg.Server.Mode)

	planService := planner.NewService(registry)
	planService.RegisterRoutes(srv.Engine)

	// 5. Run until shutdown signal
	if err := srv.Run(ctx); err != nil {
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}
