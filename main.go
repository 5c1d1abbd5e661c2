package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/medishortage-api/alerts"
	"github.com/giygas/medishortage-api/cache"
	"github.com/giygas/medishortage-api/config"
	"github.com/giygas/medishortage-api/data"
	"github.com/giygas/medishortage-api/directory"
	"github.com/giygas/medishortage-api/geo"
	"github.com/giygas/medishortage-api/handlers"
	"github.com/giygas/medishortage-api/health"
	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/medicineparser"
	"github.com/giygas/medishortage-api/scheduler"
	"github.com/giygas/medishortage-api/server"
	"github.com/giygas/medishortage-api/storage"
	"github.com/giygas/medishortage-api/validation"
	"github.com/joho/godotenv"
)

// application holds the wired components so they can be closed in order
type application struct {
	server        *server.Server
	scheduler     *scheduler.Scheduler
	store         *storage.SQLiteStore
	cache         interfaces.AlternativesCache
	dataContainer *data.DataContainer
}

func main() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithRetentionAndSize("logs", cfg.Env, cfg.LogLevel, cfg.LogRetentionWeeks, cfg.MaxLogFileSize)

	if err := run(cfg); err != nil {
		logging.Error("Server exited with error", "error", err)
		_ = logging.Close()
		os.Exit(1)
	}
	_ = logging.Close()
}

func run(cfg *config.Config) error {
	app, err := newApplication(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := app.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return app.server.Shutdown(ctx)
}

// newApplication loads the directory and the catalog and wires the HTTP server.
// A catalog that fails to load is retried by the scheduler while the rest of
// the API serves. On error everything opened so far is closed.
func newApplication(ctx context.Context, cfg *config.Config) (app *application, err error) {
	app = &application{}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	dir, err := directory.Load(cfg.DirectoryPath)
	if err != nil {
		return app, err
	}

	app.store, err = storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return app, err
	}

	if err = app.store.SeedPharmacies(ctx, dir.Pharmacies); err != nil {
		return app, err
	}
	logging.Info("Directory loaded", "locations", len(dir.Locations), "pharmacies", len(dir.Pharmacies))

	app.cache, err = newAlternativesCache(ctx, cfg)
	if err != nil {
		return app, err
	}

	monitor := alerts.NewMonitor(app.store,
		alerts.WithThreshold(cfg.AlertThreshold),
		alerts.WithWindow(time.Duration(cfg.AlertWindowDays)*24*time.Hour),
	)

	app.dataContainer = data.NewDataContainer()
	app.dataContainer.SetServerStartTime(time.Now())

	validator := validation.NewDataValidator()
	loader := medicineparser.NewMedicinesParser(cfg.DatasetPath)

	app.scheduler = scheduler.NewScheduler(app.dataContainer, loader, validator, app.cache, cfg.ReloadAt)
	if err = app.scheduler.Start(); err != nil {
		return app, err
	}

	healthChecker := health.NewHealthChecker(app.dataContainer, cfg.ReloadAt,
		health.WithStore(app.store),
		health.WithCache(app.cache),
	)

	handler := handlers.NewHTTPHandler(handlers.Dependencies{
		DataStore:     app.dataContainer,
		Validator:     validator,
		Cache:         app.cache,
		Pharmacies:    app.store,
		Inventory:     app.store,
		Locations:     geo.NewLocationTable(dir.Locations),
		Monitor:       monitor,
		HealthChecker: healthChecker,
	}, handlers.Settings{
		TopK:               cfg.SimilarTopK,
		SearchRadiusKm:     cfg.SearchRadiusKm,
		CoordinateRadiusKm: cfg.CoordinateRadiusKm,
	})

	app.server = server.NewServer(cfg, handler)
	return app, nil
}

// Close stops the scheduler and releases the cache and the database
func (a *application) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logging.Warn("Failed to close alternatives cache", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Warn("Failed to close database", "error", err)
		}
	}
}

// newAlternativesCache uses redis when REDIS_URL is set, otherwise an in-process LRU
func newAlternativesCache(ctx context.Context, cfg *config.Config) (interfaces.AlternativesCache, error) {
	if cfg.RedisURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		redisCache, err := cache.NewRedisCache(connectCtx, cfg.RedisURL, 0)
		if err != nil {
			return nil, err
		}
		logging.Info("Using redis alternatives cache")
		return redisCache, nil
	}

	lruCache, err := cache.NewLRUCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create alternatives cache: %w", err)
	}
	return lruCache, nil
}
