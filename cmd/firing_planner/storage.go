package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/internal/database"
	"github.com/cannonfire/planner/internal/dispatcher"
	"github.com/cannonfire/planner/internal/influx"
	"github.com/cannonfire/planner/internal/logging"
	"github.com/cannonfire/planner/internal/monitor"
	"github.com/cannonfire/planner/internal/plot"
	"github.com/cannonfire/planner/internal/storage"
	gormstorage "github.com/cannonfire/planner/internal/storage/gorm"
	"github.com/cannonfire/planner/internal/storage/memory"
	"github.com/cannonfire/planner/internal/worker"
	"github.com/cannonfire/planner/pkg/core"
)

// initServices creates the storage backend, the optional influx and plot
// sinks, and registers the worker handlers with a new dispatcher.
func initServices() error {
	var err error
	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(infraLogger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	storageCfg := config.GetStorageConfig()
	storageBackend, err = storage.NewBackend(storageCfg, SlogManager, infraLogger)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := storageBackend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return err
	}
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)

	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		influxManager = influx.NewManager(infraLogger, influxCfg)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := influxManager.Connect(ctx)
		cancel()
		if err != nil {
			Logger.Error("Failed to set up InfluxDB, metrics disabled", "error", err)
			influxManager = nil
		}
	}

	var plotter *plot.Renderer
	if plotCfg := config.GetPlotConfig(); plotCfg.Enabled {
		plotter = plot.New(plotCfg, config.GetEngineConfig().Gravity)
	}

	workerManager = worker.NewManager(worker.Dependencies{
		LogManager: SlogManager,
		Session:    runContext,
		Influx:     influxManager,
		Plotter:    plotter,
	}, storageBackend)

	Logger.Debug("Registering worker handlers with dispatcher")
	workerManager.RegisterHandlers(eventDispatcher)

	if monitorCfg := config.GetMonitorConfig(); monitorCfg.Enabled {
		deps := monitor.Dependencies{
			LogManager: SlogManager,
			Session:    runContext,
			StatusPath: monitorCfg.StatusFile,
			Interval:   monitorCfg.Interval,
		}
		if p, ok := storageBackend.(monitor.PendingCounter); ok {
			deps.Pending = p
		}
		monitorService = monitor.NewService(deps)
		if err := monitorService.Start(); err != nil {
			Logger.Error("Failed to start status monitor", "error", err)
			monitorService = nil
		}
	}
	return nil
}

func shutdownServices() {
	if monitorService != nil {
		monitorService.Stop()
	}
	if eventDispatcher != nil {
		eventDispatcher.Close()
	}
	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
	}
	if influxManager != nil {
		if err := influxManager.Close(); err != nil {
			Logger.Error("Failed to close InfluxDB manager", "error", err)
		}
	}
}

// loadHistory reads a stored run from wherever the configured backend
// persists it: the exported JSON for memory storage, the dump file for
// sqlite, and the database for postgres.
func loadHistory(runID string) (*core.RunHistory, error) {
	storageCfg := config.GetStorageConfig()

	switch storageCfg.Type {
	case storage.TypeSQLite:
		if _, err := os.Stat(storageCfg.SQLite.Path); err != nil {
			return nil, fmt.Errorf("no sqlite dump at %s: %w", storageCfg.SQLite.Path, err)
		}
		db, err := database.OpenSqlite(storageCfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return gormstorage.New(gormstorage.Dependencies{DB: db, LogManager: SlogManager}).LoadRun(runID)

	case storage.TypePostgres:
		backend, err := storage.NewBackend(storageCfg, SlogManager, infraLogger)
		if err != nil {
			return nil, err
		}
		if err := backend.Init(); err != nil {
			return nil, err
		}
		defer backend.Close()
		reader, ok := backend.(storage.Reader)
		if !ok {
			return nil, fmt.Errorf("storage type %s cannot read runs", storageCfg.Type)
		}
		return reader.LoadRun(runID)

	default:
		return loadExport(storageCfg.Memory.OutputDir, runID)
	}
}

func loadExport(dir, runID string) (*core.RunHistory, error) {
	for _, name := range []string{runID + ".json.gz", runID + ".json"} {
		path := filepath.Join(dir, name)
		export, err := memory.ReadExport(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return export.History(), nil
	}
	return nil, fmt.Errorf("no export for %s in %s", runID, dir)
}
