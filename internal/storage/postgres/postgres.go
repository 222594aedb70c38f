// Package postgres implements the storage.Backend interface on PostgreSQL.
// Connection handling lives here; queueing and writes come from the
// embedded GORM backend.
package postgres

import (
	"fmt"

	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/internal/database"
	"github.com/cannonfire/planner/internal/logging"
	gormstorage "github.com/cannonfire/planner/internal/storage/gorm"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Config holds connection settings.
type Config struct {
	Postgres     config.PostgresConfig
	FallbackPath string // SQLite file used when Postgres is unreachable
	FlushSize    int
}

// Backend implements storage.Backend on PostgreSQL, falling back to a
// local SQLite file like the database manager does.
type Backend struct {
	*gormstorage.Backend
	cfg     Config
	manager *database.Manager
	log     *logging.SlogManager
}

// New creates a Postgres backend. The connection is opened in Init.
func New(cfg Config, logManager *logging.SlogManager, dbLogger zerolog.Logger) *Backend {
	if logManager == nil {
		logManager = logging.NewSlogManager()
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			LogManager: logManager,
			FlushSize:  cfg.FlushSize,
		}),
		cfg:     cfg,
		manager: database.NewManager(dbLogger),
		log:     logManager,
	}
}

// NewWithDB creates a backend on an already open database, skipping the
// connection step in Init.
func NewWithDB(db *gorm.DB, logManager *logging.SlogManager) *Backend {
	b := New(Config{}, logManager, zerolog.Nop())
	b.Backend.SetDB(db)
	return b
}

// Init connects, migrates and reports whether the fallback was used.
func (b *Backend) Init() error {
	if b.Backend.DB() == nil {
		if err := b.manager.Connect(b.cfg.Postgres, b.cfg.FallbackPath); err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.Backend.SetDB(b.manager.DB)
		if b.manager.ShouldSaveLocal {
			b.log.WriteLog("postgres:Init", "Postgres unavailable, storing runs in "+b.cfg.FallbackPath, "WARN")
		}
	}
	return b.Backend.Init()
}

// UsingFallback reports whether runs are going to the local SQLite file.
func (b *Backend) UsingFallback() bool {
	return b.manager.ShouldSaveLocal
}

// Close flushes queued generations and closes the connection pool when
// this backend opened it.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	return b.manager.Close()
}
