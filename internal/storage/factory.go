package storage

import (
	"fmt"

	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/internal/logging"
	gormstorage "github.com/cannonfire/planner/internal/storage/gorm"
	"github.com/cannonfire/planner/internal/storage/memory"
	"github.com/cannonfire/planner/internal/storage/postgres"
	sqlitestorage "github.com/cannonfire/planner/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// Type names accepted in storage.type
const (
	TypeMemory   = "memory"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, logManager *logging.SlogManager, dbLogger zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case TypePostgres:
		return postgres.New(postgres.Config{
			Postgres:     cfg.Postgres,
			FallbackPath: cfg.SQLite.Path,
		}, logManager, dbLogger), nil
	case TypeSQLite:
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.Path,
			FlushSize:    gormstorage.DefaultFlushSize,
		}, logManager)
	case TypeMemory, "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
