package database

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSqlite_InMemoryIsIsolated(t *testing.T) {
	a, err := OpenSqlite("")
	require.NoError(t, err)
	b, err := OpenSqlite("")
	require.NoError(t, err)

	require.NoError(t, Migrate(a))
	require.NoError(t, a.Create(&model.Run{Name: "only_in_a", StartTime: time.Now()}).Error)

	assert.True(t, a.Migrator().HasTable(&model.Run{}))
	assert.False(t, b.Migrator().HasTable(&model.Run{}), "second in-memory DB must be separate")
}

func TestMigrate_CreatesTables(t *testing.T) {
	db, err := OpenSqlite("")
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable("runs"))
	assert.True(t, db.Migrator().HasTable("generations"))

	// idempotent
	require.NoError(t, Migrate(db))
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := OpenSqlite("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Run{Name: "run_dump", StartTime: time.Now()}).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// a second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	_, err = os.Stat(path)
	require.NoError(t, err)

	disk, err := OpenSqlite(path)
	require.NoError(t, err)
	var run model.Run
	require.NoError(t, disk.Where("name = ?", "run_dump").First(&run).Error)
	assert.Equal(t, "run_dump", run.Name)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	db, err := OpenSqlite("")
	require.NoError(t, err)

	err = DumpMemoryDBToDisk(db, "")
	assert.ErrorContains(t, err, "sqlite file path not set")
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.PostgresConfig{
		Host: "db", Port: "5433", Username: "u", Password: "p", Database: "planner",
	})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=planner sslmode=disable", dsn)
}

func TestManager_FallsBackToSqlite(t *testing.T) {
	var logs bytes.Buffer
	m := NewManager(zerolog.New(&logs))

	fallback := filepath.Join(t.TempDir(), "fallback.db")
	err := m.Connect(config.PostgresConfig{
		Host: "127.0.0.1", Port: "1", Username: "u", Password: "p", Database: "none",
	}, fallback)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)
	assert.Equal(t, fallback, m.SqliteFilePath)
	assert.Contains(t, logs.String(), "trying SQLite")

	require.NoError(t, m.Setup())
	assert.True(t, m.DB.Migrator().HasTable(&model.Generation{}))
}
