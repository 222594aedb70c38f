// Package gormstorage implements storage.Backend on any GORM database. The
// sqlite and postgres backends embed it and only add connection handling.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/internal/database"
	"github.com/cannonfire/planner/internal/logging"
	"github.com/cannonfire/planner/internal/model"
	"github.com/cannonfire/planner/internal/model/convert"
	"github.com/cannonfire/planner/internal/queue"
	"github.com/cannonfire/planner/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushSize is the number of queued generations written per transaction.
const DefaultFlushSize = 25

// ErrNoRun is returned when recording before StartRun or after EndRun.
var ErrNoRun = errors.New("no run in progress")

// ErrRunNotFound is returned by LoadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
	FlushSize  int // queued generations that trigger a write; DefaultFlushSize if zero
}

// Backend implements storage.Backend on GORM with queue-based batch writes.
type Backend struct {
	deps        Dependencies
	generations *queue.Queue[model.Generation]

	mu   sync.Mutex
	run  *model.Run
	wall core.Wall
	sim  ballistics.Simulator
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushSize <= 0 {
		deps.FlushSize = DefaultFlushSize
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{
		deps:        deps,
		generations: queue.New[model.Generation](),
	}
}

// DB returns the underlying database.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// SetDB installs the database when it is only known after New.
func (b *Backend) SetDB(db *gorm.DB) {
	b.deps.DB = db
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm backend has no database")
	}
	b.deps.LogManager.WriteLog("gorm:Init", "Migrating schema", "INFO")
	return database.Migrate(b.deps.DB)
}

// Close writes any generations still queued.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flush()
}

// StartRun inserts the run row and keeps its primary key for generation rows.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.flush(); err != nil {
		return err
	}

	m := convert.CoreToRun(*run)
	if err := b.deps.DB.Create(&m).Error; err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	b.run = &m
	b.wall = run.Wall
	b.sim = ballistics.New(run.Gravity)
	return nil
}

// RecordGeneration converts and queues a snapshot, writing the queue once
// it reaches the flush size.
func (b *Backend) RecordGeneration(s *core.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	b.generations.Push(convert.CoreToGeneration(*s, b.run.ID, b.wall, b.sim))
	if b.generations.Len() >= b.deps.FlushSize {
		return b.flush()
	}
	return nil
}

// EndRun writes the remaining generations and stores the result on the run.
func (b *Backend) EndRun(result *core.Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	if err := b.flush(); err != nil {
		return err
	}

	convert.ApplyResult(b.run, *result)
	if err := b.deps.DB.Save(b.run).Error; err != nil {
		return fmt.Errorf("failed to store result of %s: %w", b.run.Name, err)
	}
	b.run = nil
	return nil
}

// LoadRun reads a run and its generations back, oldest generation first.
func (b *Backend) LoadRun(id string) (*core.RunHistory, error) {
	var m model.Run
	err := b.deps.DB.Where("name = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	var rows []model.Generation
	if err := b.deps.DB.Where("run_id = ?", m.ID).Order("number").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load generations of %s: %w", id, err)
	}

	h := &core.RunHistory{
		Run:         convert.RunToCore(m),
		Generations: make([]core.Snapshot, len(rows)),
	}
	for i, g := range rows {
		h.Generations[i] = convert.GenerationToCore(g, m.Name)
	}
	if res, ok := convert.RunToResult(m); ok {
		h.Result = &res
	}
	return h, nil
}

// Pending returns the number of queued generations not yet written.
func (b *Backend) Pending() int {
	return b.generations.Len()
}

// flush writes all queued generations, FlushSize rows per transaction. A
// failed batch goes back on the queue. Callers hold mu.
func (b *Backend) flush() error {
	for !b.generations.Empty() {
		items := b.generations.PopN(b.deps.FlushSize)

		err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&items).Error
		})
		if err != nil {
			b.deps.LogManager.WriteLog("gorm:flush", fmt.Sprintf("Error creating generations: %v", err), "ERROR")
			b.generations.Push(items...)
			return fmt.Errorf("failed to write %d generations: %w", len(items), err)
		}
	}
	return nil
}
