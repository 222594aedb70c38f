package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/pkg/core"
)

// ErrNoRun is returned when recording before StartRun or after EndRun.
var ErrNoRun = errors.New("no run in progress")

// ErrRunNotFound is returned by LoadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Backend keeps run history in memory and exports each finished run to JSON
type Backend struct {
	cfg config.MemoryConfig

	run         *core.Run
	generations []core.Snapshot
	runs        map[string]*core.RunHistory // finished runs, keyed by run ID

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:  cfg,
		runs: make(map[string]*core.RunHistory),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording a new run, discarding an unfinished one
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := *run
	b.run = &r
	b.generations = nil
	return nil
}

// RecordGeneration appends a snapshot to the current run
func (b *Backend) RecordGeneration(s *core.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	b.generations = append(b.generations, *s)
	return nil
}

// EndRun finalizes the run and exports it when an output directory is set
func (b *Backend) EndRun(result *core.Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}

	res := *result
	h := &core.RunHistory{
		Run:         *b.run,
		Generations: b.generations,
		Result:      &res,
	}
	b.runs[b.run.ID] = h
	b.run = nil
	b.generations = nil

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON(h)
}

// LoadRun returns a finished run, or the one in progress
func (b *Backend) LoadRun(id string) (*core.RunHistory, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if h, ok := b.runs[id]; ok {
		return h, nil
	}
	if b.run != nil && b.run.ID == id {
		gens := make([]core.Snapshot, len(b.generations))
		copy(gens, b.generations)
		return &core.RunHistory{Run: *b.run, Generations: gens}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
}

// ExportedFilePath returns the path of the last exported run file
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
