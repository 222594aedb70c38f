package storage

import "github.com/cannonfire/planner/pkg/core"

// Backend is the interface all run-history stores must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management
	StartRun(run *core.Run) error
	EndRun(result *core.Result) error

	// Per-generation recording
	RecordGeneration(s *core.Snapshot) error
}

// Reader is an optional interface for backends that can read a run back.
type Reader interface {
	LoadRun(id string) (*core.RunHistory, error)
}

// Exporter is an optional interface for backends that write the finished
// run to a file.
type Exporter interface {
	ExportedFilePath() string
}
