package worker

import (
	"sync"

	"github.com/cannonfire/planner/internal/dispatcher"
	"github.com/cannonfire/planner/internal/influx"
	"github.com/cannonfire/planner/internal/logging"
	"github.com/cannonfire/planner/internal/plot"
	"github.com/cannonfire/planner/internal/session"
	"github.com/cannonfire/planner/internal/storage"
	"github.com/cannonfire/planner/pkg/core"
)

// Dependencies holds all dependencies for the worker manager. Influx and
// Plotter are optional.
type Dependencies struct {
	LogManager *logging.SlogManager
	Session    *session.Context
	Influx     *influx.Manager
	Plotter    *plot.Renderer
}

// Manager fans run events out to storage, metrics and plots
type Manager struct {
	deps    Dependencies
	backend storage.Backend
	events  *dispatcher.Dispatcher

	mu      sync.Mutex
	history *core.RunHistory // kept for plotting
	plots   []string
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// Plots returns the files written for the last finished run.
func (m *Manager) Plots() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.plots...)
}

// ExportedFilePath returns the file the backend exported to, if it exports.
func (m *Manager) ExportedFilePath() string {
	if e, ok := m.backend.(storage.Exporter); ok {
		return e.ExportedFilePath()
	}
	return ""
}
