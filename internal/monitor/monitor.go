package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cannonfire/planner/internal/logging"
	"github.com/cannonfire/planner/internal/session"
)

// DefaultInterval is used when Dependencies.Interval is not set.
const DefaultInterval = time.Second

// PendingCounter is implemented by storage backends that queue writes.
type PendingCounter interface {
	Pending() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	Session    *session.Context
	Pending    PendingCounter // optional
	StatusPath string
	Interval   time.Duration
}

// Status is the snapshot written to the status file
type Status struct {
	Time          time.Time `json:"time"`
	RunID         string    `json:"runId,omitempty"`
	Generation    int       `json:"generation"`
	PendingWrites int       `json:"pendingWrites"`
	Uptime        string    `json:"uptime"`
}

// Service periodically writes the run progress to a status file
type Service struct {
	deps    Dependencies
	started time.Time

	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Service{
		deps:    deps,
		started: time.Now(),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current program status
func (s *Service) GetStatus() Status {
	st := Status{
		Time:       time.Now(),
		Generation: -1,
		Uptime:     time.Since(s.started).Round(time.Millisecond).String(),
	}
	if s.deps.Session != nil {
		if run := s.deps.Session.Run(); run != nil {
			st.RunID = run.ID
		}
		st.Generation = s.deps.Session.Generation()
	}
	if s.deps.Pending != nil {
		st.PendingWrites = s.deps.Pending.Pending()
	}
	return st
}

// WriteStatus replaces the status file with the current status.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.deps.StatusPath), 0755); err != nil {
		return fmt.Errorf("error creating status directory: %w", err)
	}
	if err := os.WriteFile(s.deps.StatusPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("error writing status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	if s.deps.StatusPath == "" {
		return fmt.Errorf("status path not set")
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(s.stopChan, s.done)
	return nil
}

func (s *Service) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	logger := s.deps.LogManager.Logger()
	logger.Debug("Starting status monitor goroutine", "path", s.deps.StatusPath, "interval", s.deps.Interval)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.WriteStatus(); err != nil {
				logger.Error("Error writing status file", "error", err)
			}
		}
	}
}

// Stop stops the status monitor and writes a last status.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
	if err := s.WriteStatus(); err != nil {
		s.deps.LogManager.WriteLog("monitor:Stop", fmt.Sprintf("Error writing status file: %v", err), "ERROR")
	}
}
