package worker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cannonfire/planner/internal/dispatcher"
	"github.com/cannonfire/planner/pkg/core"
)

// metricsQueueSize bounds the InfluxDB writes waiting behind the engine
const metricsQueueSize = 256

// RegisterHandlers registers the run event handlers with the dispatcher.
// Run events run synchronously so a run's generations are stored before its
// end. InfluxDB writes go through a buffered handler that never drops;
// closing the dispatcher drains it.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.events = d
	d.Register(dispatcher.CmdRunStart, m.handleRunStart, dispatcher.Logged())
	d.Register(dispatcher.CmdGeneration, m.handleGeneration)
	d.Register(dispatcher.CmdRunEnd, m.handleRunEnd, dispatcher.Logged())
	if m.deps.Influx != nil {
		d.Register(dispatcher.CmdMetrics, m.handleMetrics,
			dispatcher.Buffered(metricsQueueSize), dispatcher.Blocking())
	}
}

func (m *Manager) handleRunStart(e dispatcher.Event) (any, error) {
	run, ok := e.Payload.(*core.Run)
	if !ok || run == nil {
		return nil, fmt.Errorf("%s: unexpected payload %T", e.Command, e.Payload)
	}

	m.deps.Session.SetRun(run)

	m.mu.Lock()
	m.history = &core.RunHistory{Run: *run}
	m.plots = nil
	m.mu.Unlock()

	if m.backend == nil {
		return nil, nil
	}
	if err := m.backend.StartRun(run); err != nil {
		return nil, fmt.Errorf("failed to start run %s: %w", run.ID, err)
	}
	return nil, nil
}

func (m *Manager) handleGeneration(e dispatcher.Event) (any, error) {
	s, ok := e.Payload.(core.Snapshot)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", e.Command, e.Payload)
	}

	m.deps.Session.SetGeneration(s.Generation)

	m.mu.Lock()
	if m.history != nil && m.deps.Plotter != nil {
		m.history.Generations = append(m.history.Generations, s)
	}
	m.mu.Unlock()

	var errs []error
	if m.backend != nil {
		if err := m.backend.RecordGeneration(&s); err != nil {
			errs = append(errs, fmt.Errorf("failed to record generation %d: %w", s.Generation, err))
		}
	}
	if err := m.queueMetrics(e, s); err != nil {
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func (m *Manager) handleRunEnd(e dispatcher.Event) (any, error) {
	r, ok := e.Payload.(core.Result)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", e.Command, e.Payload)
	}

	var errs []error
	if m.backend != nil {
		if err := m.backend.EndRun(&r); err != nil {
			errs = append(errs, fmt.Errorf("failed to end run %s: %w", r.RunID, err))
		}
	}
	if err := m.queueMetrics(e, r); err != nil {
		errs = append(errs, err)
	}

	m.mu.Lock()
	h := m.history
	m.history = nil
	m.mu.Unlock()

	if m.deps.Plotter != nil && h != nil {
		h.Result = &r
		paths, err := m.deps.Plotter.Render(h)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to plot run %s: %w", r.RunID, err))
		} else {
			m.mu.Lock()
			m.plots = paths
			m.mu.Unlock()
			m.deps.LogManager.WriteLog("worker:handleRunEnd", "Plots written to "+strings.Join(paths, ", "), "INFO")
		}
	}

	if path := m.ExportedFilePath(); path != "" {
		m.deps.LogManager.WriteLog("worker:handleRunEnd", "Run exported to "+path, "INFO")
	}
	return nil, errors.Join(errs...)
}

// queueMetrics hands a snapshot or result to the InfluxDB handler, if one
// is registered.
func (m *Manager) queueMetrics(e dispatcher.Event, payload any) error {
	if m.events == nil || !m.events.HasHandler(dispatcher.CmdMetrics) {
		return nil
	}
	_, err := m.events.Dispatch(dispatcher.Event{
		Command:   dispatcher.CmdMetrics,
		Payload:   payload,
		Timestamp: e.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to queue metrics for %s: %w", e.Command, err)
	}
	return nil
}

func (m *Manager) handleMetrics(e dispatcher.Event) (any, error) {
	switch p := e.Payload.(type) {
	case core.Snapshot:
		return nil, m.deps.Influx.WriteGeneration(p)
	case core.Result:
		return nil, m.deps.Influx.WriteResult(p)
	default:
		return nil, fmt.Errorf("%s: unexpected payload %T", e.Command, e.Payload)
	}
}
