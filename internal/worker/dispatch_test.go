package worker

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/internal/dispatcher"
	"github.com/cannonfire/planner/internal/genetic"
	"github.com/cannonfire/planner/internal/influx"
	"github.com/cannonfire/planner/internal/logging"
	"github.com/cannonfire/planner/internal/plot"
	"github.com/cannonfire/planner/internal/session"
	"github.com/cannonfire/planner/internal/storage"
	"github.com/cannonfire/planner/internal/storage/memory"
	"github.com/cannonfire/planner/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

// failingBackend rejects every write
type failingBackend struct{ err error }

func (b failingBackend) Init() error { return nil }
func (b failingBackend) Close() error { return nil }
func (b failingBackend) StartRun(*core.Run) error { return b.err }
func (b failingBackend) RecordGeneration(*core.Snapshot) error { return b.err }
func (b failingBackend) EndRun(*core.Result) error { return b.err }

var _ storage.Backend = failingBackend{}

func newDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func testRun() *core.Run {
	return &core.Run{
		ID:        core.NewRunID(start, 1),
		Seed:      1,
		StartTime: start,
		Gravity:   9.81,
		Wall:      core.Wall{Distance: 10, Height: 1},
		Bounds: core.Bounds{
			Velocity: core.Range{Min: 1, Max: 50},
			Angle:    core.Range{Min: core.DegreesToRadians(1), Max: core.DegreesToRadians(89)},
		},
	}
}

func snapshot(gen int, fitness float64) core.Snapshot {
	return core.Snapshot{
		RunID:       core.NewRunID(start, 1),
		Generation:  gen,
		Best:        core.NewIndividual(12+float64(gen), core.DegreesToRadians(60)),
		BestFitness: fitness,
		Outcome:     core.OutcomeCleared,
		Timestamp:   start.Add(time.Duration(gen) * time.Millisecond),
	}
}

func TestRegisterHandlers(t *testing.T) {
	d := newDispatcher(t)
	m := NewManager(Dependencies{}, memory.New(config.MemoryConfig{}))
	m.RegisterHandlers(d)

	for _, cmd := range []string{dispatcher.CmdRunStart, dispatcher.CmdGeneration, dispatcher.CmdRunEnd} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}
}

func TestRunLifecycle_StoresAndPlots(t *testing.T) {
	dir := t.TempDir()
	d := newDispatcher(t)
	sess := session.NewContext()
	backend := memory.New(config.MemoryConfig{OutputDir: dir})

	m := NewManager(Dependencies{
		Session: sess,
		Plotter: plot.New(config.PlotConfig{OutputDir: dir, MaxPaths: 3}, 9.81),
	}, backend)
	m.RegisterHandlers(d)

	o := dispatcher.NewObserver(d)
	run := testRun()
	o.OnStart(run)
	assert.Equal(t, run.ID, sess.Run().ID)

	for g := 0; g < 4; g++ {
		o.OnGeneration(snapshot(g, 3+float64(g)*0.1))
	}
	assert.Equal(t, 3, sess.Generation())

	o.OnFinish(core.Result{RunID: run.ID, Best: snapshot(3, 3.3).Best, Reason: core.ReasonMaxGenerations, Generations: 4})

	h, err := backend.LoadRun(run.ID)
	require.NoError(t, err)
	assert.Len(t, h.Generations, 4)
	require.NotNil(t, h.Result)

	assert.Equal(t, filepath.Join(dir, run.ID+".json"), m.ExportedFilePath())
	plots := m.Plots()
	require.Len(t, plots, 2)
	for _, p := range plots {
		assert.FileExists(t, p)
	}
}

func TestHandlers_WrongPayload(t *testing.T) {
	d := newDispatcher(t)
	m := NewManager(Dependencies{}, nil)
	m.RegisterHandlers(d)

	tests := []struct {
		command string
		payload any
	}{
		{dispatcher.CmdRunStart, core.Run{}},
		{dispatcher.CmdRunStart, (*core.Run)(nil)},
		{dispatcher.CmdGeneration, &core.Snapshot{}},
		{dispatcher.CmdRunEnd, "done"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			_, err := d.Dispatch(dispatcher.Event{Command: tt.command, Payload: tt.payload})
			assert.ErrorContains(t, err, "unexpected payload")
		})
	}
}

func TestHandlers_BackendErrors(t *testing.T) {
	d := newDispatcher(t)
	boom := errors.New("disk full")
	m := NewManager(Dependencies{}, failingBackend{err: boom})
	m.RegisterHandlers(d)

	_, err := d.Dispatch(dispatcher.Event{Command: dispatcher.CmdRunStart, Payload: testRun()})
	assert.ErrorIs(t, err, boom)

	_, err = d.Dispatch(dispatcher.Event{Command: dispatcher.CmdGeneration, Payload: snapshot(0, 1)})
	assert.ErrorIs(t, err, boom)

	_, err = d.Dispatch(dispatcher.Event{Command: dispatcher.CmdRunEnd, Payload: core.Result{}})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, m.ExportedFilePath())
}

func TestRunLifecycle_InfluxBackup(t *testing.T) {
	dir := t.TempDir()
	im := influx.NewManager(zerolog.Nop(), config.InfluxConfig{
		Enabled:   true,
		Protocol:  "http",
		Host:      "127.0.0.1",
		Port:      "1",
		Bucket:    "planner",
		BackupDir: dir,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, im.Connect(ctx))

	d := newDispatcher(t)
	m := NewManager(Dependencies{Influx: im}, nil)
	m.RegisterHandlers(d)

	assert.True(t, d.HasHandler(dispatcher.CmdMetrics))

	o := dispatcher.NewObserver(d)
	o.OnStart(testRun())
	for g := 0; g < 3; g++ {
		o.OnGeneration(snapshot(g, 2+float64(g)))
	}
	o.OnFinish(core.Result{RunID: testRun().ID, Reason: core.ReasonMaxGenerations, Generations: 3})

	// closing the dispatcher drains the queued writes before the file is closed
	d.Close()
	require.NoError(t, im.Close())

	lines := readBackup(t, filepath.Join(dir, influx.BackupFileName))
	require.Len(t, lines, 4)
	for _, l := range lines[:3] {
		assert.True(t, strings.HasPrefix(l, influx.MeasurementGeneration+","), l)
	}
	assert.True(t, strings.HasPrefix(lines[3], influx.MeasurementRun+","), lines[3])
}

func TestHandleMetrics_WrongPayload(t *testing.T) {
	im := influx.NewManager(zerolog.Nop(), config.InfluxConfig{})
	m := NewManager(Dependencies{Influx: im}, nil)

	_, err := m.handleMetrics(dispatcher.Event{Command: dispatcher.CmdMetrics, Payload: "oops"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected payload string")
}

func TestRegisterHandlers_NoMetricsWithoutInflux(t *testing.T) {
	d := newDispatcher(t)
	m := NewManager(Dependencies{}, nil)
	m.RegisterHandlers(d)

	assert.False(t, d.HasHandler(dispatcher.CmdMetrics))
	_, err := d.Dispatch(dispatcher.Event{Command: dispatcher.CmdGeneration, Payload: snapshot(0, 1)})
	assert.NoError(t, err)
}

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestEngineRun_EndToEnd(t *testing.T) {
	d := newDispatcher(t)
	backend := memory.New(config.MemoryConfig{})
	m := NewManager(Dependencies{}, backend)
	m.RegisterHandlers(d)

	cfg := genetic.DefaultConfig()
	cfg.MaxGenerations = 8
	cfg.PopulationSize = 12

	run := testRun()
	o := dispatcher.NewObserver(d)
	e, err := genetic.NewEngine(cfg, genetic.WithObserver(o), genetic.WithRunID(run.ID))
	require.NoError(t, err)

	o.OnStart(run)
	res, err := e.Run()
	require.NoError(t, err)

	h, err := backend.LoadRun(run.ID)
	require.NoError(t, err)
	assert.Len(t, h.Generations, res.Generations)
	require.NotNil(t, h.Result)
	assert.Equal(t, res.Reason, h.Result.Reason)
}
