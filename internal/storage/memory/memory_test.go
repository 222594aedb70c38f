package memory

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

func testRun() *core.Run {
	return &core.Run{
		ID:             core.NewRunID(start, 7),
		Seed:           7,
		StartTime:      start,
		PopulationSize: 10,
		MutationRate:   0.05,
		Crossover:      "uniform",
		MaxGenerations: 20,
		Tolerance:      1,
		Gravity:        9.81,
		Wall:           core.Wall{Distance: 10, Height: 1},
		Bounds: core.Bounds{
			Velocity: core.Range{Min: 1, Max: 50},
			Angle:    core.Range{Min: core.DegreesToRadians(1), Max: core.DegreesToRadians(89)},
		},
	}
}

func recordRun(t *testing.T, b *Backend, gens int) (*core.Run, *core.Result) {
	t.Helper()
	run := testRun()
	require.NoError(t, b.StartRun(run))
	for g := 0; g < gens; g++ {
		require.NoError(t, b.RecordGeneration(&core.Snapshot{
			RunID:        run.ID,
			Generation:   g,
			Best:         core.NewIndividual(12, core.DegreesToRadians(66)),
			BestFitness:  3.5,
			BestDistance: 10.8,
			BestRange:    10.8,
			Outcome:      core.OutcomeCleared,
			Timestamp:    start.Add(time.Duration(g) * time.Millisecond),
		}))
	}
	res := &core.Result{
		RunID:       run.ID,
		Best:        core.NewIndividual(12, core.DegreesToRadians(66)),
		Fitness:     3.5,
		Distance:    10.8,
		Outcome:     core.OutcomeCleared,
		Generations: gens,
		Reason:      core.ReasonMaxGenerations,
		EndTime:     start.Add(time.Second),
	}
	return run, res
}

func TestRecordGeneration_WithoutRun(t *testing.T) {
	b := New(config.MemoryConfig{})
	assert.ErrorIs(t, b.RecordGeneration(&core.Snapshot{}), ErrNoRun)
	assert.ErrorIs(t, b.EndRun(&core.Result{}), ErrNoRun)
}

func TestEndRun_NoOutputDir(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.Init())
	run, res := recordRun(t, b, 3)
	require.NoError(t, b.EndRun(res))

	assert.Empty(t, b.ExportedFilePath())

	h, err := b.LoadRun(run.ID)
	require.NoError(t, err)
	assert.Len(t, h.Generations, 3)
	require.NotNil(t, h.Result)
	assert.Equal(t, core.ReasonMaxGenerations, h.Result.Reason)
}

func TestLoadRun_InProgress(t *testing.T) {
	b := New(config.MemoryConfig{})
	run, _ := recordRun(t, b, 2)

	h, err := b.LoadRun(run.ID)
	require.NoError(t, err)
	assert.Nil(t, h.Result)
	assert.Len(t, h.Generations, 2)

	_, err = b.LoadRun("run_missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestExport(t *testing.T) {
	tests := []struct {
		name     string
		compress bool
		ext      string
	}{
		{"plain", false, ".json"},
		{"gzip", true, ".json.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: tt.compress})
			run, res := recordRun(t, b, 4)
			require.NoError(t, b.EndRun(res))

			path := b.ExportedFilePath()
			assert.Equal(t, filepath.Join(dir, run.ID+tt.ext), path)
			assert.FileExists(t, path)

			export, err := ReadExport(path)
			require.NoError(t, err)
			assert.Equal(t, run.ID, export.Run.Name)
			assert.Equal(t, "max_generations", export.Run.Reason)
			assert.Equal(t, "cleared", export.Run.Outcome)
			assert.InDelta(t, 66, export.Run.BestAngleDeg, 1e-9)
			require.Len(t, export.Generations, 4)
			assert.Equal(t, 3, export.Generations[3].Number)
			assert.Contains(t, export.Generations[0].PathWKT, "LINESTRING")

			h := export.History()
			assert.Equal(t, run.ID, h.Run.ID)
			assert.Equal(t, run.Wall, h.Run.Wall)
			require.Len(t, h.Generations, 4)
			assert.Equal(t, run.ID, h.Generations[2].RunID)
			require.NotNil(t, h.Result)
			assert.Equal(t, core.ReasonMaxGenerations, h.Result.Reason)
			assert.InDelta(t, 12, h.Result.Best.Velocity(), 1e-9)
		})
	}
}

func TestReadExport_Missing(t *testing.T) {
	_, err := ReadExport(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestStartRun_DiscardsUnfinished(t *testing.T) {
	b := New(config.MemoryConfig{})
	recordRun(t, b, 3)
	run, _ := recordRun(t, b, 1)

	h, err := b.LoadRun(run.ID)
	require.NoError(t, err)
	assert.Len(t, h.Generations, 1)
}

func TestExport_PathUsesRunGravity(t *testing.T) {
	run := testRun()
	run.Gravity = 3.71
	best := core.NewIndividual(12, core.DegreesToRadians(66))
	h := &core.RunHistory{
		Run:         *run,
		Generations: []core.Snapshot{{RunID: run.ID, Best: best, Outcome: core.OutcomeCleared, Timestamp: start}},
	}

	export := buildExport(h)
	require.Len(t, export.Generations, 1)
	assert.Equal(t, ballistics.New(3.71).PathWKT(best, run.Wall), export.Generations[0].PathWKT)
}
