package convert

import (
	"encoding/json"

	"github.com/cannonfire/planner/internal/model"
	"github.com/cannonfire/planner/pkg/core"
)

// parseOutcome maps a stored outcome name back to core.Outcome. Unknown
// names read as short.
func parseOutcome(s string) core.Outcome {
	switch s {
	case core.OutcomeHit.String():
		return core.OutcomeHit
	case core.OutcomeCleared.String():
		return core.OutcomeCleared
	default:
		return core.OutcomeShort
	}
}

// RunToCore converts a GORM Run to a core.Run.
func RunToCore(m model.Run) core.Run {
	var b model.SearchBounds
	if len(m.Bounds) > 0 {
		_ = json.Unmarshal(m.Bounds, &b)
	}
	return core.Run{
		ID:             m.Name,
		Seed:           m.Seed,
		StartTime:      m.StartTime,
		PopulationSize: m.PopulationSize,
		MutationRate:   m.MutationRate,
		Crossover:      m.Crossover,
		Elitism:        m.Elitism,
		MaxGenerations: m.MaxGenerations,
		Tolerance:      m.Tolerance,
		Gravity:        m.Gravity,
		Wall:           core.Wall{Distance: m.WallDistance, Height: m.WallHeight},
		Bounds: core.Bounds{
			Velocity: core.Range{Min: b.VelocityMin, Max: b.VelocityMax},
			Angle:    core.Range{Min: core.DegreesToRadians(b.AngleMinDeg), Max: core.DegreesToRadians(b.AngleMaxDeg)},
		},
	}
}

// RunToResult reads the final result off a stored run. ok is false while
// the run has not finished.
func RunToResult(m model.Run) (res core.Result, ok bool) {
	if m.Reason == "" {
		return core.Result{}, false
	}
	return core.Result{
		RunID:       m.Name,
		Best:        core.NewIndividual(m.BestVelocity, core.DegreesToRadians(m.BestAngleDeg)),
		Fitness:     m.BestFitness,
		Distance:    m.BestDistance,
		Outcome:     parseOutcome(m.Outcome),
		FoundAt:     m.FoundAt,
		Generations: m.Generations,
		Reason:      core.TerminationReason(m.Reason),
		EndTime:     m.EndTime.Time,
	}, true
}

// GenerationToCore converts a GORM Generation to a core.Snapshot of the
// named run.
func GenerationToCore(g model.Generation, runName string) core.Snapshot {
	return core.Snapshot{
		RunID:        runName,
		Generation:   g.Number,
		Best:         core.NewIndividual(g.BestVelocity, core.DegreesToRadians(g.BestAngleDeg)),
		BestFitness:  g.BestFitness,
		BestDistance: g.BestDistance,
		BestRange:    g.BestRange,
		Outcome:      parseOutcome(g.Outcome),
		MeanFitness:  g.MeanFitness,
		WorstFitness: g.WorstFitness,
		Timestamp:    g.Time,
	}
}
