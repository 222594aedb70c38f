// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/internal/model"
	"github.com/cannonfire/planner/pkg/core"
	"gorm.io/datatypes"
)

// boundsToJSON stores the search domain in degrees.
func boundsToJSON(b core.Bounds) datatypes.JSON {
	data, _ := json.Marshal(model.SearchBounds{
		VelocityMin: b.Velocity.Min,
		VelocityMax: b.Velocity.Max,
		AngleMinDeg: core.RadiansToDegrees(b.Angle.Min),
		AngleMaxDeg: core.RadiansToDegrees(b.Angle.Max),
	})
	return datatypes.JSON(data)
}

// CoreToRun converts a core.Run to a GORM model.Run. core.Run.ID maps to
// model.Run.Name; the numeric primary key is assigned on insert.
func CoreToRun(r core.Run) model.Run {
	return model.Run{
		Name:           r.ID,
		Seed:           r.Seed,
		StartTime:      r.StartTime,
		PopulationSize: r.PopulationSize,
		MutationRate:   r.MutationRate,
		Crossover:      r.Crossover,
		Elitism:        r.Elitism,
		MaxGenerations: r.MaxGenerations,
		Tolerance:      r.Tolerance,
		Gravity:        r.Gravity,
		WallDistance:   r.Wall.Distance,
		WallHeight:     r.Wall.Height,
		Bounds:         boundsToJSON(r.Bounds),
	}
}

// ApplyResult copies the final result onto a stored run.
func ApplyResult(m *model.Run, res core.Result) {
	m.EndTime = sql.NullTime{Time: res.EndTime, Valid: !res.EndTime.IsZero()}
	m.Reason = string(res.Reason)
	m.Generations = res.Generations
	m.FoundAt = res.FoundAt
	m.BestVelocity = res.Best.Velocity()
	m.BestAngleDeg = res.Best.AngleDegrees()
	m.BestDistance = res.Distance
	m.BestFitness = res.Fitness
	m.Outcome = res.Outcome.String()
}

// CoreToGeneration converts a snapshot to a GORM model.Generation owned by
// the run with primary key runID. The best trajectory is flown by sim against
// wall and stored as WKT, so sim must use the run's gravity.
func CoreToGeneration(s core.Snapshot, runID uint, wall core.Wall, sim ballistics.Simulator) model.Generation {
	return model.Generation{
		RunID:        runID,
		Time:         s.Timestamp,
		Number:       s.Generation,
		BestVelocity: s.Best.Velocity(),
		BestAngleDeg: s.Best.AngleDegrees(),
		BestFitness:  s.BestFitness,
		BestDistance: s.BestDistance,
		BestRange:    s.BestRange,
		Outcome:      s.Outcome.String(),
		MeanFitness:  s.MeanFitness,
		WorstFitness: s.WorstFitness,
		PathWKT:      sim.PathWKT(s.Best, wall),
	}
}
