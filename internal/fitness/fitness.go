// Package fitness scores firing plans against a wall.
//
// Scores fall into three disjoint tiers:
//
//	short    [0, 1)  proportional to distance travelled
//	hit      2       flat, however the wall was reached
//	cleared  (3, 4]  shrinking as the landing point moves past the wall
package fitness

import (
	"fmt"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/pkg/core"
)

const (
	ShortCeiling = 1.0
	HitReward    = 2.0
	ClearFloor   = 3.0

	// DefaultOvershootScale is the overshoot, in metres, at which the
	// clearing bonus has halved.
	DefaultOvershootScale = 1.0
)

// Score is a fitness value with the flight it was derived from.
type Score struct {
	Value  float64
	Flight ballistics.Flight
}

// Evaluator turns firing plans into scores.
type Evaluator struct {
	Simulator      ballistics.Simulator
	Wall           core.Wall
	OvershootScale float64
}

// New creates an Evaluator. A non-positive scale uses DefaultOvershootScale.
func New(sim ballistics.Simulator, wall core.Wall, overshootScale float64) Evaluator {
	if overshootScale <= 0 {
		overshootScale = DefaultOvershootScale
	}
	return Evaluator{
		Simulator:      sim,
		Wall:           wall,
		OvershootScale: overshootScale,
	}
}

// Evaluate simulates the individual and scores its flight.
func (e Evaluator) Evaluate(ind core.Individual) (Score, error) {
	flight, err := e.Simulator.Simulate(ind.Velocity(), ind.Angle(), e.Wall)
	if err != nil {
		return Score{}, fmt.Errorf("evaluating v=%.3f a=%.3f: %w", ind.Velocity(), ind.Angle(), err)
	}
	return Score{Value: e.ScoreFlight(flight), Flight: flight}, nil
}

// ScoreFlight maps a simulated flight to its fitness.
func (e Evaluator) ScoreFlight(f ballistics.Flight) float64 {
	switch f.Outcome {
	case core.OutcomeHit:
		return HitReward
	case core.OutcomeCleared:
		scale := e.OvershootScale
		if scale <= 0 {
			scale = DefaultOvershootScale
		}
		overshoot := f.Distance - e.Wall.Distance
		if overshoot < 0 {
			overshoot = 0
		}
		return ClearFloor + 1/(1+overshoot/scale)
	default:
		progress := f.Distance / e.Wall.Distance
		if progress < 0 {
			progress = 0
		}
		if progress >= 1 {
			// short flights never reach the wall; guard against rounding
			progress = 1 - 1e-12
		}
		return ShortCeiling * progress
	}
}
