// pkg/core/run.go
package core

import (
	"fmt"
	"time"
)

// Outcome classifies how a trajectory relates to the wall
type Outcome int

const (
	OutcomeShort   Outcome = iota // landed before reaching the wall
	OutcomeHit                    // struck the wall
	OutcomeCleared                // passed over the wall
)

func (o Outcome) String() string {
	switch o {
	case OutcomeShort:
		return "short"
	case OutcomeHit:
		return "hit"
	case OutcomeCleared:
		return "cleared"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// TerminationReason tells why a run stopped
type TerminationReason string

const (
	ReasonConverged      TerminationReason = "converged"
	ReasonMaxGenerations TerminationReason = "max_generations"
)

// Run describes a search run before it starts.
type Run struct {
	ID             string
	Seed           int64
	StartTime      time.Time
	PopulationSize int
	MutationRate   float64
	Crossover      string
	Elitism        bool
	MaxGenerations int
	Tolerance      float64
	Gravity        float64
	Wall           Wall
	Bounds         Bounds
}

// NewRunID builds a run identifier from the start time and seed.
func NewRunID(start time.Time, seed int64) string {
	return fmt.Sprintf("run_%s_%d", start.Format("20060102_150405"), seed)
}

// Snapshot is the per-generation report, reduced from a fully evaluated
// population.
type Snapshot struct {
	RunID        string
	Generation   int
	Best         Individual
	BestFitness  float64
	BestDistance float64
	BestRange    float64
	Outcome      Outcome
	MeanFitness  float64
	WorstFitness float64
	Timestamp    time.Time
}

// Overshoot is how far past the wall the best trajectory lands. Zero unless
// the wall was cleared.
func (s Snapshot) Overshoot(w Wall) float64 {
	if s.Outcome != OutcomeCleared {
		return 0
	}
	return s.BestDistance - w.Distance
}

// Result is the outcome of a whole run.
type Result struct {
	RunID       string
	Best        Individual
	Fitness     float64
	Distance    float64
	Outcome     Outcome
	FoundAt     int // generation the best individual was first seen
	Generations int // generations evaluated
	Reason      TerminationReason
	EndTime     time.Time
}

// RunHistory is a stored run read back from a storage backend. Result is nil
// while the run has not finished.
type RunHistory struct {
	Run         Run
	Generations []Snapshot
	Result      *Result
}
