package genetic

import (
	"math/rand"
	"sort"
	"time"

	"github.com/cannonfire/planner/internal/fitness"
	"github.com/cannonfire/planner/pkg/core"
)

// Member is an individual together with its fitness for one generation.
type Member struct {
	Individual core.Individual
	Score      fitness.Score
}

// Population is one fully evaluated generation. Member order is the order in
// which individuals were bred.
type Population struct {
	generation int
	members    []Member
}

// RandomIndividual draws both genes uniformly from the bounds.
func RandomIndividual(b core.Bounds, rng *rand.Rand) core.Individual {
	v := b.Velocity.Min + rng.Float64()*b.Velocity.Width()
	a := b.Angle.Min + rng.Float64()*b.Angle.Width()
	return b.Clamp(core.NewIndividual(v, a))
}

// RandomIndividuals draws n individuals.
func RandomIndividuals(n int, b core.Bounds, rng *rand.Rand) []core.Individual {
	out := make([]core.Individual, n)
	for i := range out {
		out[i] = RandomIndividual(b, rng)
	}
	return out
}

// Evaluate scores every individual and returns the resulting population.
func Evaluate(generation int, individuals []core.Individual, eval fitness.Evaluator) (*Population, error) {
	members := make([]Member, len(individuals))
	for i, ind := range individuals {
		score, err := eval.Evaluate(ind)
		if err != nil {
			return nil, err
		}
		members[i] = Member{Individual: ind, Score: score}
	}
	return &Population{generation: generation, members: members}, nil
}

// Generation returns the generation number this population belongs to.
func (p *Population) Generation() int { return p.generation }

// Size returns the number of members.
func (p *Population) Size() int { return len(p.members) }

// Members returns the members in breeding order.
func (p *Population) Members() []Member {
	out := make([]Member, len(p.members))
	copy(out, p.members)
	return out
}

// Ranked returns the members sorted best first. Ties keep breeding order.
func (p *Population) Ranked() []Member {
	out := p.Members()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.Value > out[j].Score.Value
	})
	return out
}

// Best returns the fittest member; the earliest one wins a tie.
func (p *Population) Best() Member {
	best := p.members[0]
	for _, m := range p.members[1:] {
		if m.Score.Value > best.Score.Value {
			best = m
		}
	}
	return best
}

// TotalFitness sums the fitness of all members.
func (p *Population) TotalFitness() float64 {
	var sum float64
	for _, m := range p.members {
		sum += m.Score.Value
	}
	return sum
}

// Snapshot reduces the population to its per-generation report.
func (p *Population) Snapshot(runID string, at time.Time) core.Snapshot {
	best := p.Best()
	worst := best.Score.Value
	for _, m := range p.members {
		worst = min(worst, m.Score.Value)
	}
	return core.Snapshot{
		RunID:        runID,
		Generation:   p.generation,
		Best:         best.Individual,
		BestFitness:  best.Score.Value,
		BestDistance: best.Score.Flight.Distance,
		BestRange:    best.Score.Flight.Range,
		Outcome:      best.Score.Flight.Outcome,
		MeanFitness:  p.TotalFitness() / float64(len(p.members)),
		WorstFitness: worst,
		Timestamp:    at,
	}
}
