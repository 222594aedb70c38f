package genetic

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/cannonfire/planner/pkg/core"
)

// Selector picks one parent from an evaluated population.
type Selector interface {
	Select(pop *Population, rng *rand.Rand) core.Individual
}

// Roulette is fitness-proportionate selection with replacement over windowed
// weights: each member weighs its fitness minus the generation's worst. The
// worst member is never picked unless every weight is zero, in which case the
// pick is uniform.
type Roulette struct{}

// Select implements Selector.
func (Roulette) Select(pop *Population, rng *rand.Rand) core.Individual {
	worst := pop.members[0].Score.Value
	for _, m := range pop.members[1:] {
		worst = min(worst, m.Score.Value)
	}

	cumulative := make([]float64, len(pop.members))
	var total float64
	for i, m := range pop.members {
		total += m.Score.Value - worst
		cumulative[i] = total
	}

	if total <= 0 {
		return pop.members[rng.Intn(len(pop.members))].Individual
	}

	r := rng.Float64() * total
	idx := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > r })
	if idx == len(cumulative) {
		// rounding in the running sum
		idx--
	}
	return pop.members[idx].Individual
}

const (
	CrossoverUniform = "uniform"
	CrossoverBlend   = "blend"
)

// ErrUnknownCrossover is returned for a crossover policy name that is not registered
var ErrUnknownCrossover = errors.New("unknown crossover policy")

// Crossover combines two parents into one child.
type Crossover func(a, b core.Individual, rng *rand.Rand) core.Individual

// UniformCrossover takes each gene from either parent with equal probability.
func UniformCrossover(a, b core.Individual, rng *rand.Rand) core.Individual {
	v, angle := a.Velocity(), a.Angle()
	if rng.Intn(2) == 1 {
		v = b.Velocity()
	}
	if rng.Intn(2) == 1 {
		angle = b.Angle()
	}
	return core.NewIndividual(v, angle)
}

// BlendCrossover interpolates each gene independently at a uniformly drawn
// point between the parents' values.
func BlendCrossover(a, b core.Individual, rng *rand.Rand) core.Individual {
	uv, ua := rng.Float64(), rng.Float64()
	v := a.Velocity() + uv*(b.Velocity()-a.Velocity())
	angle := a.Angle() + ua*(b.Angle()-a.Angle())
	return core.NewIndividual(v, angle)
}

var crossovers = map[string]Crossover{
	CrossoverUniform: UniformCrossover,
	CrossoverBlend:   BlendCrossover,
}

// CrossoverByName returns the policy registered under name.
func CrossoverByName(name string) (Crossover, error) {
	c, ok := crossovers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCrossover, name)
	}
	return c, nil
}

// Mutator perturbs children. Each gene independently moves, with probability
// Rate, by a uniform delta in [-step, +step] and is then clamped back into
// Bounds.
type Mutator struct {
	Rate         float64
	VelocityStep float64
	AngleStep    float64
	Bounds       core.Bounds
}

// Mutate returns the mutated copy of ind.
func (m Mutator) Mutate(ind core.Individual, rng *rand.Rand) core.Individual {
	v, a := ind.Velocity(), ind.Angle()
	if rng.Float64() < m.Rate {
		v += (rng.Float64()*2 - 1) * m.VelocityStep
	}
	if rng.Float64() < m.Rate {
		a += (rng.Float64()*2 - 1) * m.AngleStep
	}
	return m.Bounds.Clamp(core.NewIndividual(v, a))
}
