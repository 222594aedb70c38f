package genetic

import (
	"math/rand"
	"testing"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/internal/fitness"
	"github.com/cannonfire/planner/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// populationOf builds a population whose member i has velocity i+1 and the given fitness.
func populationOf(values ...float64) *Population {
	members := make([]Member, len(values))
	for i, v := range values {
		members[i] = Member{
			Individual: core.NewIndividual(float64(i+1), 0.5),
			Score:      fitness.Score{Value: v},
		}
	}
	return &Population{members: members}
}

func TestRoulette_SkipsZeroWeights(t *testing.T) {
	pop := populationOf(0, 0, 3)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		assert.Equal(t, 3.0, Roulette{}.Select(pop, rng).Velocity())
	}
}

func TestRoulette_NeverPicksWorst(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		worst  float64 // velocity of the worst member
	}{
		{"negative worst", []float64{-5, 2}, 1},
		{"clearing tier", []float64{3.2, 3.9}, 1},
		{"worst in the middle", []float64{2, 0.4, 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pop := populationOf(tt.values...)
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 500; i++ {
				assert.NotEqual(t, tt.worst, Roulette{}.Select(pop, rng).Velocity())
			}
		})
	}
}

func TestRoulette_ProportionalAboveWorst(t *testing.T) {
	// weights above the worst (1) are 0, 1 and 3
	pop := populationOf(1, 2, 4)
	rng := rand.New(rand.NewSource(42))

	const draws = 20000
	counts := map[float64]int{}
	for i := 0; i < draws; i++ {
		counts[Roulette{}.Select(pop, rng).Velocity()]++
	}

	assert.Zero(t, counts[1])
	assert.InDelta(t, 0.25, float64(counts[2])/draws, 0.02)
	assert.InDelta(t, 0.75, float64(counts[3])/draws, 0.02)
}

func TestRoulette_FavoursSmallerOvershoot(t *testing.T) {
	eval := fitness.New(ballistics.New(ballistics.StandardGravity), core.Wall{Distance: 10, Height: 1}, 1)
	near := eval.ScoreFlight(ballistics.Flight{Outcome: core.OutcomeCleared, Distance: 10.5})
	mid := eval.ScoreFlight(ballistics.Flight{Outcome: core.OutcomeCleared, Distance: 13})
	far := eval.ScoreFlight(ballistics.Flight{Outcome: core.OutcomeCleared, Distance: 30})

	pop := populationOf(far, mid, near)
	rng := rand.New(rand.NewSource(5))

	const draws = 10000
	counts := map[float64]int{}
	for i := 0; i < draws; i++ {
		counts[Roulette{}.Select(pop, rng).Velocity()]++
	}
	assert.Zero(t, counts[1])
	assert.Greater(t, float64(counts[3])/draws, 0.7)
}

func TestRoulette_AllEqualIsUniform(t *testing.T) {
	for _, v := range []float64{0, 3.5} {
		pop := populationOf(v, v, v)
		rng := rand.New(rand.NewSource(1))

		seen := map[float64]bool{}
		for i := 0; i < 300; i++ {
			seen[Roulette{}.Select(pop, rng).Velocity()] = true
		}
		assert.Len(t, seen, 3)
	}
}

func TestUniformCrossover_InheritsParentGenes(t *testing.T) {
	a := core.NewIndividual(10, 0.3)
	b := core.NewIndividual(20, 1.2)
	rng := rand.New(rand.NewSource(3))

	mixed := false
	for i := 0; i < 200; i++ {
		c := UniformCrossover(a, b, rng)
		assert.Contains(t, []float64{10, 20}, c.Velocity())
		assert.Contains(t, []float64{0.3, 1.2}, c.Angle())
		if (c.Velocity() == 10) != (c.Angle() == 0.3) {
			mixed = true
		}
	}
	assert.True(t, mixed, "genes should be inherited independently")
}

func TestBlendCrossover_StaysBetweenParents(t *testing.T) {
	a := core.NewIndividual(10, 1.2)
	b := core.NewIndividual(20, 0.3)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 200; i++ {
		c := BlendCrossover(a, b, rng)
		assert.GreaterOrEqual(t, c.Velocity(), 10.0)
		assert.LessOrEqual(t, c.Velocity(), 20.0)
		assert.GreaterOrEqual(t, c.Angle(), 0.3)
		assert.LessOrEqual(t, c.Angle(), 1.2)
	}
}

func TestBlendCrossover_SelfPairingIsIdentity(t *testing.T) {
	a := core.NewIndividual(12.5, 0.8)
	c := BlendCrossover(a, a, rand.New(rand.NewSource(9)))
	assert.Equal(t, a, c)
}

func TestCrossoverByName(t *testing.T) {
	for _, name := range []string{CrossoverUniform, CrossoverBlend} {
		c, err := CrossoverByName(name)
		require.NoError(t, err)
		assert.NotNil(t, c)
	}

	_, err := CrossoverByName("onepoint")
	assert.ErrorIs(t, err, ErrUnknownCrossover)
}

func testBounds() core.Bounds {
	return core.Bounds{
		Velocity: core.Range{Min: 1, Max: 30},
		Angle:    core.Range{Min: core.DegreesToRadians(1), Max: core.DegreesToRadians(89)},
	}
}

func TestMutator_AlwaysMutatesWithinStep(t *testing.T) {
	m := Mutator{Rate: 1, VelocityStep: 2, AngleStep: 0.1, Bounds: testBounds()}
	rng := rand.New(rand.NewSource(11))
	parent := core.NewIndividual(15, 0.7)

	for i := 0; i < 200; i++ {
		c := m.Mutate(parent, rng)
		assert.InDelta(t, 15, c.Velocity(), 2)
		assert.InDelta(t, 0.7, c.Angle(), 0.1)
		assert.NotEqual(t, parent, c)
	}
}

func TestMutator_ZeroRateKeepsGenes(t *testing.T) {
	m := Mutator{Rate: 0, VelocityStep: 2, AngleStep: 0.1, Bounds: testBounds()}
	rng := rand.New(rand.NewSource(11))
	parent := core.NewIndividual(15, 0.7)

	for i := 0; i < 50; i++ {
		assert.Equal(t, parent, m.Mutate(parent, rng))
	}
}

func TestMutator_ClampsIntoDomain(t *testing.T) {
	b := testBounds()
	m := Mutator{Rate: 1, VelocityStep: 50, AngleStep: 3, Bounds: b}
	rng := rand.New(rand.NewSource(5))

	edges := []core.Individual{
		core.NewIndividual(b.Velocity.Min, b.Angle.Min),
		core.NewIndividual(b.Velocity.Max, b.Angle.Max),
	}
	for _, parent := range edges {
		for i := 0; i < 200; i++ {
			c := m.Mutate(parent, rng)
			assert.True(t, b.Contains(c), "mutated %+v escaped bounds", c)
		}
	}
}
