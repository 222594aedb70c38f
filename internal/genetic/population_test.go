package genetic

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/internal/fitness"
	"github.com/cannonfire/planner/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomIndividuals_WithinBounds(t *testing.T) {
	b := testBounds()
	inds := RandomIndividuals(500, b, rand.New(rand.NewSource(2)))

	require.Len(t, inds, 500)
	for _, ind := range inds {
		assert.True(t, b.Contains(ind))
	}
}

func TestEvaluate_ScoresEveryIndividual(t *testing.T) {
	eval := fitness.New(ballistics.New(ballistics.StandardGravity), core.Wall{Distance: 10, Height: 1}, 1)
	inds := RandomIndividuals(20, testBounds(), rand.New(rand.NewSource(4)))

	pop, err := Evaluate(3, inds, eval)
	require.NoError(t, err)

	assert.Equal(t, 3, pop.Generation())
	assert.Equal(t, 20, pop.Size())
	for i, m := range pop.Members() {
		assert.Equal(t, inds[i], m.Individual)
		want, err := eval.Evaluate(inds[i])
		require.NoError(t, err)
		assert.Equal(t, want, m.Score)
	}
}

func TestEvaluate_PropagatesErrors(t *testing.T) {
	eval := fitness.New(ballistics.New(ballistics.StandardGravity), core.Wall{Distance: 10, Height: 1}, 1)
	inds := []core.Individual{core.NewIndividual(0, 0.5)}

	_, err := Evaluate(0, inds, eval)
	assert.ErrorIs(t, err, ballistics.ErrInvalidVelocity)
}

func TestPopulation_BestPrefersEarliestOnTie(t *testing.T) {
	pop := populationOf(1, 3, 2, 3)
	assert.Equal(t, 2.0, pop.Best().Individual.Velocity())
}

func TestPopulation_RankedIsStableDescending(t *testing.T) {
	pop := populationOf(1, 3, 2, 3)
	ranked := pop.Ranked()

	var velocities []float64
	for _, m := range ranked {
		velocities = append(velocities, m.Individual.Velocity())
	}
	assert.Equal(t, []float64{2, 4, 3, 1}, velocities)

	// ranking must not reorder the population itself
	assert.Equal(t, 1.0, pop.Members()[0].Individual.Velocity())
}

func TestPopulation_Snapshot(t *testing.T) {
	pop := populationOf(1, 4, 2, 1)
	pop.generation = 7
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	snap := pop.Snapshot("run_x", at)

	assert.Equal(t, "run_x", snap.RunID)
	assert.Equal(t, 7, snap.Generation)
	assert.Equal(t, 2.0, snap.Best.Velocity())
	assert.Equal(t, 4.0, snap.BestFitness)
	assert.InDelta(t, 2.0, snap.MeanFitness, 1e-12)
	assert.Equal(t, 1.0, snap.WorstFitness)
	assert.Equal(t, at, snap.Timestamp)
	assert.InDelta(t, 8.0, pop.TotalFitness(), 1e-12)
}
