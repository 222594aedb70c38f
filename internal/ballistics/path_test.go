package ballistics

import (
	"testing"

	"github.com/cannonfire/planner/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_ClearedEndsOnGround(t *testing.T) {
	s := New(StandardGravity)
	wall := core.Wall{Distance: 10, Height: 5}

	ls, err := s.Path(20, deg(60), wall, 16)
	require.NoError(t, err)

	seq := ls.Coordinates()
	require.Equal(t, 16, seq.Length())

	first := seq.Get(0)
	last := seq.Get(seq.Length() - 1)
	assert.Equal(t, 0.0, first.X)
	assert.Equal(t, 0.0, first.Y)
	assert.InDelta(t, s.Range(20, deg(60)), last.X, 1e-9)
	assert.Equal(t, 0.0, last.Y)
}

func TestPath_HitStopsAtWall(t *testing.T) {
	s := New(StandardGravity)
	wall := core.Wall{Distance: 10, Height: 25}

	ls, err := s.Path(20, deg(45), wall, 8)
	require.NoError(t, err)

	seq := ls.Coordinates()
	last := seq.Get(seq.Length() - 1)
	assert.Equal(t, 10.0, last.X)
	assert.InDelta(t, 7.5475, last.Y, 1e-3)
}

func TestPath_MinimumSamples(t *testing.T) {
	s := New(StandardGravity)
	ls, err := s.Path(10, deg(30), core.Wall{Distance: 100, Height: 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, ls.Coordinates().Length())
}

func TestPath_InvalidInput(t *testing.T) {
	s := New(StandardGravity)
	_, err := s.Path(10, 0, core.Wall{Distance: 10, Height: 1}, 10)
	assert.ErrorIs(t, err, ErrDegenerateTrajectory)
}

func TestPathWKT(t *testing.T) {
	s := New(StandardGravity)
	wall := core.Wall{Distance: 10, Height: 1}

	wkt := s.PathWKT(core.NewIndividual(15, deg(50)), wall)
	assert.Contains(t, wkt, "LINESTRING")

	assert.Empty(t, s.PathWKT(core.NewIndividual(-1, deg(50)), wall))
}
