package ballistics

import (
	"math"

	"github.com/cannonfire/planner/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// DefaultPathSamples is the number of points used when sampling a trajectory for display.
const DefaultPathSamples = 64

// Path samples the flight as an XY line string from the launch point to where
// the projectile lands or strikes the wall.
func (s Simulator) Path(velocity, angle float64, wall core.Wall, samples int) (geom.LineString, error) {
	f, err := s.Simulate(velocity, angle, wall)
	if err != nil {
		return geom.LineString{}, err
	}
	if samples < 2 {
		samples = 2
	}

	coords := make([]float64, 0, samples*2)
	step := f.Distance / float64(samples-1)
	for i := 0; i < samples; i++ {
		x := step * float64(i)
		if i == samples-1 {
			x = f.Distance
		}
		y := s.HeightAt(velocity, angle, x)
		if f.Outcome != core.OutcomeHit && i == samples-1 {
			// land exactly on the ground line
			y = 0
		}
		coords = append(coords, x, math.Max(y, 0))
	}

	seq := geom.NewSequence(coords, geom.DimXY)
	return geom.NewLineString(seq)
}

// PathWKT is Path rendered as WKT, or an empty string on invalid input.
func (s Simulator) PathWKT(individual core.Individual, wall core.Wall) string {
	ls, err := s.Path(individual.Velocity(), individual.Angle(), wall, DefaultPathSamples)
	if err != nil {
		return ""
	}
	return ls.AsText()
}
