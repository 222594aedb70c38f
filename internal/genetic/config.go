package genetic

import (
	"errors"
	"fmt"
	"math"

	"github.com/cannonfire/planner/internal/ballistics"
	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/internal/fitness"
	"github.com/cannonfire/planner/pkg/core"
)

// ConfigurationError reports one invalid engine setting. It is detected before
// the first generation and is never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Config holds every input of a search run. Angles are in radians.
type Config struct {
	PopulationSize int
	MutationRate   float64
	VelocityStep   float64 // largest velocity change per mutation, m/s
	AngleStep      float64 // largest angle change per mutation, rad
	Crossover      string
	Elitism        bool

	MaxGenerations int
	Tolerance      float64 // accepted overshoot past the wall, m
	StallWindow    int     // generations the best must stay flat before converging
	MinImprovement float64 // best fitness gain across the window that still counts as progress

	Wall           core.Wall
	Bounds         core.Bounds
	Gravity        float64
	OvershootScale float64
	Seed           int64
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 50,
		MutationRate:   0.05,
		VelocityStep:   2,
		AngleStep:      core.DegreesToRadians(5),
		Crossover:      CrossoverUniform,
		Elitism:        true,
		MaxGenerations: 100,
		Tolerance:      1.0,
		StallWindow:    5,
		MinImprovement: 0.05,
		Wall:           core.Wall{Distance: 10, Height: 1},
		Bounds: core.Bounds{
			Velocity: core.Range{Min: 1, Max: 50},
			Angle:    core.Range{Min: core.DegreesToRadians(1), Max: core.DegreesToRadians(89)},
		},
		Gravity:        ballistics.StandardGravity,
		OvershootScale: fitness.DefaultOvershootScale,
		Seed:           1,
	}
}

// FromSettings converts loaded settings, with angles in degrees, into an
// engine Config.
func FromSettings(c config.EngineConfig) Config {
	return Config{
		PopulationSize: c.PopulationSize,
		MutationRate:   c.MutationRate,
		VelocityStep:   c.VelocityStep,
		AngleStep:      core.DegreesToRadians(c.AngleStep),
		Crossover:      c.Crossover,
		Elitism:        c.Elitism,
		MaxGenerations: c.MaxGenerations,
		Tolerance:      c.Tolerance,
		StallWindow:    c.StallWindow,
		MinImprovement: c.MinImprovement,
		Wall:           core.Wall{Distance: c.WallDistance, Height: c.WallHeight},
		Bounds: core.Bounds{
			Velocity: core.Range{Min: c.VelocityMin, Max: c.VelocityMax},
			Angle: core.Range{
				Min: core.DegreesToRadians(c.AngleMin),
				Max: core.DegreesToRadians(c.AngleMax),
			},
		},
		Gravity:        c.Gravity,
		OvershootScale: c.OvershootScale,
		Seed:           c.Seed,
	}
}

// Validate checks the configuration and returns every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	if c.PopulationSize <= 0 {
		bad("populationSize", "must be positive, got %d", c.PopulationSize)
	}
	if !(c.MutationRate > 0 && c.MutationRate <= 1) {
		bad("mutationRate", "must be in (0, 1], got %v", c.MutationRate)
	}
	if !(c.VelocityStep > 0) || !finite(c.VelocityStep) {
		bad("velocityStep", "must be positive, got %v", c.VelocityStep)
	}
	if !(c.AngleStep > 0) || !finite(c.AngleStep) {
		bad("angleStep", "must be positive, got %v", c.AngleStep)
	}
	if _, err := CrossoverByName(c.Crossover); err != nil {
		bad("crossover", "%v", err)
	}
	if c.MaxGenerations <= 0 {
		bad("maxGenerations", "must be positive, got %d", c.MaxGenerations)
	}
	if !(c.Tolerance >= 0) || !finite(c.Tolerance) {
		bad("tolerance", "must be non-negative, got %v", c.Tolerance)
	}
	if c.StallWindow <= 0 {
		bad("stallWindow", "must be positive, got %d", c.StallWindow)
	}
	if !(c.MinImprovement >= 0) || !finite(c.MinImprovement) {
		bad("minImprovement", "must be non-negative, got %v", c.MinImprovement)
	}
	if !(c.Gravity > 0) || !finite(c.Gravity) {
		bad("gravity", "must be positive, got %v", c.Gravity)
	}
	if !(c.OvershootScale > 0) || !finite(c.OvershootScale) {
		bad("overshootScale", "must be positive, got %v", c.OvershootScale)
	}

	v, a := c.Bounds.Velocity, c.Bounds.Angle
	velocityOK := v.Min > 0 && v.Min < v.Max && finite(v.Max)
	if !velocityOK {
		bad("bounds.velocity", "need 0 < min < max, got [%v, %v]", v.Min, v.Max)
	}
	angleOK := a.Min > 0 && a.Min < a.Max && a.Max < math.Pi/2
	if !angleOK {
		bad("bounds.angle", "need 0° < min < max < 90°, got [%.3f°, %.3f°]", a.Min*180/math.Pi, a.Max*180/math.Pi)
	}

	wallOK := c.Wall.Distance > 0 && c.Wall.Height >= 0 && finite(c.Wall.Distance) && finite(c.Wall.Height)
	if !wallOK {
		bad("wall", "need distance > 0 and height >= 0, got %+v", c.Wall)
	}

	if wallOK && velocityOK && angleOK && c.Gravity > 0 {
		reach := ballistics.New(c.Gravity).ReachableHeightWithin(v.Max, c.Wall.Distance, a)
		if c.Wall.Height >= reach {
			bad("wall.height", "%.3f m is not reachable at %.3f m with velocity <= %.3f m/s and angle in [%.3f°, %.3f°] (max %.3f m)",
				c.Wall.Height, c.Wall.Distance, v.Max, a.Min*180/math.Pi, a.Max*180/math.Pi, reach)
		}
	}

	return errors.Join(errs...)
}
