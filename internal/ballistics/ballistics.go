// Package ballistics computes drag-free projectile flights against a wall
// using closed-form kinematics.
package ballistics

import (
	"errors"
	"fmt"
	"math"

	"github.com/cannonfire/planner/pkg/core"
)

// StandardGravity is the downward acceleration used when none is configured, m/s².
const StandardGravity = 9.81

var (
	// ErrInvalidVelocity is returned for a launch velocity that is not a positive finite number
	ErrInvalidVelocity = errors.New("launch velocity must be positive and finite")
	// ErrDegenerateTrajectory is returned for a launch angle outside the open range (0°, 90°)
	ErrDegenerateTrajectory = errors.New("launch angle must lie strictly between 0 and 90 degrees")
	// ErrInvalidWall is returned for a wall with non-positive distance or negative height
	ErrInvalidWall = errors.New("wall distance must be positive and height non-negative")
)

// Flight is the simulated result of one launch.
type Flight struct {
	Distance     float64 // horizontal distance travelled before landing or striking the wall
	Range        float64 // unobstructed range
	HeightAtWall float64 // trajectory height at x = wall distance
	Outcome      core.Outcome
}

// Simulator evaluates trajectories under constant gravity.
type Simulator struct {
	Gravity float64
}

// New returns a Simulator. A non-positive gravity falls back to StandardGravity.
func New(gravity float64) Simulator {
	if gravity <= 0 || math.IsNaN(gravity) || math.IsInf(gravity, 0) {
		gravity = StandardGravity
	}
	return Simulator{Gravity: gravity}
}

func (s Simulator) g() float64 {
	if s.Gravity <= 0 {
		return StandardGravity
	}
	return s.Gravity
}

// Range returns the distance at which the projectile returns to launch height.
func (s Simulator) Range(velocity, angle float64) float64 {
	return velocity * velocity * math.Sin(2*angle) / s.g()
}

// HeightAt evaluates the trajectory equation at horizontal position x.
func (s Simulator) HeightAt(velocity, angle, x float64) float64 {
	c := math.Cos(angle)
	return x*math.Tan(angle) - s.g()*x*x/(2*velocity*velocity*c*c)
}

// Apex returns the highest point of the trajectory.
func (s Simulator) Apex(velocity, angle float64) float64 {
	vy := velocity * math.Sin(angle)
	return vy * vy / (2 * s.g())
}

// ReachableHeight is the greatest height any launch angle can reach at
// horizontal distance x for the given velocity (the safety parabola).
func (s Simulator) ReachableHeight(velocity, x float64) float64 {
	g := s.g()
	return velocity*velocity/(2*g) - g*x*x/(2*velocity*velocity)
}

// ReachableHeightWithin is the greatest height reachable at horizontal
// distance x when the launch angle is limited to angles. HeightAt is concave
// in tan(angle) and peaks at tan(angle) = v²/(g·x), so the best angle in the
// range is that peak clamped to the range.
func (s Simulator) ReachableHeightWithin(velocity, x float64, angles core.Range) float64 {
	best := math.Atan(velocity * velocity / (s.g() * x))
	best = math.Max(angles.Min, math.Min(angles.Max, best))
	return s.HeightAt(velocity, best, x)
}

// Validate checks simulator inputs.
func Validate(velocity, angle float64, wall core.Wall) error {
	if !(velocity > 0) || math.IsInf(velocity, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidVelocity, velocity)
	}
	if !(angle > 0 && angle < math.Pi/2) {
		return fmt.Errorf("%w: got %v rad", ErrDegenerateTrajectory, angle)
	}
	if !(wall.Distance > 0) || !(wall.Height >= 0) || math.IsInf(wall.Distance, 0) || math.IsInf(wall.Height, 0) {
		return fmt.Errorf("%w: distance %v, height %v", ErrInvalidWall, wall.Distance, wall.Height)
	}
	return nil
}

// Simulate flies one projectile at the wall.
//
// A projectile whose range ends before the wall lands short. One that reaches
// the wall but is lower than its top at x = wall.Distance stops there. All
// others clear the wall and travel their full range. A wall of zero height is
// always cleared.
func (s Simulator) Simulate(velocity, angle float64, wall core.Wall) (Flight, error) {
	if err := Validate(velocity, angle, wall); err != nil {
		return Flight{}, err
	}

	f := Flight{
		Range:        s.Range(velocity, angle),
		HeightAtWall: s.HeightAt(velocity, angle, wall.Distance),
	}

	switch {
	case f.Range < wall.Distance:
		f.Outcome = core.OutcomeShort
		f.Distance = f.Range
	case wall.Height > 0 && f.HeightAtWall < wall.Height:
		f.Outcome = core.OutcomeHit
		f.Distance = wall.Distance
	default:
		f.Outcome = core.OutcomeCleared
		f.Distance = f.Range
	}

	return f, nil
}
