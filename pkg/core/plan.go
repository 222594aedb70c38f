// pkg/core/plan.go
package core

import "math"

// Individual is one firing plan: a launch velocity (m/s) and launch angle
// (radians). Values are fixed at construction.
type Individual struct {
	velocity float64
	angle    float64
}

// NewIndividual builds a firing plan. It does not validate; callers keep genes
// inside Bounds.
func NewIndividual(velocity, angle float64) Individual {
	return Individual{velocity: velocity, angle: angle}
}

// Velocity returns the launch velocity in m/s.
func (i Individual) Velocity() float64 { return i.velocity }

// Angle returns the launch angle in radians.
func (i Individual) Angle() float64 { return i.angle }

// AngleDegrees returns the launch angle in degrees.
func (i Individual) AngleDegrees() float64 { return RadiansToDegrees(i.angle) }

// Wall is the obstacle the projectile has to clear
type Wall struct {
	Distance float64 // horizontal distance from the launch point, metres
	Height   float64 // metres above launch level
}

// Range is a closed numeric interval
type Range struct {
	Min float64
	Max float64
}

// Clamp limits v to the interval.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies inside the interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Width returns Max - Min.
func (r Range) Width() float64 {
	return r.Max - r.Min
}

// Bounds is the gene domain. Angle limits are in radians.
type Bounds struct {
	Velocity Range
	Angle    Range
}

// Clamp pulls both genes of an individual back into the domain.
func (b Bounds) Clamp(i Individual) Individual {
	return NewIndividual(b.Velocity.Clamp(i.velocity), b.Angle.Clamp(i.angle))
}

// Contains reports whether both genes are inside the domain.
func (b Bounds) Contains(i Individual) bool {
	return b.Velocity.Contains(i.velocity) && b.Angle.Contains(i.angle)
}

// DegreesToRadians converts an angle in degrees to radians.
func DegreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadiansToDegrees converts an angle in radians to degrees.
func RadiansToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
