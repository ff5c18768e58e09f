package motion

import "math"

type Kind int

const (
	Transition Kind = iota
	Cruise
)

func (k Kind) String() string {
	switch k {
	case Transition:
		return "transition"
	case Cruise:
		return "cruise"
	default:
		return "unknown"
	}
}

// Chunk is one closed-form segment of a profile. Transitions move from v0 to
// v1 at constant acceleration; cruises hold v0 over a fixed distance.
type Chunk struct {
	kind     Kind
	v0, v1   float64
	accel    float64
	duration float64
	distance float64
}

// newTransition picks the acceleration rate by whether the speed grows
// (maxAccel) or shrinks (maxDecel).
func newTransition(v0, v1, maxAccel, maxDecel float64) Chunk {
	c := Chunk{kind: Transition, v0: v0, v1: v1}
	if v0 == v1 {
		return c
	}
	rate := maxDecel
	if math.Abs(v1) > math.Abs(v0) {
		rate = maxAccel
	}
	c.accel = math.Copysign(rate, v1-v0)
	c.duration = (v1 - v0) / c.accel
	c.distance = v0*c.duration + 0.5*c.accel*c.duration*c.duration
	return c
}

func newCruise(v, distance float64) Chunk {
	c := Chunk{kind: Cruise, v0: v, v1: v, distance: distance}
	if v != 0 {
		c.duration = distance / v
	}
	return c
}

func (c Chunk) Kind() Kind                 { return c.kind }
func (c Chunk) Duration() float64          { return c.duration }
func (c Chunk) TotalDistance() float64     { return c.distance }
func (c Chunk) StartVelocity() float64     { return c.v0 }
func (c Chunk) EndVelocity() float64       { return c.v1 }
func (c Chunk) Acceleration() float64      { return c.accel }
func (c Chunk) Velocity(t float64) float64 { return c.v0 + c.accel*t }

func (c Chunk) Position(t float64) float64 {
	if c.kind == Cruise {
		return c.v0 * t
	}
	return c.v0*t + 0.5*c.accel*t*t
}
