package motion

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidLimits = errors.New("motion: kinematic limits must be positive and finite")
	ErrInvalidInput  = errors.New("motion: velocity and positions must be finite")
	ErrNoConvergence = errors.New("motion: profile did not converge")
)

// maxChunks bounds the generator loop. A well-formed profile has at most five
// chunks: reversal, speed change, cruise, brake, plus a triangular split.
const maxChunks = 16

// tolerance is the relative tolerance used by AlmostEqual.
const tolerance = 1e-9

type Limits struct {
	MaxVelocity float64 `yaml:"max_velocity" json:"max_velocity"`
	MaxAccel    float64 `yaml:"max_accel" json:"max_accel"`
	MaxDecel    float64 `yaml:"max_decel" json:"max_decel"`
}

func (l Limits) Validate() error {
	check := func(name string, v float64) error {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s = %g", ErrInvalidLimits, name, v)
		}
		return nil
	}
	if err := check("max_velocity", l.MaxVelocity); err != nil {
		return err
	}
	if err := check("max_accel", l.MaxAccel); err != nil {
		return err
	}
	return check("max_decel", l.MaxDecel)
}

// Moment is the setpoint of a profile at one instant.
type Moment struct {
	Position     float64 `json:"position"`
	Velocity     float64 `json:"velocity"`
	Acceleration float64 `json:"acceleration"`
}

type Profile struct {
	start    float64
	end      float64
	duration float64
	chunks   []Chunk
	limits   Limits
}

// Generate builds the minimum-time profile from currentPosition moving at
// currentVelocity to targetPosition, ending at rest.
//
// If the axis cannot stop before targetPosition, the profile is a single
// braking chunk and ends at the true stopping point rather than the target.
func Generate(currentVelocity, currentPosition, targetPosition float64, lim Limits) (*Profile, error) {
	if err := lim.Validate(); err != nil {
		return nil, err
	}
	for _, v := range []float64{currentVelocity, currentPosition, targetPosition} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrInvalidInput
		}
	}

	p := &Profile{start: currentPosition, end: currentPosition, limits: lim}

	displacement := targetPosition - currentPosition
	if displacement == 0 && currentVelocity == 0 {
		return p, nil
	}

	chunks, err := lim.build(currentVelocity, displacement)
	if err != nil {
		return nil, err
	}

	p.chunks = chunks
	for _, c := range chunks {
		p.duration += c.Duration()
		p.end += c.TotalDistance()
	}
	return p, nil
}

func (l Limits) build(v, remaining float64) ([]Chunk, error) {
	chunks := make([]Chunk, 0, 4)

	for len(chunks) < maxChunks {
		stopping := 0.5 * (math.Abs(v) / l.MaxDecel) * v
		dir := sign(remaining)
		first := len(chunks) == 0

		var c Chunk
		switch {
		case first && v != 0 && sign(v) != dir:
			// moving away from the target
			c = l.transition(v, 0)

		case first && math.Abs(stopping) > math.Abs(remaining):
			return append(chunks, l.transition(v, 0)), nil

		case math.Abs(v) > l.MaxVelocity:
			c = l.transition(v, l.MaxVelocity*dir)

		case math.Abs(v) < l.MaxVelocity:
			if math.Abs(stopping) < math.Abs(remaining) {
				c = l.transition(v, l.MaxVelocity*dir)
			} else {
				c = l.transition(v, 0)
			}

		default:
			switch {
			case AlmostEqual(stopping, remaining):
				c = l.transition(v, 0)
			case sign(v) == dir && math.Abs(stopping) < math.Abs(remaining):
				c = newCruise(v, remaining-stopping)
			case first:
				c = l.transition(v, 0)
			default:
				return l.triangle(chunks, remaining), nil
			}
		}

		chunks = append(chunks, c)
		if c.EndVelocity() == 0 && AlmostEqual(remaining, c.TotalDistance()) {
			return chunks, nil
		}
		v = c.EndVelocity()
		remaining -= c.TotalDistance()
	}

	return nil, ErrNoConvergence
}

// triangle replaces the last chunk, which assumed the axis reaches max
// velocity, with an accelerate/brake pair peaking below it.
func (l Limits) triangle(chunks []Chunk, remaining float64) []Chunk {
	last := chunks[len(chunks)-1]
	chunks = chunks[:len(chunks)-1]

	remaining += last.TotalDistance()
	v := last.StartVelocity()
	dir := sign(remaining)

	// distance the axis would have covered reaching v from rest
	preceding := 0.5 * v * v / l.MaxAccel
	full := math.Abs(remaining) + preceding

	accelDist := 0.5 * l.MaxVelocity * (l.MaxVelocity / l.MaxAccel)
	decelDist := 0.5 * l.MaxVelocity * (l.MaxVelocity / l.MaxDecel)
	ratio := accelDist / (accelDist + decelDist)

	peak := math.Sqrt(2*ratio*full*l.MaxAccel) * dir

	return append(chunks, l.transition(v, peak), l.transition(peak, 0))
}

func (l Limits) transition(v0, v1 float64) Chunk {
	return newTransition(v0, v1, l.MaxAccel, l.MaxDecel)
}

// At returns the setpoint at elapsed time t. Times before zero return the
// starting moment; times past Duration return the terminal moment.
func (p *Profile) At(t float64) Moment {
	if t < 0 {
		t = 0
	}
	chunkStart := 0.0
	pos := p.start
	for _, c := range p.chunks {
		chunkEnd := chunkStart + c.Duration()
		if t < chunkEnd {
			local := t - chunkStart
			return Moment{
				Position:     pos + c.Position(local),
				Velocity:     c.Velocity(local),
				Acceleration: c.Acceleration(),
			}
		}
		chunkStart = chunkEnd
		pos += c.TotalDistance()
	}
	return Moment{Position: p.end}
}

func (p *Profile) Position(t float64) float64     { return p.At(t).Position }
func (p *Profile) Velocity(t float64) float64     { return p.At(t).Velocity }
func (p *Profile) Acceleration(t float64) float64 { return p.At(t).Acceleration }

func (p *Profile) Duration() float64      { return p.duration }
func (p *Profile) StartPosition() float64 { return p.start }
func (p *Profile) EndPosition() float64   { return p.end }
func (p *Profile) Displacement() float64  { return p.end - p.start }
func (p *Profile) Limits() Limits         { return p.limits }

// Chunks returns a copy of the profile's segments.
func (p *Profile) Chunks() []Chunk {
	out := make([]Chunk, len(p.chunks))
	copy(out, p.chunks)
	return out
}

// PeakVelocity is the largest absolute velocity reached by the profile.
func (p *Profile) PeakVelocity() float64 {
	peak := 0.0
	for _, c := range p.chunks {
		peak = math.Max(peak, math.Max(math.Abs(c.StartVelocity()), math.Abs(c.EndVelocity())))
	}
	return peak
}

type Sample struct {
	Time float64 `json:"time"`
	Moment
}

// Sample evaluates the profile every step seconds from zero through the end,
// always including the terminal moment.
func (p *Profile) Sample(step float64) []Sample {
	if step <= 0 {
		return nil
	}
	n := int(math.Ceil(p.duration / step))
	out := make([]Sample, 0, n+1)
	for i := 0; i < n; i++ {
		t := float64(i) * step
		out = append(out, Sample{Time: t, Moment: p.At(t)})
	}
	return append(out, Sample{Time: p.duration, Moment: p.At(p.duration)})
}

// AlmostEqual compares with a relative tolerance, falling back to an
// absolute one near zero.
func AlmostEqual(a, b float64) bool {
	diff := math.Abs(a - b)
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return diff <= tolerance*scale
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
