package control

import "math"

// Terms is the breakdown of the most recent output.
type Terms struct {
	Error        float64
	Proportional float64
	Integral     float64
	Derivative   float64
	Feedforward  float64
	Output       float64
	Saturated    bool
}

type PIDF struct {
	gains  Gains
	bounds Bounds

	integral float64
	prevErr  float64
	prevT    float64
	lastOut  float64
	seed     float64
	seeded   bool
	first    bool
	terms    Terms
}

func New(gains Gains, bounds Bounds) *PIDF {
	return &PIDF{
		gains:  gains,
		bounds: bounds,
		first:  true,
	}
}

func (p *PIDF) Gains() Gains   { return p.gains }
func (p *PIDF) Bounds() Bounds { return p.bounds }
func (p *PIDF) Terms() Terms   { return p.terms }

// Initialize discards integral and derivative history. current is the
// measurement the new trajectory starts from and at is the time base for the
// next CalculateOutput call; priorOutput seeds the saturation state used by
// anti-windup.
func (p *PIDF) Initialize(current, at, priorOutput float64) {
	p.integral = 0
	p.prevErr = 0
	p.prevT = at
	p.lastOut = p.bounds.Clamp(priorOutput)
	p.seed = current
	p.seeded = true
	p.first = false
	p.terms = Terms{Output: p.lastOut}
}

// CalculateOutput returns the bounded control output for one sample.
func (p *PIDF) CalculateOutput(current, target, targetVelocity, targetAcceleration, now float64) float64 {
	if !finite(current, target, targetVelocity, targetAcceleration, now) {
		out := p.bounds.Clamp(0)
		p.terms = Terms{Output: out}
		return out
	}

	err := target - current

	if p.first {
		p.prevErr = err
		p.prevT = now
		p.first = false
	}
	if p.seeded {
		// first sample after Initialize: the error baseline is the
		// seeded measurement against the current setpoint
		p.prevErr = target - p.seed
		p.seeded = false
	}

	dt := now - p.prevT
	derivative := 0.0
	if dt > 0 {
		if !p.windingUp(err) {
			p.integral += err * dt
		}
		derivative = (err - p.prevErr) / dt
	}

	ff := p.gains.VelFF*targetVelocity + p.gains.AccFF*targetAcceleration + p.gains.StaticFF*sign(targetVelocity)
	raw := p.gains.P*err + p.gains.I*p.integral + p.gains.D*derivative + ff
	out := p.bounds.Clamp(raw)

	p.terms = Terms{
		Error:        err,
		Proportional: p.gains.P * err,
		Integral:     p.gains.I * p.integral,
		Derivative:   p.gains.D * derivative,
		Feedforward:  ff,
		Output:       out,
		Saturated:    out != raw,
	}

	p.prevErr = err
	if dt > 0 {
		p.prevT = now
	}
	p.lastOut = out
	return out
}

// windingUp reports whether the previous output sat at a bound and the new
// error would push further past it.
func (p *PIDF) windingUp(err float64) bool {
	if p.lastOut >= p.bounds.Max && err > 0 {
		return true
	}
	if p.lastOut <= p.bounds.Min && err < 0 {
		return true
	}
	return false
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

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
