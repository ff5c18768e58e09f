package integrators

import "github.com/san-kum/motionctl/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta stepper. Stage buffers are
// reused between steps; the control input is held constant across the step
// (zero-order hold), matching a fixed-period command.
type RK4 struct {
	k       [4]dynamo.State
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
}

// stage evaluates the derivative at x + h*prev into dst.
func (r *RK4) stage(dst dynamo.State, dyn dynamo.System, x, prev dynamo.State, u dynamo.Control, t, h float64) {
	for i := range x {
		r.scratch[i] = x[i]
		if prev != nil {
			r.scratch[i] += h * prev[i]
		}
	}
	copy(dst, dyn.Derive(r.scratch, u, t))
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.resize(len(x))

	half := dt / 2
	r.stage(r.k[0], dyn, x, nil, u, t, 0)
	r.stage(r.k[1], dyn, x, r.k[0], u, t+half, half)
	r.stage(r.k[2], dyn, x, r.k[1], u, t+half, half)
	r.stage(r.k[3], dyn, x, r.k[2], u, t+dt, dt)

	next := make(dynamo.State, len(x))
	for i := range x {
		next[i] = x[i] + dt/6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return next
}
