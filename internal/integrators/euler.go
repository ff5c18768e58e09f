package integrators

import "github.com/san-kum/motionctl/internal/dynamo"

// Euler is the explicit first-order stepper.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	next := append(dynamo.State(nil), x...)
	for i, d := range dyn.Derive(x, u, t) {
		next[i] += dt * d
	}
	return next
}
