package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/motionctl/internal/dynamo"
)

// lag is a first-order response dx/dt = (u - x) / tau.
type lag struct{ tau float64 }

func (l *lag) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{(u[0] - x[0]) / l.tau}
}

func (l *lag) StateDim() int   { return 1 }
func (l *lag) ControlDim() int { return 1 }

func integrate(integ dynamo.Integrator, steps int, dt float64) float64 {
	dyn := &lag{tau: 0.1}
	x := dynamo.State{0}
	u := dynamo.Control{1}
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}
	return x[0]
}

func TestRK4Accuracy(t *testing.T) {
	dt := 0.02
	steps := 10
	got := integrate(NewRK4(), steps, dt)
	expected := 1 - math.Exp(-float64(steps)*dt/0.1)

	if math.Abs(got-expected) > 1e-4 {
		t.Errorf("step response error too large: got %.6f, expected %.6f", got, expected)
	}
}

func TestEulerConverges(t *testing.T) {
	got := integrate(NewEuler(), 200, 0.02)
	if math.Abs(got-1) > 1e-6 {
		t.Errorf("expected steady state 1, got %.6f", got)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"euler", "rk4"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q): %v", name, err)
		}
	}
	if _, err := ByName("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
