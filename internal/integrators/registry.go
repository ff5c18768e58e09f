package integrators

import (
	"fmt"

	"github.com/san-kum/motionctl/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
}

// ByName returns a fresh integrator. Integrators keep scratch buffers, so one
// instance must not be shared across plants of different dimension.
func ByName(name string) (dynamo.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}
