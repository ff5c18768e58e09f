package models

import "github.com/san-kum/motionctl/internal/dynamo"

// Winch is the elevator drive: an output equal to Gravity holds the carriage
// still, anything above raises it.
type Winch struct {
	Rate    float64 `yaml:"rate" json:"rate"`
	Tau     float64 `yaml:"tau" json:"tau"`
	Gravity float64 `yaml:"gravity" json:"gravity"`
}

func NewWinch() *Winch {
	return &Winch{
		Rate:    5.0,
		Tau:     0.15,
		Gravity: 0.1,
	}
}

func (w *Winch) StateDim() int {
	return 2
}

func (w *Winch) ControlDim() int {
	return 1
}

// Derive takes u = [winch output] and x = [height, velocity].
func (w *Winch) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	out := 0.0
	if len(u) > 0 {
		out = u[0]
	}
	accel := ((out-w.Gravity)*w.Rate - x[1]) / w.Tau
	return dynamo.State{x[1], accel}
}
