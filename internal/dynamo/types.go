package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

// System is a continuous plant dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Sample is everything recorded about one control tick.
type Sample struct {
	Time     float64 `json:"t"`
	State    string  `json:"state"`
	Distance float64 `json:"distance"`
	Velocity float64 `json:"velocity"`
	Heading  float64 `json:"heading"`
	Tracking bool    `json:"tracking"`
	Setpoint float64 `json:"setpoint"`
	Measured float64 `json:"measured"`
	// PIDF contributions of the active task, zero while not tracking.
	Proportional float64 `json:"p"`
	Integral     float64 `json:"i"`
	Derivative   float64 `json:"d"`
	Feedforward  float64 `json:"ff"`
	Saturated    bool    `json:"saturated"`
	Forward      float64 `json:"forward"`
	Rotation     float64 `json:"rotation"`
	Height       float64 `json:"height"`
	Winch        float64 `json:"winch"`
	Roller       float64 `json:"roller"`
}

// TrackingError is setpoint minus measurement, zero when no profiled task
// is active.
func (s Sample) TrackingError() float64 {
	if !s.Tracking {
		return 0
	}
	return s.Setpoint - s.Measured
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(s Sample)
}

type Result struct {
	Samples     []Sample
	Metrics     map[string]float64
	History     []string
	Completed   bool
	CompletedAt float64
	TimedOut    bool
	StepsTaken  int
	Errors      []error
}

// SimError locates a failure within a run.
type SimError struct {
	Time float64
	Step int
	Err  error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e SimError) Unwrap() error { return e.Err }
