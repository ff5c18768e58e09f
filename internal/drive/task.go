package drive

import (
	"math"

	"github.com/san-kum/motionctl/internal/control"
	"github.com/san-kum/motionctl/internal/motion"
)

const DefaultCompletionTolerance = 0.01

// Status is a snapshot of the most recent Update.
type Status struct {
	Elapsed  float64
	Setpoint motion.Moment
	Measured float64
	Output   float64
	Done     bool
}

// ProfiledTask tracks one profile on one axis. Linear profiles are in absolute
// odometry distance; angular profiles are relative to the orientation when the
// task was created.
type ProfiledTask struct {
	profile    *motion.Profile
	controller *control.PIDF
	axis       Axis
	sensors    Sensors
	actuator   Actuator
	tolerance  float64

	startTime  float64
	startValue float64
	target     float64
	status     Status
}

type TaskOption func(*ProfiledTask)

// WithTolerance sets the completion window as a fraction of the total
// displacement.
func WithTolerance(frac float64) TaskOption {
	return func(t *ProfiledTask) {
		if frac > 0 {
			t.tolerance = frac
		}
	}
}

func NewProfiledTask(profile *motion.Profile, controller *control.PIDF, axis Axis, startTime float64, sensors Sensors, actuator Actuator, opts ...TaskOption) *ProfiledTask {
	t := &ProfiledTask{
		profile:    profile,
		controller: controller,
		axis:       axis,
		sensors:    sensors,
		actuator:   actuator,
		tolerance:  DefaultCompletionTolerance,
		startTime:  startTime,
		startValue: axis.read(sensors),
		target:     profile.EndPosition(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.controller.Initialize(t.measure(), 0, 0)
	return t
}

// Update runs one control step and reports whether the task is complete.
func (t *ProfiledTask) Update(now float64) bool {
	elapsed := now - t.startTime
	sp := t.profile.At(elapsed)
	measured := t.measure()

	out := t.controller.CalculateOutput(measured, sp.Position, sp.Velocity, sp.Acceleration, elapsed)
	t.axis.command(t.actuator, out)

	done := elapsed > t.profile.Duration() && t.converged(measured)
	t.status = Status{
		Elapsed:  elapsed,
		Setpoint: sp,
		Measured: measured,
		Output:   out,
		Done:     done,
	}
	return done
}

func (t *ProfiledTask) measure() float64 {
	v := t.axis.read(t.sensors)
	if t.axis == Angular {
		return v - t.startValue
	}
	return v
}

func (t *ProfiledTask) converged(measured float64) bool {
	span := math.Abs(t.profile.Displacement())
	if span == 0 {
		return true
	}
	return math.Abs(t.target-measured) <= t.tolerance*span
}

func (t *ProfiledTask) Axis() Axis               { return t.axis }
func (t *ProfiledTask) Profile() *motion.Profile { return t.profile }
func (t *ProfiledTask) StartValue() float64      { return t.startValue }
func (t *ProfiledTask) TargetEndValue() float64  { return t.target }
func (t *ProfiledTask) Status() Status           { return t.status }
func (t *ProfiledTask) Terms() control.Terms     { return t.controller.Terms() }
