// Package drive binds motion profiles and PIDF controllers to the robot's
// differential drivetrain.
package drive

// Sensors reports the drivetrain's measured state. Distances are meters,
// velocities meters per second and orientation radians, counter-clockwise
// positive.
type Sensors interface {
	LinearDistance() float64
	LinearVelocity() float64
	Orientation() float64
}

// Actuator accepts arcade-style commands in [-1, 1].
type Actuator interface {
	ArcadeDrive(forward, rotation float64)
}

// Axis selects which reading a task tracks and which command it issues.
type Axis int

const (
	Linear Axis = iota
	Angular
)

func (a Axis) String() string {
	switch a {
	case Linear:
		return "linear"
	case Angular:
		return "angular"
	default:
		return "unknown"
	}
}

func (a Axis) read(s Sensors) float64 {
	if a == Angular {
		return s.Orientation()
	}
	return s.LinearDistance()
}

func (a Axis) command(act Actuator, out float64) {
	if a == Angular {
		act.ArcadeDrive(0, out)
		return
	}
	act.ArcadeDrive(out, 0)
}
