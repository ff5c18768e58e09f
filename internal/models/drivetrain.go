package models

import "github.com/san-kum/motionctl/internal/dynamo"

// Drivetrain state indices.
const (
	DriveDistance = iota
	DriveVelocity
	DriveHeading
	DriveYawRate
)

// Drivetrain is a differential drive seen through arcade commands: each axis
// responds to its command as a first-order lag toward command*max rate.
type Drivetrain struct {
	MaxSpeed   float64 `yaml:"max_speed" json:"max_speed"`
	SpeedTau   float64 `yaml:"speed_tau" json:"speed_tau"`
	MaxYawRate float64 `yaml:"max_yaw_rate" json:"max_yaw_rate"`
	YawTau     float64 `yaml:"yaw_tau" json:"yaw_tau"`
}

func NewDrivetrain() *Drivetrain {
	return &Drivetrain{
		MaxSpeed:   3.0,
		SpeedTau:   0.1,
		MaxYawRate: 6.0,
		YawTau:     0.08,
	}
}

func (d *Drivetrain) StateDim() int {
	return 4
}

func (d *Drivetrain) ControlDim() int {
	return 2
}

// Derive takes u = [forward, rotation].
func (d *Drivetrain) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	forward, rotation := 0.0, 0.0
	if len(u) > 1 {
		forward, rotation = u[0], u[1]
	}

	accel := (forward*d.MaxSpeed - x[DriveVelocity]) / d.SpeedTau
	yawAccel := (rotation*d.MaxYawRate - x[DriveYawRate]) / d.YawTau

	return dynamo.State{x[DriveVelocity], accel, x[DriveYawRate], yawAccel}
}
