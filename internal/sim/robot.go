package sim

import (
	"math"

	"github.com/san-kum/motionctl/internal/drive"
	"github.com/san-kum/motionctl/internal/dynamo"
	"github.com/san-kum/motionctl/internal/integrators"
	"github.com/san-kum/motionctl/internal/models"
)

// RobotConfig describes the simulated hardware.
type RobotConfig struct {
	Drivetrain models.Drivetrain `yaml:"drivetrain" json:"drivetrain"`
	Winch      models.Winch      `yaml:"winch" json:"winch"`
	Encoder    drive.Encoder     `yaml:"-" json:"-"`
	Integrator string            `yaml:"integrator" json:"integrator"`
	// FreezeAfter stops the drive sensors updating after this many seconds.
	// Zero never freezes.
	FreezeAfter float64 `yaml:"freeze_after" json:"freeze_after"`
}

func DefaultRobotConfig() RobotConfig {
	return RobotConfig{
		Drivetrain: *models.NewDrivetrain(),
		Winch:      *models.NewWinch(),
		Encoder:    drive.DefaultEncoder(),
		Integrator: "rk4",
	}
}

type readings struct {
	distance, velocity, orientation float64
}

// Robot is a simulated drivetrain and elevator. It satisfies drive.Sensors,
// drive.Actuator and mechanism.ElevatorIO.
type Robot struct {
	cfg RobotConfig

	drivetrain *models.Drivetrain
	winch      *models.Winch
	driveInteg dynamo.Integrator
	winchInteg dynamo.Integrator

	x dynamo.State
	h dynamo.State
	u dynamo.Control
	w float64

	heightOffset float64
	frozen       *readings
	t            float64
}

func NewRobot(cfg RobotConfig) (*Robot, error) {
	name := cfg.Integrator
	if name == "" {
		name = "rk4"
	}
	driveInteg, err := integrators.ByName(name)
	if err != nil {
		return nil, err
	}
	winchInteg, _ := integrators.ByName(name)

	dt := cfg.Drivetrain
	w := cfg.Winch
	return &Robot{
		cfg:        cfg,
		drivetrain: &dt,
		winch:      &w,
		driveInteg: driveInteg,
		winchInteg: winchInteg,
		x:          make(dynamo.State, dt.StateDim()),
		h:          make(dynamo.State, w.StateDim()),
		u:          make(dynamo.Control, dt.ControlDim()),
	}, nil
}

// LinearDistance is the odometry reading, quantized to whole encoder ticks.
func (r *Robot) LinearDistance() float64 {
	if r.frozen != nil {
		return r.frozen.distance
	}
	return r.quantize(r.x[models.DriveDistance])
}

func (r *Robot) LinearVelocity() float64 {
	if r.frozen != nil {
		return r.frozen.velocity
	}
	return r.x[models.DriveVelocity]
}

func (r *Robot) Orientation() float64 {
	if r.frozen != nil {
		return r.frozen.orientation
	}
	return r.x[models.DriveHeading]
}

func (r *Robot) quantize(meters float64) float64 {
	if r.cfg.Encoder.TicksPerRev <= 0 || r.cfg.Encoder.WheelDiameter <= 0 {
		return meters
	}
	return r.cfg.Encoder.Distance(math.Trunc(r.cfg.Encoder.Ticks(meters)))
}

func (r *Robot) ArcadeDrive(forward, rotation float64) {
	r.u[0] = clamp(forward)
	r.u[1] = clamp(rotation)
}

func (r *Robot) Height() float64         { return r.h[0] - r.heightOffset }
func (r *Robot) HeightVelocity() float64 { return r.h[1] }
func (r *Robot) AtBottom() bool          { return r.h[0] <= 0 }
func (r *Robot) ResetHeight()            { r.heightOffset = r.h[0] }
func (r *Robot) SetWinch(output float64) { r.w = clamp(output) }

// Command returns the last arcade command and winch output.
func (r *Robot) Command() (forward, rotation, winch float64) {
	return r.u[0], r.u[1], r.w
}

// Distance is the true distance travelled, unaffected by encoder resolution
// or frozen sensors.
func (r *Robot) Distance() float64 { return r.x[models.DriveDistance] }
func (r *Robot) Heading() float64  { return r.x[models.DriveHeading] }
func (r *Robot) Frozen() bool      { return r.frozen != nil }

func (r *Robot) State() dynamo.State {
	s := r.x.Clone()
	return append(s, r.h...)
}

// Step advances both plants by dt with the commands held constant.
func (r *Robot) Step(dt float64) {
	r.x = r.driveInteg.Step(r.drivetrain, r.x, r.u, r.t, dt)
	r.h = r.winchInteg.Step(r.winch, r.h, dynamo.Control{r.w}, r.t, dt)
	if r.h[0] < 0 {
		r.h[0] = 0
		r.h[1] = math.Max(r.h[1], 0)
	}
	r.t += dt

	if r.frozen == nil && r.cfg.FreezeAfter > 0 && r.t >= r.cfg.FreezeAfter {
		r.frozen = &readings{
			distance:    r.LinearDistance(),
			velocity:    r.LinearVelocity(),
			orientation: r.Orientation(),
		}
	}
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
