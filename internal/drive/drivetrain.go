package drive

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/san-kum/motionctl/internal/control"
	"github.com/san-kum/motionctl/internal/motion"
)

// AxisConfig is the tuning for tasks on one axis.
type AxisConfig struct {
	Limits    motion.Limits  `yaml:"limits" json:"limits"`
	Gains     control.Gains  `yaml:"gains" json:"gains"`
	Bounds    control.Bounds `yaml:"bounds" json:"bounds"`
	Tolerance float64        `yaml:"completion_tolerance" json:"completion_tolerance"`
}

// Validate reports every problem with the axis tuning.
func (a AxisConfig) Validate() error {
	err := multierr.Combine(a.Limits.Validate(), a.Bounds.Validate())
	if a.Tolerance <= 0 || a.Tolerance >= 1 {
		err = multierr.Append(err, fmt.Errorf("completion tolerance must be in (0, 1), got %g", a.Tolerance))
	}
	return err
}

var outputRange = control.Symmetric(1)

// Drivetrain builds profiled tasks seeded from the live sensor readings.
type Drivetrain struct {
	sensors  Sensors
	actuator Actuator
	linear   AxisConfig
	angular  AxisConfig
}

func NewDrivetrain(sensors Sensors, actuator Actuator, linear, angular AxisConfig) (*Drivetrain, error) {
	if err := linear.Validate(); err != nil {
		return nil, fmt.Errorf("linear axis: %w", err)
	}
	if err := angular.Validate(); err != nil {
		return nil, fmt.Errorf("angular axis: %w", err)
	}
	if sensors == nil || actuator == nil {
		return nil, errors.New("drivetrain needs sensors and an actuator")
	}
	return &Drivetrain{
		sensors:  sensors,
		actuator: actuator,
		linear:   linear,
		angular:  angular,
	}, nil
}

// ArcadeDrive clamps both commands to [-1, 1] before forwarding them.
func (d *Drivetrain) ArcadeDrive(forward, rotation float64) {
	d.actuator.ArcadeDrive(outputRange.Clamp(forward), outputRange.Clamp(rotation))
}

func (d *Drivetrain) Sensors() Sensors { return d.sensors }

// ForwardTask drives meters from the current odometry reading.
func (d *Drivetrain) ForwardTask(meters, now float64) (*ProfiledTask, error) {
	current := d.sensors.LinearDistance()
	profile, err := motion.Generate(d.sensors.LinearVelocity(), current, current+meters, d.linear.Limits)
	if err != nil {
		return nil, fmt.Errorf("forward %.3f m: %w", meters, err)
	}
	pidf := control.New(d.linear.Gains, d.linear.Bounds)
	return NewProfiledTask(profile, pidf, Linear, now, d.sensors, d, WithTolerance(d.linear.Tolerance)), nil
}

// RotateTask turns degrees counter-clockwise from the current heading.
func (d *Drivetrain) RotateTask(degrees, now float64) (*ProfiledTask, error) {
	radians := degrees * math.Pi / 180
	profile, err := motion.Generate(0, 0, radians, d.angular.Limits)
	if err != nil {
		return nil, fmt.Errorf("rotate %.1f deg: %w", degrees, err)
	}
	pidf := control.New(d.angular.Gains, d.angular.Bounds)
	return NewProfiledTask(profile, pidf, Angular, now, d.sensors, d, WithTolerance(d.angular.Tolerance)), nil
}
