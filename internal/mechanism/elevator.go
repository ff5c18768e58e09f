package mechanism

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/motionctl/internal/control"
	"github.com/san-kum/motionctl/internal/motion"
)

var ErrUnknownLevel = errors.New("unknown elevator level")

type Level int

const (
	Bottom Level = iota
	Switch
	Scale
)

func (l Level) String() string {
	switch l {
	case Bottom:
		return "bottom"
	case Switch:
		return "switch"
	case Scale:
		return "scale"
	default:
		return "unknown"
	}
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bottom":
		return Bottom, nil
	case "switch":
		return Switch, nil
	case "scale":
		return Scale, nil
	}
	return Bottom, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// ElevatorIO is the hardware boundary of the elevator. Heights are in the
// elevator's own units, typically winch revolutions.
type ElevatorIO interface {
	Height() float64
	HeightVelocity() float64
	AtBottom() bool
	ResetHeight()
	SetWinch(output float64)
}

type Levels struct {
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Switch float64 `yaml:"switch" json:"switch"`
	Scale  float64 `yaml:"scale" json:"scale"`
}

type ElevatorConfig struct {
	Limits              motion.Limits  `yaml:"limits" json:"limits"`
	Gains               control.Gains  `yaml:"gains" json:"gains"`
	Bounds              control.Bounds `yaml:"bounds" json:"bounds"`
	GravityCompensation float64        `yaml:"gravity_compensation" json:"gravity_compensation"`
	Tolerance           float64        `yaml:"tolerance" json:"tolerance"`
	Levels              Levels         `yaml:"levels" json:"levels"`
}

func DefaultElevatorConfig() ElevatorConfig {
	return ElevatorConfig{
		Limits:              motion.Limits{MaxVelocity: 3.0, MaxAccel: 1.0, MaxDecel: 1.0},
		Gains:               control.Gains{P: 0.75},
		Bounds:              control.Symmetric(1),
		GravityCompensation: 0.1,
		Tolerance:           0.1,
		Levels:              Levels{Bottom: 0, Switch: 4, Scale: 12},
	}
}

func (c ElevatorConfig) Validate() error {
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	if err := c.Bounds.Validate(); err != nil {
		return err
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("elevator tolerance must be positive, got %g", c.Tolerance)
	}
	return nil
}

func (c ElevatorConfig) Height(l Level) float64 {
	switch l {
	case Switch:
		return c.Levels.Switch
	case Scale:
		return c.Levels.Scale
	default:
		return c.Levels.Bottom
	}
}

// Elevator follows a profile to the selected level and holds it there.
type Elevator struct {
	io    ElevatorIO
	cfg   ElevatorConfig
	pidf  *control.PIDF
	level Level

	profile   *motion.Profile
	startTime float64
	output    float64
}

func NewElevator(io ElevatorIO, cfg ElevatorConfig, now float64) (*Elevator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := io.Height()
	profile, err := motion.Generate(0, h, h, cfg.Limits)
	if err != nil {
		return nil, err
	}
	e := &Elevator{
		io:        io,
		cfg:       cfg,
		pidf:      control.New(cfg.Gains, cfg.Bounds),
		level:     Bottom,
		profile:   profile,
		startTime: now,
	}
	e.pidf.Initialize(h, now, 0)
	return e, nil
}

// SetTarget starts a new profile toward level. Requests for the current level
// are ignored so the running profile is not restarted.
func (e *Elevator) SetTarget(level Level, now float64) error {
	if level == e.level {
		return nil
	}
	h := e.io.Height()
	profile, err := motion.Generate(e.io.HeightVelocity(), h, e.cfg.Height(level), e.cfg.Limits)
	if err != nil {
		return fmt.Errorf("elevator to %s: %w", level, err)
	}
	e.level = level
	e.profile = profile
	e.startTime = now
	e.pidf.Initialize(h, now, e.output)
	return nil
}

// Update drives the winch toward the profile setpoint. Gravity compensation is
// added before clamping to the configured bounds. The bottom limit switch
// re-zeroes the height reading.
func (e *Elevator) Update(now float64) float64 {
	sp := e.profile.At(now - e.startTime)
	e.output = e.pidf.CalculateOutput(e.io.Height(), sp.Position, sp.Velocity, sp.Acceleration, now)

	out := e.cfg.Bounds.Clamp(e.output + e.cfg.GravityCompensation)
	e.io.SetWinch(out)

	if e.io.AtBottom() {
		e.io.ResetHeight()
	}
	return out
}

// Settled reports whether the profile has finished and the measured height is
// within tolerance of the target.
func (e *Elevator) Settled(now float64) bool {
	if now-e.startTime < e.profile.Duration() {
		return false
	}
	return math.Abs(e.profile.EndPosition()-e.io.Height()) <= e.cfg.Tolerance
}

func (e *Elevator) Level() Level             { return e.level }
func (e *Elevator) Profile() *motion.Profile { return e.profile }
