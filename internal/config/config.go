package config

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/motionctl/internal/auto"
	"github.com/san-kum/motionctl/internal/canbus"
	"github.com/san-kum/motionctl/internal/control"
	"github.com/san-kum/motionctl/internal/drive"
	"github.com/san-kum/motionctl/internal/integrators"
	"github.com/san-kum/motionctl/internal/mechanism"
	"github.com/san-kum/motionctl/internal/motion"
	"github.com/san-kum/motionctl/internal/sim"
	"github.com/san-kum/motionctl/internal/telemetry"
)

const (
	DefaultTick       = 0.02
	DefaultDuration   = 15.0
	DefaultLinger     = 0.5
	DefaultRoutine    = auto.RoutineCenterSwitch
	DefaultSaturation = 0.999

	DefaultLinearP     = 1.0
	DefaultLinearVelFF = 1.0 / 3
	DefaultLinearBound = 0.8

	DefaultAngularP     = 0.85
	DefaultAngularI     = 0.1
	DefaultAngularD     = 0.1
	DefaultAngularVelFF = 1.0 / 6
)

type Config struct {
	Routine   string                   `yaml:"routine"`
	Tick      float64                  `yaml:"tick"`
	Duration  float64                  `yaml:"duration"`
	Linger    float64                  `yaml:"linger"`
	Encoder   drive.Encoder            `yaml:"encoder"`
	Linear    drive.AxisConfig         `yaml:"linear"`
	Angular   drive.AxisConfig         `yaml:"angular"`
	Elevator  mechanism.ElevatorConfig `yaml:"elevator"`
	Intake    mechanism.IntakeConfig   `yaml:"intake"`
	Sim       sim.RobotConfig          `yaml:"sim"`
	CAN       canbus.Config            `yaml:"can"`
	Telemetry TelemetryConfig          `yaml:"telemetry"`
	Routines  []auto.Routine           `yaml:"routines,omitempty"`
}

type TelemetryConfig struct {
	// Textfile, when set, receives the final gauges in Prometheus text format.
	Textfile            string               `yaml:"textfile"`
	SaturationThreshold float64              `yaml:"saturation_threshold"`
	MQTT                telemetry.MQTTConfig `yaml:"mqtt"`
}

func DefaultConfig() *Config {
	return &Config{
		Routine:  DefaultRoutine,
		Tick:     DefaultTick,
		Duration: DefaultDuration,
		Linger:   DefaultLinger,
		Encoder:  drive.DefaultEncoder(),
		Linear: drive.AxisConfig{
			Limits:    motion.Limits{MaxVelocity: 0.5, MaxAccel: 0.5, MaxDecel: 1.0},
			Gains:     control.Gains{P: DefaultLinearP, VelFF: DefaultLinearVelFF},
			Bounds:    control.Symmetric(DefaultLinearBound),
			Tolerance: drive.DefaultCompletionTolerance,
		},
		Angular: drive.AxisConfig{
			Limits:    motion.Limits{MaxVelocity: 1.5, MaxAccel: 0.75, MaxDecel: 1.0},
			Gains:     control.Gains{P: DefaultAngularP, I: DefaultAngularI, D: DefaultAngularD, VelFF: DefaultAngularVelFF},
			Bounds:    control.Symmetric(1),
			Tolerance: drive.DefaultCompletionTolerance,
		},
		Elevator: mechanism.DefaultElevatorConfig(),
		Intake:   mechanism.DefaultIntakeConfig(),
		Sim:      sim.DefaultRobotConfig(),
		CAN:      canbus.DefaultConfig(),
		Telemetry: TelemetryConfig{
			SaturationThreshold: DefaultSaturation,
			MQTT:                telemetry.DefaultMQTTConfig(),
		},
	}
}

// Load reads a yaml file over the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error
	if c.Tick <= 0 {
		err = multierr.Append(err, fmt.Errorf("tick must be positive, got %g", c.Tick))
	}
	if c.Duration <= 0 {
		err = multierr.Append(err, fmt.Errorf("duration must be positive, got %g", c.Duration))
	}
	if c.Linger < 0 {
		err = multierr.Append(err, fmt.Errorf("linger must not be negative, got %g", c.Linger))
	}
	if c.Encoder.TicksPerRev <= 0 || c.Encoder.WheelDiameter <= 0 {
		err = multierr.Append(err, fmt.Errorf("encoder needs positive ticks_per_rev and wheel_diameter"))
	}
	if e := c.Linear.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("linear: %w", e))
	}
	if e := c.Angular.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("angular: %w", e))
	}
	if e := c.Elevator.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("elevator: %w", e))
	}
	if _, e := integrators.ByName(c.integrator()); e != nil {
		err = multierr.Append(err, fmt.Errorf("sim: %w", e))
	}
	if e := c.CAN.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("can: %w", e))
	}
	if c.Telemetry.MQTT.Broker != "" && c.Telemetry.MQTT.Topic == "" {
		err = multierr.Append(err, fmt.Errorf("telemetry: mqtt broker set without a topic"))
	}
	for _, r := range c.Routines {
		if e := r.Validate(); e != nil {
			err = multierr.Append(err, e)
		}
	}
	if _, e := c.ResolveRoutine(); e != nil {
		err = multierr.Append(err, e)
	}
	return err
}

func (c *Config) integrator() string {
	if c.Sim.Integrator == "" {
		return "rk4"
	}
	return c.Sim.Integrator
}

// ResolveRoutine looks the configured routine up among the custom routines
// first, then the built-in ones.
func (c *Config) ResolveRoutine() (auto.Routine, error) {
	return auto.ParseRoutine(c.Routine, c.Routines...)
}

// RobotConfig is the simulated hardware, sharing the configured encoder.
func (c *Config) RobotConfig() sim.RobotConfig {
	rc := c.Sim
	rc.Encoder = c.Encoder
	return rc
}

func (c *Config) RunConfig() sim.Config {
	return sim.Config{Tick: c.Tick, Duration: c.Duration, Linger: c.Linger}
}
