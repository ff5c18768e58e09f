// Package mechanism holds the robot's non-drivetrain actuators: the profiled
// elevator and the intake rollers.
package mechanism

// EndEffector is commanded by autonomous routines while scoring.
type EndEffector interface {
	Outtake()
}

type Mode int

const (
	Idle Mode = iota
	Intaking
	Outtaking
)

func (m Mode) String() string {
	switch m {
	case Intaking:
		return "intake"
	case Outtaking:
		return "outtake"
	default:
		return "idle"
	}
}

type IntakeConfig struct {
	IntakeSpeed  float64 `yaml:"intake_speed" json:"intake_speed"`
	OuttakeSpeed float64 `yaml:"outtake_speed" json:"outtake_speed"`
	IdleSpeed    float64 `yaml:"idle_speed" json:"idle_speed"`
}

func DefaultIntakeConfig() IntakeConfig {
	return IntakeConfig{IntakeSpeed: 0.7, OuttakeSpeed: -0.6, IdleSpeed: 0.2}
}

// Intake latches a mode until the next Update, then falls back to idle. A
// mode must be requested every tick to be held.
type Intake struct {
	cfg  IntakeConfig
	mode Mode
	last Mode
}

func NewIntake(cfg IntakeConfig) *Intake {
	return &Intake{cfg: cfg}
}

func (in *Intake) Intake()  { in.mode = Intaking }
func (in *Intake) Outtake() { in.mode = Outtaking }

// Update returns the roller speed for the latched mode and resets to idle.
func (in *Intake) Update() float64 {
	speed := in.cfg.IdleSpeed
	switch in.mode {
	case Intaking:
		speed = in.cfg.IntakeSpeed
	case Outtaking:
		speed = in.cfg.OuttakeSpeed
	}
	in.last = in.mode
	in.mode = Idle
	return speed
}

// LastMode is the mode applied by the most recent Update.
func (in *Intake) LastMode() Mode { return in.last }
