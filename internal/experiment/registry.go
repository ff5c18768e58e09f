package experiment

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/motionctl/internal/auto"
	"github.com/san-kum/motionctl/internal/config"
	"github.com/san-kum/motionctl/internal/drive"
	"github.com/san-kum/motionctl/internal/mechanism"
	"github.com/san-kum/motionctl/internal/metrics"
	"github.com/san-kum/motionctl/internal/sim"
)

// Parts is everything wired up for one simulated run.
type Parts struct {
	Robot      *sim.Robot
	Drivetrain *drive.Drivetrain
	Elevator   *mechanism.Elevator
	Intake     *mechanism.Intake
	Sequencer  *auto.Sequencer
	Runner     *sim.Runner
}

// Build assembles a simulated robot from cfg. The routine and all tuning are
// resolved here, once, before the first tick.
func Build(cfg *config.Config, log *zap.Logger) (*Parts, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	routine, err := cfg.ResolveRoutine()
	if err != nil {
		return nil, err
	}

	robot, err := sim.NewRobot(cfg.RobotConfig())
	if err != nil {
		return nil, err
	}
	dt, err := drive.NewDrivetrain(robot, robot, cfg.Linear, cfg.Angular)
	if err != nil {
		return nil, err
	}
	elevator, err := mechanism.NewElevator(robot, cfg.Elevator, 0)
	if err != nil {
		return nil, err
	}
	intake := mechanism.NewIntake(cfg.Intake)

	seq, err := auto.New(routine, dt,
		auto.WithEffector(intake),
		auto.WithLift(elevator),
		auto.WithLogger(log))
	if err != nil {
		return nil, err
	}

	runner := sim.NewRunner(robot, seq,
		sim.WithElevator(elevator),
		sim.WithIntake(intake),
		sim.WithLogger(log))
	for _, m := range metrics.Defaults(cfg.Telemetry.SaturationThreshold) {
		runner.AddMetric(m)
	}

	return &Parts{
		Robot:      robot,
		Drivetrain: dt,
		Elevator:   elevator,
		Intake:     intake,
		Sequencer:  seq,
		Runner:     runner,
	}, nil
}
