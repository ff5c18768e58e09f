package sim

import (
	"go.uber.org/zap"

	"github.com/san-kum/motionctl/internal/auto"
	"github.com/san-kum/motionctl/internal/drive"
	"github.com/san-kum/motionctl/internal/mechanism"
)

// Config bounds a run. Duration is the external timeout; Linger keeps the
// robot ticking after the routine completes so it can settle.
type Config struct {
	Tick     float64
	Duration float64
	Linger   float64
}

type Option func(*Runner)

func WithElevator(e *mechanism.Elevator) Option {
	return func(r *Runner) { r.elevator = e }
}

func WithIntake(in *mechanism.Intake) Option {
	return func(r *Runner) { r.intake = in }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// Sequencer is the part of auto.Sequencer the runner drives.
type Sequencer interface {
	Update(now float64) bool
	State() string
	History() []string
	Task() (*drive.ProfiledTask, bool)
}

var _ Sequencer = (*auto.Sequencer)(nil)
