// Package auto sequences profiled drivetrain tasks and timed actions into
// autonomous routines.
//
// A [Sequencer] walks the steps of a [Routine] in order, one state at a time,
// and ends in the terminal DONE state. Each state is entered once: entering
// builds a fresh unit of work from the robot's live readings, so a task never
// inherits a stale start position from the one before it.
//
//	seq, err := auto.New(routine, drivetrain, auto.WithEffector(intake))
//	for !seq.Update(now) { ... }
package auto

import (
	"errors"

	"go.uber.org/zap"

	"github.com/san-kum/motionctl/internal/drive"
	"github.com/san-kum/motionctl/internal/mechanism"
)

const (
	StateIdle = "IDLE"
	StateDone = "DONE"
)

// Drivetrain builds profiled tasks and accepts direct commands.
type Drivetrain interface {
	ForwardTask(meters, now float64) (*drive.ProfiledTask, error)
	RotateTask(degrees, now float64) (*drive.ProfiledTask, error)
	ArcadeDrive(forward, rotation float64)
}

// Lift is the elevator as seen by a routine.
type Lift interface {
	SetTarget(level mechanism.Level, now float64) error
	Settled(now float64) bool
}

type Sequencer struct {
	routine  Routine
	drive    Drivetrain
	effector mechanism.EndEffector
	lift     Lift
	log      *zap.Logger

	index   int
	state   string
	entered float64
	unit    Unit
	history []string
}

type Option func(*Sequencer)

func WithEffector(e mechanism.EndEffector) Option {
	return func(s *Sequencer) { s.effector = e }
}

func WithLift(l Lift) Option {
	return func(s *Sequencer) { s.lift = l }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.log = l
		}
	}
}

// New checks the routine against the collaborators it needs. Nothing is
// commanded until the first Update.
func New(r Routine, d Drivetrain, opts ...Option) (*Sequencer, error) {
	s := &Sequencer{
		routine: r,
		drive:   d,
		log:     zap.NewNop(),
		index:   -1,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}

	if d == nil {
		return nil, errors.New("sequencer needs a drivetrain")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.needs(ActionEject) && s.effector == nil {
		return nil, errors.New("routine " + r.Name + " ejects but no end effector is attached")
	}
	if (r.needs(ActionElevator) || r.usesElevator()) && s.lift == nil {
		return nil, errors.New("routine " + r.Name + " moves the elevator but none is attached")
	}

	s.log = s.log.With(zap.String("routine", r.Name))
	return s, nil
}

// Update advances the active state by one tick and reports whether the
// routine has reached DONE.
func (s *Sequencer) Update(now float64) bool {
	if s.index < 0 {
		s.enter(0, now)
	}
	if s.Done() {
		s.drive.ArcadeDrive(0, 0)
		return true
	}
	if s.unit.Advance(now) {
		s.enter(s.index+1, now)
	}
	return s.Done()
}

func (s *Sequencer) enter(i int, now float64) {
	s.index = i
	s.entered = now

	if i >= len(s.routine.Steps) {
		s.state = StateDone
		s.unit = nil
		s.history = append(s.history, StateDone)
		s.drive.ArcadeDrive(0, 0)
		s.log.Info("routine complete", zap.Float64("t", now))
		return
	}

	step := s.routine.Steps[i]
	s.state = step.Name
	s.history = append(s.history, step.Name)

	if step.Elevator != "" {
		s.retarget(step, now)
	}

	unit, err := s.build(step, now)
	if err != nil {
		s.log.Error("state entry failed, skipping",
			zap.String("state", step.Name),
			zap.Float64("t", now),
			zap.Error(err))
		s.drive.ArcadeDrive(0, 0)
		unit = skipUnit{}
	}
	s.unit = unit

	s.log.Info("entered state",
		zap.String("state", step.Name),
		zap.Int("step", i),
		zap.Float64("t", now),
		zap.String("unit", describe(unit)))
}

func (s *Sequencer) retarget(step Step, now float64) {
	level, err := mechanism.ParseLevel(step.Elevator)
	if err == nil {
		err = s.lift.SetTarget(level, now)
	}
	if err != nil {
		s.log.Error("elevator retarget failed", zap.String("state", step.Name), zap.Error(err))
	}
}

func (s *Sequencer) build(step Step, now float64) (Unit, error) {
	stop := func() { s.drive.ArcadeDrive(0, 0) }

	switch step.Action {
	case ActionDrive:
		task, err := s.drive.ForwardTask(step.Value, now)
		if err != nil {
			return nil, err
		}
		return taskUnit{task: task}, nil
	case ActionRotate:
		task, err := s.drive.RotateTask(step.Value, now)
		if err != nil {
			return nil, err
		}
		return taskUnit{task: task}, nil
	case ActionEject:
		return TimedAction{Start: now, Duration: step.Duration, Tick: func() {
			stop()
			s.effector.Outtake()
		}}, nil
	case ActionTimedDrive:
		speed := step.Value
		return TimedAction{Start: now, Duration: step.Duration, Tick: func() {
			s.drive.ArcadeDrive(speed, 0)
		}}, nil
	case ActionWait:
		return TimedAction{Start: now, Duration: step.Duration, Tick: stop}, nil
	case ActionElevator:
		return liftUnit{lift: s.lift, hold: stop, wait: step.waits()}, nil
	}
	return nil, errors.New("unknown action " + string(step.Action))
}

func (s *Sequencer) Done() bool       { return s.state == StateDone }
func (s *Sequencer) State() string    { return s.state }
func (s *Sequencer) Routine() Routine { return s.routine }

// StateEntered is the time the current state began.
func (s *Sequencer) StateEntered() float64 { return s.entered }

// History lists every state entered, in order.
func (s *Sequencer) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// Task returns the active profiled task, if the current state has one.
func (s *Sequencer) Task() (*drive.ProfiledTask, bool) {
	u, ok := s.unit.(taskUnit)
	if !ok {
		return nil, false
	}
	return u.task, true
}
