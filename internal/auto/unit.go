package auto

import (
	"fmt"

	"github.com/san-kum/motionctl/internal/drive"
)

// Unit is the active work of one sequencer state. Advance is called once per
// tick and reports completion.
type Unit interface {
	Advance(now float64) bool
}

type taskUnit struct {
	task *drive.ProfiledTask
}

func (u taskUnit) Advance(now float64) bool { return u.task.Update(now) }

// TimedAction runs tick every cycle until duration has elapsed since start.
type TimedAction struct {
	Start    float64
	Duration float64
	Tick     func()
}

func (a TimedAction) Advance(now float64) bool {
	if a.Tick != nil {
		a.Tick()
	}
	return now-a.Start > a.Duration
}

// liftUnit holds the drivetrain until the elevator settles, or for a single
// tick when it does not wait.
type liftUnit struct {
	lift Lift
	hold func()
	wait bool
}

func (u liftUnit) Advance(now float64) bool {
	u.hold()
	return !u.wait || u.lift.Settled(now)
}

// skipUnit completes on the first tick. It stands in for a unit that could
// not be built.
type skipUnit struct{}

func (skipUnit) Advance(float64) bool { return true }

func describe(u Unit) string {
	switch u := u.(type) {
	case taskUnit:
		p := u.task.Profile()
		return fmt.Sprintf("profiled %s %.3f over %.2fs", u.task.Axis(), p.Displacement(), p.Duration())
	case TimedAction:
		return fmt.Sprintf("timed %.2fs", u.Duration)
	case liftUnit:
		if !u.wait {
			return "elevator, no wait"
		}
		return "elevator"
	case skipUnit:
		return "skipped"
	default:
		return fmt.Sprintf("%T", u)
	}
}
