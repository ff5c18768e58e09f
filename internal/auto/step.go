package auto

import (
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/san-kum/motionctl/internal/mechanism"
)

type Action string

const (
	ActionDrive      Action = "drive"
	ActionRotate     Action = "rotate"
	ActionEject      Action = "eject"
	ActionTimedDrive Action = "timed_drive"
	ActionWait       Action = "wait"
	ActionElevator   Action = "elevator"
)

// Step describes one state of a routine. Value is meters for drive, degrees
// for rotate and the forward command for timed_drive. Elevator, when set,
// retargets the elevator on entry. An elevator step waits for the lift to
// settle unless Wait is false.
type Step struct {
	Name     string  `yaml:"name" json:"name"`
	Action   Action  `yaml:"action" json:"action"`
	Value    float64 `yaml:"value,omitempty" json:"value,omitempty"`
	Duration float64 `yaml:"duration,omitempty" json:"duration,omitempty"`
	Elevator string  `yaml:"elevator,omitempty" json:"elevator,omitempty"`
	Wait     *bool   `yaml:"wait,omitempty" json:"wait,omitempty"`
}

func (s Step) waits() bool { return s.Wait == nil || *s.Wait }

func (s Step) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("step has no name")
	}
	if s.Name == StateDone || s.Name == StateIdle {
		return fmt.Errorf("step %s: name is reserved", s.Name)
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return fmt.Errorf("step %s: value must be finite", s.Name)
	}
	if s.Elevator != "" {
		if _, err := mechanism.ParseLevel(s.Elevator); err != nil {
			return fmt.Errorf("step %s: %w", s.Name, err)
		}
	}

	switch s.Action {
	case ActionDrive, ActionRotate:
	case ActionEject, ActionWait:
		if s.Duration <= 0 {
			return fmt.Errorf("step %s: %s needs a positive duration", s.Name, s.Action)
		}
	case ActionTimedDrive:
		if s.Duration <= 0 {
			return fmt.Errorf("step %s: timed_drive needs a positive duration", s.Name)
		}
		if math.Abs(s.Value) > 1 {
			return fmt.Errorf("step %s: timed_drive command %g outside [-1, 1]", s.Name, s.Value)
		}
	case ActionElevator:
		if s.Elevator == "" {
			return fmt.Errorf("step %s: elevator action needs a level", s.Name)
		}
	default:
		return fmt.Errorf("step %s: unknown action %q", s.Name, s.Action)
	}
	return nil
}

type Routine struct {
	Name  string `yaml:"name" json:"name"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Validate reports every invalid step and any repeated state name.
func (r Routine) Validate() error {
	var err error
	if r.Name == "" {
		err = multierr.Append(err, fmt.Errorf("routine has no name"))
	}
	seen := make(map[string]bool, len(r.Steps))
	for _, s := range r.Steps {
		err = multierr.Append(err, s.Validate())
		if seen[s.Name] {
			err = multierr.Append(err, fmt.Errorf("routine %s: state %s repeated", r.Name, s.Name))
		}
		seen[s.Name] = true
	}
	return err
}

func (r Routine) needs(action Action) bool {
	for _, s := range r.Steps {
		if s.Action == action {
			return true
		}
	}
	return false
}

func (r Routine) usesElevator() bool {
	for _, s := range r.Steps {
		if s.Elevator != "" {
			return true
		}
	}
	return false
}
