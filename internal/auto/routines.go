package auto

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownRoutine = errors.New("unknown routine")

const (
	RoutineNone                = "none"
	RoutineForward             = "forward"
	RoutineCenterSwitch        = "center-switch"
	RoutineCenterSwitchTwoTurn = "center-switch-two-turn"
)

var builtin = map[string]Routine{
	RoutineNone: {Name: RoutineNone},
	RoutineForward: {
		Name: RoutineForward,
		Steps: []Step{
			{Name: "FORWARD", Action: ActionTimedDrive, Value: 0.5, Duration: 2.0},
		},
	},
	RoutineCenterSwitch: {
		Name: RoutineCenterSwitch,
		Steps: []Step{
			{Name: "FORWARD", Action: ActionDrive, Value: 1.5},
			{Name: "TURN", Action: ActionRotate, Value: 40, Elevator: "switch"},
			{Name: "TO_TARGET", Action: ActionDrive, Value: 1.2},
			{Name: "EJECT", Action: ActionEject, Duration: 1.0},
			{Name: "REVERSE", Action: ActionDrive, Value: -0.8},
		},
	},
	RoutineCenterSwitchTwoTurn: {
		Name: RoutineCenterSwitchTwoTurn,
		Steps: []Step{
			{Name: "FORWARD", Action: ActionDrive, Value: 0.5},
			{Name: "TURN", Action: ActionRotate, Value: 45, Elevator: "switch"},
			{Name: "CROSS", Action: ActionDrive, Value: 1.4},
			{Name: "TURN_BACK", Action: ActionRotate, Value: -45},
			{Name: "TO_TARGET", Action: ActionDrive, Value: 0.6},
			{Name: "EJECT", Action: ActionEject, Duration: 1.0},
			{Name: "REVERSE", Action: ActionDrive, Value: -0.8},
		},
	},
}

// ParseRoutine resolves name against custom routines first, then the built-in
// ones.
func ParseRoutine(name string, custom ...Routine) (Routine, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, r := range custom {
		if strings.ToLower(r.Name) == key {
			return r, nil
		}
	}
	if r, ok := builtin[key]; ok {
		return Routine{Name: r.Name, Steps: append([]Step(nil), r.Steps...)}, nil
	}
	return Routine{}, fmt.Errorf("%w: %s (available: %v)", ErrUnknownRoutine, name, Names(custom...))
}

// Names lists built-in and custom routine names, sorted.
func Names(custom ...Routine) []string {
	set := make(map[string]bool, len(builtin)+len(custom))
	for name := range builtin {
		set[name] = true
	}
	for _, r := range custom {
		set[strings.ToLower(r.Name)] = true
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
