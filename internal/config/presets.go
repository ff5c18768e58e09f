package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/motionctl/internal/auto"
	"github.com/san-kum/motionctl/internal/control"
	"github.com/san-kum/motionctl/internal/motion"
)

var ErrUnknownPreset = errors.New("unknown preset")

type preset struct {
	description string
	apply       func(*Config)
}

var presets = map[string]preset{
	"competition": {
		description: "proportional-only gains as run at competition",
		apply: func(c *Config) {
			c.Linear.Gains = control.Gains{P: 0.5}
			c.Angular.Gains = control.Gains{P: 0.85, I: 0.1, D: 0.1}
		},
	},
	"practice": {
		description: "two-turn routine with a relaxed timeout",
		apply: func(c *Config) {
			c.Routine = auto.RoutineCenterSwitchTwoTurn
			c.Duration = 30
		},
	},
	"gentle": {
		description: "reduced limits and output bounds for a crowded pit",
		apply: func(c *Config) {
			c.Linear.Limits = motion.Limits{MaxVelocity: 0.3, MaxAccel: 0.3, MaxDecel: 0.5}
			c.Linear.Bounds = control.Symmetric(0.5)
			c.Angular.Limits = motion.Limits{MaxVelocity: 0.8, MaxAccel: 0.5, MaxDecel: 0.5}
			c.Angular.Bounds = control.Symmetric(0.6)
			c.Duration = 30
		},
	},
	"frozen-encoder": {
		description: "drive sensors stop updating one second in",
		apply: func(c *Config) {
			c.Sim.FreezeAfter = 1.0
		},
	},
}

// GetPreset returns the defaults with the named preset applied.
func GetPreset(name string) (*Config, error) {
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Describe(name string) string {
	return presets[name].description
}
