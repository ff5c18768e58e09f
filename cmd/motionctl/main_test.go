package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/motionctl/internal/auto"
	"github.com/san-kum/motionctl/internal/config"
)

func TestParseParam(t *testing.T) {
	name, values, err := parseParam("linear.kp=0.5, 1,1.5")
	require.NoError(t, err)
	assert.Equal(t, "linear.kp", name)
	assert.Equal(t, []float64{0.5, 1, 1.5}, values)

	_, _, err = parseParam("linear.kp")
	assert.Error(t, err)
	_, _, err = parseParam("linear.kp=fast")
	assert.Error(t, err)
}

func newRunCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	preset, configFile = "", ""
	cmd := &cobra.Command{Use: "run"}
	addRunFlags(cmd)
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	return cmd
}

func TestLoadConfigFlagsOverridePreset(t *testing.T) {
	cmd := newRunCmd(t, map[string]string{
		"preset": "practice",
		"tick":   "0.01",
	})

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, auto.RoutineCenterSwitchTwoTurn, cfg.Routine)
	assert.Equal(t, 0.01, cfg.Tick)
	assert.Equal(t, 30.0, cfg.Duration)
}

func TestLoadConfigUnsetFlagsKeepFile(t *testing.T) {
	path := t.TempDir() + "/robot.yaml"
	file := config.DefaultConfig()
	file.Routine = auto.RoutineForward
	file.Duration = 9
	require.NoError(t, config.Save(path, file))

	cmd := newRunCmd(t, map[string]string{"config": path, "time": "4"})

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, auto.RoutineForward, cfg.Routine)
	assert.Equal(t, 4.0, cfg.Duration)
}

func TestLoadConfigUnknownPreset(t *testing.T) {
	cmd := newRunCmd(t, map[string]string{"preset": "ludicrous"})
	_, err := loadConfig(cmd)
	assert.ErrorIs(t, err, config.ErrUnknownPreset)
}
