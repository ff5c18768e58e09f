package hardware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"

	"github.com/san-kum/motionctl/internal/auto"
	"github.com/san-kum/motionctl/internal/canbus"
	"github.com/san-kum/motionctl/internal/config"
	"github.com/san-kum/motionctl/internal/telemetry"
)

type recordingTx struct {
	mu     sync.Mutex
	frames []can.Frame
}

func (r *recordingTx) TransmitFrame(_ context.Context, f can.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recordingTx) commands(t *testing.T) []canbus.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]canbus.Command, 0, len(r.frames))
	for _, f := range r.frames {
		c, err := canbus.DecodeCommand(f)
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

// silentSource has nothing to receive.
type silentSource struct{ err error }

func (silentSource) Receive() bool    { return false }
func (silentSource) Frame() can.Frame { return can.Frame{} }
func (s silentSource) Err() error     { return s.err }

func nudgeConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Tick = 0.005
	cfg.Linger = 0
	cfg.Duration = 2
	cfg.Routine = "nudge"
	cfg.Routines = []auto.Routine{{
		Name:  "nudge",
		Steps: []auto.Step{{Name: "NUDGE", Action: auto.ActionTimedDrive, Value: 0.5, Duration: 0.1}},
	}}
	return cfg
}

func TestLoopRunsRoutineAndStops(t *testing.T) {
	tx := &recordingTx{}
	exp := telemetry.New()
	lp, err := New(nudgeConfig(), tx, WithTelemetry(exp))
	require.NoError(t, err)

	result, err := lp.Run(context.Background(), silentSource{})
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.False(t, result.TimedOut)
	assert.Equal(t, []string{"NUDGE", auto.StateDone}, result.History)
	assert.Equal(t, result.StepsTaken, len(result.Samples))
	assert.Contains(t, result.Metrics, "tracking_rms")

	cmds := tx.commands(t)
	require.NotEmpty(t, cmds)
	assert.InDelta(t, 0.5, cmds[0].Forward, 1e-3)
	assert.Equal(t, canbus.Command{}, cmds[len(cmds)-1], "loop ends with a neutral frame")

	assert.Equal(t, float64(result.StepsTaken), testutil.ToFloat64(exp.Ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(exp.Completed))
}

func TestLoopTimesOutWithoutFeedback(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tick = 0.005
	cfg.Duration = 0.1
	cfg.Routine = auto.RoutineCenterSwitch

	lp, err := New(cfg, &recordingTx{})
	require.NoError(t, err)

	result, err := lp.Run(context.Background(), silentSource{})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.True(t, result.TimedOut)
	assert.Equal(t, "FORWARD", lp.Sequencer().State())
}

func TestLoopStopsOnCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tick = 0.005

	tx := &recordingTx{}
	lp, err := New(cfg, tx)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = lp.Run(ctx, silentSource{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	cmds := tx.commands(t)
	require.NotEmpty(t, cmds)
	assert.Equal(t, canbus.Command{}, cmds[len(cmds)-1])
}

func TestLoopFailsOnReceiveError(t *testing.T) {
	lp, err := New(nudgeConfig(), &recordingTx{})
	require.NoError(t, err)

	_, err = lp.Run(context.Background(), silentSource{err: errors.New("bus off")})
	assert.ErrorContains(t, err, "bus off")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tick = 0
	_, err := New(cfg, &recordingTx{})
	assert.Error(t, err)
}
