package viz

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/motionctl/internal/auto"
	"github.com/san-kum/motionctl/internal/control"
	"github.com/san-kum/motionctl/internal/drive"
	"github.com/san-kum/motionctl/internal/dynamo"
	"github.com/san-kum/motionctl/internal/motion"
	"github.com/san-kum/motionctl/internal/sim"
)

func TestTraceDeadReckons(t *testing.T) {
	poses := Trace([]dynamo.Sample{
		{Distance: 0},
		{Distance: 1},
		{Distance: 1, Heading: math.Pi / 2},
		{Distance: 2, Heading: math.Pi / 2},
	})

	require.Len(t, poses, 4)
	end := poses[3]
	assert.InDelta(t, 1, end.X, 1e-12)
	assert.InDelta(t, 1, end.Y, 1e-12)
	assert.InDelta(t, math.Pi/2, end.Heading, 1e-12)
}

func TestCanvasProjectsOriginToCenter(t *testing.T) {
	c := NewCanvas(10, 5, 4)

	x, y := c.Project(0, 0)
	assert.Equal(t, 10, x)
	assert.Equal(t, 10, y)

	x, y = c.Project(1, 1)
	assert.Equal(t, 15, x)
	assert.Equal(t, 5, y, "field y grows upward")

	c.Point(0, 0)
	assert.NotEqual(t, rune(blank), c.Grid[2][5])
	c.Clear()
	assert.Equal(t, rune(blank), c.Grid[2][5])
}

func TestRunPlot(t *testing.T) {
	samples := []dynamo.Sample{{Distance: 0}, {Distance: 0.5}, {Distance: 1}}

	out, err := RunPlot(samples, "distance")
	require.NoError(t, err)
	assert.Contains(t, out, "distance")

	_, err = RunPlot(samples, "altitude")
	assert.ErrorContains(t, err, "unknown series")

	_, err = RunPlot(nil, "distance")
	assert.Error(t, err)
}

func TestProfilePlot(t *testing.T) {
	p, err := motion.Generate(0, 0, 1.5, motion.Limits{MaxVelocity: 0.5, MaxAccel: 0.5, MaxDecel: 1})
	require.NoError(t, err)

	out := ProfilePlot(p, 0.05)
	assert.Contains(t, out, "position")
	assert.Contains(t, out, "velocity")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁▄█", Sparkline([]float64{0, 0.5, 1}, 10))
	assert.Equal(t, "▁█", Sparkline([]float64{5, 0, 1}, 2))
	assert.Equal(t, "───", Sparkline(nil, 3))
}

func newLiveModel(t *testing.T) Model {
	t.Helper()
	robot, err := sim.NewRobot(sim.DefaultRobotConfig())
	require.NoError(t, err)

	axis := drive.AxisConfig{
		Limits:    motion.Limits{MaxVelocity: 0.5, MaxAccel: 0.5, MaxDecel: 1},
		Gains:     control.Gains{P: 1, VelFF: 1.0 / 3},
		Bounds:    control.Symmetric(1),
		Tolerance: 0.01,
	}
	dt, err := drive.NewDrivetrain(robot, robot, axis, axis)
	require.NoError(t, err)

	r, err := auto.ParseRoutine(auto.RoutineForward)
	require.NoError(t, err)
	seq, err := auto.New(r, dt)
	require.NoError(t, err)

	runner := sim.NewRunner(robot, seq)
	return NewModel(runner, sim.Config{Tick: 0.02, Duration: 5, Linger: 0.1}, r.Name, len(r.Steps))
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLiveModelRunsToCompletion(t *testing.T) {
	m := newLiveModel(t)

	var model tea.Model = m
	for i := 0; i < 1000 && !model.(Model).Finished(); i++ {
		model, _ = model.Update(TickMsg{})
	}

	final := model.(Model)
	assert.True(t, final.Finished())
	assert.True(t, final.completed)
	assert.Contains(t, final.View(), "DONE")
	assert.NotEmpty(t, final.Samples())
}

func TestLiveModelKeys(t *testing.T) {
	m := newLiveModel(t)

	model, _ := m.Update(key(" "))
	paused := model.(Model)
	assert.False(t, paused.running)

	model, _ = paused.Update(TickMsg{})
	assert.Empty(t, model.(Model).Samples(), "paused model does not step")

	model, _ = model.Update(key("s"))
	assert.Len(t, model.(Model).Samples(), 1)

	model, _ = model.Update(key("+"))
	model, _ = model.Update(key("+"))
	assert.Equal(t, 4, model.(Model).speed)

	model, _ = model.Update(key("t"))
	assert.Equal(t, "retro", model.(Model).theme.Name)

	_, cmd := model.Update(key("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestViewRendersState(t *testing.T) {
	m := newLiveModel(t)
	model, _ := m.Update(TickMsg{})
	view := model.(Model).View()

	assert.True(t, strings.Contains(view, "FORWARD"))
	assert.Contains(t, view, "RUNNING")
}
