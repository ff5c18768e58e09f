package canbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"

	"github.com/san-kum/motionctl/internal/control"
	"github.com/san-kum/motionctl/internal/drive"
	"github.com/san-kum/motionctl/internal/motion"
)

func testAxis() drive.AxisConfig {
	return drive.AxisConfig{
		Limits:    motion.Limits{MaxVelocity: 1, MaxAccel: 1, MaxDecel: 1},
		Gains:     control.Gains{P: 1},
		Bounds:    control.Symmetric(1),
		Tolerance: 0.01,
	}
}

type fakeTx struct {
	frames []can.Frame
	err    error
}

func (f *fakeTx) TransmitFrame(_ context.Context, frame can.Frame) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

type fakeSource struct {
	frames []can.Frame
	i      int
	err    error
}

func (s *fakeSource) Receive() bool {
	if s.i >= len(s.frames) {
		return false
	}
	s.i++
	return true
}

func (s *fakeSource) Frame() can.Frame { return s.frames[s.i-1] }
func (s *fakeSource) Err() error       { return s.err }

func TestCommandFrame(t *testing.T) {
	f := EncodeCommand(0x120, Command{Forward: 0.5, Rotation: -1, Winch: 3, Roller: -0.6})

	assert.Equal(t, uint32(0x120), f.ID)
	assert.Equal(t, uint8(8), f.Length)

	c, err := DecodeCommand(f)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, c.Forward, 1e-4)
	assert.InDelta(t, -1, c.Rotation, 1e-4)
	assert.InDelta(t, 1, c.Winch, 1e-4, "outputs clamp to [-1, 1]")
	assert.InDelta(t, -0.6, c.Roller, 1e-4)

	_, err = DecodeCommand(can.Frame{ID: 0x120, Length: 4})
	assert.Error(t, err)
}

func TestFeedbackDecodesToSensors(t *testing.T) {
	enc := drive.DefaultEncoder()
	fb := NewFeedback(0x121, enc, nil)

	src := &fakeSource{frames: []can.Frame{
		EncodeReading(0x121, Reading{Ticks: 1000, TicksPer100ms: 50, Heading: 0.5}),
		{ID: 0x300, Length: 2},
		{ID: 0x121, Length: 3},
		EncodeReading(0x121, Reading{Ticks: -4096, TicksPer100ms: -409, Heading: -1.234}),
	}}
	require.NoError(t, fb.Run(context.Background(), src))

	assert.Equal(t, 2, fb.Frames())
	assert.InDelta(t, -enc.Circumference(), fb.LinearDistance(), 1e-12)
	assert.InDelta(t, enc.Distance(-4090), fb.LinearVelocity(), 1e-12)
	assert.InDelta(t, -1.234, fb.Orientation(), 1e-9)
}

func TestFeedbackRunReportsReceiveError(t *testing.T) {
	fb := NewFeedback(0x121, drive.DefaultEncoder(), nil)
	err := fb.Run(context.Background(), &fakeSource{err: errors.New("bus off")})
	assert.EqualError(t, err, "bus off")
}

func TestDriveActuatorFlush(t *testing.T) {
	tx := &fakeTx{}
	a := NewDriveActuator(tx, 0x120)

	a.ArcadeDrive(0.25, -0.5)
	a.SetWinch(0.1)
	a.SetRoller(-0.6)
	require.NoError(t, a.Flush(context.Background()))
	require.NoError(t, a.Neutral(context.Background()))

	require.Len(t, tx.frames, 2)
	c, err := DecodeCommand(tx.frames[0])
	require.NoError(t, err)
	assert.InDelta(t, 0.25, c.Forward, 1e-4)
	assert.InDelta(t, -0.5, c.Rotation, 1e-4)

	c, err = DecodeCommand(tx.frames[1])
	require.NoError(t, err)
	assert.Equal(t, Command{}, c)
}

func TestDriveActuatorWithDrivetrain(t *testing.T) {
	tx := &fakeTx{}
	a := NewDriveActuator(tx, 0x120)
	fb := NewFeedback(0x121, drive.DefaultEncoder(), nil)

	d, err := drive.NewDrivetrain(fb, a, testAxis(), testAxis())
	require.NoError(t, err)

	d.ArcadeDrive(2, 0)
	assert.Equal(t, 1.0, a.Command().Forward)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	c := DefaultConfig()
	c.FeedbackID = c.CommandID
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.CommandID = 0x800
	assert.Error(t, c.Validate())
}

func TestLiftTracksFramesAndResets(t *testing.T) {
	tx := &fakeTx{}
	a := NewDriveActuator(tx, 0x120)
	lift := NewLift(0x122, a)
	fb := NewFeedback(0x121, drive.DefaultEncoder(), nil)

	src := &fakeSource{frames: []can.Frame{
		EncodeReading(0x121, Reading{Ticks: 4096}),
		EncodeLift(0x122, LiftReading{Height: 4.25, Velocity: -1.5}),
		{ID: 0x122, Length: 8},
	}}
	require.NoError(t, Receive(context.Background(), src, nil, fb, lift))

	assert.Equal(t, 1, fb.Frames())
	assert.InDelta(t, 4.25, lift.Height(), 1e-9)
	assert.InDelta(t, -1.5, lift.HeightVelocity(), 1e-9)
	assert.False(t, lift.AtBottom())

	require.NoError(t, lift.Handle(EncodeLift(0x122, LiftReading{Height: 0.2, AtBottom: true})))
	assert.True(t, lift.AtBottom())
	lift.ResetHeight()
	assert.Zero(t, lift.Height())

	lift.SetWinch(0.4)
	assert.Equal(t, 0.4, a.Command().Winch)
}
