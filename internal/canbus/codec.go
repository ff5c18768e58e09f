// Package canbus carries drivetrain commands and encoder feedback over a CAN
// bus.
//
// Command frames hold four little-endian int16 outputs scaled so that ±1
// spans the int16 range: forward, rotation, winch and roller. Feedback frames
// hold the encoder position as int32 ticks, the encoder rate as int16 ticks
// per 100 ms and the heading as int16 milliradians, counter-clockwise
// positive. Lift frames hold the elevator height as int32 thousandths of a
// winch revolution, its rate as int16 thousandths per second and a flags byte
// whose low bit is the bottom limit switch.
package canbus

import (
	"encoding/binary"
	"fmt"
	"math"

	"go.einride.tech/can"
)

const (
	commandLength  = 8
	feedbackLength = 8
	outputScale    = math.MaxInt16
	headingScale   = 1000.0
	liftLength     = 7
	liftScale      = 1000.0
	flagAtBottom   = 0x01
)

// Command is one tick of actuator outputs, each in [-1, 1].
type Command struct {
	Forward  float64
	Rotation float64
	Winch    float64
	Roller   float64
}

// Reading is the raw content of a feedback frame.
type Reading struct {
	Ticks         int32
	TicksPer100ms int16
	Heading       float64
}

func EncodeCommand(id uint32, c Command) can.Frame {
	f := can.Frame{ID: id, Length: commandLength}
	for i, v := range []float64{c.Forward, c.Rotation, c.Winch, c.Roller} {
		binary.LittleEndian.PutUint16(f.Data[2*i:], uint16(scaleOutput(v)))
	}
	return f
}

func DecodeCommand(f can.Frame) (Command, error) {
	if f.Length != commandLength {
		return Command{}, fmt.Errorf("command frame 0x%X: expected length %d, got %d", f.ID, commandLength, f.Length)
	}
	out := func(i int) float64 {
		return float64(int16(binary.LittleEndian.Uint16(f.Data[2*i:]))) / outputScale
	}
	return Command{Forward: out(0), Rotation: out(1), Winch: out(2), Roller: out(3)}, nil
}

func EncodeReading(id uint32, r Reading) can.Frame {
	f := can.Frame{ID: id, Length: feedbackLength}
	binary.LittleEndian.PutUint32(f.Data[0:], uint32(r.Ticks))
	binary.LittleEndian.PutUint16(f.Data[4:], uint16(r.TicksPer100ms))
	heading := math.Round(r.Heading * headingScale)
	heading = math.Max(math.MinInt16, math.Min(math.MaxInt16, heading))
	binary.LittleEndian.PutUint16(f.Data[6:], uint16(int16(heading)))
	return f
}

func DecodeReading(f can.Frame) (Reading, error) {
	if f.Length != feedbackLength {
		return Reading{}, fmt.Errorf("feedback frame 0x%X: expected length %d, got %d", f.ID, feedbackLength, f.Length)
	}
	return Reading{
		Ticks:         int32(binary.LittleEndian.Uint32(f.Data[0:])),
		TicksPer100ms: int16(binary.LittleEndian.Uint16(f.Data[4:])),
		Heading:       float64(int16(binary.LittleEndian.Uint16(f.Data[6:]))) / headingScale,
	}, nil
}

func scaleOutput(v float64) int16 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * outputScale))
}

// LiftReading is the raw content of a lift frame, in winch revolutions.
type LiftReading struct {
	Height   float64
	Velocity float64
	AtBottom bool
}

func EncodeLift(id uint32, r LiftReading) can.Frame {
	f := can.Frame{ID: id, Length: liftLength}
	h := math.Max(math.MinInt32, math.Min(math.MaxInt32, math.Round(r.Height*liftScale)))
	v := math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(r.Velocity*liftScale)))
	binary.LittleEndian.PutUint32(f.Data[0:], uint32(int32(h)))
	binary.LittleEndian.PutUint16(f.Data[4:], uint16(int16(v)))
	if r.AtBottom {
		f.Data[6] = flagAtBottom
	}
	return f
}

func DecodeLift(f can.Frame) (LiftReading, error) {
	if f.Length != liftLength {
		return LiftReading{}, fmt.Errorf("lift frame 0x%X: expected length %d, got %d", f.ID, liftLength, f.Length)
	}
	return LiftReading{
		Height:   float64(int32(binary.LittleEndian.Uint32(f.Data[0:]))) / liftScale,
		Velocity: float64(int16(binary.LittleEndian.Uint16(f.Data[4:]))) / liftScale,
		AtBottom: f.Data[6]&flagAtBottom != 0,
	}, nil
}
