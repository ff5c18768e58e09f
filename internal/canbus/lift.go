package canbus

import (
	"sync"

	"go.einride.tech/can"
)

// Lift is the elevator over the bus: heights come from lift frames and the
// winch output rides in the drive command frame. It satisfies
// mechanism.ElevatorIO.
type Lift struct {
	id  uint32
	out *DriveActuator

	mu      sync.RWMutex
	reading LiftReading
	offset  float64
}

func NewLift(id uint32, out *DriveActuator) *Lift {
	return &Lift{id: id, out: out}
}

func (l *Lift) Handle(frame can.Frame) error {
	if frame.ID != l.id {
		return nil
	}
	r, err := DecodeLift(frame)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.reading = r
	l.mu.Unlock()
	return nil
}

func (l *Lift) Height() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reading.Height - l.offset
}

func (l *Lift) HeightVelocity() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reading.Velocity
}

func (l *Lift) AtBottom() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reading.AtBottom
}

// ResetHeight zeroes the height at the current raw reading.
func (l *Lift) ResetHeight() {
	l.mu.Lock()
	l.offset = l.reading.Height
	l.mu.Unlock()
}

func (l *Lift) SetWinch(output float64) { l.out.SetWinch(output) }
