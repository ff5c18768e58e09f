package canbus

import (
	"context"
	"sync"

	"go.einride.tech/can"
)

// Transmitter sends one frame. *socketcan.Transmitter satisfies it.
type Transmitter interface {
	TransmitFrame(ctx context.Context, f can.Frame) error
}

// DriveActuator buffers the latest outputs and sends them as one command
// frame per Flush. It satisfies drive.Actuator and the winch half of
// mechanism.ElevatorIO.
type DriveActuator struct {
	tx Transmitter
	id uint32

	mu  sync.Mutex
	cmd Command
}

func NewDriveActuator(tx Transmitter, id uint32) *DriveActuator {
	return &DriveActuator{tx: tx, id: id}
}

func (a *DriveActuator) ArcadeDrive(forward, rotation float64) {
	a.mu.Lock()
	a.cmd.Forward, a.cmd.Rotation = forward, rotation
	a.mu.Unlock()
}

func (a *DriveActuator) SetWinch(output float64) {
	a.mu.Lock()
	a.cmd.Winch = output
	a.mu.Unlock()
}

func (a *DriveActuator) SetRoller(output float64) {
	a.mu.Lock()
	a.cmd.Roller = output
	a.mu.Unlock()
}

func (a *DriveActuator) Command() Command {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cmd
}

// Flush transmits the buffered command.
func (a *DriveActuator) Flush(ctx context.Context) error {
	return a.tx.TransmitFrame(ctx, EncodeCommand(a.id, a.Command()))
}

// Neutral zeroes every output and transmits it.
func (a *DriveActuator) Neutral(ctx context.Context) error {
	a.mu.Lock()
	a.cmd = Command{}
	a.mu.Unlock()
	return a.Flush(ctx)
}
