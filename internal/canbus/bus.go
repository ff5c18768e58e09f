package canbus

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.einride.tech/can/pkg/socketcan"
)

type Config struct {
	Interface  string `yaml:"interface" json:"interface"`
	CommandID  uint32 `yaml:"command_id" json:"command_id"`
	FeedbackID uint32 `yaml:"feedback_id" json:"feedback_id"`
	LiftID     uint32 `yaml:"lift_id" json:"lift_id"`
}

func DefaultConfig() Config {
	return Config{Interface: "can0", CommandID: 0x120, FeedbackID: 0x121, LiftID: 0x122}
}

func (c Config) Validate() error {
	if c.Interface == "" {
		return errors.New("can interface must be set")
	}
	if c.CommandID == c.FeedbackID || c.CommandID == c.LiftID || c.FeedbackID == c.LiftID {
		return fmt.Errorf("can ids must differ, got command 0x%X feedback 0x%X lift 0x%X", c.CommandID, c.FeedbackID, c.LiftID)
	}
	if c.CommandID > 0x7FF || c.FeedbackID > 0x7FF || c.LiftID > 0x7FF {
		return fmt.Errorf("can ids must be standard 11-bit ids")
	}
	return nil
}

// Bus is an open SocketCAN connection.
type Bus struct {
	conn net.Conn
	Tx   *socketcan.Transmitter
	Rx   *socketcan.Receiver
}

func Dial(ctx context.Context, iface string) (*Bus, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &Bus{
		conn: conn,
		Tx:   socketcan.NewTransmitter(conn),
		Rx:   socketcan.NewReceiver(conn),
	}, nil
}

func (b *Bus) Close() error {
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
