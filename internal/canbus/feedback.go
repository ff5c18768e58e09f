package canbus

import (
	"context"
	"errors"
	"sync"

	"go.einride.tech/can"
	"go.uber.org/zap"

	"github.com/san-kum/motionctl/internal/drive"
)

// FrameSource yields received frames. *socketcan.Receiver satisfies it.
type FrameSource interface {
	Receive() bool
	Frame() can.Frame
	Err() error
}

// Feedback caches the latest encoder and gyro reading. Run fills it from the
// receive goroutine while the tick loop reads it through drive.Sensors.
type Feedback struct {
	id      uint32
	encoder drive.Encoder
	log     *zap.Logger

	mu      sync.RWMutex
	reading Reading
	frames  int
}

func NewFeedback(id uint32, encoder drive.Encoder, log *zap.Logger) *Feedback {
	if log == nil {
		log = zap.NewNop()
	}
	return &Feedback{id: id, encoder: encoder, log: log}
}

// Handle applies one frame, ignoring frames with other ids.
func (f *Feedback) Handle(frame can.Frame) error {
	if frame.ID != f.id {
		return nil
	}
	r, err := DecodeReading(frame)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.reading = r
	f.frames++
	f.mu.Unlock()
	return nil
}

// Run receives until the source is exhausted or ctx is cancelled.
func (f *Feedback) Run(ctx context.Context, src FrameSource) error {
	return Receive(ctx, src, f.log, f)
}

// Handler consumes frames it recognises and ignores the rest.
type Handler interface {
	Handle(frame can.Frame) error
}

// Receive offers every frame from src to each handler. Malformed frames are
// logged and skipped.
func Receive(ctx context.Context, src FrameSource, log *zap.Logger, handlers ...Handler) error {
	if log == nil {
		log = zap.NewNop()
	}
	for src.Receive() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		frame := src.Frame()
		for _, h := range handlers {
			if err := h.Handle(frame); err != nil {
				log.Warn("dropping feedback frame", zap.Uint32("id", frame.ID), zap.Error(err))
			}
		}
	}
	if err := src.Err(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("feedback receive failed", zap.Error(err))
		return err
	}
	return ctx.Err()
}

func (f *Feedback) snapshot() Reading {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.reading
}

// Frames is the number of feedback frames applied so far.
func (f *Feedback) Frames() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frames
}

func (f *Feedback) LinearDistance() float64 {
	return f.encoder.Distance(float64(f.snapshot().Ticks))
}

func (f *Feedback) LinearVelocity() float64 {
	return f.encoder.Distance(float64(f.snapshot().TicksPer100ms) * 10)
}

func (f *Feedback) Orientation() float64 {
	return f.snapshot().Heading
}
