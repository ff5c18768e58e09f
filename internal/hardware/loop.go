// Package hardware runs an autonomous routine against a real robot over the
// CAN bus, one control tick per period of a wall-clock ticker.
package hardware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/motionctl/internal/auto"
	"github.com/san-kum/motionctl/internal/canbus"
	"github.com/san-kum/motionctl/internal/config"
	"github.com/san-kum/motionctl/internal/drive"
	"github.com/san-kum/motionctl/internal/dynamo"
	"github.com/san-kum/motionctl/internal/mechanism"
	"github.com/san-kum/motionctl/internal/metrics"
	"github.com/san-kum/motionctl/internal/sim"
	"github.com/san-kum/motionctl/internal/telemetry"
)

// neutralTimeout bounds the final all-stop frame sent after the loop ends.
const neutralTimeout = 250 * time.Millisecond

type Loop struct {
	cfg *config.Config
	log *zap.Logger

	out      *canbus.DriveActuator
	feedback *canbus.Feedback
	lift     *canbus.Lift

	seq      *auto.Sequencer
	elevator *mechanism.Elevator
	intake   *mechanism.Intake

	metrics   []dynamo.Metric
	observers []dynamo.Observer
	exporter  *telemetry.Exporter
}

type Option func(*Loop)

func WithLogger(l *zap.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.log = l
		}
	}
}

// WithTelemetry publishes every tick and the loop timing to e.
func WithTelemetry(e *telemetry.Exporter) Option {
	return func(lp *Loop) { lp.exporter = e }
}

func WithObserver(o dynamo.Observer) Option {
	return func(lp *Loop) { lp.observers = append(lp.observers, o) }
}

// New wires the routine, drivetrain and mechanisms to the bus. Frames go out
// through tx; incoming frames reach the loop through Run.
func New(cfg *config.Config, tx canbus.Transmitter, opts ...Option) (*Loop, error) {
	lp := &Loop{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(lp)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	routine, err := cfg.ResolveRoutine()
	if err != nil {
		return nil, err
	}

	lp.out = canbus.NewDriveActuator(tx, cfg.CAN.CommandID)
	lp.feedback = canbus.NewFeedback(cfg.CAN.FeedbackID, cfg.Encoder, lp.log)
	lp.lift = canbus.NewLift(cfg.CAN.LiftID, lp.out)

	dt, err := drive.NewDrivetrain(lp.feedback, lp.out, cfg.Linear, cfg.Angular)
	if err != nil {
		return nil, err
	}
	lp.elevator, err = mechanism.NewElevator(lp.lift, cfg.Elevator, 0)
	if err != nil {
		return nil, err
	}
	lp.intake = mechanism.NewIntake(cfg.Intake)

	lp.seq, err = auto.New(routine, dt,
		auto.WithEffector(lp.intake),
		auto.WithLift(lp.elevator),
		auto.WithLogger(lp.log))
	if err != nil {
		return nil, err
	}
	lp.metrics = metrics.Defaults(cfg.Telemetry.SaturationThreshold)
	if lp.exporter != nil {
		lp.observers = append(lp.observers, lp.exporter)
	}
	return lp, nil
}

func (lp *Loop) Feedback() *canbus.Feedback      { return lp.feedback }
func (lp *Loop) Lift() *canbus.Lift              { return lp.lift }
func (lp *Loop) Actuator() *canbus.DriveActuator { return lp.out }
func (lp *Loop) Sequencer() *auto.Sequencer      { return lp.seq }

// Run receives from src in the background and ticks every cfg.Tick seconds
// until the routine is done and has lingered, cfg.Duration has passed or ctx
// is cancelled. All outputs are neutralised on the way out.
//
// The receive goroutine blocks in src.Receive, which does not watch ctx; it
// only exits once src is exhausted, so the caller must close the underlying
// connection after Run returns.
func (lp *Loop) Run(ctx context.Context, src canbus.FrameSource) (*dynamo.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rxErr := make(chan error, 1)
	go func() {
		rxErr <- canbus.Receive(ctx, src, lp.log, lp.feedback, lp.lift)
	}()

	defer func() {
		nctx, ncancel := context.WithTimeout(context.Background(), neutralTimeout)
		defer ncancel()
		if err := lp.out.Neutral(nctx); err != nil {
			lp.log.Error("neutral frame failed", zap.Error(err))
		}
	}()

	for _, m := range lp.metrics {
		m.Reset()
	}
	result := &dynamo.Result{Metrics: make(map[string]float64)}

	period := time.Duration(lp.cfg.Tick * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	lp.log.Info("hardware loop started",
		zap.String("routine", lp.seq.Routine().Name),
		zap.Duration("period", period))

	start := time.Now()
	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case e := <-rxErr:
			// an exhausted source is not fatal; keep commanding from the last reading
			if e != nil && !errors.Is(e, context.Canceled) {
				err = fmt.Errorf("feedback: %w", e)
				break loop
			}
			rxErr = nil
		case t := <-ticker.C:
			now := t.Sub(start).Seconds()
			s, done := lp.tick(ctx, now)
			result.Samples = append(result.Samples, s)
			result.StepsTaken++
			if lp.exporter != nil {
				lp.exporter.ObserveLoop(time.Since(t))
			}

			if done && !result.Completed {
				result.Completed = true
				result.CompletedAt = now
			}
			if result.Completed && now-result.CompletedAt >= lp.cfg.Linger {
				break loop
			}
			if now >= lp.cfg.Duration {
				result.TimedOut = !result.Completed
				break loop
			}
		}
	}

	for _, m := range lp.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.History = lp.seq.History()
	if lp.exporter != nil {
		lp.exporter.ObserveResult(result)
	}
	lp.log.Info("hardware loop stopped",
		zap.Bool("completed", result.Completed),
		zap.Bool("timed_out", result.TimedOut),
		zap.Int("ticks", result.StepsTaken),
		zap.Strings("history", result.History))
	return result, err
}

func (lp *Loop) tick(ctx context.Context, now float64) (dynamo.Sample, bool) {
	done := lp.seq.Update(now)
	winch := lp.elevator.Update(now)
	roller := lp.intake.Update()
	lp.out.SetRoller(roller)

	cmd := lp.out.Command()
	s := dynamo.Sample{
		Time:     now,
		State:    lp.seq.State(),
		Distance: lp.feedback.LinearDistance(),
		Velocity: lp.feedback.LinearVelocity(),
		Heading:  lp.feedback.Orientation(),
		Forward:  cmd.Forward,
		Rotation: cmd.Rotation,
		Height:   lp.lift.Height(),
		Winch:    winch,
		Roller:   roller,
	}
	sim.FillTracking(&s, lp.seq)

	if err := lp.out.Flush(ctx); err != nil {
		lp.log.Warn("command frame dropped", zap.Float64("t", now), zap.Error(err))
	}

	for _, m := range lp.metrics {
		m.Observe(s)
	}
	for _, o := range lp.observers {
		o.OnTick(s)
	}
	return s, done
}
