package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/motionctl/internal/dynamo"
	"github.com/san-kum/motionctl/internal/mechanism"
)

// Runner ticks a sequencer against a simulated robot at a fixed period.
type Runner struct {
	robot    *Robot
	seq      Sequencer
	elevator *mechanism.Elevator
	intake   *mechanism.Intake
	log      *zap.Logger

	metrics   []dynamo.Metric
	observers []dynamo.Observer

	now   float64
	steps int
	done  bool
}

func NewRunner(robot *Robot, seq Sequencer, opts ...Option) *Runner {
	r := &Runner{
		robot: robot,
		seq:   seq,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Robot() *Robot        { return r.robot }
func (r *Runner) Sequencer() Sequencer { return r.seq }
func (r *Runner) Now() float64         { return r.now }

// Step runs one control tick at the current time, records it and then
// advances the plant by dt.
func (r *Runner) Step(dt float64) (dynamo.Sample, bool) {
	done := r.seq.Update(r.now)
	r.done = done

	var winch, roller float64
	if r.elevator != nil {
		winch = r.elevator.Update(r.now)
	}
	if r.intake != nil {
		roller = r.intake.Update()
	}

	forward, rotation, _ := r.robot.Command()
	s := dynamo.Sample{
		Time:     r.now,
		State:    r.seq.State(),
		Distance: r.robot.LinearDistance(),
		Velocity: r.robot.LinearVelocity(),
		Heading:  r.robot.Orientation(),
		Forward:  forward,
		Rotation: rotation,
		Height:   r.robot.Height(),
		Winch:    winch,
		Roller:   roller,
	}
	FillTracking(&s, r.seq)

	for _, m := range r.metrics {
		m.Observe(s)
	}
	for _, obs := range r.observers {
		obs.OnTick(s)
	}

	r.robot.Step(dt)
	r.now += dt
	r.steps++
	return s, done
}

// FillTracking copies the active task's setpoint, measurement and PIDF terms
// into s. Nothing is filled until the task has run past its start.
func FillTracking(s *dynamo.Sample, seq Sequencer) {
	task, ok := seq.Task()
	if !ok {
		return
	}
	st := task.Status()
	if st.Elapsed <= 0 {
		return
	}
	s.Tracking = true
	s.Setpoint = st.Setpoint.Position
	s.Measured = st.Measured

	terms := task.Terms()
	s.Proportional = terms.Proportional
	s.Integral = terms.Integral
	s.Derivative = terms.Derivative
	s.Feedforward = terms.Feedforward
	s.Saturated = terms.Saturated
}

// Run ticks until the routine completes and has lingered, or until
// cfg.Duration elapses. A run cut off by the duration is reported as timed
// out, not as an error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Tick) + 1
	result := &dynamo.Result{
		Samples: make([]dynamo.Sample, 0, steps),
		Metrics: make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	r.log.Info("run started",
		zap.Float64("tick", cfg.Tick),
		zap.Float64("duration", cfg.Duration))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			r.finish(result)
			return result, ctx.Err()
		default:
		}

		s, done := r.Step(cfg.Tick)
		result.Samples = append(result.Samples, s)
		result.StepsTaken++

		if !r.robot.State().IsValid() {
			result.Errors = append(result.Errors, dynamo.SimError{Time: s.Time, Step: i, Err: dynamo.ErrInvalidState})
			break
		}

		if done && !result.Completed {
			result.Completed = true
			result.CompletedAt = s.Time
		}
		if result.Completed && s.Time >= result.CompletedAt+cfg.Linger {
			break
		}
	}

	if !result.Completed {
		result.TimedOut = true
		r.log.Warn("routine timed out",
			zap.String("state", r.seq.State()),
			zap.Float64("t", r.now))
	}

	r.finish(result)
	r.log.Info("run finished",
		zap.Bool("completed", result.Completed),
		zap.Float64("completed_at", result.CompletedAt),
		zap.Int("steps", result.StepsTaken))
	return result, nil
}

func (r *Runner) finish(result *dynamo.Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.History = r.seq.History()
}

func validateConfig(cfg Config) error {
	if cfg.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %f", cfg.Tick)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Linger < 0 {
		return fmt.Errorf("linger must not be negative, got %f", cfg.Linger)
	}
	return nil
}
