package experiment

import (
	"context"

	"go.uber.org/zap"

	"github.com/san-kum/motionctl/internal/config"
	"github.com/san-kum/motionctl/internal/dynamo"
	"github.com/san-kum/motionctl/internal/sim"
	"github.com/san-kum/motionctl/internal/storage"
)

type Experiment struct {
	cfg    *config.Config
	preset string
	parts  *Parts
}

func New(cfg *config.Config, preset string, log *zap.Logger) (*Experiment, error) {
	parts, err := Build(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Experiment{cfg: cfg, preset: preset, parts: parts}, nil
}

// AddObserver attaches an observer that sees every tick of the run.
func (e *Experiment) AddObserver(o dynamo.Observer) {
	e.parts.Runner.AddObserver(o)
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	return e.parts.Runner.Run(ctx, e.cfg.RunConfig())
}

func (e *Experiment) Runner() *sim.Runner { return e.parts.Runner }
func (e *Experiment) Parts() *Parts       { return e.parts }

// Metadata describes the run for the store.
func (e *Experiment) Metadata() storage.RunMetadata {
	gains := make(map[string]float64)
	for k, v := range e.cfg.Linear.Gains.Params() {
		gains["linear."+k] = v
	}
	for k, v := range e.cfg.Angular.Gains.Params() {
		gains["angular."+k] = v
	}
	return storage.RunMetadata{
		Routine:    e.parts.Sequencer.Routine().Name,
		Preset:     e.preset,
		Tick:       e.cfg.Tick,
		Duration:   e.cfg.Duration,
		Integrator: e.cfg.Sim.Integrator,
		Gains:      gains,
	}
}
