package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/motionctl/internal/dynamo"
)

// Ensemble runs independent runners concurrently, at most one per CPU. Each
// runner owns its robot and sequencer, so nothing is shared between
// goroutines.
type Ensemble struct {
	build   func(i int) (*Runner, error)
	numRuns int
	limit   int
}

func NewEnsemble(numRuns int, build func(i int) (*Runner, error)) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, limit: runtime.GOMAXPROCS(0)}
}

// Run returns results in build order. The first build or run error cancels
// the runs still pending.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := 0; i < e.numRuns; i++ {
		i := i
		g.Go(func() error {
			runner, err := e.build(i)
			if err != nil {
				return err
			}
			results[i], err = runner.Run(ctx, cfg)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
