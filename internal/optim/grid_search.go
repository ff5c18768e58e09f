package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/san-kum/motionctl/internal/config"
	"github.com/san-kum/motionctl/internal/control"
	"github.com/san-kum/motionctl/internal/dynamo"
	"github.com/san-kum/motionctl/internal/experiment"
	"github.com/san-kum/motionctl/internal/sim"
)

// Trial is one point of the grid and its score. Runs that never complete
// score +Inf.
type Trial struct {
	Params map[string]float64
	Score  float64
	Result *dynamo.Result
}

// GridSearch sweeps controller gains named "<axis>.<gain>", e.g. linear.kp
// or angular.kd, over the cartesian product of their ranges.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("got %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, err := gainField(&control.Gains{}, name); err != nil {
			return nil, err
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("parameter %s has no values", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs every combination concurrently on copies of base and returns
// the trials sorted best first by metricName, lower being better.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string, log *zap.Logger) ([]Trial, error) {
	var grid []map[string]float64
	g.searchRecursive(0, make(map[string]float64), &grid)

	ens := sim.NewEnsemble(len(grid), func(i int) (*sim.Runner, error) {
		cfg, err := apply(base, grid[i])
		if err != nil {
			return nil, err
		}
		parts, err := experiment.Build(cfg, nil)
		if err != nil {
			return nil, err
		}
		return parts.Runner, nil
	})

	results, err := ens.Run(ctx, base.RunConfig())
	if err != nil {
		return nil, err
	}

	trials := make([]Trial, len(grid))
	for i, r := range results {
		score := math.Inf(1)
		if v, ok := r.Metrics[metricName]; ok && r.Completed {
			score = v
		}
		trials[i] = Trial{Params: grid[i], Score: score, Result: r}
	}
	sort.SliceStable(trials, func(i, j int) bool { return trials[i].Score < trials[j].Score })

	if log != nil && len(trials) > 0 {
		log.Info("sweep finished",
			zap.Int("trials", len(trials)),
			zap.String("metric", metricName),
			zap.Float64("best", trials[0].Score),
			zap.Any("params", trials[0].Params))
	}
	return trials, nil
}

func (g *GridSearch) searchRecursive(depth int, current map[string]float64, grid *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*grid = append(*grid, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(depth+1, newParams, grid)
	}
}

func apply(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := *base
	cfg.Routines = append(cfg.Routines[:0:0], base.Routines...)
	for name, v := range params {
		axis, _, _ := strings.Cut(name, ".")
		gains := &cfg.Linear.Gains
		if axis == "angular" {
			gains = &cfg.Angular.Gains
		}
		field, err := gainField(gains, name)
		if err != nil {
			return nil, err
		}
		*field = v
	}
	return &cfg, nil
}

func gainField(g *control.Gains, name string) (*float64, error) {
	axis, gain, ok := strings.Cut(name, ".")
	if !ok || (axis != "linear" && axis != "angular") {
		return nil, fmt.Errorf("unknown parameter %q: want linear.<gain> or angular.<gain>", name)
	}
	switch gain {
	case "kp":
		return &g.P, nil
	case "ki":
		return &g.I, nil
	case "kd":
		return &g.D, nil
	case "kv":
		return &g.VelFF, nil
	case "ka":
		return &g.AccFF, nil
	case "ks":
		return &g.StaticFF, nil
	}
	return nil, fmt.Errorf("unknown gain %q in %q", gain, name)
}
