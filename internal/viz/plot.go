package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/motionctl/internal/dynamo"
	"github.com/san-kum/motionctl/internal/motion"
)

const (
	plotHeight = 10
	plotWidth  = 80

	defaultStep = 0.02
)

var series = map[string]func(dynamo.Sample) float64{
	"distance": func(s dynamo.Sample) float64 { return s.Distance },
	"velocity": func(s dynamo.Sample) float64 { return s.Velocity },
	"heading":  func(s dynamo.Sample) float64 { return s.Heading },
	"forward":  func(s dynamo.Sample) float64 { return s.Forward },
	"rotation": func(s dynamo.Sample) float64 { return s.Rotation },
	"tracking": func(s dynamo.Sample) float64 { return s.TrackingError() },
	"height":   func(s dynamo.Sample) float64 { return s.Height },
	"winch":    func(s dynamo.Sample) float64 { return s.Winch },
}

func SeriesNames() []string {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Series(samples []dynamo.Sample, name string) ([]float64, error) {
	fn, ok := series[name]
	if !ok {
		return nil, fmt.Errorf("unknown series %q (available: %s)", name, strings.Join(SeriesNames(), ", "))
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = fn(s)
	}
	return out, nil
}

func RunPlot(samples []dynamo.Sample, name string) (string, error) {
	data, err := Series(samples, name)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no samples to plot")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(name)), nil
}

// ProfilePlot charts position and velocity against time, sampled every step
// seconds.
func ProfilePlot(p *motion.Profile, step float64) string {
	if step <= 0 {
		step = defaultStep
	}
	points := p.Sample(step)
	pos := make([]float64, len(points))
	vel := make([]float64, len(points))
	for i, pt := range points {
		pos[i] = pt.Position
		vel[i] = pt.Velocity
	}

	var b strings.Builder
	b.WriteString(asciigraph.Plot(pos,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("position")))
	b.WriteString("\n\n")
	b.WriteString(asciigraph.Plot(vel,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("velocity")))
	b.WriteString("\n")
	return b.String()
}
