package metrics

import (
	"math"

	"github.com/san-kum/motionctl/internal/dynamo"
)

// meanAbs averages |f(sample)| over every tick.
type meanAbs struct {
	name    string
	f       func(dynamo.Sample) float64
	sum     float64
	samples int
}

func (m *meanAbs) Name() string { return m.name }

func (m *meanAbs) Observe(s dynamo.Sample) {
	m.sum += math.Abs(m.f(s))
	m.samples++
}

func (m *meanAbs) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *meanAbs) Reset() {
	m.sum = 0
	m.samples = 0
}

// NewControlEffort is the mean absolute drive command, forward plus
// rotation.
func NewControlEffort() dynamo.Metric {
	return &meanAbs{name: "control_effort", f: func(s dynamo.Sample) float64 {
		return math.Abs(s.Forward) + math.Abs(s.Rotation)
	}}
}

// NewWinchEffort is the mean absolute winch output, gravity compensation
// included.
func NewWinchEffort() dynamo.Metric {
	return &meanAbs{name: "winch_effort", f: func(s dynamo.Sample) float64 { return s.Winch }}
}
