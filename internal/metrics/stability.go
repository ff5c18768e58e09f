package metrics

import (
	"math"

	"github.com/san-kum/motionctl/internal/dynamo"
)

// Saturation is the fraction of ticks on which either drive command sat at
// or beyond the threshold.
type Saturation struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewSaturation(threshold float64) *Saturation {
	return &Saturation{
		name:      "saturation",
		threshold: threshold,
	}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(sample dynamo.Sample) {
	s.samples++
	if math.Abs(sample.Forward) >= s.threshold || math.Abs(sample.Rotation) >= s.threshold {
		s.violations++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.violations) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.violations = 0
	s.samples = 0
}
