package metrics

import (
	"math"

	"github.com/san-kum/motionctl/internal/dynamo"
)

// TrackingRMS is the root mean square of setpoint minus measurement over the
// ticks on which a profiled task was running.
type TrackingRMS struct {
	sumSq   float64
	samples int
}

func NewTrackingRMS() *TrackingRMS { return &TrackingRMS{} }

func (m *TrackingRMS) Name() string { return "tracking_rms" }

func (m *TrackingRMS) Observe(s dynamo.Sample) {
	if !s.Tracking {
		return
	}
	e := s.TrackingError()
	m.sumSq += e * e
	m.samples++
}

func (m *TrackingRMS) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *TrackingRMS) Reset() {
	m.sumSq = 0
	m.samples = 0
}

type MaxTrackingError struct {
	max float64
}

func NewMaxTrackingError() *MaxTrackingError { return &MaxTrackingError{} }

func (m *MaxTrackingError) Name() string { return "tracking_max" }

func (m *MaxTrackingError) Observe(s dynamo.Sample) {
	m.max = math.Max(m.max, math.Abs(s.TrackingError()))
}

func (m *MaxTrackingError) Value() float64 { return m.max }
func (m *MaxTrackingError) Reset()         { m.max = 0 }

// Defaults is the metric set recorded for every run.
func Defaults(saturation float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewTrackingRMS(),
		NewMaxTrackingError(),
		NewControlEffort(),
		NewWinchEffort(),
		NewSaturation(saturation),
	}
}
