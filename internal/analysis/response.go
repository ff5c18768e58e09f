package analysis

import (
	"math"

	"github.com/san-kum/motionctl/internal/dynamo"
)

// Response describes one profiled move.
type Response struct {
	State    string
	Start    float64
	Duration float64
	Target   float64
	// Overshoot is how far the measurement went past the final setpoint, in
	// the direction of travel. Never negative.
	Overshoot  float64
	PeakError  float64
	FinalError float64
	RMSError   float64
	RingHz     float64
}

// Analyze groups consecutive tracking samples by state. States without a
// profiled task, such as EJECT, are skipped.
func Analyze(samples []dynamo.Sample, dt float64) []Response {
	var out []Response
	for i := 0; i < len(samples); {
		j := i
		for j < len(samples) && samples[j].State == samples[i].State {
			j++
		}
		if r, ok := analyze(samples[i:j], dt); ok {
			out = append(out, r)
		}
		i = j
	}
	return out
}

func analyze(run []dynamo.Sample, dt float64) (Response, bool) {
	var tracked []dynamo.Sample
	for _, s := range run {
		if s.Tracking {
			tracked = append(tracked, s)
		}
	}
	if len(tracked) == 0 {
		return Response{}, false
	}

	first, last := tracked[0], tracked[len(tracked)-1]
	r := Response{
		State:      first.State,
		Start:      first.Time,
		Duration:   last.Time - first.Time,
		Target:     last.Setpoint,
		FinalError: last.Setpoint - last.Measured,
	}

	dir := 1.0
	if last.Setpoint < first.Setpoint {
		dir = -1
	}

	errs := make([]float64, len(tracked))
	var sq float64
	for i, s := range tracked {
		e := s.TrackingError()
		errs[i] = e
		sq += e * e
		r.PeakError = math.Max(r.PeakError, math.Abs(e))
		r.Overshoot = math.Max(r.Overshoot, dir*(s.Measured-r.Target))
	}
	r.RMSError = math.Sqrt(sq / float64(len(tracked)))
	r.RingHz = DominantFrequency(errs, dt)
	return r, true
}
