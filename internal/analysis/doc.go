// Package analysis summarises how well a recorded run tracked its profiles.
//
// [Analyze] splits the samples by routine state and reports, for each
// profiled move, the peak and final tracking error, the overshoot past the
// target and the dominant frequency of the error signal. A clear peak in the
// error spectrum usually means the derivative gain is too low or the
// proportional gain too high:
//
//	for _, r := range analysis.Analyze(samples, cfg.Tick) {
//	    fmt.Println(r.State, r.Overshoot, r.RingHz)
//	}
package analysis
