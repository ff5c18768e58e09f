// Package control provides the closed-loop controller used to track motion
// profiles.
//
//   - [PIDF]: proportional-integral-derivative controller with velocity,
//     acceleration and static feed-forward terms
//   - [Gains]: immutable coefficient bundle
//   - [Bounds]: closed output interval
//
// # Usage
//
//	pidf := control.New(control.Gains{P: 0.5}, control.Symmetric(0.8))
//	pidf.Initialize(start, now, 0)
//	out := pidf.CalculateOutput(measured, setpoint, velocity, accel, now)
//
// Time is supplied by the caller on every call; the controller never reads a
// clock. Initialize must be called whenever the setpoint trajectory changes
// discontinuously.
package control
