// Package motion generates single-axis trapezoidal and triangular velocity
// profiles.
//
// A [Profile] is an ordered list of [Chunk] segments, each either a
// constant-acceleration transition between two velocities or a cruise at
// constant velocity. Profiles are immutable once generated and are queried by
// elapsed time:
//
//	p, err := motion.Generate(v0, start, target, motion.Limits{
//		MaxVelocity: 0.5, MaxAccel: 0.5, MaxDecel: 1.0,
//	})
//	m := p.At(elapsed) // position, velocity, acceleration
//
// Queries past the end of the profile return the terminal moment: zero
// velocity and acceleration at the final position.
package motion
