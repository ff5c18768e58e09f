package viz

import (
	"math"

	"github.com/san-kum/motionctl/internal/dynamo"
)

// Pose is a dead-reckoned field position.
type Pose struct {
	X, Y, Heading float64
}

// Trace integrates odometry distance along the gyro heading, starting at the
// origin facing +x.
func Trace(samples []dynamo.Sample) []Pose {
	poses := make([]Pose, 0, len(samples))
	var p Pose
	prev := 0.0
	for i, s := range samples {
		if i > 0 {
			d := s.Distance - prev
			p.X += d * math.Cos(s.Heading)
			p.Y += d * math.Sin(s.Heading)
		}
		p.Heading = s.Heading
		prev = s.Distance
		poses = append(poses, p)
	}
	return poses
}

// DrawPath draws the trace and a short heading tick at its end.
func DrawPath(c *Canvas, poses []Pose) {
	c.Clear()
	for i := 1; i < len(poses); i++ {
		c.Segment(poses[i-1].X, poses[i-1].Y, poses[i].X, poses[i].Y)
	}
	if len(poses) == 0 {
		return
	}
	end := poses[len(poses)-1]
	nose := c.Span / 20
	c.Segment(end.X, end.Y, end.X+nose*math.Cos(end.Heading), end.Y+nose*math.Sin(end.Heading))
}
