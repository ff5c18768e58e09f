package drive

import "math"

const (
	DefaultTicksPerRev   = 4096.0
	DefaultWheelDiameter = 6 * 0.0254
)

// Encoder converts wheel encoder ticks to linear distance.
type Encoder struct {
	TicksPerRev   float64 `yaml:"ticks_per_rev" json:"ticks_per_rev"`
	WheelDiameter float64 `yaml:"wheel_diameter" json:"wheel_diameter"`
}

func DefaultEncoder() Encoder {
	return Encoder{TicksPerRev: DefaultTicksPerRev, WheelDiameter: DefaultWheelDiameter}
}

func (e Encoder) Circumference() float64 {
	return math.Pi * e.WheelDiameter
}

// Distance converts a tick count, or a tick rate, to meters (per second).
func (e Encoder) Distance(ticks float64) float64 {
	if e.TicksPerRev == 0 {
		return 0
	}
	return ticks / e.TicksPerRev * e.Circumference()
}

func (e Encoder) Ticks(meters float64) float64 {
	c := e.Circumference()
	if c == 0 {
		return 0
	}
	return meters / c * e.TicksPerRev
}
