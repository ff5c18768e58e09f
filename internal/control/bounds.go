package control

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidBounds = errors.New("control: min greater than max")

// Bounds is a closed interval [Min, Max].
type Bounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func NewBounds(min, max float64) (Bounds, error) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return Bounds{}, fmt.Errorf("%w: NaN limit", ErrInvalidBounds)
	}
	if min > max {
		return Bounds{}, fmt.Errorf("%w: [%g, %g]", ErrInvalidBounds, min, max)
	}
	return Bounds{Min: min, Max: max}, nil
}

// Symmetric returns [-limit, limit].
func Symmetric(limit float64) Bounds {
	limit = math.Abs(limit)
	return Bounds{Min: -limit, Max: limit}
}

func (b Bounds) Validate() error {
	_, err := NewBounds(b.Min, b.Max)
	return err
}

func (b Bounds) Clamp(x float64) float64 {
	if x < b.Min {
		return b.Min
	}
	if x > b.Max {
		return b.Max
	}
	return x
}

func (b Bounds) Contains(x float64) bool {
	return x >= b.Min && x <= b.Max
}
