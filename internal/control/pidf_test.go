package control

import (
	"errors"
	"math"
	"testing"
)

func TestBoundsClamp(t *testing.T) {
	b := Bounds{Min: -0.8, Max: 0.8}

	tests := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{1.2, 0.8},
		{-3, -0.8},
		{0.8, 0.8},
	}

	for _, tt := range tests {
		if got := b.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewBoundsRejectsInverted(t *testing.T) {
	if _, err := NewBounds(1, -1); !errors.Is(err, ErrInvalidBounds) {
		t.Fatalf("expected ErrInvalidBounds, got %v", err)
	}
	b, err := NewBounds(-1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != Symmetric(1) {
		t.Errorf("expected symmetric bounds, got %+v", b)
	}
}

func TestPIDFProportional(t *testing.T) {
	p := New(Gains{P: 2}, Symmetric(10))

	out := p.CalculateOutput(1, 3, 0, 0, 0)
	if math.Abs(out-4) > 1e-9 {
		t.Errorf("expected 4, got %f", out)
	}
}

func TestPIDFDerivative(t *testing.T) {
	p := New(Gains{D: 1}, Symmetric(10))

	p.CalculateOutput(0, 0, 0, 0, 0)
	out := p.CalculateOutput(0, 1, 0, 0, 0.5)
	if math.Abs(out-2) > 1e-9 {
		t.Errorf("expected derivative output 2, got %f", out)
	}
}

func TestPIDFFeedforward(t *testing.T) {
	p := New(Gains{VelFF: 0.5, AccFF: 0.25, StaticFF: 0.1}, Symmetric(10))

	out := p.CalculateOutput(0, 0, -2, 4, 0)
	want := 0.5*-2 + 0.25*4 - 0.1
	if math.Abs(out-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, out)
	}

	terms := p.Terms()
	if math.Abs(terms.Feedforward-want) > 1e-9 {
		t.Errorf("feedforward term %f, want %f", terms.Feedforward, want)
	}
}

func TestPIDFStaysWithinBounds(t *testing.T) {
	b := Bounds{Min: -0.3, Max: 0.6}
	p := New(Gains{P: 50, I: 20, D: 5, VelFF: 3, AccFF: 2, StaticFF: 1}, b)

	inputs := []float64{-1e6, -100, -1, -0.01, 0, 0.01, 1, 100, 1e6}
	now := 0.0
	for _, cur := range inputs {
		for _, target := range inputs {
			now += 0.02
			out := p.CalculateOutput(cur, target, target-cur, cur, now)
			if !b.Contains(out) {
				t.Fatalf("output %f outside %+v for current=%v target=%v", out, b, cur, target)
			}
		}
	}
}

func TestPIDFAntiWindup(t *testing.T) {
	p := New(Gains{I: 1}, Symmetric(1))

	now := 0.0
	for i := 0; i < 50; i++ {
		p.CalculateOutput(0, 10, 0, 0, now)
		now += 1
	}

	out := p.CalculateOutput(10, 0, 0, 0, now)
	if out > 1e-9 {
		t.Errorf("integral wound up: output %f after error reversal", out)
	}
}

func TestPIDFInitializeClearsHistory(t *testing.T) {
	p := New(Gains{P: 1, I: 1, D: 1}, Symmetric(5))

	for i := 0; i < 10; i++ {
		p.CalculateOutput(0, 2, 0, 0, float64(i)*0.1)
	}

	p.Initialize(3, 5, 0)
	out := p.CalculateOutput(3, 3, 0, 0, 5.02)
	if math.Abs(out) > 1e-9 {
		t.Errorf("expected zero output after Initialize, got %f", out)
	}
}

func TestPIDFNonFiniteInput(t *testing.T) {
	p := New(Gains{P: 1}, Bounds{Min: -1, Max: 1})

	out := p.CalculateOutput(math.NaN(), 1, 0, 0, 0)
	if out != 0 {
		t.Errorf("expected neutral output for NaN input, got %f", out)
	}
}
