package mechanism

import (
	"errors"
	"math"
	"testing"
)

type fakeWinch struct {
	height   float64
	velocity float64
	bottom   bool
	resets   int
	output   float64
}

func (f *fakeWinch) Height() float64         { return f.height }
func (f *fakeWinch) HeightVelocity() float64 { return f.velocity }
func (f *fakeWinch) AtBottom() bool          { return f.bottom }
func (f *fakeWinch) ResetHeight()            { f.height = 0; f.resets++ }
func (f *fakeWinch) SetWinch(out float64)    { f.output = out }

// step integrates a winch that exactly cancels gravity at the compensation
// output.
func (f *fakeWinch) step(gravity, dt float64) {
	f.velocity = (f.output - gravity) * 5
	f.height += f.velocity * dt
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"bottom", Bottom},
		{"Switch", Switch},
		{" scale ", Scale},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("roof"); !errors.Is(err, ErrUnknownLevel) {
		t.Errorf("expected ErrUnknownLevel, got %v", err)
	}
}

func TestIntakeFallsBackToIdle(t *testing.T) {
	in := NewIntake(DefaultIntakeConfig())

	in.Outtake()
	if got := in.Update(); got != -0.6 {
		t.Errorf("expected outtake speed -0.6, got %f", got)
	}
	if in.LastMode() != Outtaking {
		t.Errorf("expected last mode outtake, got %v", in.LastMode())
	}
	if got := in.Update(); got != 0.2 {
		t.Errorf("expected idle speed 0.2 after reset, got %f", got)
	}

	in.Intake()
	if got := in.Update(); got != 0.7 {
		t.Errorf("expected intake speed 0.7, got %f", got)
	}
}

func TestElevatorReachesLevel(t *testing.T) {
	cfg := DefaultElevatorConfig()
	winch := &fakeWinch{}

	e, err := NewElevator(winch, cfg, 0)
	if err != nil {
		t.Fatalf("new elevator: %v", err)
	}
	if err := e.SetTarget(Switch, 0); err != nil {
		t.Fatalf("set target: %v", err)
	}

	const dt = 0.02
	now := 0.0
	for i := 0; i < 750; i++ {
		now += dt
		e.Update(now)
		winch.step(cfg.GravityCompensation, dt)
	}

	if !e.Settled(now) {
		t.Errorf("elevator not settled: height %.3f", winch.height)
	}
	if math.Abs(winch.height-cfg.Levels.Switch) > cfg.Tolerance {
		t.Errorf("expected height near %.1f, got %.3f", cfg.Levels.Switch, winch.height)
	}
}

func TestElevatorSameTargetKeepsProfile(t *testing.T) {
	winch := &fakeWinch{}
	e, err := NewElevator(winch, DefaultElevatorConfig(), 0)
	if err != nil {
		t.Fatalf("new elevator: %v", err)
	}

	if err := e.SetTarget(Scale, 1); err != nil {
		t.Fatalf("set target: %v", err)
	}
	p := e.Profile()

	if err := e.SetTarget(Scale, 2); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if e.Profile() != p {
		t.Error("profile regenerated for unchanged level")
	}
	if e.Level() != Scale {
		t.Errorf("expected level scale, got %v", e.Level())
	}
}

func TestElevatorHoldsWithGravityCompensation(t *testing.T) {
	cfg := DefaultElevatorConfig()
	winch := &fakeWinch{}
	e, err := NewElevator(winch, cfg, 0)
	if err != nil {
		t.Fatalf("new elevator: %v", err)
	}

	out := e.Update(0.02)
	if math.Abs(out-cfg.GravityCompensation) > 1e-9 {
		t.Errorf("expected hold output %.2f, got %f", cfg.GravityCompensation, out)
	}
}

func TestElevatorBottomLimitResetsHeight(t *testing.T) {
	winch := &fakeWinch{height: 0.3, bottom: true}
	e, err := NewElevator(winch, DefaultElevatorConfig(), 0)
	if err != nil {
		t.Fatalf("new elevator: %v", err)
	}

	e.Update(0.02)
	if winch.resets != 1 || winch.height != 0 {
		t.Errorf("expected encoder reset at bottom, resets=%d height=%f", winch.resets, winch.height)
	}
}

func TestElevatorConfigValidate(t *testing.T) {
	cfg := DefaultElevatorConfig()
	cfg.Tolerance = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero tolerance")
	}
}

func TestElevatorOutputStaysWithinBounds(t *testing.T) {
	cfg := DefaultElevatorConfig()
	winch := &fakeWinch{}

	e, err := NewElevator(winch, cfg, 0)
	if err != nil {
		t.Fatalf("new elevator: %v", err)
	}
	if err := e.SetTarget(Scale, 0); err != nil {
		t.Fatalf("set target: %v", err)
	}

	// the winch never moves, so the error saturates the controller
	out := e.Update(5)
	if out != cfg.Bounds.Max {
		t.Errorf("expected output clamped to %f, got %f", cfg.Bounds.Max, out)
	}
	if winch.output != out {
		t.Errorf("winch got %f, update returned %f", winch.output, out)
	}
}
