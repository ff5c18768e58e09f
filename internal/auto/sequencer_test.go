package auto_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/multierr"

	"github.com/san-kum/motionctl/internal/auto"
	"github.com/san-kum/motionctl/internal/control"
	"github.com/san-kum/motionctl/internal/drive"
	"github.com/san-kum/motionctl/internal/mechanism"
	"github.com/san-kum/motionctl/internal/motion"
)

const tick = 0.02

// plant is a kinematic drivetrain: full forward command is 1 m/s and full
// rotation command is 2 rad/s.
type plant struct {
	distance, velocity, orientation float64
	forward, rotation               float64
	frozen                          bool
}

func (p *plant) LinearDistance() float64 { return p.distance }
func (p *plant) LinearVelocity() float64 { return p.velocity }
func (p *plant) Orientation() float64    { return p.orientation }

func (p *plant) ArcadeDrive(forward, rotation float64) {
	p.forward, p.rotation = forward, rotation
}

func (p *plant) step(dt float64) {
	if p.frozen {
		return
	}
	p.velocity = p.forward
	p.distance += p.forward * dt
	p.orientation += p.rotation * 2 * dt
}

type effector struct{ calls int }

func (e *effector) Outtake() { e.calls++ }

// lift settles on the poll after settleAfter unsettled ones.
type lift struct {
	targets     []mechanism.Level
	settleAfter int
	polls       int
}

func (l *lift) SetTarget(level mechanism.Level, now float64) error {
	l.targets = append(l.targets, level)
	return nil
}

func (l *lift) Settled(now float64) bool {
	l.polls++
	return l.polls > l.settleAfter
}

type brokenGyro struct{ *drive.Drivetrain }

func (brokenGyro) RotateTask(float64, float64) (*drive.ProfiledTask, error) {
	return nil, errors.New("gyro offline")
}

func newDrivetrain(p *plant) *drive.Drivetrain {
	linear := drive.AxisConfig{
		Limits:    motion.Limits{MaxVelocity: 0.5, MaxAccel: 0.5, MaxDecel: 1.0},
		Gains:     control.Gains{P: 1.5, VelFF: 1},
		Bounds:    control.Symmetric(0.8),
		Tolerance: 0.01,
	}
	angular := drive.AxisConfig{
		Limits:    motion.Limits{MaxVelocity: 1.5, MaxAccel: 0.75, MaxDecel: 1.0},
		Gains:     control.Gains{P: 2, VelFF: 0.5},
		Bounds:    control.Symmetric(1),
		Tolerance: 0.01,
	}
	d, err := drive.NewDrivetrain(p, p, linear, angular)
	Expect(err).NotTo(HaveOccurred())
	return d
}

// run ticks the sequencer until seconds have passed, calling each after
// every Update and before the plant moves.
func run(seq *auto.Sequencer, p *plant, from, seconds float64, each func(now float64)) float64 {
	now := from
	for now < from+seconds {
		seq.Update(now)
		if each != nil {
			each(now)
		}
		p.step(tick)
		now += tick
	}
	return now
}

var _ = Describe("Sequencer", func() {
	var (
		p   *plant
		eff *effector
		lft *lift
	)

	BeforeEach(func() {
		p = &plant{}
		eff = &effector{}
		lft = &lift{}
	})

	newSequencer := func(name string, d auto.Drivetrain) *auto.Sequencer {
		r, err := auto.ParseRoutine(name)
		Expect(err).NotTo(HaveOccurred())
		seq, err := auto.New(r, d, auto.WithEffector(eff), auto.WithLift(lft))
		Expect(err).NotTo(HaveOccurred())
		return seq
	}

	Context("center-switch", func() {
		It("enters every state once and finishes with neutral commands", func() {
			seq := newSequencer(auto.RoutineCenterSwitch, newDrivetrain(p))

			now := run(seq, p, 0, 40, nil)

			Expect(seq.Done()).To(BeTrue())
			Expect(seq.History()).To(Equal([]string{"FORWARD", "TURN", "TO_TARGET", "EJECT", "REVERSE", auto.StateDone}))

			p.forward, p.rotation = 0.3, -0.3
			Expect(seq.Update(now)).To(BeTrue())
			Expect(p.forward).To(BeZero())
			Expect(p.rotation).To(BeZero())
			Expect(seq.History()).To(HaveLen(6))
		})

		It("raises the elevator once on entering TURN", func() {
			seq := newSequencer(auto.RoutineCenterSwitch, newDrivetrain(p))

			var stateAtRetarget string
			run(seq, p, 0, 40, func(float64) {
				if len(lft.targets) == 1 && stateAtRetarget == "" {
					stateAtRetarget = seq.State()
				}
			})

			Expect(lft.targets).To(Equal([]mechanism.Level{mechanism.Switch}))
			Expect(stateAtRetarget).To(Equal("TURN"))
		})

		It("ejects for the configured duration", func() {
			seq := newSequencer(auto.RoutineCenterSwitch, newDrivetrain(p))

			run(seq, p, 0, 40, nil)

			Expect(eff.calls).To(BeNumerically(">=", 49))
			Expect(eff.calls).To(BeNumerically("<=", 52))
		})

		It("seeds each drive task from the live reading", func() {
			seq := newSequencer(auto.RoutineCenterSwitch, newDrivetrain(p))

			checked := map[string]bool{}
			run(seq, p, 0, 40, func(float64) {
				state := seq.State()
				if checked[state] {
					return
				}
				if task, ok := seq.Task(); ok && task.Axis() == drive.Linear {
					checked[state] = true
					Expect(task.StartValue()).To(Equal(p.distance))
					Expect(task.Profile().StartPosition()).To(Equal(p.distance))
				}
			})

			Expect(checked).To(HaveKey("FORWARD"))
			Expect(checked).To(HaveKey("TO_TARGET"))
			Expect(checked).To(HaveKey("REVERSE"))
		})

		It("ends near the expected odometry", func() {
			seq := newSequencer(auto.RoutineCenterSwitch, newDrivetrain(p))

			run(seq, p, 0, 40, nil)

			Expect(p.distance).To(BeNumerically("~", 1.5+1.2-0.8, 0.05))
			Expect(p.orientation).To(BeNumerically("~", 40*math.Pi/180, 0.02))
		})
	})

	Context("center-switch-two-turn", func() {
		It("turns out and back before scoring", func() {
			seq := newSequencer(auto.RoutineCenterSwitchTwoTurn, newDrivetrain(p))

			run(seq, p, 0, 60, nil)

			Expect(seq.History()).To(Equal([]string{"FORWARD", "TURN", "CROSS", "TURN_BACK", "TO_TARGET", "EJECT", "REVERSE", auto.StateDone}))
			Expect(p.orientation).To(BeNumerically("~", 0, 0.02))
		})
	})

	Context("elevator step", func() {
		raise := func(wait *bool) *auto.Sequencer {
			r := auto.Routine{Name: "raise", Steps: []auto.Step{
				{Name: "RAISE", Action: auto.ActionElevator, Elevator: "scale", Wait: wait},
			}}
			seq, err := auto.New(r, newDrivetrain(p), auto.WithLift(lft))
			Expect(err).NotTo(HaveOccurred())
			return seq
		}

		It("holds the drivetrain until the lift settles", func() {
			lft.settleAfter = 5
			seq := raise(nil)

			for i := 0; i < 5; i++ {
				p.forward = 0.3
				Expect(seq.Update(float64(i) * tick)).To(BeFalse())
				Expect(seq.State()).To(Equal("RAISE"))
				Expect(p.forward).To(BeZero())
			}
			Expect(seq.Update(5 * tick)).To(BeTrue())

			Expect(seq.History()).To(Equal([]string{"RAISE", auto.StateDone}))
			Expect(lft.targets).To(Equal([]mechanism.Level{mechanism.Scale}))
		})

		It("moves on after one tick when told not to wait", func() {
			lft.settleAfter = 100
			noWait := false
			seq := raise(&noWait)

			Expect(seq.Update(0)).To(BeTrue())
			Expect(seq.History()).To(Equal([]string{"RAISE", auto.StateDone}))
			Expect(lft.targets).To(Equal([]mechanism.Level{mechanism.Scale}))
			Expect(lft.polls).To(BeZero())
		})
	})

	Context("forward", func() {
		It("drives at half speed for two seconds", func() {
			seq := newSequencer(auto.RoutineForward, newDrivetrain(p))

			var driving []float64
			run(seq, p, 0, 5, func(float64) {
				if seq.State() == "FORWARD" {
					driving = append(driving, p.forward)
				}
			})

			Expect(driving).NotTo(BeEmpty())
			for _, f := range driving {
				Expect(f).To(Equal(0.5))
			}
			Expect(seq.Done()).To(BeTrue())
			Expect(p.forward).To(BeZero())
			Expect(p.distance).To(BeNumerically("~", 1.0, 0.05))
		})
	})

	Context("none", func() {
		It("is done on the first tick", func() {
			seq := newSequencer(auto.RoutineNone, newDrivetrain(p))

			Expect(seq.State()).To(Equal(auto.StateIdle))
			Expect(seq.Update(0)).To(BeTrue())
			Expect(seq.History()).To(Equal([]string{auto.StateDone}))
		})
	})

	Context("with frozen sensors", func() {
		It("keeps commanding without completing", func() {
			p.frozen = true
			seq := newSequencer(auto.RoutineCenterSwitch, newDrivetrain(p))

			run(seq, p, 0, 20, func(float64) {
				Expect(math.Abs(p.forward)).To(BeNumerically("<=", 0.8))
			})

			Expect(seq.State()).To(Equal("FORWARD"))
			Expect(seq.History()).To(Equal([]string{"FORWARD"}))
		})
	})

	Context("when a task cannot be built", func() {
		It("skips the state and continues", func() {
			seq := newSequencer(auto.RoutineCenterSwitch, brokenGyro{newDrivetrain(p)})

			run(seq, p, 0, 40, nil)

			Expect(seq.Done()).To(BeTrue())
			Expect(seq.History()).To(ContainElement("TURN"))
			Expect(p.orientation).To(BeZero())
		})
	})

	Context("validation", func() {
		It("requires an end effector for ejecting routines", func() {
			r, err := auto.ParseRoutine(auto.RoutineCenterSwitch)
			Expect(err).NotTo(HaveOccurred())

			_, err = auto.New(r, newDrivetrain(p), auto.WithLift(lft))
			Expect(err).To(HaveOccurred())
		})

		It("requires a lift for routines that move the elevator", func() {
			r, err := auto.ParseRoutine(auto.RoutineCenterSwitch)
			Expect(err).NotTo(HaveOccurred())

			_, err = auto.New(r, newDrivetrain(p), auto.WithEffector(eff))
			Expect(err).To(HaveOccurred())
		})

		It("reports every invalid step", func() {
			r := auto.Routine{
				Name: "broken",
				Steps: []auto.Step{
					{Name: "A", Action: auto.ActionDrive, Value: 1},
					{Name: "A", Action: auto.ActionDrive, Value: 1},
					{Name: "B", Action: auto.ActionWait},
					{Name: "C", Action: "fly"},
				},
			}

			err := r.Validate()
			Expect(err).To(HaveOccurred())
			Expect(multierr.Errors(err)).To(HaveLen(3))
		})
	})
})

var _ = Describe("ParseRoutine", func() {
	It("resolves built-in routines", func() {
		for _, name := range []string{auto.RoutineNone, auto.RoutineForward, auto.RoutineCenterSwitch, auto.RoutineCenterSwitchTwoTurn} {
			r, err := auto.ParseRoutine(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Name).To(Equal(name))
		}
	})

	It("prefers custom routines", func() {
		custom := auto.Routine{Name: "forward", Steps: []auto.Step{{Name: "WAIT", Action: auto.ActionWait, Duration: 1}}}

		r, err := auto.ParseRoutine("FORWARD", custom)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Steps).To(HaveLen(1))
		Expect(r.Steps[0].Action).To(Equal(auto.ActionWait))
	})

	It("rejects unknown names", func() {
		_, err := auto.ParseRoutine("moonwalk")
		Expect(err).To(MatchError(auto.ErrUnknownRoutine))
	})

	It("lists routines sorted", func() {
		Expect(auto.Names()).To(Equal([]string{"center-switch", "center-switch-two-turn", "forward", "none"}))
	})
})
