package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/motionctl/internal/dynamo"
	"github.com/san-kum/motionctl/internal/sim"
)

const (
	width           = 60
	height          = 20
	fieldSpan       = 6.0
	historyCapacity = 600
	maxSpeed        = 16
)

type TickMsg time.Time

// Model steps a simulated routine in real time. Ticks per frame scale the
// playback speed; at one tick per frame and 60 fps a 20 ms tick plays at
// 1.2x real time.
type Model struct {
	runner *sim.Runner
	cfg    sim.Config
	title  string
	steps  int

	canvas   *Canvas
	theme    Theme
	samples  []dynamo.Sample
	tracking []float64
	last     dynamo.Sample

	running     bool
	speed       int
	completed   bool
	completedAt float64
	finished    bool
}

// NewModel wraps runner; steps is the routine length, shown as progress.
func NewModel(runner *sim.Runner, cfg sim.Config, title string, steps int) Model {
	return Model{
		runner:   runner,
		cfg:      cfg,
		title:    title,
		steps:    steps,
		canvas:   NewCanvas(width, height, fieldSpan),
		theme:    ThemeField,
		samples:  make([]dynamo.Sample, 0, historyCapacity),
		tracking: make([]float64, 0, historyCapacity),
		running:  true,
		speed:    1,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			if !m.running {
				m.step()
			}
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "t":
			m.theme = m.theme.Next()
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.speed && !m.finished; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	if m.finished {
		return
	}
	s, done := m.runner.Step(m.cfg.Tick)
	m.last = s

	m.samples = append(m.samples, s)
	if s.Tracking {
		m.tracking = append(m.tracking, s.TrackingError())
		if len(m.tracking) > historyCapacity {
			m.tracking = m.tracking[1:]
		}
	}

	if done && !m.completed {
		m.completed = true
		m.completedAt = s.Time
	}
	if (m.completed && s.Time >= m.completedAt+m.cfg.Linger) || s.Time >= m.cfg.Duration {
		m.finished = true
	}
}

// Samples returns every tick recorded so far.
func (m Model) Samples() []dynamo.Sample { return m.samples }

func (m Model) Finished() bool { return m.finished }

func (m Model) status(p palette) string {
	switch {
	case m.completed:
		return p.good.Render(fmt.Sprintf("DONE at %.2fs", m.completedAt))
	case m.finished:
		return p.bad.Render("TIMED OUT")
	case !m.running:
		return p.warning.Render("PAUSED")
	}
	return p.good.Render(fmt.Sprintf("RUNNING x%d", m.speed))
}

func (m Model) View() string {
	p := newPalette(m.theme)

	DrawPath(m.canvas, Trace(m.samples))
	canvasView := canvasStyle.Render(p.path.Render(m.canvas.String()))

	row := func(label, value string) string {
		return p.label.Render(label) + p.value.Render(value) + "\n"
	}

	var s strings.Builder
	s.WriteString(p.title.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status(p) + "\n\n")

	history := m.runner.Sequencer().History()
	visited := len(history)
	if visited > 0 && m.completed {
		visited--
	}
	s.WriteString(ProgressBar(visited, m.steps, 30, p) + "\n\n")

	s.WriteString(row("Time", fmt.Sprintf("%.2fs", m.last.Time)))
	s.WriteString(row("State", m.last.State))
	s.WriteString(row("Distance", fmt.Sprintf("%.3f m", m.last.Distance)))
	s.WriteString(row("Heading", fmt.Sprintf("%.1f°", m.last.Heading*180/math.Pi)))
	s.WriteString(row("Height", fmt.Sprintf("%.2f", m.last.Height)))
	s.WriteString(row("Output", fmt.Sprintf("fwd %+.2f rot %+.2f", m.last.Forward, m.last.Rotation)))
	if m.last.Tracking {
		s.WriteString(row("Error", fmt.Sprintf("%+.4f", m.last.TrackingError())))
	}

	if len(m.tracking) > 1 {
		chart := asciigraph.Plot(m.tracking, asciigraph.Height(4), asciigraph.Width(36), asciigraph.Caption("tracking error"))
		s.WriteString("\n" + chart + "\n")
	} else {
		s.WriteString("\n" + Sparkline(nil, 36) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause S:Step +/-:Speed T:Theme Q:Quit"))
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
