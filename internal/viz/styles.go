package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(48)
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type palette struct {
	title, label, value, path, good, warning, bad lipgloss.Style
}

func newPalette(t Theme) palette {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return palette{
		title:   fg(t.Title).Bold(true).MarginBottom(1),
		label:   fg(t.Label).Width(12),
		value:   fg(t.Value),
		path:    fg(t.Path),
		good:    fg(t.Good).Bold(true),
		warning: fg(t.Warning).Bold(true),
		bad:     fg(t.Bad).Bold(true),
	}
}

// ProgressBar renders done out of total as a bar of the given width.
func ProgressBar(done, total, width int, p palette) string {
	if total <= 0 {
		total = 1
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if filled == width {
		return p.good.Render(bar)
	}
	return p.warning.Render(bar)
}

// Sparkline renders values on an eight-level scale, keeping the newest
// width values.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[max(0, min(idx, len(chars)-1))])
	}
	return b.String()
}
