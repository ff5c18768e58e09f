package viz

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name    string
	Path    lipgloss.Color
	Title   lipgloss.Color
	Label   lipgloss.Color
	Value   lipgloss.Color
	Good    lipgloss.Color
	Warning lipgloss.Color
	Bad     lipgloss.Color
}

var (
	ThemeField = Theme{
		Name:    "field",
		Path:    lipgloss.Color("#00ffff"),
		Title:   lipgloss.Color("86"),
		Label:   lipgloss.Color("245"),
		Value:   lipgloss.Color("252"),
		Good:    lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Bad:     lipgloss.Color("#ff4444"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Path:    lipgloss.Color("#00ff00"),
		Title:   lipgloss.Color("#88ff88"),
		Label:   lipgloss.Color("#00cc00"),
		Value:   lipgloss.Color("#00ff00"),
		Good:    lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Bad:     lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Path:    lipgloss.Color("#ffffff"),
		Title:   lipgloss.Color("#ffffff"),
		Label:   lipgloss.Color("#888888"),
		Value:   lipgloss.Color("#cccccc"),
		Good:    lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Bad:     lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeField, ThemeRetroGreen, ThemeMinimal}
)

func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeField
}

// Next returns the theme after t, wrapping around.
func (t Theme) Next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeField
}
