package viz

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name   string
	Body   lipgloss.Color
	Star   lipgloss.Color
	Label  lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Accent lipgloss.Color
	Alert  lipgloss.Color
}

var (
	ThemeNight = Theme{
		Name:   "night",
		Body:   lipgloss.Color("#00ffff"),
		Star:   lipgloss.Color("#ffd700"),
		Label:  lipgloss.Color("#ff00ff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#666666"),
		Accent: lipgloss.Color("86"),
		Alert:  lipgloss.Color("#ff4444"),
	}

	ThemePhosphor = Theme{
		Name:   "phosphor",
		Body:   lipgloss.Color("#00ff00"),
		Star:   lipgloss.Color("#88ff88"),
		Label:  lipgloss.Color("#00cc00"),
		Text:   lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#005500"),
		Accent: lipgloss.Color("#88ff88"),
		Alert:  lipgloss.Color("#ffff00"),
	}

	ThemePaper = Theme{
		Name:   "paper",
		Body:   lipgloss.Color("#ffffff"),
		Star:   lipgloss.Color("#cccccc"),
		Label:  lipgloss.Color("#0088ff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
		Accent: lipgloss.Color("#0088ff"),
		Alert:  lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeNight, ThemePhosphor, ThemePaper}
)

// GetTheme returns a theme by name, falling back to night.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeNight
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeNight
}

type styles struct {
	canvas lipgloss.Style
	stats  lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	status lipgloss.Style
	alert  lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style
}

func (t Theme) styles() styles {
	return styles{
		canvas: lipgloss.NewStyle().Foreground(t.Body).Padding(1, 2),
		stats:  lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(40),
		header: lipgloss.NewStyle().Foreground(t.Accent).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		status: lipgloss.NewStyle().Foreground(t.Star).Bold(true),
		alert:  lipgloss.NewStyle().Foreground(t.Alert).Bold(true),
		graph:  lipgloss.NewStyle().Foreground(t.Label).Padding(1, 0),
		help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
	}
}
