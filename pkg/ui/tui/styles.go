package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// palette holds the dashboard colors
type palette struct {
	accent, frame, good, caution, bad lipgloss.Color
	value, text, faint, canvas, panel lipgloss.Color
}

var dark = palette{
	accent:  "#00FFFF",
	frame:   "#FF00FF",
	good:    "#39FF14",
	caution: "#FF6700",
	bad:     "#FF0000",
	value:   "#FFFF00",
	text:    "#B0B0B0",
	faint:   "#626262",
	canvas:  "#0A0E27",
	panel:   "#1A1E37",
}

// theme is the set of styles the view draws with
type theme struct {
	colors palette

	canvas, header, panel, heading  lipgloss.Style
	label, value, text, faint, help lipgloss.Style
	ok, failed, paused              lipgloss.Style
	plenty, low, exhausted          lipgloss.Style
}

func newTheme(p palette) theme {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return theme{
		colors: p,

		canvas:  fg(p.text).Background(p.canvas),
		header:  fg(p.accent).Bold(true).Padding(1, 0).Align(lipgloss.Center),
		heading: fg(p.canvas).Background(p.frame).Bold(true).Padding(0, 1),

		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.frame).
			Background(p.panel).
			Padding(1, 2),

		label: fg(p.accent).Bold(true),
		value: fg(p.value),
		text:  fg(p.text),
		faint: fg(p.faint),
		help:  fg(p.faint).Padding(1, 0, 0, 2),

		ok:     fg(p.good).Bold(true),
		failed: fg(p.bad).Bold(true),
		paused: fg(p.caution).Bold(true),

		plenty:    fg(p.good),
		low:       fg(p.caution),
		exhausted: fg(p.bad),
	}
}

var th = newTheme(dark)

// quota picks the style for a remaining call count. At one call or less the
// gate starts waiting.
func (t theme) quota(remaining int) lipgloss.Style {
	switch {
	case remaining <= 1:
		return t.exhausted
	case remaining <= 10:
		return t.low
	}
	return t.plenty
}

// level picks the color of a log level tag
func (t theme) level(name string) lipgloss.Color {
	switch name {
	case "ERROR":
		return t.colors.bad
	case "WARN":
		return t.colors.caution
	case "SUCCESS":
		return t.colors.good
	case "INFO":
		return t.colors.accent
	}
	return t.colors.text
}
