package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the explorer screen.
type Styles struct {
	Title        lipgloss.Style
	Section      lipgloss.Style
	FocusedBox   lipgloss.Style
	BlurredBox   lipgloss.Style
	Success      lipgloss.Style
	Error        lipgloss.Style
	Muted        lipgloss.Style
	SelectorItem lipgloss.Style
	SelectorPick lipgloss.Style
}

func DefaultStyles() Styles {
	var (
		primary = lipgloss.Color("12")
		success = lipgloss.Color("10")
		failure = lipgloss.Color("9")
		muted   = lipgloss.Color("8")
	)

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Padding(0, 1),
		Section: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),
		FocusedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1),
		BlurredBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		Success: lipgloss.NewStyle().Foreground(success),
		Error:   lipgloss.NewStyle().Foreground(failure),
		Muted:   lipgloss.NewStyle().Foreground(muted),
		SelectorItem: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		SelectorPick: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Padding(0, 1),
	}
}
