package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("212")
	muted   = lipgloss.Color("241")
	danger  = lipgloss.Color("196")
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(40)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(primary).
			Padding(1, 2).
			Width(44)

	dialogClosingStyle = dialogStyle.
				BorderForeground(muted).
				Foreground(muted)

	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(muted)
	errorStyle = lipgloss.NewStyle().Foreground(danger)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(primary).
			Bold(true).
			Padding(0, 2)

	buttonDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("238")).
				Padding(0, 2)
)
