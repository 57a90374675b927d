package tui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	LogStyle    = lipgloss.NewStyle().Faint(true)
	HelpStyle   = lipgloss.NewStyle().Faint(true).Italic(true)
	SpeedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	statusStyles = map[string]lipgloss.Style{
		"done": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		"preparing":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"resolving":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"installing":  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"downloading": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"restoring":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		"skipped":   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"cancelled": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),

		"failed": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		"pending": lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for a row status.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
