package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows model until the run finishes or the user aborts, and returns the
// final model so the caller can read its tracker.
func Run(out io.Writer, model ProgressModel) (ProgressModel, error) {
	p := tea.NewProgram(model, tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return model, err
	}
	if m, ok := final.(ProgressModel); ok {
		return m, nil
	}
	return model, nil
}
