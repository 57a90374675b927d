package tui

import (
	"fmt"
	"strings"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
)

const (
	tickInterval = 100 * time.Millisecond
	marqueeGap   = "   "
	barWidth     = 30
	logTail      = 8
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// tickMsg drives the queue drain and the spinner.
type tickMsg time.Time

// Source is the run the model observes. Drain must not block.
type Source interface {
	Drain() []progress.Event
	Cancel() bool
}

type row struct {
	key     string
	status  string
	version string
}

// ProgressModel renders one run. Every tick it drains the source, folds the
// events into a Tracker and redraws; it never waits on the worker.
type ProgressModel struct {
	source  Source
	tracker *progress.Tracker
	bar     bprogress.Model

	rows     []row
	rowIndex map[string]int
	current  string

	cancelRequested bool
	aborted         bool
	done            bool

	tick int
}

// NewProgressModel creates a model for operation over keys, in run order.
func NewProgressModel(source Source, operation string, keys []string) ProgressModel {
	m := ProgressModel{
		source:   source,
		tracker:  progress.NewTracker(operation, len(keys)),
		bar:      bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithWidth(barWidth), bprogress.WithoutPercentage()),
		rowIndex: make(map[string]int, len(keys)),
	}
	for _, k := range keys {
		m.rowIndex[k] = len(m.rows)
		m.rows = append(m.rows, row{key: k, status: "pending", version: "-"})
	}
	return m
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init satisfies the tea.Model interface.
func (m ProgressModel) Init() tea.Cmd {
	return scheduleTick()
}

// Update satisfies the tea.Model interface.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		m.apply(m.source.Drain())
		if m.tracker.Finished {
			m.done = true
			return m, tea.Quit
		}
		return m, scheduleTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			if m.done {
				return m, tea.Quit
			}
			if m.source.Cancel() {
				m.cancelRequested = true
			}
			return m, nil
		case "ctrl+c":
			m.source.Cancel()
			m.cancelRequested = true
			m.aborted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *ProgressModel) apply(events []progress.Event) {
	for _, ev := range events {
		m.tracker.Apply(ev)
		switch e := ev.(type) {
		case progress.Progress:
			if e.Key != "" {
				m.current = e.Key
			}
			m.setStatus(m.current, phaseStatus(e.Phase))
		case progress.Done:
			m.applyDone(e)
		case progress.Finished:
			for i := range m.rows {
				if m.rows[i].status == "pending" {
					m.rows[i].status = "skipped"
				}
			}
			m.current = ""
		}
	}
}

func (m *ProgressModel) applyDone(e progress.Done) {
	status := "done"
	switch {
	case errs.IsCancelled(e.Err):
		status = "cancelled"
	case e.Err != nil:
		status = "failed"
	}
	m.setStatus(e.Key, status)
	if idx, ok := m.rowIndex[e.Key]; ok && e.Asset != nil {
		m.rows[idx].version = e.Asset.Version
	}
}

func (m *ProgressModel) setStatus(key, status string) {
	if idx, ok := m.rowIndex[key]; ok {
		m.rows[idx].status = status
	}
}

// phaseStatus maps "Downloading (1.0/2.0 MB)" to "downloading".
func phaseStatus(phase string) string {
	fields := strings.Fields(phase)
	if len(fields) == 0 {
		return "working"
	}
	return strings.ToLower(fields[0])
}

// View satisfies the tea.Model interface.
func (m ProgressModel) View() string {
	t := m.tracker
	var b strings.Builder

	header := fmt.Sprintf("%s  %d/%d", t.Operation, t.Done, t.Total)
	if t.ETA != "" {
		header += "  ETA " + t.ETA
	}
	b.WriteString(TitleStyle.Render(header))
	b.WriteString("\n\n")

	keyWidth := len("ITEM")
	for _, r := range m.rows {
		keyWidth = max(keyWidth, len(r.key))
	}
	b.WriteString(HeaderStyle.Render(pad("ITEM", keyWidth) + "  " + pad("STATUS", 12) + "  VERSION"))
	b.WriteByte('\n')
	for _, r := range m.rows {
		version := TruncateWithEllipsis(r.version, 24)
		fmt.Fprintf(&b, "%s  %s  %s\n", pad(r.key, keyWidth), StatusStyle(r.status).Render(pad(r.status, 12)), version)
	}
	b.WriteByte('\n')

	if !m.done {
		spinner := spinnerFrames[m.tick%len(spinnerFrames)]
		phase := marqueeText(t.Phase, 40, m.tick)
		fmt.Fprintf(&b, "%s %s %3.0f%%  %s", spinner, m.bar.ViewAs(t.Ratio()), t.Ratio()*100, phase)
		if t.Speed != "" {
			b.WriteString("  " + SpeedStyle.Render(t.Speed))
		}
		b.WriteByte('\n')
	}

	lines := t.Lines
	if len(lines) > logTail {
		lines = lines[len(lines)-logTail:]
	}
	for _, l := range lines {
		b.WriteString(LogStyle.Render(l))
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\n%s  %s  %s\n",
		StatusStyle("done").Render(fmt.Sprintf("%d succeeded", t.Succeeded)),
		StatusStyle("failed").Render(fmt.Sprintf("%d failed", t.Failed)),
		StatusStyle("skipped").Render(fmt.Sprintf("%d skipped", t.Skipped)))

	switch {
	case m.done:
	case m.cancelRequested:
		b.WriteString(HelpStyle.Render("cancelling after the current step..."))
		b.WriteByte('\n')
	default:
		b.WriteString(HelpStyle.Render("q cancel • ctrl+c abort"))
		b.WriteByte('\n')
	}
	return b.String()
}

// Tracker returns the counters folded so far.
func (m ProgressModel) Tracker() *progress.Tracker {
	return m.tracker
}

// Done reports whether the run's Finished event was observed.
func (m ProgressModel) Done() bool {
	return m.done
}

// Aborted reports whether the user left the view with ctrl+c.
func (m ProgressModel) Aborted() bool {
	return m.aborted
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// marqueeText renders a scrolling window over text wider than width.
func marqueeText(text string, width, tick int) string {
	text = strings.TrimSpace(text)
	if width <= 0 {
		return ""
	}
	if len(text) <= width {
		return text
	}
	cycle := text + marqueeGap
	offset := tick % len(cycle)
	var out strings.Builder
	out.Grow(width)
	for i := 0; i < width; i++ {
		out.WriteByte(cycle[(offset+i)%len(cycle)])
	}
	return out.String()
}

// TruncateWithEllipsis truncates value to max bytes, ending in "..." when cut.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
