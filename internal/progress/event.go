// Package progress carries worker-to-caller events and the caller-side
// bookkeeping derived from them.
package progress

import (
	"fmt"

	"github.com/iamthetwodigiter/rusty-rebase/internal/resolve"
)

// Event is one of Progress, SubProgress, Log, Done or Finished.
type Event interface {
	isEvent()
}

// Progress reports the phase of the current item. Key is empty for phase
// updates within the current item, such as download byte counts.
type Progress struct {
	Key   string
	Phase string
	Speed string
}

// SubProgress is the completion ratio of the current item, in [0, 1].
type SubProgress struct {
	Ratio float64
}

// Log is one line of user-facing output.
type Log struct {
	Line string
}

// Done ends one item. Logs is the item's transcript, already streamed as Log
// events. Err is nil on success; Asset is set by resolution runs.
type Done struct {
	Key   string
	Logs  []string
	Err   error
	Asset *resolve.Asset
}

// Finished is always the last event of a run.
type Finished struct{}

func (Progress) isEvent()    {}
func (SubProgress) isEvent() {}
func (Log) isEvent()         {}
func (Done) isEvent()        {}
func (Finished) isEvent()    {}

// Emitter receives events from a worker. Emit must not block.
type Emitter interface {
	Emit(Event)
}

// Discard drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// Recorder collects log lines emitted through it and forwards every event.
type Recorder struct {
	Next  Emitter
	Lines []string
}

// Emit forwards ev and keeps a copy of Log lines.
func (r *Recorder) Emit(ev Event) {
	if l, ok := ev.(Log); ok {
		r.Lines = append(r.Lines, l.Line)
	}
	if r.Next != nil {
		r.Next.Emit(ev)
	}
}

// Logf emits a formatted log line.
func (r *Recorder) Logf(format string, args ...any) {
	r.Emit(Log{Line: fmt.Sprintf(format, args...)})
}

