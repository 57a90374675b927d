package progress

import (
	"fmt"
	"time"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
)

// Operation names shown in headers.
const (
	OpResolve = "Resolve"
	OpInstall = "Install"
	OpRestore = "Restore"
)

// Tracker folds events into counters for display. It never influences the
// worker.
type Tracker struct {
	Operation string
	Current   string
	Phase     string
	Speed     string
	SubRatio  float64

	Total     int
	Done      int
	Succeeded int
	Failed    int
	Skipped   int
	ETA       string
	Finished  bool

	DoneItems []string
	Lines     []string
	// Assets collects resolved assets by key.
	Assets map[string]string

	start time.Time
	now   func() time.Time
}

// NewTracker starts a tracker for total items.
func NewTracker(operation string, total int) *Tracker {
	return newTracker(operation, total, time.Now)
}

func newTracker(operation string, total int, now func() time.Time) *Tracker {
	return &Tracker{
		Operation: operation,
		Total:     total,
		Assets:    make(map[string]string),
		start:     now(),
		now:       now,
	}
}

// Apply folds one event into the tracker.
func (t *Tracker) Apply(ev Event) {
	switch e := ev.(type) {
	case Progress:
		if e.Key != "" {
			t.Current = e.Key
		}
		t.Phase = e.Phase
		t.Speed = e.Speed
	case SubProgress:
		t.SubRatio = e.Ratio
	case Log:
		t.Lines = append(t.Lines, e.Line)
	case Done:
		t.applyDone(e)
	case Finished:
		t.Finished = true
		t.ETA = ""
		t.Skipped += max(t.Total-t.Done, 0)
	}
}

// ApplyAll folds a drained batch.
func (t *Tracker) ApplyAll(events []Event) {
	for _, ev := range events {
		t.Apply(ev)
	}
}

func (t *Tracker) applyDone(e Done) {
	t.DoneItems = append(t.DoneItems, e.Key)
	switch {
	case e.Err == nil:
		t.Succeeded++
		if e.Asset != nil {
			t.Assets[e.Key] = e.Asset.Version
		}
		switch {
		case t.Operation == OpResolve && e.Asset != nil:
			t.Lines = append(t.Lines, fmt.Sprintf("[done] Resolved %s to %s", e.Key, e.Asset.Version))
		case t.Operation != OpResolve:
			t.Lines = append(t.Lines, fmt.Sprintf("[done] %s", e.Key))
		}
	case errs.IsCancelled(e.Err):
		t.Skipped++
		t.Lines = append(t.Lines, fmt.Sprintf("[cancelled] %s: %v", e.Key, e.Err))
	default:
		t.Failed++
		t.Lines = append(t.Lines, fmt.Sprintf("[error] %s failed: %v", e.Key, e.Err))
	}
	t.Done++
	t.SubRatio = 0
	t.ETA = FormatETA(t.estimate())
}

func (t *Tracker) estimate() time.Duration {
	if t.Done == 0 {
		return 0
	}
	elapsed := t.now().Sub(t.start)
	remaining := max(t.Total-t.Done, 0)
	return time.Duration(float64(elapsed) / float64(t.Done) * float64(remaining))
}

// FormatETA renders d as "~Xm Ys", "~Xs" or "finishing..." under a second.
func FormatETA(d time.Duration) string {
	secs := int(d / time.Second)
	if secs <= 0 {
		return "finishing..."
	}
	if mins := secs / 60; mins > 0 {
		return fmt.Sprintf("~%dm %ds", mins, secs%60)
	}
	return fmt.Sprintf("~%ds", secs)
}

// Ratio is the overall completion in [0, 1].
func (t *Tracker) Ratio() float64 {
	if t.Total == 0 {
		return 0
	}
	r := (float64(t.Done) + t.SubRatio) / float64(t.Total)
	return min(r, 1)
}
