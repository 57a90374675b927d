package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
	"github.com/iamthetwodigiter/rusty-rebase/internal/jobs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
	"github.com/iamthetwodigiter/rusty-rebase/internal/tui"
)

// hostless is the descriptor for runs that never consult the host.
var hostless = host.Descriptor{Manager: host.NewManager(host.Unknown, nil)}

// watcher is the runner surface the progress loops need.
type watcher interface {
	Drain() []progress.Event
	Cancel() bool
	Ready() <-chan struct{}
	Wait()
}

var _ watcher = (*jobs.Runner)(nil)

func nonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// watch follows the active run to its Finished event, through the TUI when
// stdout is a terminal, and returns the folded tracker.
func watch(cmd *cobra.Command, r watcher, operation string, keys []string) (*progress.Tracker, error) {
	out := cmd.OutOrStdout()
	if tui.DetectMode(out, plainOutput) == tui.ModeTUI {
		return watchTUI(out, r, operation, keys)
	}
	tr := progress.NewTracker(operation, len(keys))
	if err := watchPlain(commandContext(cmd), out, r, tr); err != nil {
		return nil, err
	}
	printSummary(out, tr)
	return tr, nil
}

func watchTUI(out io.Writer, r watcher, operation string, keys []string) (*progress.Tracker, error) {
	m, err := tui.Run(out, tui.NewProgressModel(r, operation, keys))
	if err != nil {
		r.Cancel()
		r.Wait()
		return nil, err
	}
	tr := m.Tracker()
	if !m.Done() {
		// Left early with ctrl+c; let the worker unwind and fold the tail.
		r.Wait()
		tr.ApplyAll(r.Drain())
	}
	printSummary(out, tr)
	return tr, nil
}

// watchPlain prints every new transcript line as it is drained. An interrupt
// cancels the run; the loop still waits for Finished.
func watchPlain(ctx context.Context, out io.Writer, r watcher, tr *progress.Tracker) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	interrupt := ctx.Done()
	printed := 0
	for {
		select {
		case <-r.Ready():
		case <-interrupt:
			interrupt = nil
			if r.Cancel() {
				fmt.Fprintln(out, "cancelling after the current step...")
			}
		}

		for _, ev := range r.Drain() {
			if p, ok := ev.(progress.Progress); ok && p.Key != "" {
				fmt.Fprintf(out, "==> %s: %s\n", p.Key, p.Phase)
			}
			tr.Apply(ev)
		}
		for _, line := range tr.Lines[printed:] {
			fmt.Fprintln(out, line)
		}
		printed = len(tr.Lines)

		if tr.Finished {
			return nil
		}
	}
}

func printSummary(out io.Writer, tr *progress.Tracker) {
	fmt.Fprintf(out, "%s finished: %d succeeded, %d failed, %d skipped\n",
		tr.Operation, tr.Succeeded, tr.Failed, tr.Skipped)
}
