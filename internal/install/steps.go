// Package install runs an item's setup steps and downloads and unpacks its
// artifact.
package install

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
	"github.com/iamthetwodigiter/rusty-rebase/internal/logx"
	"github.com/iamthetwodigiter/rusty-rebase/internal/paths"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
)

// InstallRootPlaceholder is replaced by the item's install directory in
// path hints.
const InstallRootPlaceholder = "<install_root>"

// Executor runs setup steps in declaration order.
type Executor struct {
	Host   host.Descriptor
	Runner Runner
	DryRun bool
}

// Run executes every step of spec. Cancellation is checked before each step
// and aborts the item; steps already applied are not undone.
func (e *Executor) Run(ctx context.Context, spec catalog.Spec, rec *progress.Recorder) error {
	logger := logx.Get("install")
	for i, step := range spec.Steps {
		if err := ctx.Err(); err != nil {
			return errs.Cancelled(err)
		}
		logger.Debug().Str("software", spec.DisplayName).Int("step", i).Str("kind", step.Kind()).Msg("setup step")

		var err error
		switch s := step.(type) {
		case catalog.PackageStep:
			err = e.runPackage(ctx, s, rec)
		case catalog.PathHintStep:
			err = e.runPathHint(spec, s, rec)
		case catalog.NoteStep:
			rec.Logf("note: %s", s.Value)
		case catalog.ShellStep:
			err = e.runShell(ctx, s, rec)
		default:
			err = errs.Newf(errs.CodeExecution, "unsupported setup step %T", step)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) runPackage(ctx context.Context, step catalog.PackageStep, rec *progress.Recorder) error {
	var (
		cmd string
		ok  bool
	)
	if e.Host.Manager != nil {
		cmd, ok = e.Host.Manager.InstallCommand(step.Packages)
	}
	if !ok {
		rec.Logf("package manager unknown, skipped package setup step")
		return nil
	}
	if e.DryRun {
		rec.Logf("[dry-run] %s", cmd)
		return nil
	}
	rec.Logf("running: %s", cmd)
	code, err := e.Runner.Run(ctx, cmd, rec)
	if err != nil {
		return err
	}
	rec.Logf("package install exit status: %d", code)
	return nil
}

func (e *Executor) runShell(ctx context.Context, step catalog.ShellStep, rec *progress.Recorder) error {
	cmd := e.Host.Arch.Expand(step.Command)
	if e.DryRun {
		rec.Logf("[dry-run] shell: %s", cmd)
		return nil
	}
	rec.Logf("running shell: %s", cmd)
	code, err := e.Runner.Run(ctx, cmd, rec)
	if err != nil {
		return err
	}
	rec.Logf("shell command exit status: %d", code)
	return nil
}

func (e *Executor) runPathHint(spec catalog.Spec, step catalog.PathHintStep, rec *progress.Recorder) error {
	root, err := paths.InstallRoot(spec.InstallDir)
	if err != nil {
		return errs.Wrap(err, errs.CodeExecution, "failed to resolve install root")
	}
	dir := strings.ReplaceAll(step.Value, InstallRootPlaceholder, root)

	profile, err := ProfileFor(os.Getenv("SHELL"))
	if err != nil {
		return errs.Wrap(err, errs.CodeExecution, "failed to locate shell profile")
	}
	line := profile.ExportLine(dir)

	if e.DryRun {
		rec.Logf("[dry-run] append to %s: %s", profile.Path, line)
		return nil
	}
	added, err := AppendOnce(profile.Path, line)
	if err != nil {
		// Profile edits are advisory; the item still completes.
		rec.Logf("failed to update profile %s: %v", profile.Path, err)
		return nil
	}
	if added {
		rec.Logf("added %s to %s", dir, profile.Path)
	} else {
		rec.Logf("path already configured in %s", profile.Path)
	}
	return nil
}

// Summary is a one-line description of the step for listings.
func Summary(step catalog.Step) string {
	switch s := step.(type) {
	case catalog.PackageStep:
		return "package: " + strings.Join(s.Packages, " ")
	case catalog.PathHintStep:
		return "path: " + s.Value
	case catalog.NoteStep:
		return "note: " + s.Value
	case catalog.ShellStep:
		return "shell: " + s.Command
	default:
		return fmt.Sprintf("unknown step %T", step)
	}
}
