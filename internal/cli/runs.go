package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/jobs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
	"github.com/iamthetwodigiter/rusty-rebase/internal/restore"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [key...]",
		Short: "Resolve the latest artifact for each item without installing it",
		RunE:  runResolve,
	}
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install [key...]",
		Short: "Install items (default: those enabled by default)",
		RunE:  runInstall,
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <manifest.json|backup-dir>",
		Short: "Restore a backup into its original location",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestore,
	}
}

type resolvedEntry struct {
	Key     string `json:"key"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}
	items, err := selectItems(cat, args)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	h, err := a.detectHost(ctx)
	if err != nil {
		return err
	}

	r := a.runner(h)
	if _, err := r.StartResolve(ctx, items); err != nil {
		return err
	}
	tr, err := watch(cmd, r, progress.OpResolve, itemKeys(items))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		entries := make([]resolvedEntry, 0, len(items))
		for _, it := range items {
			entries = append(entries, resolvedEntry{Key: it.Key, Version: tr.Assets[it.Key]})
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "%-16s %s\n", "Key", "Version")
		for _, it := range items {
			fmt.Fprintf(out, "%-16s %s\n", it.Key, nonEmptyOrDash(tr.Assets[it.Key]))
		}
	}
	return outcome(tr)
}

func runInstall(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}
	items, err := selectItems(cat, args)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	h, err := a.detectHost(ctx)
	if err != nil {
		return err
	}

	if a.dryRun {
		cmd.PrintErrln("dry run: commands are logged, nothing is changed")
	}
	r := a.runner(h)
	if _, err := r.StartInstall(ctx, items); err != nil {
		return err
	}
	tr, err := watch(cmd, r, progress.OpInstall, itemKeys(items))
	if err != nil {
		return err
	}
	return outcome(tr)
}

func runRestore(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	dir, err := restore.BackupDir(args[0])
	if err != nil {
		return err
	}

	r := a.runner(hostless)
	if _, err := r.StartRestore(commandContext(cmd), dir); err != nil {
		return err
	}
	tr, err := watch(cmd, r, progress.OpRestore, []string{jobs.RestoreKey})
	if err != nil {
		return err
	}
	return outcome(tr)
}

// outcome turns the tracker counts into the command's exit status.
func outcome(tr *progress.Tracker) error {
	switch {
	case tr.Failed > 0:
		return errs.Newf(errs.CodeExecution, "%d of %d item(s) failed", tr.Failed, tr.Total)
	case tr.Skipped > 0 && tr.Succeeded < tr.Total:
		return errs.Cancelled(fmt.Errorf("%d item(s) skipped", tr.Skipped))
	}
	return nil
}
