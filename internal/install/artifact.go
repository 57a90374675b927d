package install

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
	"github.com/iamthetwodigiter/rusty-rebase/internal/logx"
	"github.com/iamthetwodigiter/rusty-rebase/internal/paths"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
	"github.com/iamthetwodigiter/rusty-rebase/internal/resolve"
)

// DefaultChunkSize is the download read size.
const DefaultChunkSize = 8 * 1024

// Installer downloads a resolved artifact into the staging directory and
// installs it.
type Installer struct {
	Host       host.Descriptor
	Runner     Runner
	DryRun     bool
	Client     *http.Client
	UserAgent  string
	StagingDir string
	ChunkSize  int
}

// Install downloads asset unless spec is package-manager only, then runs the
// vendor installer for the source id or the default extraction.
func (in *Installer) Install(ctx context.Context, spec catalog.Spec, asset resolve.Asset, rec *progress.Recorder) error {
	switch spec.Source.(type) {
	case catalog.PackageManagerSource:
		rec.Logf("source is package-only, skipping download/extract")
		return nil
	case catalog.OfficialSource, catalog.GithubSource:
	default:
		return errs.Newf(errs.CodeExecution, "unsupported source type %T", spec.Source)
	}
	if !asset.HasArtifact() {
		return errs.Newf(errs.CodeExecution, "no artifact resolved for %s", spec.DisplayName)
	}

	staging, err := paths.StagingDir(in.StagingDir)
	if err != nil {
		return errs.Wrap(err, errs.CodeExecution, "failed to resolve staging dir")
	}
	archive := filepath.Join(staging, filepath.Base(asset.FileName))

	if in.DryRun {
		rec.Logf("[dry-run] download %s -> %s", asset.URL, archive)
	} else {
		if err := os.MkdirAll(staging, 0o755); err != nil {
			return errs.Wrap(err, errs.CodeExecution, "failed to create staging dir")
		}
		rec.Logf("downloading from %s", asset.URL)
		if err := in.Download(ctx, asset.URL, archive, rec); err != nil {
			return err
		}
		rec.Logf("downloaded to %s", archive)
	}

	if install, ok := in.vendorInstaller(spec.SourceID()); ok {
		return install(ctx, archive, rec)
	}

	root, err := paths.InstallRoot(spec.InstallDir)
	if err != nil {
		return errs.Wrap(err, errs.CodeExecution, "failed to resolve install root")
	}
	if !in.DryRun {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return errs.Wrapf(err, errs.CodeExecution, "failed to create install dir %s", root)
		}
	}
	return in.extract(ctx, archive, root, rec)
}

// vendorInstaller returns the installer replacing default extraction for a
// source id.
func (in *Installer) vendorInstaller(id string) (func(context.Context, string, *progress.Recorder) error, bool) {
	switch id {
	case "vscode":
		return in.installVSCode, true
	default:
		return nil, false
	}
}

// ExtractCommand returns the shell command unpacking archive into dir, or
// false when the suffix has no extraction rule.
func ExtractCommand(archive, dir string) (string, bool) {
	name := strings.ToLower(filepath.Base(archive))
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return shellquote.Join("tar", "-xzf", archive, "-C", dir), true
	case strings.HasSuffix(name, ".tar.xz"):
		return shellquote.Join("tar", "-xJf", archive, "-C", dir), true
	case strings.HasSuffix(name, ".zip"):
		return shellquote.Join("unzip", "-o", "-q", archive, "-d", dir), true
	default:
		return "", false
	}
}

func (in *Installer) extract(ctx context.Context, archive, root string, rec *progress.Recorder) error {
	cmd, ok := ExtractCommand(archive, root)
	if !ok {
		rec.Logf("downloaded artifact at %s, extraction skipped", archive)
		return nil
	}
	if in.DryRun {
		rec.Logf("[dry-run] %s", cmd)
		return nil
	}
	code, err := in.Runner.Run(ctx, cmd, rec)
	if err != nil {
		return err
	}
	rec.Logf("extraction command exit status %d (%s)", code, cmd)
	return nil
}

func (in *Installer) installVSCode(ctx context.Context, archive string, rec *progress.Recorder) error {
	kind := host.Unknown
	if in.Host.Manager != nil {
		kind = in.Host.Manager.Kind()
	}
	quoted := shellquote.Join(archive)

	var cmd string
	switch kind {
	case host.Apt:
		cmd = "sudo apt install -y " + quoted
	case host.Dnf:
		cmd = "sudo dnf install -y " + quoted
	case host.Pacman:
		cmd = fmt.Sprintf(`mkdir -p "$HOME"/.local/opt && tar -xzf %s -C "$HOME"/.local/opt`, quoted)
	default:
		rec.Logf("unknown package manager: please install vscode artifact manually")
		return nil
	}

	if in.DryRun {
		rec.Logf("[dry-run] %s", cmd)
		return nil
	}
	code, err := in.Runner.Run(ctx, cmd, rec)
	if err != nil {
		return err
	}
	logx.Get("install").Debug().Int("exit", code).Str("cmd", cmd).Msg("vscode install")
	rec.Logf("vscode install exit status %d (%s)", code, cmd)
	return nil
}
