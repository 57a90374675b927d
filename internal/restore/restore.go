package restore

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/logx"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
)

// Restore extracts every archive listed by the manifest in backupDir into the
// manifest's source path and returns the log lines. Hash mismatches are
// logged as warnings and never fail the run. When the manifest lists no
// archives the legacy directory copy runs instead.
func Restore(ctx context.Context, backupDir string, emit progress.Emitter) ([]string, error) {
	rec := &progress.Recorder{Next: emit}
	m, err := ReadManifest(backupDir)
	if err != nil {
		return nil, err
	}

	dest := m.SourcePath
	rec.Logf("Restoring backup from '%s' to '%s'", backupDir, dest)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return rec.Lines, errs.Wrapf(err, errs.CodeExecution, "failed to create destination dir %s", dest)
	}

	if len(m.ZipFiles) == 0 {
		if err := restoreLegacy(ctx, backupDir, dest, rec); err != nil {
			return rec.Lines, err
		}
		return rec.Lines, nil
	}

	r := &restorer{
		dir:   backupDir,
		dest:  dest,
		index: newHashIndex(m.Index),
		rec:   rec,
	}
	if r.index == nil {
		rec.Logf("[info] backup has no integrity index, skipping hash checks")
	}
	if err := r.run(ctx, m.ZipFiles); err != nil {
		return rec.Lines, err
	}
	return rec.Lines, nil
}

type restorer struct {
	dir      string
	dest     string
	index    hashIndex
	rec      *progress.Recorder
	total    int
	restored int
}

func (r *restorer) run(ctx context.Context, archives []string) error {
	r.total = countFiles(r.dir, archives)
	r.rec.Logf("[info] Found %d files across %d archives.", r.total, len(archives))

	for i, name := range archives {
		if err := ctx.Err(); err != nil {
			return errs.Cancelled(err)
		}
		path := filepath.Join(r.dir, name)
		if _, err := os.Stat(path); err != nil {
			r.rec.Logf("[error] Zip archive missing: %s", name)
			continue
		}
		r.rec.Emit(progress.Progress{Phase: fmt.Sprintf("Extracting %s (%d/%d)", name, i+1, len(archives))})
		if err := r.extractArchive(ctx, name, path); err != nil {
			return err
		}
		r.rec.Logf("[done] Restored archive: %s", name)
	}

	r.rec.Emit(progress.SubProgress{Ratio: 1})
	r.rec.Logf("Restore completed successfully!")
	return nil
}

func (r *restorer) extractArchive(ctx context.Context, name, path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return errs.Wrapf(err, errs.CodeExecution, "failed to read zip %s", name)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return errs.Cancelled(err)
		}
		rel, ok := localName(f)
		if !ok {
			r.rec.Logf("[warn] skipping unsafe entry %s in %s", f.Name, name)
			continue
		}
		target := filepath.Join(r.dest, rel)

		if isDirEntry(f) {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errs.Wrapf(err, errs.CodeExecution, "failed to create dir %s", target)
			}
			continue
		}

		sum, err := writeEntry(f, target)
		if err != nil {
			return err
		}
		if want, ok := r.index.lookup(name, f.Name); ok && !strings.EqualFold(want, sum) {
			r.rec.Logf("[WARNING] Integrity check FAILED for %s", f.Name)
			logx.Get("restore").Warn().
				Err(errs.Newf(errs.CodeIntegrity, "hash mismatch for %s", f.Name)).
				Str("archive", name).
				Str("expected", want).
				Str("actual", sum).
				Msg("integrity check failed")
		}

		r.restored++
		r.rec.Emit(progress.Progress{Phase: fmt.Sprintf("%s (%s)", name, f.Name)})
		if r.total > 0 {
			r.rec.Emit(progress.SubProgress{Ratio: min(float64(r.restored)/float64(r.total), 1)})
		}
	}
	return nil
}

// writeEntry copies one zip entry to target and returns the hex SHA-256 of
// the bytes written.
func writeEntry(f *zip.File, target string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errs.Wrapf(err, errs.CodeExecution, "failed to create parent dir for %s", target)
	}
	src, err := f.Open()
	if err != nil {
		return "", errs.Wrapf(err, errs.CodeExecution, "failed to read %s from zip", f.Name)
	}
	defer src.Close()

	out, err := os.Create(target)
	if err != nil {
		return "", errs.Wrapf(err, errs.CodeExecution, "failed to create %s", target)
	}
	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), src); err != nil {
		out.Close()
		return "", errs.Wrapf(err, errs.CodeExecution, "failed to write %s", target)
	}
	if err := out.Close(); err != nil {
		return "", errs.Wrapf(err, errs.CodeExecution, "failed to close %s", target)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// localName returns the entry's path relative to the destination, or false
// when it would escape it.
func localName(f *zip.File) (string, bool) {
	rel := filepath.FromSlash(strings.TrimSuffix(f.Name, "/"))
	return rel, filepath.IsLocal(rel)
}

func isDirEntry(f *zip.File) bool {
	return strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
}

// countFiles pre-scans the archives for the entries extraction will write.
// Unreadable archives count as empty.
func countFiles(dir string, archives []string) int {
	total := 0
	for _, name := range archives {
		zr, err := zip.OpenReader(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		for _, f := range zr.File {
			if _, ok := localName(f); ok && !isDirEntry(f) {
				total++
			}
		}
		zr.Close()
	}
	return total
}
