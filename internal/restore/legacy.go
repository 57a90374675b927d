package restore

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
)

// restoreLegacy copies every file of backupDir except the manifest into dest,
// for backups that predate zip archives.
func restoreLegacy(ctx context.Context, backupDir, dest string, rec *progress.Recorder) error {
	rec.Logf("[legacy] manifest lists no archives, copying directory contents")

	var files []string
	err := filepath.WalkDir(backupDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == ManifestName {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return errs.Wrapf(err, errs.CodeExecution, "failed to scan %s", backupDir)
	}
	rec.Logf("[info] Found %d files to copy.", len(files))

	for i, src := range files {
		if err := ctx.Err(); err != nil {
			return errs.Cancelled(err)
		}
		rel, err := filepath.Rel(backupDir, src)
		if err != nil {
			return errs.Wrapf(err, errs.CodeExecution, "failed to relativize %s", src)
		}
		if err := copyFile(src, filepath.Join(dest, rel)); err != nil {
			return err
		}
		rec.Emit(progress.Progress{Phase: "Copying " + rel})
		rec.Emit(progress.SubProgress{Ratio: float64(i+1) / float64(len(files))})
	}

	rec.Emit(progress.SubProgress{Ratio: 1})
	rec.Logf("Restore completed successfully!")
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errs.Wrapf(err, errs.CodeExecution, "failed to create parent dir for %s", dst)
	}
	in, err := os.Open(src)
	if err != nil {
		return errs.Wrapf(err, errs.CodeExecution, "failed to open %s", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errs.Wrapf(err, errs.CodeExecution, "failed to stat %s", src)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errs.Wrapf(err, errs.CodeExecution, "failed to create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errs.Wrapf(err, errs.CodeExecution, "failed to copy %s", src)
	}
	if err := out.Close(); err != nil {
		return errs.Wrapf(err, errs.CodeExecution, "failed to close %s", dst)
	}
	return nil
}
