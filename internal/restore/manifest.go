// Package restore re-extracts a backup archive set to its original location,
// verifying file contents against the backup index when one is present.
package restore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
)

// ManifestName is the metadata file inside every backup directory.
const ManifestName = ".rusty_sync_info.json"

// IndexEntry records one backed-up file.
type IndexEntry struct {
	RelativePath string `json:"relative_path"`
	OriginalSize uint64 `json:"original_size"`
	SHA256Hash   string `json:"sha256_hash"`
	ZipFile      string `json:"zip_file,omitempty"`
}

// Manifest describes a backup set.
type Manifest struct {
	SourcePath string        `json:"source_path"`
	BackupTime string        `json:"backup_time"`
	ZipFiles   []string      `json:"zip_files"`
	Index      *[]IndexEntry `json:"index,omitempty"`
}

// ReadManifest loads the manifest from backupDir.
func ReadManifest(backupDir string) (Manifest, error) {
	path := filepath.Join(backupDir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, errs.Newf(errs.CodeManifest, "backup info file not found at: %s", path).
				WithDetail("path", path)
		}
		return Manifest{}, errs.Wrapf(err, errs.CodeManifest, "failed to read info file %s", path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, errs.Wrapf(err, errs.CodeManifest, "failed to parse info file %s", path)
	}
	if m.SourcePath == "" {
		return Manifest{}, errs.Newf(errs.CodeManifest, "info file %s has no source_path", path)
	}
	return m, nil
}

// BackupDir accepts either a backup directory or its manifest file.
func BackupDir(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", errs.Wrapf(err, errs.CodeManifest, "invalid backup location %s", target)
	}
	if info.IsDir() {
		return target, nil
	}
	return filepath.Dir(target), nil
}

type indexKey struct {
	archive string
	rel     string
}

// hashIndex maps entries by archive and path. Entries without an archive
// name match any archive.
type hashIndex map[indexKey]string

func newHashIndex(entries *[]IndexEntry) hashIndex {
	if entries == nil {
		return nil
	}
	idx := make(hashIndex, len(*entries))
	for _, e := range *entries {
		idx[indexKey{archive: e.ZipFile, rel: e.RelativePath}] = e.SHA256Hash
	}
	return idx
}

func (h hashIndex) lookup(archive, rel string) (string, bool) {
	if sum, ok := h[indexKey{archive: archive, rel: rel}]; ok {
		return sum, true
	}
	sum, ok := h[indexKey{rel: rel}]
	return sum, ok
}
