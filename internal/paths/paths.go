package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const (
	// AppDirName names the per-user directories under the XDG roots.
	AppDirName = "rusty-rebase"
	// StagingDirName is the folder under ~/Downloads holding fetched artifacts.
	StagingDirName = "rusty_rebase"
)

// Home returns the current user's home directory.
func Home() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}
	return home, nil
}

// ExpandTilde replaces a leading "~" or "~/" with the user's home directory.
// Other inputs are returned unchanged.
func ExpandTilde(input string) (string, error) {
	if input == "~" {
		return Home()
	}
	if rest, ok := strings.CutPrefix(input, "~/"); ok {
		home, err := Home()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, rest), nil
	}
	return input, nil
}

// InstallRoot resolves an item's install directory, falling back to the home
// directory when installDir is empty.
func InstallRoot(installDir string) (string, error) {
	if strings.TrimSpace(installDir) == "" {
		return Home()
	}
	return ExpandTilde(installDir)
}

// StagingDir returns the directory downloads are written to. A non-empty
// override is tilde-expanded and made absolute.
func StagingDir(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		expanded, err := ExpandTilde(override)
		if err != nil {
			return "", err
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return "", fmt.Errorf("resolve staging dir: %w", err)
		}
		return abs, nil
	}
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Downloads", StagingDirName), nil
}

// ConfigFile returns the default location of config.yaml.
func ConfigFile() string {
	return filepath.Join(xdg.ConfigHome, AppDirName, "config.yaml")
}

// LogFile returns the default location of the persistent log.
func LogFile() string {
	return filepath.Join(xdg.StateHome, AppDirName, "rebase.log")
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
