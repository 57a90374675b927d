package install

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/iamthetwodigiter/rusty-rebase/internal/paths"
)

const profileMarker = "# Added by rusty_rebase"

// ShellFlavor distinguishes PATH export syntaxes.
type ShellFlavor string

const (
	Bash ShellFlavor = "bash"
	Zsh  ShellFlavor = "zsh"
	Fish ShellFlavor = "fish"
)

// Profile is the startup file edited for PATH hints.
type Profile struct {
	Flavor ShellFlavor
	Path   string
}

// ProfileFor maps a $SHELL value to the user's profile file. Anything that is
// neither zsh nor fish is treated as bash.
func ProfileFor(shell string) (Profile, error) {
	home, err := paths.Home()
	if err != nil {
		return Profile{}, err
	}
	switch {
	case strings.Contains(shell, "zsh"):
		return Profile{Flavor: Zsh, Path: filepath.Join(home, ".zshrc")}, nil
	case strings.Contains(shell, "fish"):
		return Profile{Flavor: Fish, Path: filepath.Join(home, ".config", "fish", "config.fish")}, nil
	default:
		return Profile{Flavor: Bash, Path: filepath.Join(home, ".bashrc")}, nil
	}
}

// ExportLine returns the statement adding dir to PATH.
func (p Profile) ExportLine(dir string) string {
	if p.Flavor == Fish {
		return "fish_add_path " + dir
	}
	return `export PATH="$PATH:` + dir + `"`
}

// AppendOnce appends line to the file at path unless an identical line is
// already present. The file is replaced atomically.
func AppendOnce(path, line string) (bool, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if hasLine(existing, line) {
		return false, nil
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString("\n" + profileMarker + "\n" + line + "\n")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return false, err
	}
	return true, nil
}

func hasLine(content []byte, line string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == line {
			return true
		}
	}
	return false
}
