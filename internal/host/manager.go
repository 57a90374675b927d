package host

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// ManagerKind names a supported package manager.
type ManagerKind string

const (
	Apt     ManagerKind = "apt"
	Dnf     ManagerKind = "dnf"
	Pacman  ManagerKind = "pacman"
	Unknown ManagerKind = "unknown"
)

// PackageManager is the host capability used by resolution and setup steps.
type PackageManager interface {
	Kind() ManagerKind
	// InstallCommand returns the shell command installing packages, or false
	// when the manager is unsupported or the list is empty.
	InstallCommand(packages []string) (string, bool)
	// InstalledVersion queries the installed or candidate version of pkg.
	InstalledVersion(ctx context.Context, pkg string) (string, bool)
}

// QueryFunc runs a read-only query command and returns its stdout.
type QueryFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecQuery runs the query through os/exec.
func ExecQuery(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// NewManager returns the PackageManager for kind. A nil query uses ExecQuery.
func NewManager(kind ManagerKind, query QueryFunc) PackageManager {
	if query == nil {
		query = ExecQuery
	}
	switch kind {
	case Apt, Dnf, Pacman:
		return systemManager{kind: kind, query: query}
	default:
		return unknownManager{}
	}
}

type systemManager struct {
	kind  ManagerKind
	query QueryFunc
}

func (m systemManager) Kind() ManagerKind { return m.kind }

func (m systemManager) InstallCommand(packages []string) (string, bool) {
	if len(packages) == 0 {
		return "", false
	}
	joined := strings.Join(packages, " ")
	switch m.kind {
	case Apt:
		return "sudo apt update && sudo apt install -y " + joined, true
	case Dnf:
		return "sudo dnf install -y " + joined, true
	case Pacman:
		return "sudo pacman -Sy --noconfirm " + joined, true
	}
	return "", false
}

func (m systemManager) InstalledVersion(ctx context.Context, pkg string) (string, bool) {
	var (
		name  string
		args  []string
		field string
	)
	switch m.kind {
	case Apt:
		name, args, field = "apt-cache", []string{"policy", pkg}, "Candidate:"
	case Dnf:
		name, args, field = "dnf", []string{"info", "-q", pkg}, "Version"
	case Pacman:
		name, args, field = "pacman", []string{"-Si", pkg}, "Version"
	default:
		return "", false
	}
	out, err := m.query(ctx, name, args...)
	if err != nil && len(out) == 0 {
		return "", false
	}
	return versionField(out, field)
}

// versionField returns the value after the first colon on the first line
// containing field. apt reports "(none)" for unavailable packages.
func versionField(out []byte, field string) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, field) {
			continue
		}
		_, value, ok := strings.Cut(line, ":")
		if !ok {
			return "", false
		}
		value = strings.TrimSpace(value)
		if value == "" || value == "(none)" {
			return "", false
		}
		return value, true
	}
	return "", false
}

type unknownManager struct{}

func (unknownManager) Kind() ManagerKind                                       { return Unknown }
func (unknownManager) InstallCommand([]string) (string, bool)                  { return "", false }
func (unknownManager) InstalledVersion(context.Context, string) (string, bool) { return "", false }
