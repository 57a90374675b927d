// Package host describes the machine being provisioned: its distribution,
// CPU architecture and package manager.
package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"

	gohost "github.com/shirou/gopsutil/v3/host"

	"github.com/iamthetwodigiter/rusty-rebase/internal/logx"
)

// Descriptor identifies the host for resolution and installation.
type Descriptor struct {
	ID      string
	Arch    Arch
	Manager PackageManager
}

// String renders a short summary such as "ubuntu/x86_64 (apt)".
func (d Descriptor) String() string {
	kind := Unknown
	if d.Manager != nil {
		kind = d.Manager.Kind()
	}
	return fmt.Sprintf("%s/%s (%s)", d.ID, d.Arch, kind)
}

// Detector probes the running host. Zero-value fields fall back to the real
// system.
type Detector struct {
	// OSRelease is the os-release file path.
	OSRelease string
	// Platform returns distribution id, family and machine architecture.
	Platform func(ctx context.Context) (id, family, machine string, err error)
	// LookPath reports whether an executable exists on PATH.
	LookPath func(name string) error
	Query    QueryFunc
}

// Detect probes the running host with default settings.
func Detect(ctx context.Context) (Descriptor, error) {
	return Detector{}.Detect(ctx)
}

// Detect resolves the distribution id and package manager, preferring
// gopsutil platform info and falling back to os-release and PATH lookups.
func (d Detector) Detect(ctx context.Context) (Descriptor, error) {
	logger := logx.Get("host")

	platform := d.Platform
	if platform == nil {
		platform = gopsutilPlatform
	}
	releasePath := d.OSRelease
	if releasePath == "" {
		releasePath = "/etc/os-release"
	}
	lookPath := d.LookPath
	if lookPath == nil {
		lookPath = func(name string) error {
			_, err := exec.LookPath(name)
			return err
		}
	}

	id, family, machine, err := platform(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("platform probe failed")
	}

	var idLike []string
	if family != "" {
		idLike = append(idLike, family)
	}
	fields, err := readOSRelease(releasePath)
	switch {
	case err == nil:
		if fields["ID"] != "" {
			id = fields["ID"]
		}
		idLike = append(idLike, strings.Fields(fields["ID_LIKE"])...)
	case errors.Is(err, fs.ErrNotExist) && id != "":
	default:
		if id == "" {
			return Descriptor{}, fmt.Errorf("failed to read %s: %w", releasePath, err)
		}
	}

	kind := ManagerFor(id, idLike)
	if kind == Unknown {
		kind = managerOnPath(lookPath)
	}
	desc := Descriptor{
		ID:      id,
		Arch:    ArchFromMachine(machine),
		Manager: NewManager(kind, d.Query),
	}
	logger.Debug().Str("id", desc.ID).Str("arch", desc.Arch.Raw()).Str("manager", string(kind)).Msg("host detected")
	return desc, nil
}

func gopsutilPlatform(ctx context.Context) (string, string, string, error) {
	info, err := gohost.InfoWithContext(ctx)
	if err != nil {
		return "", "", runtime.GOARCH, err
	}
	return info.Platform, info.PlatformFamily, info.KernelArch, nil
}

// ParseOSRelease parses KEY=value lines, stripping surrounding quotes.
func ParseOSRelease(content string) map[string]string {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"'`)
	}
	return fields
}

func readOSRelease(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseOSRelease(string(data)), nil
}

var (
	debianIDs = []string{"ubuntu", "debian", "linuxmint", "pop", "ubuntu-budgie", "kdeneon"}
	fedoraIDs = []string{"fedora", "rhel", "centos", "rocky"}
	archIDs   = []string{"arch", "manjaro", "endeavouros", "artix"}
)

// ManagerFor maps a distribution id and its ID_LIKE list to a package manager.
func ManagerFor(id string, idLike []string) ManagerKind {
	id = strings.ToLower(id)
	switch {
	case slices.Contains(debianIDs, id):
		return Apt
	case slices.Contains(fedoraIDs, id):
		return Dnf
	case slices.Contains(archIDs, id):
		return Pacman
	}
	for _, like := range idLike {
		switch strings.ToLower(like) {
		case "debian", "ubuntu":
			return Apt
		case "fedora", "rhel":
			return Dnf
		case "arch":
			return Pacman
		}
	}
	return Unknown
}

func managerOnPath(lookPath func(string) error) ManagerKind {
	candidates := []struct {
		bin  string
		kind ManagerKind
	}{
		{"apt", Apt},
		{"dnf", Dnf},
		{"pacman", Pacman},
		{"yum", Dnf},
	}
	for _, c := range candidates {
		if lookPath(c.bin) == nil {
			return c.kind
		}
	}
	return Unknown
}
