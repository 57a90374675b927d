package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchNames(t *testing.T) {
	assert.Equal(t, "amd64", ArchX8664.Name())
	assert.Equal(t, "x86_64", ArchX8664.Raw())
	assert.Equal(t, "x86-64", ArchX8664.Dash())
	assert.Equal(t, "arm64", ArchAarch64.Name())
	assert.Equal(t, "386", ArchX86.Name())
	assert.Equal(t, ArchX8664, ArchFromGOARCH("amd64"))
	assert.Equal(t, ArchX86, ArchFromMachine("i686"))
	assert.Equal(t, ArchARM, ArchFromMachine("armv7l"))
}

func TestArchExpand(t *testing.T) {
	got := ArchX8664.Expand("tool-{arch}-{xarch}-{xarch_dash}")
	assert.Equal(t, "tool-amd64-x86_64-x86-64", got)
}

func TestArchMatches(t *testing.T) {
	cases := []struct {
		arch Arch
		name string
		want bool
	}{
		{ArchX8664, "bar-linux-amd64.tar.gz", true},
		{ArchX8664, "bar-linux-arm64.tar.gz", false},
		{ArchX8664, "BAR_X64.zip", true},
		{ArchAarch64, "bar-linux-arm64.tar.gz", true},
		{ArchARM, "bar-armhf.deb", true},
		{ArchARM, "bar-arm64.deb", false},
		{ArchX86, "bar-i386.deb", true},
		{ArchX86, "bar-x86_64.deb", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.arch.Matches(tc.name), "%s on %s", tc.name, tc.arch)
	}
}

func TestInstallCommand(t *testing.T) {
	cmd, ok := NewManager(Apt, nil).InstallCommand([]string{"git", "curl"})
	require.True(t, ok)
	assert.Equal(t, "sudo apt update && sudo apt install -y git curl", cmd)

	cmd, ok = NewManager(Pacman, nil).InstallCommand([]string{"git"})
	require.True(t, ok)
	assert.Equal(t, "sudo pacman -Sy --noconfirm git", cmd)

	_, ok = NewManager(Dnf, nil).InstallCommand(nil)
	assert.False(t, ok)
	_, ok = NewManager(Unknown, nil).InstallCommand([]string{"git"})
	assert.False(t, ok)
}

func TestInstalledVersionParsesQueryOutput(t *testing.T) {
	apt := NewManager(Apt, func(_ context.Context, name string, args ...string) ([]byte, error) {
		assert.Equal(t, "apt-cache", name)
		assert.Equal(t, []string{"policy", "git"}, args)
		return []byte("git:\n  Installed: 1:2.43.0-1\n  Candidate: 1:2.43.0-1ubuntu7\n"), nil
	})
	v, ok := apt.InstalledVersion(context.Background(), "git")
	require.True(t, ok)
	assert.Equal(t, "1:2.43.0-1ubuntu7", v)

	none := NewManager(Apt, func(context.Context, string, ...string) ([]byte, error) {
		return []byte("ghost:\n  Candidate: (none)\n"), nil
	})
	_, ok = none.InstalledVersion(context.Background(), "ghost")
	assert.False(t, ok)

	dnf := NewManager(Dnf, func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Name         : git\nVersion      : 2.45.2\n"), nil
	})
	v, ok = dnf.InstalledVersion(context.Background(), "git")
	require.True(t, ok)
	assert.Equal(t, "2.45.2", v)

	failing := NewManager(Pacman, func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})
	_, ok = failing.InstalledVersion(context.Background(), "git")
	assert.False(t, ok)
}

func TestParseOSRelease(t *testing.T) {
	fields := ParseOSRelease("# comment\nNAME=\"Pop!_OS\"\nID=pop\nID_LIKE=\"ubuntu debian\"\n")
	assert.Equal(t, "pop", fields["ID"])
	assert.Equal(t, "ubuntu debian", fields["ID_LIKE"])
	assert.Equal(t, "Pop!_OS", fields["NAME"])
}

func TestManagerFor(t *testing.T) {
	assert.Equal(t, Apt, ManagerFor("ubuntu", nil))
	assert.Equal(t, Dnf, ManagerFor("rocky", nil))
	assert.Equal(t, Pacman, ManagerFor("manjaro", nil))
	assert.Equal(t, Apt, ManagerFor("zorin", []string{"ubuntu", "debian"}))
	assert.Equal(t, Dnf, ManagerFor("almalinux", []string{"rhel", "centos", "fedora"}))
	assert.Equal(t, Unknown, ManagerFor("opensuse", []string{"suse"}))
}

func TestDetectFromOSRelease(t *testing.T) {
	release := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(release, []byte("ID=linuxmint\nID_LIKE=\"ubuntu debian\"\n"), 0o644))

	d := Detector{
		OSRelease: release,
		Platform: func(context.Context) (string, string, string, error) {
			return "", "", "x86_64", errors.New("no platform info")
		},
		LookPath: func(string) error { return errors.New("not found") },
	}
	desc, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "linuxmint", desc.ID)
	assert.Equal(t, ArchX8664, desc.Arch)
	assert.Equal(t, Apt, desc.Manager.Kind())
	assert.Equal(t, "linuxmint/x86_64 (apt)", desc.String())
}

func TestDetectFallsBackToPath(t *testing.T) {
	release := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(release, []byte("ID=void\n"), 0o644))

	d := Detector{
		OSRelease: release,
		Platform: func(context.Context) (string, string, string, error) {
			return "void", "", "aarch64", nil
		},
		LookPath: func(name string) error {
			if name == "yum" {
				return nil
			}
			return errors.New("not found")
		},
	}
	desc, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Dnf, desc.Manager.Kind())
	assert.Equal(t, ArchAarch64, desc.Arch)
}

func TestDetectFailsWithoutAnyIdentity(t *testing.T) {
	d := Detector{
		OSRelease: filepath.Join(t.TempDir(), "missing"),
		Platform: func(context.Context) (string, string, string, error) {
			return "", "", "", errors.New("unsupported")
		},
		LookPath: func(string) error { return errors.New("not found") },
	}
	_, err := d.Detect(context.Background())
	assert.ErrorContains(t, err, "os-release")
}
