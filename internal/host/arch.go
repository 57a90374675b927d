package host

import (
	"runtime"
	"strings"
)

// Arch is a CPU architecture in kernel naming (x86_64, aarch64, x86, arm).
type Arch string

const (
	ArchX8664   Arch = "x86_64"
	ArchAarch64 Arch = "aarch64"
	ArchX86     Arch = "x86"
	ArchARM     Arch = "arm"
)

// ArchFromGOARCH maps a Go architecture name to kernel naming.
func ArchFromGOARCH(goarch string) Arch {
	switch goarch {
	case "amd64":
		return ArchX8664
	case "arm64":
		return ArchAarch64
	case "386":
		return ArchX86
	case "arm":
		return ArchARM
	default:
		return Arch(goarch)
	}
}

// ArchFromMachine maps a `uname -m` style machine name to kernel naming.
func ArchFromMachine(machine string) Arch {
	machine = strings.ToLower(strings.TrimSpace(machine))
	switch {
	case machine == "":
		return ArchFromGOARCH(runtime.GOARCH)
	case machine == "x86_64" || machine == "amd64":
		return ArchX8664
	case machine == "aarch64" || machine == "arm64":
		return ArchAarch64
	case machine == "i386" || machine == "i686" || machine == "x86":
		return ArchX86
	case strings.HasPrefix(machine, "armv") || machine == "arm":
		return ArchARM
	default:
		return Arch(machine)
	}
}

// Raw returns the kernel name, substituted for {xarch}.
func (a Arch) Raw() string {
	return string(a)
}

// Name returns the Go-style name (amd64, arm64, 386), substituted for {arch}.
func (a Arch) Name() string {
	switch a {
	case ArchX8664:
		return "amd64"
	case ArchAarch64:
		return "arm64"
	case ArchX86:
		return "386"
	default:
		return string(a)
	}
}

// Dash returns the kernel name with underscores replaced by dashes,
// substituted for {xarch_dash}.
func (a Arch) Dash() string {
	return strings.ReplaceAll(string(a), "_", "-")
}

// Matches reports whether a release asset name encodes this architecture.
func (a Arch) Matches(assetName string) bool {
	name := strings.ToLower(assetName)
	switch a {
	case ArchX8664:
		return containsAny(name, "x86_64", "x86-64", "amd64", "x64")
	case ArchAarch64:
		return containsAny(name, "aarch64", "arm64", "arm-64")
	case ArchARM:
		return containsAny(name, "armv7", "armhf") || (strings.Contains(name, "arm") && !strings.Contains(name, "64"))
	case ArchX86:
		if containsAny(name, "x86_64", "x86-64") {
			return false
		}
		return containsAny(name, "i386", "i686", "x86", "386")
	default:
		return false
	}
}

// Expand substitutes {arch}, {xarch} and {xarch_dash} in s.
func (a Arch) Expand(s string) string {
	return strings.NewReplacer(
		"{xarch_dash}", a.Dash(),
		"{xarch}", a.Raw(),
		"{arch}", a.Name(),
	).Replace(s)
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
