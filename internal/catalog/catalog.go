// Package catalog holds the software catalog model: what can be installed,
// where its artifact comes from, and which setup steps follow the download.
package catalog

import (
	"sort"
)

// Catalog maps a software key to its specification.
type Catalog struct {
	Software map[string]Spec
}

// Spec describes one installable piece of software. Specs are immutable once
// loaded.
type Spec struct {
	DisplayName      string
	Description      string
	EnabledByDefault bool
	// InstallDir may start with "~"; empty means the user's home directory.
	InstallDir string
	Source     Source
	Steps      []Step
}

// Keys returns the catalog keys in sorted order.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Software))
	for key := range c.Software {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns the sorted keys of items enabled by default.
func (c Catalog) Defaults() []string {
	var keys []string
	for _, key := range c.Keys() {
		if c.Software[key].EnabledByDefault {
			keys = append(keys, key)
		}
	}
	return keys
}

// Source is one of OfficialSource, PackageManagerSource or GithubSource.
type Source interface {
	// Kind returns the catalog tag of the source variant.
	Kind() string
	isSource()
}

// Source kinds as written in the catalog.
const (
	KindOfficialSource = "official_source"
	KindPackageManager = "package_manager"
	KindGithub         = "github"
)

// OfficialSource is a vendor download. ID selects a vendor strategy; URL and
// the two regexes drive the generic scraper or a static download.
type OfficialSource struct {
	ID               string
	URL              string
	VersionRegex     string
	DownloadURLRegex string
}

// PackageManagerSource delegates entirely to the host package manager.
type PackageManagerSource struct{}

// GithubSource picks an asset from the latest release of Repo.
type GithubSource struct {
	Repo         string
	AssetPattern string
}

func (OfficialSource) Kind() string       { return KindOfficialSource }
func (PackageManagerSource) Kind() string { return KindPackageManager }
func (GithubSource) Kind() string         { return KindGithub }

func (OfficialSource) isSource()       {}
func (PackageManagerSource) isSource() {}
func (GithubSource) isSource()         {}

// Step is one of PackageStep, PathHintStep, NoteStep or ShellStep.
type Step interface {
	Kind() string
	isStep()
}

// Step kinds as written in the catalog.
const (
	StepPackage  = "package"
	StepPathHint = "path_hint"
	StepNote     = "note"
	StepShell    = "shell"
)

// PackageStep installs packages through the host package manager.
type PackageStep struct {
	Packages []string
}

// PathHintStep adds a directory to the user's PATH. Value may contain the
// <install_root> placeholder.
type PathHintStep struct {
	Value string
}

// NoteStep is informational only.
type NoteStep struct {
	Value string
}

// ShellStep runs Command through sh. Command may contain {arch} and {xarch}.
type ShellStep struct {
	Command string
}

func (PackageStep) Kind() string  { return StepPackage }
func (PathHintStep) Kind() string { return StepPathHint }
func (NoteStep) Kind() string     { return StepNote }
func (ShellStep) Kind() string    { return StepShell }

func (PackageStep) isStep()  {}
func (PathHintStep) isStep() {}
func (NoteStep) isStep()     {}
func (ShellStep) isStep()    {}

// FirstPackage returns the first package of the first package step.
func (s Spec) FirstPackage() (string, bool) {
	for _, step := range s.Steps {
		if pkg, ok := step.(PackageStep); ok && len(pkg.Packages) > 0 {
			return pkg.Packages[0], true
		}
	}
	return "", false
}

// SourceID returns the vendor id of an official source, or "".
func (s Spec) SourceID() string {
	if official, ok := s.Source.(OfficialSource); ok {
		return official.ID
	}
	return ""
}
