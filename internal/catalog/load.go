package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
)

type fileCatalog struct {
	Software map[string]fileSpec `toml:"software"`
}

type fileSpec struct {
	DisplayName      string     `toml:"display_name"`
	Description      string     `toml:"description"`
	EnabledByDefault bool       `toml:"enabled_by_default"`
	InstallDir       string     `toml:"install_dir"`
	Source           *fileSrc   `toml:"source"`
	SetupSteps       []fileStep `toml:"setup_steps"`
}

type fileSrc struct {
	Kind             string `toml:"kind"`
	ID               string `toml:"id"`
	URL              string `toml:"url"`
	VersionRegex     string `toml:"version_regex"`
	DownloadURLRegex string `toml:"download_url_regex"`
	Repo             string `toml:"repo"`
	AssetPattern     string `toml:"asset_pattern"`
}

type fileStep struct {
	Kind     string   `toml:"kind"`
	Packages []string `toml:"packages"`
	Value    string   `toml:"value"`
	Command  string   `toml:"command"`
}

// Load reads and parses the catalog at path.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, errs.Wrapf(err, errs.CodeCatalog, "failed to read catalog at %s", path)
	}
	cat, err := Parse(string(data))
	if err != nil {
		return Catalog{}, errs.Wrapf(err, errs.CodeCatalog, "failed to parse catalog at %s", path)
	}
	return cat, nil
}

// Parse decodes catalog TOML into the sum-typed model.
func Parse(content string) (Catalog, error) {
	var raw fileCatalog
	md, err := toml.Decode(content, &raw)
	if err != nil {
		return Catalog{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return Catalog{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	cat := Catalog{Software: make(map[string]Spec, len(raw.Software))}
	for key, spec := range raw.Software {
		converted, err := spec.convert()
		if err != nil {
			return Catalog{}, fmt.Errorf("software.%s: %w", key, err)
		}
		cat.Software[key] = converted
	}
	return cat, nil
}

func (f fileSpec) convert() (Spec, error) {
	if strings.TrimSpace(f.DisplayName) == "" {
		return Spec{}, fmt.Errorf("display_name is required")
	}
	if f.Source == nil {
		return Spec{}, fmt.Errorf("source is required")
	}
	src, err := f.Source.convert()
	if err != nil {
		return Spec{}, fmt.Errorf("source: %w", err)
	}
	steps := make([]Step, 0, len(f.SetupSteps))
	for i, raw := range f.SetupSteps {
		step, err := raw.convert()
		if err != nil {
			return Spec{}, fmt.Errorf("setup_steps[%d]: %w", i, err)
		}
		steps = append(steps, step)
	}
	return Spec{
		DisplayName:      f.DisplayName,
		Description:      f.Description,
		EnabledByDefault: f.EnabledByDefault,
		InstallDir:       f.InstallDir,
		Source:           src,
		Steps:            steps,
	}, nil
}

func (f fileSrc) convert() (Source, error) {
	switch f.Kind {
	case KindOfficialSource:
		return OfficialSource{
			ID:               f.ID,
			URL:              f.URL,
			VersionRegex:     f.VersionRegex,
			DownloadURLRegex: f.DownloadURLRegex,
		}, nil
	case KindPackageManager:
		return PackageManagerSource{}, nil
	case KindGithub:
		if f.AssetPattern == "" {
			return nil, fmt.Errorf("asset_pattern is required for github sources")
		}
		return GithubSource{Repo: f.Repo, AssetPattern: f.AssetPattern}, nil
	case "":
		return nil, fmt.Errorf("missing kind")
	default:
		return nil, fmt.Errorf("unknown kind %q", f.Kind)
	}
}

func (f fileStep) convert() (Step, error) {
	switch f.Kind {
	case StepPackage:
		return PackageStep{Packages: f.Packages}, nil
	case StepPathHint:
		return PathHintStep{Value: f.Value}, nil
	case StepNote:
		return NoteStep{Value: f.Value}, nil
	case StepShell:
		return ShellStep{Command: f.Command}, nil
	case "":
		return nil, fmt.Errorf("missing kind")
	default:
		return nil, fmt.Errorf("unknown kind %q", f.Kind)
	}
}
