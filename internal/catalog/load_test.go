package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
)

const sampleCatalog = `
[software.git]
display_name = "Git"
enabled_by_default = true
source = { kind = "package_manager" }

[[software.git.setup_steps]]
kind = "package"
packages = ["git", "git-lfs"]

[software.ripgrep]
display_name = "ripgrep"
description = "fast grep"
install_dir = "~/tools/ripgrep"
source = { kind = "github", repo = "BurntSushi/ripgrep", asset_pattern = "\\.tar\\.gz$" }

[[software.ripgrep.setup_steps]]
kind = "path_hint"
value = "<install_root>/bin"

[[software.ripgrep.setup_steps]]
kind = "note"
value = "restart your shell"

[software.vscode]
display_name = "Visual Studio Code"
enabled_by_default = true
source = { kind = "official_source", id = "vscode" }

[[software.vscode.setup_steps]]
kind = "shell"
command = "echo {arch}"
`

func TestParseBuildsSumTypes(t *testing.T) {
	cat, err := Parse(sampleCatalog)
	require.NoError(t, err)

	assert.Equal(t, []string{"git", "ripgrep", "vscode"}, cat.Keys())
	assert.Equal(t, []string{"git", "vscode"}, cat.Defaults())

	git := cat.Software["git"]
	assert.Equal(t, PackageManagerSource{}, git.Source)
	require.Len(t, git.Steps, 1)
	assert.Equal(t, PackageStep{Packages: []string{"git", "git-lfs"}}, git.Steps[0])
	pkg, ok := git.FirstPackage()
	assert.True(t, ok)
	assert.Equal(t, "git", pkg)

	rg := cat.Software["ripgrep"]
	assert.Equal(t, GithubSource{Repo: "BurntSushi/ripgrep", AssetPattern: `\.tar\.gz$`}, rg.Source)
	assert.Equal(t, "~/tools/ripgrep", rg.InstallDir)
	assert.Equal(t, []Step{
		PathHintStep{Value: "<install_root>/bin"},
		NoteStep{Value: "restart your shell"},
	}, rg.Steps)

	vscode := cat.Software["vscode"]
	assert.Equal(t, "vscode", vscode.SourceID())
	assert.Equal(t, []Step{ShellStep{Command: "echo {arch}"}}, vscode.Steps)
}

func TestParseRejectsUnknownKinds(t *testing.T) {
	cases := map[string]string{
		"source": `
[software.x]
display_name = "X"
source = { kind = "ftp" }
`,
		"step": `
[software.x]
display_name = "X"
source = { kind = "package_manager" }
[[software.x.setup_steps]]
kind = "reboot"
`,
		"missing source": `
[software.x]
display_name = "X"
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(content)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "software.x")
		})
	}
}

func TestParseRejectsUndecodedKeys(t *testing.T) {
	_, err := Parse(`
[software.x]
display_name = "X"
colour = "blue"
source = { kind = "package_manager" }
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestLoadWrapsErrorsWithCatalogCode(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Equal(t, errs.CodeCatalog, errs.CodeOf(err))

	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))
	cat, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cat.Software, 3)
}
