package resolve

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
)

const downloadsPage = `<html><body>
<h2>Latest release: v4.5.6</h2>
<a href="/files/tool-4.5.6-linux-amd64.tar.gz">amd64</a>
<a href="/files/tool-4.5.6-linux-arm64.tar.gz">arm64</a>
<a href="/files/tool-4.5.6-x86-64.zip">x86-64</a>
</body></html>`

func scraperSpec(page, versionRe, downloadRe string) catalog.Spec {
	return catalog.Spec{
		DisplayName: "tool",
		Source: catalog.OfficialSource{
			URL:              page,
			VersionRegex:     versionRe,
			DownloadURLRegex: downloadRe,
		},
	}
}

func TestScraperSubstitutesArchAndResolvesRelative(t *testing.T) {
	r, srv := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, downloadsPage)
	}))
	spec := scraperSpec(srv.URL+"/downloads/", `Latest release: v(\d+\.\d+\.\d+)`, `/files/tool-[\d.]+-linux-{arch}\.tar\.gz`)

	asset, err := r.Resolve(context.Background(), spec, amd64Host(host.Apt))
	require.NoError(t, err)
	assert.Equal(t, "4.5.6", asset.Version)
	assert.Equal(t, srv.URL+"/files/tool-4.5.6-linux-amd64.tar.gz", asset.URL)
	assert.Equal(t, "tool-4.5.6-linux-amd64.tar.gz", asset.FileName)

	dash := scraperSpec(srv.URL+"/downloads/", `v(\d+\.\d+\.\d+)`, `/files/tool-[\d.]+-{xarch_dash}\.zip`)
	asset, err = r.Resolve(context.Background(), dash, amd64Host(host.Apt))
	require.NoError(t, err)
	assert.Equal(t, "tool-4.5.6-x86-64.zip", asset.FileName)
}

func TestScraperIsDeterministic(t *testing.T) {
	r, srv := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, downloadsPage)
	}))
	spec := scraperSpec(srv.URL, `v(\d+\.\d+\.\d+)`, `/files/[^"]+\.tar\.gz`)

	first, err := r.Resolve(context.Background(), spec, amd64Host(host.Apt))
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), spec, amd64Host(host.Apt))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScraperPatternMisses(t *testing.T) {
	r, srv := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, downloadsPage)
	}))

	_, err := r.Resolve(context.Background(), scraperSpec(srv.URL, `Version (\d+)`, `.*`), amd64Host(host.Apt))
	assert.ErrorContains(t, err, "could not find version")

	_, err = r.Resolve(context.Background(), scraperSpec(srv.URL, `v(\d+)`, `\.dmg`), amd64Host(host.Apt))
	assert.ErrorContains(t, err, "could not find download url")

	_, err = r.Resolve(context.Background(), scraperSpec(srv.URL, `(`, `.*`), amd64Host(host.Apt))
	assert.ErrorContains(t, err, "invalid version regex")
}

func TestStaticAndMisconfiguredOfficialSources(t *testing.T) {
	r := New(nil, "", "")

	asset, err := r.Resolve(context.Background(), catalog.Spec{
		DisplayName: "static",
		Source:      catalog.OfficialSource{URL: "https://example.com/dl/tool.tar.gz"},
	}, amd64Host(host.Apt))
	require.NoError(t, err)
	assert.Equal(t, Asset{Version: VersionStatic, URL: "https://example.com/dl/tool.tar.gz", FileName: "tool.tar.gz"}, asset)

	asset, err = r.Resolve(context.Background(), catalog.Spec{
		DisplayName: "bare",
		Source:      catalog.OfficialSource{URL: "https://example.com/"},
	}, amd64Host(host.Apt))
	require.NoError(t, err)
	assert.Equal(t, "download", asset.FileName)

	_, err = r.Resolve(context.Background(), catalog.Spec{
		DisplayName: "half",
		Source:      catalog.OfficialSource{URL: "https://example.com", VersionRegex: "(.*)"},
	}, amd64Host(host.Apt))
	require.Error(t, err)
	assert.Equal(t, errs.CodeResolution, errs.CodeOf(err))
	assert.Contains(t, err.Error(), "missing valid configuration")
}

func TestPackageManagerSource(t *testing.T) {
	mgr := &fakeManager{kind: host.Apt, versions: map[string]string{"git": "2.43.0"}}
	h := host.Descriptor{Arch: host.ArchX8664, Manager: mgr}
	spec := catalog.Spec{
		DisplayName: "Git",
		Source:      catalog.PackageManagerSource{},
		Steps: []catalog.Step{
			catalog.NoteStep{Value: "first"},
			catalog.PackageStep{Packages: []string{"git", "git-lfs"}},
			catalog.PackageStep{Packages: []string{"other"}},
		},
	}

	asset, err := New(nil, "", "").Resolve(context.Background(), spec, h)
	require.NoError(t, err)
	assert.Equal(t, Asset{Version: "2.43.0", URL: NoArtifact, FileName: NoArtifact}, asset)
	assert.False(t, asset.HasArtifact())
	assert.Equal(t, []string{"git"}, mgr.queried)

	mgr.versions = nil
	asset, err = New(nil, "", "").Resolve(context.Background(), spec, h)
	require.NoError(t, err)
	assert.Equal(t, VersionPackageManager, asset.Version)
}
