package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
)

type githubReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type githubRelease struct {
	TagName string               `json:"tag_name"`
	Assets  []githubReleaseAsset `json:"assets"`
}

func (r *Resolver) resolveGithub(ctx context.Context, src catalog.GithubSource, h host.Descriptor) (Asset, error) {
	if src.Repo == "" {
		return Asset{}, errs.New(errs.CodeResolution, "github repo not configured for this software")
	}
	pattern, err := regexp.Compile(src.AssetPattern)
	if err != nil {
		return Asset{}, errs.Wrapf(err, errs.CodeResolution, "invalid asset pattern %q", src.AssetPattern)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(r.GitHubAPI, "/"), src.Repo)
	body, err := r.fetch(ctx, endpoint, "application/vnd.github+json")
	if err != nil {
		return Asset{}, err
	}
	var release githubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return Asset{}, resolutionErr(err, endpoint, "failed to decode github release json")
	}

	asset, ok := selectAsset(release.Assets, pattern, h)
	if !ok {
		return Asset{}, errs.Newf(errs.CodeResolution, "no asset matching '%s' found in github:%s", src.AssetPattern, src.Repo).
			WithDetail("url", endpoint)
	}

	version := strings.TrimPrefix(release.TagName, "v")
	return Asset{
		Version:  version,
		URL:      asset.BrowserDownloadURL,
		FileName: asset.Name,
	}, nil
}

// selectAsset filters assets by pattern and returns the best-scoring one.
// Ties keep release order.
func selectAsset(assets []githubReleaseAsset, pattern *regexp.Regexp, h host.Descriptor) (githubReleaseAsset, bool) {
	var matched []githubReleaseAsset
	for _, a := range assets {
		if pattern.MatchString(a.Name) {
			matched = append(matched, a)
		}
	}
	if len(matched) == 0 {
		return githubReleaseAsset{}, false
	}

	kind := host.Unknown
	if h.Manager != nil {
		kind = h.Manager.Kind()
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return Score(matched[i].Name, h.Arch, kind) > Score(matched[j].Name, h.Arch, kind)
	})
	return matched[0], true
}

// Score ranks a release asset name for the given host.
func Score(name string, arch host.Arch, manager host.ManagerKind) int {
	score := 0
	if arch.Matches(name) {
		score += 100
	}

	native := ""
	switch manager {
	case host.Apt:
		native = ".deb"
	case host.Dnf:
		native = ".rpm"
	}
	switch {
	case native != "" && strings.HasSuffix(name, native):
		score += 50
	case strings.HasSuffix(name, ".deb"), strings.HasSuffix(name, ".rpm"):
		score += 20
	case strings.HasSuffix(name, ".AppImage"):
		score += 10
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".zip"):
		score += 5
	}
	return score
}
