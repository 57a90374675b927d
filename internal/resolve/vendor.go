package resolve

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
)

type flutterReleases struct {
	BaseURL        string            `json:"base_url"`
	CurrentRelease map[string]string `json:"current_release"`
	Releases       []flutterRelease  `json:"releases"`
}

type flutterRelease struct {
	Hash    string `json:"hash"`
	Version string `json:"version"`
	Archive string `json:"archive"`
}

func (r *Resolver) resolveFlutter(ctx context.Context, channel string) (Asset, error) {
	endpoint := r.Endpoints.FlutterManifest
	body, err := r.fetch(ctx, endpoint, "application/json")
	if err != nil {
		return Asset{}, err
	}
	var payload flutterReleases
	if err := json.Unmarshal(body, &payload); err != nil {
		return Asset{}, resolutionErr(err, endpoint, "failed to decode flutter releases json")
	}

	hash, ok := payload.CurrentRelease[channel]
	if !ok || hash == "" {
		return Asset{}, errs.Newf(errs.CodeResolution, "missing current release hash for channel '%s'", channel).
			WithDetail("url", endpoint)
	}
	for _, release := range payload.Releases {
		if release.Hash != hash {
			continue
		}
		base := r.Endpoints.FlutterArchiveBase
		if payload.BaseURL != "" {
			base = payload.BaseURL
		}
		return Asset{
			Version:  release.Version,
			URL:      strings.TrimRight(base, "/") + "/" + strings.TrimLeft(release.Archive, "/"),
			FileName: lastSegment(release.Archive, "flutter.tar.xz"),
		}, nil
	}
	return Asset{}, errs.New(errs.CodeResolution, "failed to resolve flutter release by hash").
		WithDetail("url", endpoint)
}

var androidStudioPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://redirector\.gvt1\.com/edgedl/android/studio/ide-zips/[^"']+linux\.tar\.gz`),
	regexp.MustCompile(`https://[^\s"']+android-studio-[^\s"']+linux\.tar\.gz`),
}

func (r *Resolver) resolveAndroidStudio(ctx context.Context) (Asset, error) {
	endpoint := r.Endpoints.AndroidStudio
	body, err := r.fetch(ctx, endpoint, "text/html")
	if err != nil {
		return Asset{}, err
	}
	html := string(body)

	for _, pattern := range androidStudioPatterns {
		found := pattern.FindString(html)
		if found == "" {
			continue
		}
		fileName := lastSegment(found, "")
		if fileName == "" {
			return Asset{}, errs.Newf(errs.CodeResolution, "invalid android studio url %s", found)
		}
		version := strings.TrimSuffix(strings.TrimPrefix(fileName, "android-studio-"), "-linux.tar.gz")
		return Asset{Version: version, URL: found, FileName: fileName}, nil
	}
	return Asset{}, errs.New(errs.CodeResolution, "could not resolve android studio linux tarball link").
		WithDetail("url", endpoint)
}

var semverPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// vscodePlatform picks the update-service platform for the host's package format.
func vscodePlatform(kind host.ManagerKind) string {
	switch kind {
	case host.Apt:
		return "linux-deb-x64"
	case host.Dnf:
		return "linux-rpm-x64"
	default:
		return "linux-x64"
	}
}

func (r *Resolver) resolveVSCode(ctx context.Context, h host.Descriptor) (Asset, error) {
	kind := host.Unknown
	if h.Manager != nil {
		kind = h.Manager.Kind()
	}
	endpoint := strings.TrimRight(r.Endpoints.VSCodeUpdate, "/") + "/latest/" + vscodePlatform(kind) + "/stable"

	// Only the redirect target matters; the body is the artifact itself.
	resp, err := r.do(ctx, endpoint, "")
	if err != nil {
		return Asset{}, err
	}
	resp.Body.Close()

	finalURL := resp.Request.URL.String()
	fileName := lastSegment(finalURL, "vscode_latest")
	version := semverPattern.FindString(fileName)
	if version == "" {
		version = VersionLatest
	}
	return Asset{Version: version, URL: finalURL, FileName: fileName}, nil
}
