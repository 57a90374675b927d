// Package resolve turns a catalog software specification into a concrete,
// versioned download location.
package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
	"github.com/iamthetwodigiter/rusty-rebase/internal/logx"
	"github.com/iamthetwodigiter/rusty-rebase/internal/telemetry"
)

// Sentinel values used in place of real versions or artifacts.
const (
	VersionStatic         = "static"
	VersionPackageManager = "package-manager"
	VersionLatest         = "latest"
	NoArtifact            = "N/A"
)

const defaultUserAgent = "rusty_rebase/0.1"

// Asset is one resolved, downloadable version of a piece of software.
type Asset struct {
	Version  string `json:"version"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// HasArtifact reports whether the asset names something to download.
func (a Asset) HasArtifact() bool {
	return a.URL != "" && a.URL != NoArtifact
}

// Endpoints are the vendor URLs queried by the vendor strategies.
type Endpoints struct {
	FlutterManifest    string
	FlutterArchiveBase string
	AndroidStudio      string
	VSCodeUpdate       string
}

// DefaultEndpoints returns the public vendor endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		FlutterManifest:    "https://storage.googleapis.com/flutter_infra_release/releases/releases_linux.json",
		FlutterArchiveBase: "https://storage.googleapis.com/flutter_infra_release/releases",
		AndroidStudio:      "https://developer.android.com/studio",
		VSCodeUpdate:       "https://update.code.visualstudio.com",
	}
}

// Resolver resolves specs over a shared HTTP client. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	Client    *http.Client
	UserAgent string
	GitHubAPI string
	Endpoints Endpoints
	// DryRun skips package manager version queries, which run a command.
	DryRun    bool
}

// New returns a Resolver using client (http.DefaultClient when nil) and the
// public endpoints.
func New(client *http.Client, userAgent, githubAPI string) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if githubAPI == "" {
		githubAPI = "https://api.github.com"
	}
	return &Resolver{
		Client:    client,
		UserAgent: userAgent,
		GitHubAPI: strings.TrimRight(githubAPI, "/"),
		Endpoints: DefaultEndpoints(),
	}
}

// Resolve dispatches on the spec's source variant.
func (r *Resolver) Resolve(ctx context.Context, spec catalog.Spec, h host.Descriptor) (asset Asset, err error) {
	kind := "unknown"
	if spec.Source != nil {
		kind = spec.Source.Kind()
	}
	ctx, span := telemetry.StartSpan(ctx, "resolve."+kind, "software", spec.DisplayName)
	defer func() { telemetry.End(span, err) }()

	asset, err = r.dispatch(ctx, spec, h)
	if err != nil {
		return Asset{}, err
	}
	if asset.Version == "" {
		return Asset{}, errs.Newf(errs.CodeResolution, "resolved an empty version for %s", spec.DisplayName).
			WithDetail("url", asset.URL)
	}
	logx.Get("resolve").Debug().
		Str("software", spec.DisplayName).
		Str("version", asset.Version).
		Str("url", asset.URL).
		Msg("resolved")
	return asset, nil
}

func (r *Resolver) dispatch(ctx context.Context, spec catalog.Spec, h host.Descriptor) (Asset, error) {
	switch src := spec.Source.(type) {
	case catalog.OfficialSource:
		return r.resolveOfficial(ctx, src, h)
	case catalog.PackageManagerSource:
		return resolvePackageOnly(ctx, spec, h, r.DryRun), nil
	case catalog.GithubSource:
		return r.resolveGithub(ctx, src, h)
	default:
		return Asset{}, errs.Newf(errs.CodeResolution, "unsupported source type %T", spec.Source)
	}
}

func (r *Resolver) resolveOfficial(ctx context.Context, src catalog.OfficialSource, h host.Descriptor) (Asset, error) {
	switch src.ID {
	case "flutter":
		return r.resolveFlutter(ctx, "stable")
	case "android_studio":
		return r.resolveAndroidStudio(ctx)
	case "vscode":
		return r.resolveVSCode(ctx, h)
	}
	switch {
	case src.URL != "" && src.VersionRegex != "" && src.DownloadURLRegex != "":
		return r.resolveScraper(ctx, src.URL, src.VersionRegex, src.DownloadURLRegex, h.Arch)
	case src.URL != "" && src.VersionRegex == "" && src.DownloadURLRegex == "":
		return resolveStatic(src.URL), nil
	default:
		return Asset{}, errs.New(errs.CodeResolution, "official_source missing valid configuration")
	}
}

// do issues a GET and rejects non-2xx responses. The caller closes the body.
func (r *Resolver) do(ctx context.Context, target, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, resolutionErr(err, target, "invalid request")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", r.userAgent())

	resp, err := r.client().Do(req)
	if err != nil {
		return nil, resolutionErr(err, target, "request failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, resolutionErr(fmt.Errorf("unexpected status %s", resp.Status), target, "request failed")
	}
	return resp, nil
}

// fetch returns the full response body, treating an empty body as an error.
func (r *Resolver) fetch(ctx context.Context, target, accept string) ([]byte, error) {
	resp, err := r.do(ctx, target, accept)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resolutionErr(err, target, "failed reading response")
	}
	if len(body) == 0 {
		return nil, resolutionErr(io.ErrUnexpectedEOF, target, "empty response")
	}
	return body, nil
}

func (r *Resolver) client() *http.Client {
	if r.Client == nil {
		return http.DefaultClient
	}
	return r.Client
}

func (r *Resolver) userAgent() string {
	if r.UserAgent == "" {
		return defaultUserAgent
	}
	return r.UserAgent
}

func resolutionErr(err error, target, what string) error {
	return &errs.Error{
		Code:    errs.CodeResolution,
		Message: fmt.Sprintf("%s for %s", what, target),
		Details: map[string]any{"url": target},
		Wrapped: err,
	}
}

// lastSegment returns the final path element of a URL, or fallback.
func lastSegment(raw, fallback string) string {
	u, err := url.Parse(raw)
	p := raw
	if err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		return fallback
	}
	return base
}
