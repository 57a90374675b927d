package resolve

import (
	"context"
	"net/url"
	"regexp"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
)

// resolveScraper fetches page and extracts the version (capture group 1 of
// versionRe) and the first download URL match, resolved against page.
func (r *Resolver) resolveScraper(ctx context.Context, page, versionRe, downloadRe string, arch host.Arch) (Asset, error) {
	vPattern, err := regexp.Compile(arch.Expand(versionRe))
	if err != nil {
		return Asset{}, errs.Wrapf(err, errs.CodeResolution, "invalid version regex %q", versionRe)
	}
	dPattern, err := regexp.Compile(arch.Expand(downloadRe))
	if err != nil {
		return Asset{}, errs.Wrapf(err, errs.CodeResolution, "invalid download url regex %q", downloadRe)
	}

	body, err := r.fetch(ctx, page, "text/html")
	if err != nil {
		return Asset{}, err
	}
	html := string(body)

	groups := vPattern.FindStringSubmatch(html)
	if len(groups) < 2 || groups[1] == "" {
		return Asset{}, errs.Newf(errs.CodeResolution, "could not find version on %s using regex %s", page, versionRe).
			WithDetail("url", page)
	}
	found := dPattern.FindString(html)
	if found == "" {
		return Asset{}, errs.Newf(errs.CodeResolution, "could not find download url on %s using regex %s", page, downloadRe).
			WithDetail("url", page)
	}

	finalURL := found
	if base, err := url.Parse(page); err == nil {
		if ref, err := url.Parse(found); err == nil {
			finalURL = base.ResolveReference(ref).String()
		}
	}
	return Asset{
		Version:  groups[1],
		URL:      finalURL,
		FileName: lastSegment(finalURL, "download"),
	}, nil
}

func resolveStatic(target string) Asset {
	return Asset{
		Version:  VersionStatic,
		URL:      target,
		FileName: lastSegment(target, "download"),
	}
}

// resolvePackageOnly asks the package manager for the version of the first
// package step's first package. It never fails. A dry run keeps the
// package-manager sentinel without querying.
func resolvePackageOnly(ctx context.Context, spec catalog.Spec, h host.Descriptor, dryRun bool) Asset {
	asset := Asset{Version: VersionPackageManager, URL: NoArtifact, FileName: NoArtifact}
	pkg, ok := spec.FirstPackage()
	if !ok || dryRun || h.Manager == nil {
		return asset
	}
	if version, ok := h.Manager.InstalledVersion(ctx, pkg); ok {
		asset.Version = version
	}
	return asset
}
