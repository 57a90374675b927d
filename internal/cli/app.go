package cli

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/config"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
	"github.com/iamthetwodigiter/rusty-rebase/internal/install"
	"github.com/iamthetwodigiter/rusty-rebase/internal/jobs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/paths"
	"github.com/iamthetwodigiter/rusty-rebase/internal/resolve"
	"github.com/iamthetwodigiter/rusty-rebase/internal/restore"
	"github.com/iamthetwodigiter/rusty-rebase/internal/telemetry"
)

// app is the per-command environment assembled from config and flags.
type app struct {
	cfg    config.Config
	dryRun bool
	client *http.Client
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Err(); err != nil {
		return nil, err
	}

	dryRun := cfg.DryRunValue()
	if f := cmd.Flags().Lookup("dry-run"); f != nil && f.Changed {
		dryRun = dryRunFlag
	}
	return &app{
		cfg:    cfg,
		dryRun: dryRun,
		client: telemetry.NewHTTPClient(cfg.HTTPTimeout.Duration),
	}, nil
}

func (a *app) loadCatalog() (catalog.Catalog, error) {
	path, err := paths.ExpandTilde(a.cfg.Catalog)
	if err != nil {
		return catalog.Catalog{}, err
	}
	return catalog.Load(path)
}

func (a *app) detectHost(ctx context.Context) (host.Descriptor, error) {
	return host.Detect(ctx)
}

func (a *app) resolver() *resolve.Resolver {
	r := resolve.New(a.client, a.cfg.UserAgent, a.cfg.GitHubAPI)
	r.DryRun = a.dryRun
	return r
}

func (a *app) runner(h host.Descriptor) *jobs.Runner {
	shell := install.ShellRunner{}
	return jobs.New(jobs.Options{
		Host:     h,
		Resolver: a.resolver(),
		Steps: &install.Executor{
			Host:   h,
			Runner: shell,
			DryRun: a.dryRun,
		},
		Artifacts: &install.Installer{
			Host:       h,
			Runner:     shell,
			DryRun:     a.dryRun,
			Client:     a.client,
			UserAgent:  a.cfg.UserAgent,
			StagingDir: a.cfg.StagingDir,
			ChunkSize:  a.cfg.ChunkSize,
		},
		Restore: restore.Restore,
	})
}

// selectItems returns the items named by keys in the given order, or the
// default selection when keys is empty.
func selectItems(cat catalog.Catalog, keys []string) ([]jobs.Item, error) {
	if len(keys) == 0 {
		keys = cat.Defaults()
		if len(keys) == 0 {
			return nil, fmt.Errorf("no software is enabled by default; name the keys to use")
		}
	}

	var unknown []string
	items := make([]jobs.Item, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if seen[key] {
			continue
		}
		seen[key] = true
		spec, ok := cat.Software[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		items = append(items, jobs.Item{Key: key, Spec: spec})
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown software: %s", strings.Join(unknown, ", "))
	}
	return items, nil
}

func itemKeys(items []jobs.Item) []string {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.Key
	}
	return keys
}
