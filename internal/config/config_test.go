package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default().Catalog, cfg.Catalog)
	assert.True(t, cfg.DryRunValue())
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout.Duration)
	assert.Equal(t, 8192, cfg.ChunkSize)
	assert.NoError(t, cfg.Err())
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
catalog: /etc/rebase/catalog.toml
dry_run: false
http_timeout: 5s
github_api: https://ghe.example.com/api/v3/
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/rebase/catalog.toml", cfg.Catalog)
	assert.False(t, cfg.DryRunValue())
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout.Duration)
	assert.Equal(t, "rusty_rebase/0.1", cfg.UserAgent)
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.GitHubAPI)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvCatalog, "/tmp/alt.toml")
	t.Setenv(EnvStagingDir, "~/dl")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/alt.toml", cfg.Catalog)
	assert.Equal(t, "~/dl", cfg.StagingDir)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_timeout: soon\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse duration")
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.ChunkSize = 10
	cfg.LogLevel = "chatty"
	cfg.GitHubAPI = "not a url"

	results := cfg.Validate()
	require.Len(t, results, 3)

	err := cfg.Err()
	require.Error(t, err)
	assert.Equal(t, errs.CodeConfig, errs.CodeOf(err))
	assert.Contains(t, err.Error(), "chunk_size")
	assert.Contains(t, err.Error(), "chatty")
}

func TestValidateWarnsOnPlainHTTP(t *testing.T) {
	cfg := Default()
	cfg.GitHubAPI = "http://localhost:8080"

	results := cfg.Validate()
	require.Len(t, results, 1)
	assert.Equal(t, "warning", results[0].Level)
	assert.NoError(t, cfg.Err())
}

func TestMarshalRoundTrip(t *testing.T) {
	buf, err := Default().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(buf), "http_timeout: 30s")
}
