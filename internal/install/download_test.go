package install

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
	"github.com/iamthetwodigiter/rusty-rebase/internal/resolve"
)

func serveBytes(t *testing.T, payload []byte, withLength bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rebase-test", r.Header.Get("User-Agent"))
		if withLength {
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		}
		flusher, _ := w.(http.Flusher)
		for off := 0; off < len(payload); off += 64 * 1024 {
			end := min(off+64*1024, len(payload))
			_, _ = w.Write(payload[off:end])
			if !withLength && flusher != nil {
				flusher.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadSubProgressIsMonotonicAndClamped(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 10*1024*1024)
	srv := serveBytes(t, payload, true)
	dest := filepath.Join(t.TempDir(), "file.bin")
	q := progress.NewQueue()

	inst := &Installer{Client: srv.Client(), UserAgent: "rebase-test", ChunkSize: 8 * 1024}
	require.NoError(t, inst.Download(context.Background(), srv.URL, dest, q))

	var ratios []float64
	for _, ev := range q.Drain() {
		if sp, ok := ev.(progress.SubProgress); ok {
			ratios = append(ratios, sp.Ratio)
		}
	}
	require.Len(t, ratios, 1280)
	assert.Greater(t, ratios[0], 0.0)
	for i := 1; i < len(ratios); i++ {
		assert.Greater(t, ratios[i], ratios[i-1])
		assert.LessOrEqual(t, ratios[i], 1.0)
	}
	assert.Equal(t, 1.0, ratios[len(ratios)-1])

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), info.Size())
}

func TestDownloadUnknownLengthIsIndeterminate(t *testing.T) {
	srv := serveBytes(t, bytes.Repeat([]byte{1}, 200*1024), false)
	q := progress.NewQueue()

	inst := &Installer{Client: srv.Client(), UserAgent: "rebase-test"}
	require.NoError(t, inst.Download(context.Background(), srv.URL, filepath.Join(t.TempDir(), "f"), q))

	events := q.Drain()
	require.NotEmpty(t, events)
	for _, ev := range events {
		p, ok := ev.(progress.Progress)
		require.True(t, ok, "unexpected event %T", ev)
		assert.Contains(t, p.Phase, "Downloading (")
		assert.NotContains(t, p.Phase, "/")
	}
}

type cancelOnFirstRatio struct {
	cancel context.CancelFunc
	seen   int
}

func (c *cancelOnFirstRatio) Emit(ev progress.Event) {
	if _, ok := ev.(progress.SubProgress); ok {
		c.seen++
		c.cancel()
	}
}

func TestDownloadCancelledMidStreamLeavesPartialFile(t *testing.T) {
	srv := serveBytes(t, bytes.Repeat([]byte{2}, 4*1024*1024), true)
	dest := filepath.Join(t.TempDir(), "partial.bin")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	emit := &cancelOnFirstRatio{cancel: cancel}

	inst := &Installer{Client: srv.Client(), UserAgent: "rebase-test"}
	err := inst.Download(ctx, srv.URL, dest, emit)
	require.Error(t, err)
	assert.True(t, errs.IsCancelled(err))
	assert.Equal(t, 1, emit.seen)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultChunkSize), info.Size())
}

func TestDownloadRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	inst := &Installer{Client: srv.Client()}
	err := inst.Download(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x"), progress.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDownloadRejectsTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 100000\r\n\r\n")
		_, _ = buf.Write(bytes.Repeat([]byte{3}, 50000))
		_ = buf.Flush()
	}))
	defer srv.Close()

	emit := &lastRatio{}
	inst := &Installer{Client: srv.Client()}
	err := inst.Download(context.Background(), srv.URL, filepath.Join(t.TempDir(), "short.bin"), emit)
	require.Error(t, err)
	assert.Equal(t, errs.CodeExecution, errs.CodeOf(err))
	assert.Contains(t, err.Error(), srv.URL)
	assert.Less(t, emit.ratio, 1.0)
}

type lastRatio struct {
	ratio float64
}

func (l *lastRatio) Emit(ev progress.Event) {
	if sp, ok := ev.(progress.SubProgress); ok {
		l.ratio = sp.Ratio
	}
}

func TestInstallDownloadsThenExtracts(t *testing.T) {
	home := withHome(t, "/bin/bash")
	srv := serveBytes(t, []byte("archive"), true)
	runner := &fakeRunner{}
	staging := filepath.Join(home, "stage")

	inst := &Installer{
		Host:       testHost(host.Apt),
		Runner:     runner,
		Client:     srv.Client(),
		UserAgent:  "rebase-test",
		StagingDir: staging,
	}
	spec := catalog.Spec{
		DisplayName: "Foo",
		InstallDir:  "~/tools/foo",
		Source:      catalog.OfficialSource{URL: srv.URL + "/foo.tar.gz"},
	}
	asset := resolve.Asset{Version: "static", URL: srv.URL + "/foo.tar.gz", FileName: "foo.tar.gz"}
	rec := &progress.Recorder{}
	require.NoError(t, inst.Install(context.Background(), spec, asset, rec))

	archive := filepath.Join(staging, "foo.tar.gz")
	root := filepath.Join(home, "tools", "foo")
	assert.FileExists(t, archive)
	assert.DirExists(t, root)
	assert.Equal(t, []string{"tar -xzf " + archive + " -C " + root}, runner.commands)
}

func TestInstallSkipsPackageOnlyAndUnknownSuffix(t *testing.T) {
	home := withHome(t, "/bin/bash")
	srv := serveBytes(t, []byte("binary"), true)
	runner := &fakeRunner{}
	inst := &Installer{Host: testHost(host.Apt), Runner: runner, Client: srv.Client(), UserAgent: "rebase-test"}

	rec := &progress.Recorder{}
	pkgOnly := catalog.Spec{DisplayName: "Git", Source: catalog.PackageManagerSource{}}
	require.NoError(t, inst.Install(context.Background(), pkgOnly, resolve.Asset{Version: "2", URL: resolve.NoArtifact}, rec))
	assert.Equal(t, []string{"source is package-only, skipping download/extract"}, rec.Lines)

	rec = &progress.Recorder{}
	image := catalog.Spec{DisplayName: "App", Source: catalog.GithubSource{Repo: "a/b", AssetPattern: "."}}
	asset := resolve.Asset{Version: "1", URL: srv.URL + "/App.AppImage", FileName: "App.AppImage"}
	require.NoError(t, inst.Install(context.Background(), image, asset, rec))
	archive := filepath.Join(home, "Downloads", "rusty_rebase", "App.AppImage")
	assert.Contains(t, rec.Lines, "downloaded artifact at "+archive+", extraction skipped")
	assert.Empty(t, runner.commands)
}

func TestVSCodeVendorInstaller(t *testing.T) {
	home := withHome(t, "/bin/bash")
	spec := catalog.Spec{DisplayName: "Code", Source: catalog.OfficialSource{ID: "vscode"}}
	asset := resolve.Asset{Version: "1.95.3", URL: "http://127.0.0.1:1/code.tar.gz", FileName: "code.tar.gz"}
	archive := filepath.Join(home, "Downloads", "rusty_rebase", "code.tar.gz")

	cases := map[host.ManagerKind]string{
		host.Apt:     "[dry-run] sudo apt install -y " + archive,
		host.Dnf:     "[dry-run] sudo dnf install -y " + archive,
		host.Pacman:  `[dry-run] mkdir -p "$HOME"/.local/opt && tar -xzf ` + archive + ` -C "$HOME"/.local/opt`,
		host.Unknown: "unknown package manager: please install vscode artifact manually",
	}
	for kind, want := range cases {
		rec := &progress.Recorder{}
		inst := &Installer{Host: testHost(kind), Runner: &fakeRunner{}, DryRun: true}
		require.NoError(t, inst.Install(context.Background(), spec, asset, rec))
		assert.Equal(t, want, rec.Lines[len(rec.Lines)-1], "manager %s", kind)
	}
}
