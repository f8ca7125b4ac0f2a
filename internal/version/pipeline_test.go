package version

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liangyou/golatest/pkg/models"
)

type stubChecker struct{ report models.CheckReport }

func (s stubChecker) Check(context.Context) models.CheckReport { return s.report }

type stubPlatform struct {
	key   models.PlatformKey
	err   error
	calls int
}

func (s *stubPlatform) Detect() (models.PlatformKey, error) {
	s.calls++
	return s.key, s.err
}

type stubTargets struct {
	target      models.InstallTarget
	writableErr error
}

func (s stubTargets) Resolve(models.Config, models.PlatformKey) (models.InstallTarget, error) {
	return s.target, nil
}

func (s stubTargets) CheckWritable(models.InstallTarget) error { return s.writableErr }

// recordingInstaller 记录调用次数，实际安装交给内部的 Installer。
type recordingInstaller struct {
	inner    *Installer
	installs int
}

func (r *recordingInstaller) CheckManaged(ctx context.Context, goPath string) error {
	return r.inner.CheckManaged(ctx, goPath)
}

func (r *recordingInstaller) Install(ctx context.Context, artifactPath string, target models.InstallTarget) error {
	r.installs++
	return r.inner.Install(ctx, artifactPath, target)
}

type stubPath struct{ on bool }

func (s stubPath) Contains(string) bool { return s.on }

// releaseServer 模拟下载站点，记录每个请求路径。
type releaseServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string
}

func newReleaseServer(t *testing.T, archive []byte, checksum string) *releaseServer {
	t.Helper()
	rs := &releaseServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.requests = append(rs.requests, r.URL.Path)
		rs.mu.Unlock()
		if strings.HasSuffix(r.URL.Path, ".sha256") {
			_, _ = w.Write([]byte(checksum))
			return
		}
		_, _ = w.Write(archive)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *releaseServer) Requests() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.requests...)
}

type pipelineFixture struct {
	server    *releaseServer
	platform  *stubPlatform
	installer *recordingInstaller
	target    models.InstallTarget
	wsParent  string
	logs      *bytes.Buffer
}

func newPipelineFixture(t *testing.T, checksum func(sum string) string) *pipelineFixture {
	t.Helper()

	archivePath := createGoArchive(t, map[string]string{"bin/go": "#!/bin/sh\n", "VERSION": "go1.22.5"})
	archive, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	sum := sha256.Sum256(archive)

	return &pipelineFixture{
		server:    newReleaseServer(t, archive, checksum(hex.EncodeToString(sum[:]))),
		platform:  &stubPlatform{key: models.PlatformKey{OS: "linux", Arch: "amd64"}},
		installer: &recordingInstaller{inner: NewInstaller(WithManagedChecker(&stubManaged{}))},
		target:    models.NewInstallTarget(t.TempDir(), false, models.MethodArchive),
		wsParent:  t.TempDir(),
		logs:      &bytes.Buffer{},
	}
}

func (f *pipelineFixture) pipeline(cfg models.Config, report models.CheckReport) *Pipeline {
	cfg.DownloadBase = f.server.URL + "/dl/"
	cfg.ChecksumSources = []string{f.server.URL + "/dl/"}
	logger := log.NewWithOptions(f.logs, log.Options{Level: log.DebugLevel})
	return NewPipeline(cfg, logger, PipelineDeps{
		Checker:         stubChecker{report: report},
		Platform:        f.platform,
		Targets:         stubTargets{target: f.target},
		Fetcher:         NewFetcher(cfg),
		Installer:       f.installer,
		Verifier:        NewPostInstall(&stubBinaryProber{version: "go1.22.5"}, nil),
		Path:            stubPath{},
		WorkspaceParent: f.wsParent,
	})
}

func identity(sum string) string { return sum }

func assertWorkspaceRemoved(t *testing.T, parent string) {
	t.Helper()
	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries, "workspace must be removed")
}

func TestPipelineInstallsUpdate(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, identity)
	report := models.CheckReport{Result: models.UpdateAvailable, Local: "go1.21.0", LocalPath: "/usr/bin/go", Latest: "go1.22.5"}

	out, err := f.pipeline(models.Config{}, report).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Installed)
	assert.Nil(t, out.Plan)
	assert.Equal(t, f.target, out.Target)
	assert.FileExists(t, f.target.BinaryPath)
	assert.Equal(t, []string{
		"/dl/go1.22.5.linux-amd64.tar.gz.sha256",
		"/dl/go1.22.5.linux-amd64.tar.gz",
	}, f.server.Requests())
	assertWorkspaceRemoved(t, f.wsParent)

	logs := f.logs.String()
	for _, state := range []State{StateResolving, StateDownloading, StateVerifyingChecksum, StateInstalling, StateVerifyingPostInstall, StateDone} {
		assert.Contains(t, logs, "state="+string(state))
	}
}

func TestPipelineNotInstalledProceeds(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, identity)
	report := models.CheckReport{Result: models.NotInstalled, Latest: "go1.22.5"}

	out, err := f.pipeline(models.Config{}, report).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Installed)
}

func TestPipelineUpToDateIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, identity)
	for _, result := range []models.CheckResult{models.UpToDate, models.UpToDate, models.LocalNewerOrPrerelease} {
		report := models.CheckReport{Result: result, Local: "go1.22.5", Latest: "go1.22.5"}
		out, err := f.pipeline(models.Config{}, report).Run(context.Background())
		require.NoError(t, err)
		assert.False(t, out.Installed)
	}

	assert.Empty(t, f.server.Requests())
	assert.Zero(t, f.platform.calls)
	assert.Zero(t, f.installer.installs)
	assertWorkspaceRemoved(t, f.wsParent)
}

func TestPipelineDryRun(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, identity)
	report := models.CheckReport{Result: models.UpdateAvailable, Local: "go1.21.0", Latest: "go1.22.5"}

	out, err := f.pipeline(models.Config{DryRun: true}, report).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Plan)
	assert.False(t, out.Installed)
	assert.Equal(t, "go1.22.5", out.Plan.Version)
	assert.Equal(t, f.server.URL+"/dl/go1.22.5.linux-amd64.tar.gz", out.Plan.DownloadURL)
	assert.Equal(t, f.server.URL+"/dl/go1.22.5.linux-amd64.tar.gz.sha256", out.Plan.ChecksumURL)
	assert.Equal(t, models.MethodArchive, out.Plan.Method)
	assert.Equal(t, f.target.Prefix, out.Plan.Prefix)
	assert.Equal(t, `export PATH="`+f.target.BinDir()+`:$PATH"`, out.Plan.PathAdjust)

	assert.Empty(t, f.server.Requests())
	assert.Zero(t, f.installer.installs)
	assert.NoDirExists(t, f.target.Root)
	assertWorkspaceRemoved(t, f.wsParent)
}

func TestPipelineChecksumMismatchNeverInstalls(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, func(string) string { return sampleSum })
	report := models.CheckReport{Result: models.UpdateAvailable, Local: "go1.21.0", Latest: "go1.22.5"}

	out, err := f.pipeline(models.Config{}, report).Run(context.Background())
	assert.ErrorIs(t, err, models.ErrChecksumMismatch)
	assert.False(t, out.Installed)
	assert.Zero(t, f.installer.installs)
	assert.NoDirExists(t, f.target.Root)
	assertWorkspaceRemoved(t, f.wsParent)
	assert.Contains(t, f.logs.String(), "state="+string(StateFailed))
}

func TestPipelineChecksumUnavailableSkipsDownload(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, func(string) string { return "<html>not found</html>" })
	report := models.CheckReport{Result: models.UpdateAvailable, Local: "go1.21.0", Latest: "go1.22.5"}

	_, err := f.pipeline(models.Config{}, report).Run(context.Background())
	assert.ErrorIs(t, err, models.ErrChecksumUnavailable)
	assert.Equal(t, []string{"/dl/go1.22.5.linux-amd64.tar.gz.sha256"}, f.server.Requests())
	assertWorkspaceRemoved(t, f.wsParent)
}

func TestPipelineCheckFailures(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, identity)

	_, err := f.pipeline(models.Config{}, models.CheckReport{Result: models.NetworkError}).Run(context.Background())
	assert.ErrorIs(t, err, models.ErrNetwork)

	_, err = f.pipeline(models.Config{}, models.CheckReport{Result: models.ParseError, Err: models.ErrParse}).Run(context.Background())
	assert.ErrorIs(t, err, models.ErrParse)

	assert.Zero(t, f.platform.calls)
	assert.Empty(t, f.server.Requests())
}

func TestPipelineUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, identity)
	f.platform.err = models.ErrUnsupportedPlatform
	report := models.CheckReport{Result: models.UpdateAvailable, Local: "go1.21.0", Latest: "go1.22.5"}

	_, err := f.pipeline(models.Config{}, report).Run(context.Background())
	assert.ErrorIs(t, err, models.ErrUnsupportedPlatform)
	assert.Empty(t, f.server.Requests())
}

func TestPipelineManagedInstallAborts(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, identity)
	f.installer.inner = NewInstaller(WithManagedChecker(&stubManaged{
		result: &models.ManagedError{Manager: "homebrew", Path: "/opt/homebrew/bin/go", Hint: "brew upgrade go"},
	}))
	report := models.CheckReport{Result: models.UpdateAvailable, Local: "go1.21.0", LocalPath: "/opt/homebrew/bin/go", Latest: "go1.22.5"}

	_, err := f.pipeline(models.Config{}, report).Run(context.Background())
	assert.ErrorIs(t, err, models.ErrManagedByThirdParty)
	assert.Empty(t, f.server.Requests())
	assert.Zero(t, f.installer.installs)
}
