package version

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/liangyou/golatest/internal/env"
	"github.com/liangyou/golatest/internal/storage"
	"github.com/liangyou/golatest/pkg/models"
)

// State 是安装流水线的阶段，每次切换都会以 debug 级别记录。
type State string

const (
	StateResolving            State = "resolving"
	StateComparing            State = "comparing"
	StateUpToDate             State = "up-to-date"
	StateNewerLocal           State = "newer-local"
	StateInstalling           State = "installing"
	StateDownloading          State = "downloading"
	StateVerifyingChecksum    State = "verifying-checksum"
	StateVerifyingPostInstall State = "verifying-post-install"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

// StatusChecker 给出本地与上游版本的比较结果。
type StatusChecker interface {
	Check(ctx context.Context) models.CheckReport
}

// PlatformDetector 识别当前操作系统与架构。
type PlatformDetector interface {
	Detect() (models.PlatformKey, error)
}

// TargetResolver 决定安装前缀与安装方式。
type TargetResolver interface {
	Resolve(cfg models.Config, platform models.PlatformKey) (models.InstallTarget, error)
	CheckWritable(target models.InstallTarget) error
}

// ArtifactFetcher 生成发行包描述并下载发行包与校验值。
type ArtifactFetcher interface {
	Describe(version string, platform models.PlatformKey, target models.InstallTarget) models.Artifact
	FetchChecksum(ctx context.Context, artifact models.Artifact) (models.Artifact, error)
	Download(ctx context.Context, artifact models.Artifact, dir string) (string, error)
}

// ArtifactInstaller 检查第三方管理并执行安装。
type ArtifactInstaller interface {
	CheckManaged(ctx context.Context, goPath string) error
	Install(ctx context.Context, artifactPath string, target models.InstallTarget) error
}

// PostVerifier 在安装后校验结果。
type PostVerifier interface {
	Verify(ctx context.Context, target models.InstallTarget, expected string) (string, error)
}

// PathChecker 判断目录是否已在 PATH 中。
type PathChecker interface {
	Contains(dir string) bool
}

// PipelineDeps 汇总流水线依赖，由 cli 层组装。
type PipelineDeps struct {
	Checker   StatusChecker
	Platform  PlatformDetector
	Targets   TargetResolver
	Fetcher   ArtifactFetcher
	Installer ArtifactInstaller
	Verifier  PostVerifier
	Path      PathChecker

	// WorkspaceParent 为空时使用系统临时目录。
	WorkspaceParent string
}

// Pipeline 串联检查、下载、校验、安装与安装后校验。
type Pipeline struct {
	cfg    models.Config
	logger *log.Logger
	deps   PipelineDeps
}

// NewPipeline 创建安装流水线，logger 为 nil 时丢弃日志。
func NewPipeline(cfg models.Config, logger *log.Logger, deps PipelineDeps) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{cfg: cfg, logger: logger, deps: deps}
}

// Run 执行一次完整流程。已是最新或本地更新时不下载任何内容；dry-run 时只返回计划。
func (p *Pipeline) Run(ctx context.Context) (models.Outcome, error) {
	p.transition(StateResolving)
	report := p.deps.Checker.Check(ctx)
	out := models.Outcome{Check: report}

	p.transition(StateComparing, "local", report.Local, "latest", report.Latest, "result", report.Result)
	switch report.Result {
	case models.UpToDate:
		p.transition(StateUpToDate, "version", report.Local)
		return out, nil
	case models.LocalNewerOrPrerelease:
		p.transition(StateNewerLocal, "local", report.Local, "latest", report.Latest)
		return out, nil
	case models.NetworkError, models.ParseError:
		err := report.Err
		if err == nil {
			err = models.ErrNetwork
			if report.Result == models.ParseError {
				err = models.ErrParse
			}
		}
		return out, p.fail(err)
	}

	p.transition(StateInstalling, "reason", report.Result, "version", report.Latest)
	key, err := p.deps.Platform.Detect()
	if err != nil {
		return out, p.fail(err)
	}
	target, err := p.deps.Targets.Resolve(p.cfg, key)
	if err != nil {
		return out, p.fail(err)
	}
	out.Target = target
	p.logger.Debug("install target", "platform", key, "prefix", target.Prefix, "method", target.Method, "elevated", target.Elevated)

	if err := p.deps.Installer.CheckManaged(ctx, report.LocalPath); err != nil {
		return out, p.fail(err)
	}
	if err := p.deps.Targets.CheckWritable(target); err != nil {
		return out, p.fail(err)
	}

	artifact := p.deps.Fetcher.Describe(report.Latest, key, target)
	if p.cfg.DryRun {
		out.Plan = p.plan(artifact, target)
		p.transition(StateDone, "dry_run", true)
		return out, nil
	}

	ws, err := storage.NewWorkspace(p.deps.WorkspaceParent)
	if err != nil {
		return out, p.fail(err)
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			p.logger.Warn("workspace cleanup failed", "dir", ws.Dir(), "err", err)
		}
	}()

	p.transition(StateDownloading, "url", artifact.URL, "checksum_url", artifact.ChecksumURL)
	artifact, err = p.deps.Fetcher.FetchChecksum(ctx, artifact)
	if err != nil {
		return out, p.fail(err)
	}
	file, err := p.deps.Fetcher.Download(ctx, artifact, ws.Dir())
	if err != nil {
		return out, p.fail(err)
	}

	p.transition(StateVerifyingChecksum, "file", file, "source", artifact.ChecksumURL)
	if err := VerifyFile(file, artifact.Checksum); err != nil {
		return out, p.fail(err)
	}

	p.transition(StateInstalling, "root", target.Root, "method", target.Method)
	if err := p.deps.Installer.Install(ctx, file, target); err != nil {
		return out, p.fail(err)
	}

	p.transition(StateVerifyingPostInstall, "binary", target.BinaryPath)
	advisory, err := p.deps.Verifier.Verify(ctx, target, report.Latest)
	if err != nil {
		return out, p.fail(err)
	}
	out.Installed = true
	out.Advisory = advisory

	p.transition(StateDone, "version", report.Latest)
	return out, nil
}

func (p *Pipeline) plan(artifact models.Artifact, target models.InstallTarget) *models.Plan {
	plan := &models.Plan{
		Version:     artifact.Version,
		DownloadURL: artifact.URL,
		ChecksumURL: artifact.ChecksumURL,
		Method:      artifact.Method,
		Prefix:      target.Prefix,
	}
	if p.deps.Path != nil && !p.deps.Path.Contains(target.BinDir()) {
		plan.PathAdjust = env.ExportLine(target.BinDir())
	}
	return plan
}

func (p *Pipeline) transition(state State, keyvals ...interface{}) {
	p.logger.Debug("transition", append([]interface{}{"state", state}, keyvals...)...)
}

func (p *Pipeline) fail(err error) error {
	p.transition(StateFailed, "err", err)
	return err
}
