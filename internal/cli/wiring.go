package cli

import (
	"github.com/charmbracelet/log"

	"github.com/liangyou/golatest/internal/env"
	"github.com/liangyou/golatest/internal/mirror"
	"github.com/liangyou/golatest/internal/platform"
	"github.com/liangyou/golatest/internal/remote"
	"github.com/liangyou/golatest/internal/storage"
	"github.com/liangyou/golatest/internal/version"
	"github.com/liangyou/golatest/pkg/models"
)

// DefaultWiring 使用真实的网络、文件系统与命令执行组装服务。
func DefaultWiring(cfg models.Config, logger *log.Logger, progress version.ProgressFunc) Services {
	onFail := func(src mirror.Source, err error) {
		logger.Warn("source failed, trying next", "source", src.Name, "url", src.URL, "err", err)
	}

	resolver := remote.NewResolver(
		remote.WithVersionURL(cfg.VersionURL),
		remote.WithReleasesURL(cfg.ReleasesURL),
		remote.WithTimeout(cfg.MetadataTimeout),
		remote.WithFailureHook(onFail),
	)
	probe := version.NewProbe(version.ExecRunner{})
	checker := version.NewChecker(probe, resolver)
	inspector := env.NewInspector()

	fetcherOpts := []version.FetcherOption{version.WithChecksumFailureHook(onFail)}
	if progress != nil {
		fetcherOpts = append(fetcherOpts, version.WithProgressFunc(progress))
	}

	pipeline := version.NewPipeline(cfg, logger, version.PipelineDeps{
		Checker:   checker,
		Platform:  platform.NewDetector(),
		Targets:   storage.NewTargetResolver(),
		Fetcher:   version.NewFetcher(cfg, fetcherOpts...),
		Installer: version.NewInstaller(version.WithForce(cfg.Force)),
		Verifier:  version.NewPostInstall(probe, inspector),
		Path:      inspector,
	})
	return Services{Checker: checker, Pipeline: pipeline}
}
