package version

import (
	"context"
	"errors"

	"github.com/liangyou/golatest/pkg/models"
)

// LocalProber 读取本地 go 的版本与路径。
type LocalProber interface {
	Probe(ctx context.Context) (version, path string, err error)
}

// LatestResolver 获取上游最新稳定版本。
type LatestResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Checker 对比本地与上游版本，得出 CheckResult。
type Checker struct {
	local  LocalProber
	remote LatestResolver
}

// NewChecker 创建版本检查服务。
func NewChecker(local LocalProber, remote LatestResolver) *Checker {
	return &Checker{local: local, remote: remote}
}

// Check 执行一次检查。本地未安装时仍然解析远程版本，以便安装阶段使用。
func (c *Checker) Check(ctx context.Context) models.CheckReport {
	local, path, err := c.local.Probe(ctx)
	report := models.CheckReport{Local: local, LocalPath: path}

	notInstalled := false
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotInstalled):
		notInstalled = true
	default:
		report.Result = models.ParseError
		report.Err = err
		return report
	}

	latest, err := c.remote.Resolve(ctx)
	if err != nil {
		report.Result = models.NetworkError
		report.Err = err
		return report
	}
	report.Latest = latest

	if notInstalled {
		report.Result = models.NotInstalled
		return report
	}

	switch cmp := Compare(local, latest); {
	case cmp < 0:
		report.Result = models.UpdateAvailable
	case cmp > 0 || !IsStable(local):
		report.Result = models.LocalNewerOrPrerelease
	default:
		report.Result = models.UpToDate
	}
	return report
}
