package version

import (
	"context"
	"fmt"
	"os"

	"github.com/liangyou/golatest/pkg/models"
)

// BinaryProber 执行指定的 go 可执行文件并返回其版本。
type BinaryProber interface {
	ProbeBinary(ctx context.Context, path string) (string, error)
}

// PathAdvisor 在 PATH 找不到新安装的 go 时给出提示。
type PathAdvisor interface {
	Advise(binDir, binary string) string
}

// PostInstall 在安装完成后确认二进制存在且版本正确。
type PostInstall struct {
	prober  BinaryProber
	advisor PathAdvisor
}

// NewPostInstall 创建安装后校验器，advisor 可以为 nil。
func NewPostInstall(prober BinaryProber, advisor PathAdvisor) *PostInstall {
	return &PostInstall{prober: prober, advisor: advisor}
}

// Verify 校验 target 中的 go 版本等于 expected，并返回非致命的 PATH 提示。
func (p *PostInstall) Verify(ctx context.Context, target models.InstallTarget, expected string) (string, error) {
	info, err := os.Stat(target.BinaryPath)
	if err != nil {
		return "", fmt.Errorf("postinstall: %w: %v", models.ErrBinaryMissing, err)
	}
	if !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("postinstall: %w: %s is not an executable file", models.ErrBinaryMissing, target.BinaryPath)
	}

	got, err := p.prober.ProbeBinary(ctx, target.BinaryPath)
	if err != nil {
		return "", fmt.Errorf("postinstall: %w: %v", models.ErrPostInstallMismatch, err)
	}
	if Normalize(got) != Normalize(expected) {
		return "", fmt.Errorf("postinstall: %w: %s reports %s, want %s", models.ErrPostInstallMismatch, target.BinaryPath, got, expected)
	}

	if p.advisor == nil {
		return "", nil
	}
	return p.advisor.Advise(target.BinDir(), target.BinaryPath), nil
}
