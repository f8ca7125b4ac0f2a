package version

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/liangyou/golatest/pkg/models"
)

const (
	binaryName   = "go"
	probeTimeout = 30 * time.Second
)

// Probe 检测本地是否安装了 go 并读取其版本。
type Probe struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// NewProbe 创建本地版本探测器。
func NewProbe(runner CommandRunner) *Probe {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Probe{runner: runner, lookPath: exec.LookPath}
}

// Probe 在 PATH 中查找 go 并返回版本与路径；未安装时返回 models.ErrNotInstalled。
func (p *Probe) Probe(ctx context.Context) (string, string, error) {
	path, err := p.lookPath(binaryName)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", models.ErrNotInstalled
		}
		return "", "", fmt.Errorf("probe: %w: %v", models.ErrNotInstalled, err)
	}

	ver, err := p.ProbeBinary(ctx, path)
	if err != nil {
		return "", path, err
	}
	return ver, path, nil
}

// ProbeBinary 执行指定的 go 可执行文件并解析 `go version` 输出。
func (p *Probe) ProbeBinary(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := p.runner.Output(ctx, path, "version")
	if err != nil {
		return "", fmt.Errorf("probe: %w: %v", models.ErrParse, err)
	}

	token := ExtractToken(string(out))
	if token == "" {
		return "", fmt.Errorf("probe: %w: no version in %q", models.ErrParse, truncateOutput(out))
	}
	return token, nil
}

func truncateOutput(out []byte) string {
	const limit = 80
	if len(out) > limit {
		return string(out[:limit]) + "..."
	}
	return string(out)
}
