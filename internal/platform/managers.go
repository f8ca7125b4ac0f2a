package platform

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/liangyou/golatest/pkg/models"
)

const brewProbeTimeout = 20 * time.Second

// PackageManager 描述一个可能接管 go 安装的第三方包管理器。
type PackageManager struct {
	Name    string
	Markers []string // go 实际路径中出现即认为由其管理
	Hint    string   // 建议的升级命令
}

// KnownManagers 是按顺序匹配的第三方包管理器列表。
var KnownManagers = []PackageManager{
	{Name: "homebrew", Markers: []string{"/Cellar/", "/opt/homebrew/", "/home/linuxbrew/.linuxbrew/"}, Hint: "brew upgrade go"},
	{Name: "macports", Markers: []string{"/opt/local/"}, Hint: "sudo port selfupdate && sudo port upgrade go"},
	{Name: "asdf", Markers: []string{"/.asdf/"}, Hint: "asdf install golang latest"},
	{Name: "mise", Markers: []string{"/mise/installs/"}, Hint: "mise use -g go@latest"},
	{Name: "goenv", Markers: []string{"/.goenv/"}, Hint: "goenv install <version>"},
	{Name: "gvm", Markers: []string{"/.gvm/"}, Hint: "gvm install <version>"},
	{Name: "snap", Markers: []string{"/snap/"}, Hint: "sudo snap refresh go"},
	{Name: "system package", Markers: []string{"/usr/lib/go", "/usr/share/go"}, Hint: "your distribution's package manager (apt, dnf, pacman)"},
}

// ManagedDetector 检测当前 go 是否由第三方包管理器安装。
type ManagedDetector struct {
	managers     []PackageManager
	lookPath     func(string) (string, error)
	evalSymlinks func(string) (string, error)
	run          func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewManagedDetector 创建检测器。
func NewManagedDetector() *ManagedDetector {
	return &ManagedDetector{
		managers:     KnownManagers,
		lookPath:     exec.LookPath,
		evalSymlinks: filepath.EvalSymlinks,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Detect 依据 go 的真实路径与 Homebrew 查询判断是否由第三方管理，未被管理时返回 nil。
func (d *ManagedDetector) Detect(ctx context.Context, goPath string) *models.ManagedError {
	resolved := goPath
	if goPath != "" {
		if real, err := d.evalSymlinks(goPath); err == nil {
			resolved = real
		}
		slashed := filepath.ToSlash(resolved)
		for _, m := range d.managers {
			for _, marker := range m.Markers {
				if strings.Contains(slashed, marker) {
					return &models.ManagedError{Manager: m.Name, Path: resolved, Hint: m.Hint}
				}
			}
		}
	}

	if d.brewOwnsGo(ctx, resolved) {
		path := goPath
		if path == "" {
			path = "brew"
		}
		return &models.ManagedError{Manager: "homebrew", Path: path, Hint: "brew upgrade go"}
	}
	return nil
}

// brewOwnsGo 通过 `brew list --versions go` 判断 Homebrew 是否安装了 go。
// 仅在 PATH 中没有 go，或 go 正是 brew 前缀下的链接时才查询。
func (d *ManagedDetector) brewOwnsGo(ctx context.Context, resolved string) bool {
	brew, err := d.lookPath("brew")
	if err != nil {
		return false
	}
	if resolved != "" {
		prefix := filepath.Dir(filepath.Dir(brew))
		if resolved != filepath.Join(prefix, "bin", "go") {
			return false
		}
	}

	ctx, cancel := context.WithTimeout(ctx, brewProbeTimeout)
	defer cancel()

	out, err := d.run(ctx, brew, "list", "--versions", "go")
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(string(out)), "go ")
}
