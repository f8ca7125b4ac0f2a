package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/liangyou/golatest/pkg/models"
)

// SystemPrefix 是以 root 运行时的安装前缀。
const SystemPrefix = "/usr/local"

// TargetResolver 根据权限与配置决定安装前缀与安装方式。
type TargetResolver struct {
	geteuid  func() int
	homeDir  func() (string, error)
	writable func(string) bool
}

// NewTargetResolver 创建 TargetResolver。
func NewTargetResolver() *TargetResolver {
	return &TargetResolver{
		geteuid:  unix.Geteuid,
		homeDir:  os.UserHomeDir,
		writable: func(p string) bool { return unix.Access(p, unix.W_OK) == nil },
	}
}

// Elevated 表示当前进程是否拥有 root 权限。
func (r *TargetResolver) Elevated() bool {
	return r.geteuid() == 0
}

// Resolve 返回本次运行的安装目标。root 时固定安装到 SystemPrefix，macOS 上使用 .pkg；
// 否则安装到 cfg.Prefix（默认 ~/.local）并使用 tar.gz。
func (r *TargetResolver) Resolve(cfg models.Config, platform models.PlatformKey) (models.InstallTarget, error) {
	if r.Elevated() {
		method := models.MethodArchive
		if platform.IsDarwin() {
			method = models.MethodPackage
		}
		return models.NewInstallTarget(SystemPrefix, true, method), nil
	}

	prefix, err := r.userPrefix(cfg.Prefix)
	if err != nil {
		return models.InstallTarget{}, err
	}
	return models.NewInstallTarget(prefix, false, models.MethodArchive), nil
}

// CheckWritable 确认前缀（或其最近的已存在父目录）可写，不做任何修改。
func (r *TargetResolver) CheckWritable(target models.InstallTarget) error {
	dir := target.Prefix
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("storage: prefix %s is not a directory", dir)
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: stat %s: %w", dir, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if !r.writable(dir) {
		return fmt.Errorf("storage: %s is not writable; rerun as root or set GOLATEST_PREFIX", dir)
	}
	return nil
}

func (r *TargetResolver) userPrefix(configured string) (string, error) {
	prefix := strings.TrimSpace(configured)
	if prefix == "" || prefix == "~" || strings.HasPrefix(prefix, "~/") {
		home, err := r.homeDir()
		if err != nil {
			return "", fmt.Errorf("storage: home dir: %w", err)
		}
		switch {
		case prefix == "":
			prefix = filepath.Join(home, ".local")
		case prefix == "~":
			prefix = home
		default:
			prefix = filepath.Join(home, prefix[2:])
		}
	}
	if !filepath.IsAbs(prefix) {
		return "", fmt.Errorf("storage: install prefix %q must be an absolute path", prefix)
	}
	return filepath.Clean(prefix), nil
}
