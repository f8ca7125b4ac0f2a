package version

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/liangyou/golatest/internal/platform"
	"github.com/liangyou/golatest/pkg/models"
)

// ManagedChecker 判断当前 go 是否由第三方包管理器安装。
type ManagedChecker interface {
	Detect(ctx context.Context, goPath string) *models.ManagedError
}

// Installer 负责将校验通过的发行包安装到目标前缀。
type Installer struct {
	runner  CommandRunner
	managed ManagedChecker
	force   bool
	goos    string
	geteuid func() int
}

// InstallerOption 配置 Installer。
type InstallerOption func(*Installer)

// WithRunner 指定执行 macOS installer 的命令执行器。
func WithRunner(runner CommandRunner) InstallerOption {
	return func(i *Installer) {
		if runner != nil {
			i.runner = runner
		}
	}
}

// WithManagedChecker 指定第三方包管理器检测实现。
func WithManagedChecker(checker ManagedChecker) InstallerOption {
	return func(i *Installer) {
		if checker != nil {
			i.managed = checker
		}
	}
}

// WithForce 设置为 true 时忽略第三方包管理器检测结果。
func WithForce(force bool) InstallerOption {
	return func(i *Installer) {
		i.force = force
	}
}

// NewInstaller 创建 Installer。
func NewInstaller(opts ...InstallerOption) *Installer {
	i := &Installer{
		runner:  ExecRunner{},
		managed: platform.NewManagedDetector(),
		goos:    runtime.GOOS,
		geteuid: os.Geteuid,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// CheckManaged 在安装前确认当前 go 不是由 Homebrew 等工具管理的。
func (i *Installer) CheckManaged(ctx context.Context, goPath string) error {
	if i.force || i.managed == nil {
		return nil
	}
	if managed := i.managed.Detect(ctx, goPath); managed != nil {
		return managed
	}
	return nil
}

// Install 按安装方式将 artifactPath 安装到 target，所有失败都包装为 models.ErrInstall。
func (i *Installer) Install(ctx context.Context, artifactPath string, target models.InstallTarget) error {
	var err error
	switch target.Method {
	case models.MethodPackage:
		err = i.installPackage(ctx, artifactPath, target)
	default:
		err = installArchive(artifactPath, target)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrInstall, err)
	}
	return nil
}

// installArchive 解压到前缀下的临时目录，确认包含 go/bin/go 后再替换旧的 <prefix>/go。
func installArchive(archivePath string, target models.InstallTarget) error {
	if err := os.MkdirAll(target.Prefix, 0o755); err != nil {
		return fmt.Errorf("installer: prepare prefix: %w", err)
	}

	staging, err := os.MkdirTemp(target.Prefix, ".golatest-staging-*")
	if err != nil {
		return fmt.Errorf("installer: create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	destDir := filepath.Join(staging, "go")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("installer: prepare extract dir: %w", err)
	}

	if err := extractTarGz(archivePath, destDir); err != nil {
		return err
	}

	if _, err := os.Stat(filepath.Join(destDir, "bin", binaryName)); err != nil {
		return fmt.Errorf("installer: archive has no go/bin/go: %w", err)
	}

	if err := os.RemoveAll(target.Root); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("installer: remove previous install: %w", err)
	}

	if err := os.Rename(destDir, target.Root); err != nil {
		return fmt.Errorf("installer: move install directory: %w", err)
	}
	return nil
}

// installPackage 调用 macOS installer，命令不随 ctx 取消而中断。
func (i *Installer) installPackage(ctx context.Context, pkgPath string, target models.InstallTarget) error {
	if i.goos != "darwin" {
		return fmt.Errorf("installer: package installs are only supported on darwin, not %s", i.goos)
	}
	if !target.Elevated || i.geteuid() != 0 {
		return errors.New("installer: package installs require root")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := i.runner.Output(context.WithoutCancel(ctx), "installer", "-pkg", pkgPath, "-target", "/"); err != nil {
		return fmt.Errorf("installer: %w", err)
	}
	return nil
}

func extractTarGz(archivePath, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("installer: open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("installer: gzip reader: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("installer: read archive: %w", err)
		}

		relPath, skip, err := normalizeTarPath(header.Name)
		if err != nil {
			return err
		}
		if skip {
			continue
		}

		target := filepath.Join(dest, filepath.FromSlash(relPath))
		if err := ensureWithinRoot(dest, target); err != nil {
			return err
		}

		mode := os.FileMode(header.Mode).Perm()
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, mode|0o700); err != nil {
				return fmt.Errorf("installer: mkdir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeRegular(tr, target, mode); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := checkSymlink(dest, target, header.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("installer: mkdir for symlink %s: %w", target, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("installer: symlink %s: %w", target, err)
			}
		case tar.TypeXGlobalHeader:
			continue
		default:
			return fmt.Errorf("installer: unsupported tar entry %q", header.Name)
		}
	}

	return nil
}

func writeRegular(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("installer: mkdir for file %s: %w", target, err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("installer: create file %s: %w", target, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("installer: copy file %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("installer: close file %s: %w", target, err)
	}
	return nil
}

// normalizeTarPath 去掉 go/ 前缀；不在 go/ 下的条目与路径穿越都视为非法归档。
func normalizeTarPath(name string) (string, bool, error) {
	clean := strings.TrimPrefix(path.Clean(name), "./")
	if clean == "go" || clean == "." || clean == "" {
		return "", true, nil
	}
	if !strings.HasPrefix(clean, "go/") {
		return "", false, fmt.Errorf("installer: entry %q outside go/", name)
	}
	return strings.TrimPrefix(clean, "go/"), false, nil
}

func checkSymlink(root, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("installer: absolute symlink %s -> %s", target, linkname)
	}
	return ensureWithinRoot(root, filepath.Join(filepath.Dir(target), linkname))
}

func ensureWithinRoot(root, target string) error {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	if target == root {
		return nil
	}
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return fmt.Errorf("installer: illegal path %s", target)
	}
	return nil
}
