package models

import "path/filepath"

// InstallMethod 决定下载的文件类型与安装方式。
type InstallMethod int

const (
	// MethodArchive 下载 tar.gz 并解压到前缀目录。
	MethodArchive InstallMethod = iota
	// MethodPackage 下载 .pkg 并交给 macOS installer 安装，需要 root。
	MethodPackage
)

// Extension 返回该安装方式对应的文件扩展名。
func (m InstallMethod) Extension() string {
	if m == MethodPackage {
		return "pkg"
	}
	return "tar.gz"
}

func (m InstallMethod) String() string {
	if m == MethodPackage {
		return "package-installer"
	}
	return "archive"
}

// Artifact 描述一次安装所用的发行包。
type Artifact struct {
	Version     string // 完整版本字符串，例如 go1.22.5
	Filename    string // go1.22.5.linux-amd64.tar.gz
	URL         string
	Checksum    string // 官方 SHA256，获取后填入
	ChecksumURL string // 提供校验值的来源地址
	Method      InstallMethod
}

// WithChecksum 返回附带校验值的新描述，原值保持不变。
func (a Artifact) WithChecksum(sum, source string) Artifact {
	a.Checksum = sum
	a.ChecksumURL = source
	return a
}

// InstallTarget 描述安装前缀与权限。
type InstallTarget struct {
	Prefix     string // 例如 /usr/local 或 ~/.local
	Elevated   bool   // 是否以 root 运行
	Method     InstallMethod
	Root       string // <prefix>/go
	BinaryPath string // <prefix>/go/bin/go
}

// NewInstallTarget 根据前缀推导 GOROOT 与 go 可执行文件路径。
func NewInstallTarget(prefix string, elevated bool, method InstallMethod) InstallTarget {
	root := filepath.Join(prefix, "go")
	return InstallTarget{
		Prefix:     prefix,
		Elevated:   elevated,
		Method:     method,
		Root:       root,
		BinaryPath: filepath.Join(root, "bin", "go"),
	}
}

// BinDir 返回 <root>/bin。
func (t InstallTarget) BinDir() string {
	return filepath.Dir(t.BinaryPath)
}

// Plan 是 dry-run 模式下输出的计划动作。
type Plan struct {
	Version     string
	DownloadURL string
	ChecksumURL string
	Method      InstallMethod
	Prefix      string
	PathAdjust  string // 需要追加的 PATH 配置，已在 PATH 中时为空
}

// Outcome 是安装流水线的最终结果。
type Outcome struct {
	Check     CheckReport
	Plan      *Plan // 仅 dry-run 时非空
	Installed bool  // 是否实际执行了安装
	Target    InstallTarget
	Advisory  string // 非致命的 PATH 提示
}
