package models

// PlatformKey 表示官方发行包命名使用的操作系统与架构。
type PlatformKey struct {
	OS   string // darwin 或 linux
	Arch string // amd64、arm64、386、armv6l
}

// Suffix 返回发行包文件名中的平台后缀，例如 linux-amd64。
func (p PlatformKey) Suffix() string {
	return p.OS + "-" + p.Arch
}

// IsDarwin 表示是否为 macOS。
func (p PlatformKey) IsDarwin() bool {
	return p.OS == "darwin"
}

func (p PlatformKey) String() string {
	return p.Suffix()
}
