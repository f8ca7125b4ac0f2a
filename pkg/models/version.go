package models

// CheckResult 是版本检查阶段的唯一输出。
type CheckResult int

const (
	UpToDate CheckResult = iota
	UpdateAvailable
	LocalNewerOrPrerelease
	NetworkError
	NotInstalled
	ParseError
)

// String 返回检查结果的可读名称。
func (r CheckResult) String() string {
	switch r {
	case UpToDate:
		return "up-to-date"
	case UpdateAvailable:
		return "update-available"
	case LocalNewerOrPrerelease:
		return "local-newer-or-prerelease"
	case NetworkError:
		return "network-error"
	case NotInstalled:
		return "not-installed"
	case ParseError:
		return "parse-error"
	default:
		return "unknown"
	}
}

// NeedsInstall 表示检查结果是否应继续进入安装阶段。
func (r CheckResult) NeedsInstall() bool {
	return r == UpdateAvailable || r == NotInstalled
}

// CheckReport 汇总本地与远程版本信息。
type CheckReport struct {
	Result    CheckResult
	Local     string // 本地版本，例如 go1.21.0；未安装时为空
	LocalPath string // 本地 go 可执行文件路径
	Latest    string // 远程最新稳定版本，例如 go1.22.5
	Err       error  // NetworkError / ParseError 时的原因
}
