package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/fang"

	"github.com/liangyou/golatest/pkg/models"
)

// check 命令的退出码。
const (
	CheckUpToDate        = 0
	CheckUpdateAvailable = 10
	CheckLocalNewer      = 11
	CheckNetworkError    = 12
	CheckNotInstalled    = 13
	CheckParseError      = 14
	CheckUnexpected      = 15
)

// install 命令的退出码。
const (
	InstallOK               = 0
	InstallEnvironment      = 1
	InstallNetwork          = 2
	InstallChecksumMismatch = 3
	InstallFailed           = 4
	InstallPostMismatch     = 5
)

// ExitError 把退出码从 RunE 带回 main，命令已自行输出过提示。
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap 返回底层错误。
func (e *ExitError) Unwrap() error {
	return e.Err
}

// CheckExitCode 将检查结果映射为 check 命令的退出码。
func CheckExitCode(result models.CheckResult) int {
	switch result {
	case models.UpToDate:
		return CheckUpToDate
	case models.UpdateAvailable:
		return CheckUpdateAvailable
	case models.LocalNewerOrPrerelease:
		return CheckLocalNewer
	case models.NetworkError:
		return CheckNetworkError
	case models.NotInstalled:
		return CheckNotInstalled
	case models.ParseError:
		return CheckParseError
	default:
		return CheckUnexpected
	}
}

// InstallExitCode 按错误类别映射 install 命令的退出码。
func InstallExitCode(err error) int {
	switch {
	case err == nil:
		return InstallOK
	case errors.Is(err, models.ErrChecksumMismatch):
		return InstallChecksumMismatch
	case errors.Is(err, models.ErrNetwork),
		errors.Is(err, models.ErrDownload),
		errors.Is(err, models.ErrChecksumUnavailable):
		return InstallNetwork
	case errors.Is(err, models.ErrBinaryMissing),
		errors.Is(err, models.ErrPostInstallMismatch):
		return InstallPostMismatch
	case errors.Is(err, models.ErrInstall):
		return InstallFailed
	default:
		return InstallEnvironment
	}
}

// ErrorHandler 跳过已由命令输出过的 ExitError，其余错误交给 fang 的默认处理。
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
