package models

import (
	"errors"
	"fmt"
)

// 各阶段失败时返回的错误类别，调用方通过 errors.Is 区分。
var (
	ErrNetwork             = errors.New("network error")
	ErrParse               = errors.New("unexpected response shape")
	ErrNotInstalled        = errors.New("toolchain not installed")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrDownload            = errors.New("download failed")
	ErrChecksumUnavailable = errors.New("checksum unavailable")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrManagedByThirdParty = errors.New("toolchain managed by a third-party package manager")
	ErrInstall             = errors.New("install failed")
	ErrBinaryMissing       = errors.New("installed binary missing")
	ErrPostInstallMismatch = errors.New("post-install version mismatch")
)

// ChecksumError 记录校验失败时的期望值与实际值。
type ChecksumError struct {
	File     string
	Expected string
	Got      string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: got %s want %s", e.File, e.Got, e.Expected)
}

// Unwrap 使 errors.Is(err, ErrChecksumMismatch) 成立。
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// ManagedError 表示当前 go 由其他包管理器安装。
type ManagedError struct {
	Manager string // 例如 homebrew
	Path    string // 检测到的 go 路径
	Hint    string // 建议的升级命令
}

func (e *ManagedError) Error() string {
	msg := fmt.Sprintf("go at %s is managed by %s", e.Path, e.Manager)
	if e.Hint != "" {
		msg += "; update it with: " + e.Hint
	}
	return msg
}

// Unwrap 使 errors.Is(err, ErrManagedByThirdParty) 成立。
func (e *ManagedError) Unwrap() error { return ErrManagedByThirdParty }
