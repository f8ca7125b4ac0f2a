package platform

import (
	"fmt"
	"strings"

	"github.com/liangyou/golatest/pkg/models"
)

// kernelOS 将 uname 内核名映射到发行包使用的操作系统标识。
var kernelOS = map[string]string{
	"darwin": "darwin",
	"linux":  "linux",
}

// archAliases 将 uname 机器名的各种写法统一为官方架构标识。
var archAliases = map[string]string{
	"x86_64":  "amd64",
	"amd64":   "amd64",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"i386":    "386",
	"i686":    "386",
	"x86":     "386",
	"armv6l":  "armv6l",
	"armv7l":  "armv6l",
}

// supported 列出官方为每个系统提供的架构。
var supported = map[string]map[string]struct{}{
	"darwin": {"amd64": {}, "arm64": {}},
	"linux":  {"amd64": {}, "arm64": {}, "386": {}, "armv6l": {}},
}

// Detector 读取内核名与机器架构并映射为 PlatformKey。
type Detector struct {
	uname func() (sysname, machine string, err error)
}

// NewDetector 创建平台检测器。
func NewDetector() *Detector {
	return &Detector{uname: uname}
}

// Detect 返回当前平台；未知的系统或架构返回 models.ErrUnsupportedPlatform，不会猜测默认值。
func (d *Detector) Detect() (models.PlatformKey, error) {
	sysname, machine, err := d.uname()
	if err != nil {
		return models.PlatformKey{}, fmt.Errorf("platform: uname: %w", err)
	}
	return Map(sysname, machine)
}

// Map 将内核名与机器名映射为 PlatformKey。
func Map(sysname, machine string) (models.PlatformKey, error) {
	goos, ok := kernelOS[strings.ToLower(strings.TrimSpace(sysname))]
	if !ok {
		return models.PlatformKey{}, fmt.Errorf("platform: %w: operating system %q", models.ErrUnsupportedPlatform, sysname)
	}

	arch, ok := archAliases[strings.ToLower(strings.TrimSpace(machine))]
	if !ok {
		return models.PlatformKey{}, fmt.Errorf("platform: %w: architecture %q", models.ErrUnsupportedPlatform, machine)
	}
	if _, ok := supported[goos][arch]; !ok {
		return models.PlatformKey{}, fmt.Errorf("platform: %w: %s-%s", models.ErrUnsupportedPlatform, goos, arch)
	}

	return models.PlatformKey{OS: goos, Arch: arch}, nil
}
