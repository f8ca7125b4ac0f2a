package env

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Inspector 检查当前 PATH 是否能找到新安装的 go。
type Inspector struct {
	getenv       func(string) string
	lookPath     func(string) (string, error)
	evalSymlinks func(string) (string, error)
}

// NewInspector 创建 PATH 检查器。
func NewInspector() *Inspector {
	return &Inspector{
		getenv:       os.Getenv,
		lookPath:     exec.LookPath,
		evalSymlinks: filepath.EvalSymlinks,
	}
}

// Contains 判断 dir 是否在 PATH 中。
func (i *Inspector) Contains(dir string) bool {
	want := i.canonical(dir)
	for _, entry := range filepath.SplitList(i.getenv("PATH")) {
		if entry == "" {
			continue
		}
		if i.canonical(entry) == want {
			return true
		}
	}
	return false
}

// FirstGo 返回 PATH 中第一个 go 的路径，找不到时返回空字符串。
func (i *Inspector) FirstGo() string {
	path, err := i.lookPath("go")
	if err != nil {
		return ""
	}
	return path
}

// Advise 在 binDir 不在 PATH 中或 PATH 中的第一个 go 不是 binary 时返回提示，否则返回空字符串。
func (i *Inspector) Advise(binDir, binary string) string {
	if !i.Contains(binDir) {
		return fmt.Sprintf("%s is not on PATH; add it to %s:\n  %s", binDir, i.profileHint(), ExportLine(binDir))
	}
	first := i.FirstGo()
	if first != "" && i.canonical(first) != i.canonical(binary) {
		return fmt.Sprintf("%s shadows %s on PATH; put %s first in %s:\n  %s", first, binary, binDir, i.profileHint(), ExportLine(binDir))
	}
	return ""
}

// ExportLine 返回把 binDir 放到 PATH 最前面的 shell 语句。
func ExportLine(binDir string) string {
	return fmt.Sprintf("export PATH=\"%s:$PATH\"", binDir)
}

// profileHint 根据 SHELL 推断建议修改的配置文件。
func (i *Inspector) profileHint() string {
	switch filepath.Base(i.getenv("SHELL")) {
	case "zsh":
		return "~/.zshrc"
	case "bash":
		return "~/.bashrc"
	case "fish":
		return "~/.config/fish/config.fish"
	default:
		return "your shell profile"
	}
}

func (i *Inspector) canonical(path string) string {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	if real, err := i.evalSymlinks(cleaned); err == nil {
		return real
	}
	return cleaned
}
