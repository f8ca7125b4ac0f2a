package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Options 控制日志输出级别。
type Options struct {
	Quiet   bool // 只输出错误，优先于 Verbose
	Verbose bool // 输出调试日志并附带时间戳
}

// New 创建写往 w 的 logger，w 为 nil 时写往 stderr。
func New(w io.Writer, opts Options) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := log.InfoLevel
	switch {
	case opts.Quiet:
		level = log.ErrorLevel
	case opts.Verbose:
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          "golatest",
		Level:           level,
		ReportTimestamp: opts.Verbose && !opts.Quiet,
	})
}
