package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// downloadProgress 在首次回调时创建进度条，总大小未知时显示为不定长度。
type downloadProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newDownloadProgress(w io.Writer) *downloadProgress {
	return &downloadProgress{w: w}
}

// Update 满足 version.ProgressFunc。
func (p *downloadProgress) Update(done, total int64) {
	if p.bar == nil {
		if total <= 0 {
			total = -1
		}
		p.bar = progressbar.NewOptions64(
			total,
			progressbar.OptionSetDescription("   "),
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(50*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(p.w, "\n")
			}),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "▓",
				SaucerHead:    "▓",
				SaucerPadding: "░",
				BarStart:      "┃",
				BarEnd:        "┃",
			}),
		)
	}
	_ = p.bar.Set64(done)
}

// Finish 结束进度条，未开始下载时不输出任何内容。
func (p *downloadProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
