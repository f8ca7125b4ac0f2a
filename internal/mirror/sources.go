package mirror

import (
	"net/url"
	"strings"
	"time"
)

// 官方默认地址。
const (
	DefaultVersionURL   = "https://go.dev/VERSION?m=text"
	DefaultReleasesURL  = "https://go.dev/dl/?mode=json"
	DefaultDownloadBase = "https://go.dev/dl/"
)

// DefaultChecksumBases 是 .sha256 文件的来源，首个为主来源，其余为镜像。
var DefaultChecksumBases = []string{
	"https://go.dev/dl/",
	"https://dl.google.com/go/",
	"https://golang.google.cn/dl/",
}

// JoinURL 将文件名拼接到基础地址后。
func JoinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(name, "/")
}

// ChecksumSources 为指定发行包构造按顺序尝试的校验值来源。
func ChecksumSources(bases []string, filename string, timeout time.Duration, parse Parser) []Source {
	sources := make([]Source, 0, len(bases))
	for _, base := range bases {
		base = strings.TrimSpace(base)
		if base == "" {
			continue
		}
		sources = append(sources, Source{
			Name:    hostName(base),
			URL:     JoinURL(base, filename+".sha256"),
			Timeout: timeout,
			Parse:   parse,
		})
	}
	return sources
}

func hostName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
