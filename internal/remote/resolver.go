package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/liangyou/golatest/internal/mirror"
	"github.com/liangyou/golatest/internal/version"
	"github.com/liangyou/golatest/pkg/models"
)

const defaultTimeout = 10 * time.Second

// strictVersion 只接受完整的一行版本号，HTML 错误页或重定向正文都会被拒绝。
var strictVersion = regexp.MustCompile(`(?i)^go\d+\.\d+(?:\.\d+)?$`)

// HTTPClient 描述最小化的 HTTP 客户端接口，方便测试时替换。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option 用于配置 Resolver。
type Option func(*Resolver)

// WithVersionURL 设置纯文本版本接口地址。
func WithVersionURL(u string) Option {
	return func(r *Resolver) {
		if u != "" {
			r.versionURL = u
		}
	}
}

// WithReleasesURL 设置 JSON 发行列表地址。
func WithReleasesURL(u string) Option {
	return func(r *Resolver) {
		if u != "" {
			r.releasesURL = u
		}
	}
}

// WithHTTPClient 设置 HTTP 客户端。
func WithHTTPClient(h HTTPClient) Option {
	return func(r *Resolver) {
		if h != nil {
			r.httpClient = h
		}
	}
}

// WithTimeout 设置每个来源的请求超时。
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithFailureHook 在某个来源失败、即将回退时回调。
func WithFailureHook(fn mirror.AttemptFunc) Option {
	return func(r *Resolver) {
		r.onFail = fn
	}
}

// Resolver 先请求纯文本接口，失败或格式不符时回退到 JSON 发行列表。
//
// 发行列表被假定为按新到旧排序，这里不会重新排序：上游顺序变化会导致返回错误的版本。
type Resolver struct {
	versionURL  string
	releasesURL string
	httpClient  HTTPClient
	timeout     time.Duration
	onFail      mirror.AttemptFunc
}

// NewResolver 创建最新版本解析器。
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		versionURL:  mirror.DefaultVersionURL,
		releasesURL: mirror.DefaultReleasesURL,
		httpClient:  http.DefaultClient,
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve 返回最新稳定版本，例如 go1.22.5。两个来源都失败时返回 models.ErrNetwork。
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	chain := mirror.NewChain([]mirror.Source{
		{Name: "version-text", URL: r.versionURL, Timeout: r.timeout, Parse: ParseVersionText},
		{Name: "release-listing", URL: r.releasesURL, Timeout: r.timeout, Parse: ParseReleaseListing},
	}, mirror.WithHTTPClient(r.httpClient), mirror.WithFailureHook(r.onFail))

	res, err := chain.Fetch(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNetwork) {
			return "", fmt.Errorf("resolver: %w", err)
		}
		return "", fmt.Errorf("resolver: %w: %w", models.ErrNetwork, err)
	}
	return res.Value, nil
}

// ParseVersionText 解析纯文本接口，只看第一行，必须严格匹配 goX.Y[.Z]。
func ParseVersionText(data []byte) (string, error) {
	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimSpace(line)
	if !strictVersion.MatchString(line) {
		return "", fmt.Errorf("resolver: unexpected version text %q", truncate(line, 64))
	}
	return strings.ToLower(line[:2]) + line[2:], nil
}

// ParseReleaseListing 从 JSON 发行列表中取第一个稳定版本。
// 列表按从新到旧排列，这里不做排序。
func ParseReleaseListing(data []byte) (string, error) {
	var releases []release
	if err := json.Unmarshal(data, &releases); err != nil {
		return "", fmt.Errorf("resolver: decode listing: %w", err)
	}

	for _, rel := range releases {
		token := version.ExtractToken(rel.Version)
		if token == "" || !version.IsStable(rel.Version) {
			continue
		}
		return token, nil
	}
	return "", errors.New("resolver: no stable release in listing")
}

// release 表示发行列表中的一条记录，只关心版本号。
type release struct {
	Version string `json:"version"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
