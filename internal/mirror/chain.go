// Package mirror 按顺序尝试一组远程来源，第一个成功的结果即返回。
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/liangyou/golatest/pkg/models"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// Parser 从响应体中提取所需的值，失败时返回错误以便尝试下一个来源。
type Parser func([]byte) (string, error)

// HTTPClient 最小化 HTTP 客户端接口，便于测试替换。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source 是链中的一个来源，每个来源拥有独立的超时与解析规则。
type Source struct {
	Name    string
	URL     string
	Timeout time.Duration
	Parse   Parser
}

// Result 是成功的来源及其解析值。
type Result struct {
	Value  string
	Source Source
}

// AttemptFunc 在每个来源失败后被调用。
type AttemptFunc func(src Source, err error)

// Chain 依次请求各来源，不做并发竞速，也不重试。
type Chain struct {
	sources []Source
	client  HTTPClient
	onFail  AttemptFunc
}

// Option 用于配置 Chain。
type Option func(*Chain)

// WithHTTPClient 设置自定义 HTTP 客户端。
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Chain) {
		if client != nil {
			c.client = client
		}
	}
}

// WithFailureHook 设置来源失败时的回调，通常用于记录回退日志。
func WithFailureHook(fn AttemptFunc) Option {
	return func(c *Chain) {
		c.onFail = fn
	}
}

// NewChain 创建来源链。
func NewChain(sources []Source, opts ...Option) *Chain {
	c := &Chain{
		sources: sources,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sources 返回链中的来源副本。
func (c *Chain) Sources() []Source {
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// Fetch 依次尝试各来源，返回第一个解析成功的结果；全部失败时返回合并后的错误。
func (c *Chain) Fetch(ctx context.Context) (Result, error) {
	if len(c.sources) == 0 {
		return Result{}, errors.New("mirror: no sources configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, src := range c.sources {
		value, err := c.fetchOne(ctx, src)
		if err == nil {
			return Result{Value: value, Source: src}, nil
		}
		if c.onFail != nil {
			c.onFail(src, err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))
		if ctx.Err() != nil {
			break
		}
	}
	return Result{}, fmt.Errorf("mirror: all sources failed: %w", errors.Join(errs...))
}

func (c *Chain) fetchOne(ctx context.Context, src Source) (string, error) {
	if src.Parse == nil {
		return "", errors.New("mirror: response parser is nil")
	}

	timeout := src.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", models.ErrNetwork, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", models.ErrNetwork, err)
	}

	value, err := src.Parse(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrParse, err)
	}
	return value, nil
}
