package version

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/liangyou/golatest/internal/mirror"
	"github.com/liangyou/golatest/pkg/models"
)

const (
	defaultChecksumTimeout = 10 * time.Second
	defaultDownloadTimeout = 10 * time.Minute
	sha256HexLen           = 64
)

// ProgressFunc 在下载过程中回调当前已完成的字节数以及总字节数。
type ProgressFunc func(downloaded, total int64)

// HTTPClient 定义 Fetcher 所需的 HTTP 客户端能力。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher 负责确定发行包地址、获取官方校验值并下载发行包。
type Fetcher struct {
	httpClient      HTTPClient
	downloadBase    string
	checksumBases   []string
	checksumTimeout time.Duration
	downloadTimeout time.Duration
	progressFunc    ProgressFunc
	onChecksumFail  mirror.AttemptFunc
}

// FetcherOption 配置 Fetcher。
type FetcherOption func(*Fetcher)

// WithHTTPClient 指定自定义 HTTP 客户端。
func WithHTTPClient(client HTTPClient) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithProgressFunc 指定进度回调。
func WithProgressFunc(fn ProgressFunc) FetcherOption {
	return func(f *Fetcher) {
		f.progressFunc = fn
	}
}

// WithChecksumFailureHook 在某个校验值来源失败时回调，用于记录日志。
func WithChecksumFailureHook(fn mirror.AttemptFunc) FetcherOption {
	return func(f *Fetcher) {
		f.onChecksumFail = fn
	}
}

// NewFetcher 创建 Fetcher，未配置的地址与超时使用官方默认值。
func NewFetcher(cfg models.Config, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient:      http.DefaultClient,
		downloadBase:    cfg.DownloadBase,
		checksumBases:   cfg.ChecksumSources,
		checksumTimeout: cfg.ChecksumTimeout,
		downloadTimeout: cfg.DownloadTimeout,
	}
	if f.downloadBase == "" {
		f.downloadBase = mirror.DefaultDownloadBase
	}
	if len(f.checksumBases) == 0 {
		f.checksumBases = mirror.DefaultChecksumBases
	}
	if f.checksumTimeout <= 0 {
		f.checksumTimeout = defaultChecksumTimeout
	}
	if f.downloadTimeout <= 0 {
		f.downloadTimeout = defaultDownloadTimeout
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Describe 根据版本、平台与安装目标生成发行包描述，不访问网络。
func (f *Fetcher) Describe(version string, platform models.PlatformKey, target models.InstallTarget) models.Artifact {
	filename := fmt.Sprintf("%s.%s.%s", version, platform.Suffix(), target.Method.Extension())
	artifact := models.Artifact{
		Version:  version,
		Filename: filename,
		URL:      mirror.JoinURL(f.downloadBase, filename),
		Method:   target.Method,
	}
	if sources := f.checksumSources(filename); len(sources) > 0 {
		artifact.ChecksumURL = sources[0].URL
	}
	return artifact
}

// FetchChecksum 依次请求各来源的 .sha256 文件，返回附带校验值的新描述。
func (f *Fetcher) FetchChecksum(ctx context.Context, artifact models.Artifact) (models.Artifact, error) {
	sources := f.checksumSources(artifact.Filename)
	if len(sources) == 0 {
		return artifact, fmt.Errorf("downloader: %w: no checksum sources configured", models.ErrChecksumUnavailable)
	}

	opts := []mirror.Option{mirror.WithHTTPClient(f.httpClient)}
	if f.onChecksumFail != nil {
		opts = append(opts, mirror.WithFailureHook(f.onChecksumFail))
	}
	result, err := mirror.NewChain(sources, opts...).Fetch(ctx)
	if err != nil {
		return artifact, fmt.Errorf("downloader: %w for %s: %v", models.ErrChecksumUnavailable, artifact.Filename, err)
	}
	return artifact.WithChecksum(result.Value, result.Source.URL), nil
}

// Download 将发行包下载到 dir，先写入临时文件再重命名，返回最终路径。
func (f *Fetcher) Download(ctx context.Context, artifact models.Artifact, dir string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, f.downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artifact.URL, nil)
	if err != nil {
		return "", fmt.Errorf("downloader: %w: build request: %v", models.ErrDownload, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloader: %w: %v", models.ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloader: %w: unexpected status %d from %s", models.ErrDownload, resp.StatusCode, artifact.URL)
	}

	name := filepath.Base(artifact.Filename)
	tempFile, err := os.CreateTemp(dir, name+".part-*")
	if err != nil {
		return "", fmt.Errorf("downloader: %w: temp file: %v", models.ErrDownload, err)
	}
	tempPath := tempFile.Name()
	defer func() {
		tempFile.Close()
		os.Remove(tempPath)
	}()

	reader := f.wrapProgress(resp.Body, resp.ContentLength)
	if _, err := io.Copy(tempFile, reader); err != nil {
		return "", fmt.Errorf("downloader: %w: write file: %v", models.ErrDownload, err)
	}
	if err := tempFile.Sync(); err != nil {
		return "", fmt.Errorf("downloader: %w: sync file: %v", models.ErrDownload, err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("downloader: %w: close file: %v", models.ErrDownload, err)
	}

	finalPath := filepath.Join(dir, name)
	if err := os.Remove(finalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("downloader: %w: remove existing: %v", models.ErrDownload, err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", fmt.Errorf("downloader: %w: finalize file: %v", models.ErrDownload, err)
	}
	return finalPath, nil
}

// ParseChecksum 要求响应体以 64 位十六进制开头，返回小写形式。
func ParseChecksum(body []byte) (string, error) {
	text := strings.TrimLeft(string(body), " \t\r\n")
	if len(text) < sha256HexLen {
		return "", fmt.Errorf("checksum body too short (%d bytes)", len(text))
	}
	for i := 0; i < sha256HexLen; i++ {
		if !isHex(text[i]) {
			return "", fmt.Errorf("checksum body is not hex at offset %d", i)
		}
	}
	if len(text) > sha256HexLen && isHex(text[sha256HexLen]) {
		return "", errors.New("checksum longer than sha256")
	}
	return strings.ToLower(text[:sha256HexLen]), nil
}

func (f *Fetcher) checksumSources(filename string) []mirror.Source {
	return mirror.ChecksumSources(f.checksumBases, filename, f.checksumTimeout, ParseChecksum)
}

func (f *Fetcher) wrapProgress(reader io.Reader, total int64) io.Reader {
	if f.progressFunc == nil {
		return reader
	}
	return &progressReader{r: reader, total: total, report: f.progressFunc}
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report(p.read, p.total)
	}
	return n, err
}
