package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/liangyou/golatest/internal/mirror"
	"github.com/liangyou/golatest/pkg/models"
)

const (
	KeyQuiet           = "quiet"
	KeyVerbose         = "verbose"
	KeyForce           = "force"
	KeyDryRun          = "dry_run"
	KeyPrefix          = "prefix"
	KeyVersionURL      = "version_url"
	KeyReleasesURL     = "releases_url"
	KeyDownloadBase    = "download_base"
	KeyChecksumSources = "checksum_sources"
	KeyMetadataTimeout = "metadata_timeout"
	KeyChecksumTimeout = "checksum_timeout"
	KeyDownloadTimeout = "download_timeout"

	envPrefix = "GOLATEST"
)

// flagKeys 将命令行参数名映射到配置键。
var flagKeys = map[string]string{
	"quiet":   KeyQuiet,
	"verbose": KeyVerbose,
	"force":   KeyForce,
	"dry-run": KeyDryRun,
	"prefix":  KeyPrefix,
}

type settings struct {
	userConfigPath string
	skipUserConfig bool
}

// Option 调整 Load 的行为，主要用于测试。
type Option func(*settings)

// WithUserConfig 指定用户配置文件路径。
func WithUserConfig(path string) Option {
	return func(s *settings) {
		s.userConfigPath = path
	}
}

// WithoutUserConfig 跳过用户配置文件。
func WithoutUserConfig() Option {
	return func(s *settings) {
		s.skipUserConfig = true
	}
}

// Load 按 默认值 < 用户配置文件 < 环境变量 < 命令行参数 的优先级加载配置。
func Load(flags *pflag.FlagSet, opts ...Option) (models.Config, error) {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if !s.skipUserConfig {
		path := strings.TrimSpace(s.userConfigPath)
		if path == "" {
			path = defaultUserConfigPath()
		}
		if err := mergeConfigFile(v, path); err != nil {
			return models.Config{}, fmt.Errorf("config: load user config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return models.Config{}, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := models.Config{
		Quiet:           v.GetBool(KeyQuiet),
		Verbose:         v.GetBool(KeyVerbose),
		Force:           v.GetBool(KeyForce),
		DryRun:          v.GetBool(KeyDryRun),
		Prefix:          strings.TrimSpace(v.GetString(KeyPrefix)),
		VersionURL:      strings.TrimSpace(v.GetString(KeyVersionURL)),
		ReleasesURL:     strings.TrimSpace(v.GetString(KeyReleasesURL)),
		DownloadBase:    strings.TrimSpace(v.GetString(KeyDownloadBase)),
		ChecksumSources: splitList(v.GetStringSlice(KeyChecksumSources)),
		MetadataTimeout: v.GetDuration(KeyMetadataTimeout),
		ChecksumTimeout: v.GetDuration(KeyChecksumTimeout),
		DownloadTimeout: v.GetDuration(KeyDownloadTimeout),
	}
	if err := validate(cfg); err != nil {
		return models.Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyQuiet, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyForce, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyPrefix, "")
	v.SetDefault(KeyVersionURL, mirror.DefaultVersionURL)
	v.SetDefault(KeyReleasesURL, mirror.DefaultReleasesURL)
	v.SetDefault(KeyDownloadBase, mirror.DefaultDownloadBase)
	v.SetDefault(KeyChecksumSources, mirror.DefaultChecksumBases)
	v.SetDefault(KeyMetadataTimeout, 10*time.Second)
	v.SetDefault(KeyChecksumTimeout, 10*time.Second)
	v.SetDefault(KeyDownloadTimeout, 10*time.Minute)
}

func validate(cfg models.Config) error {
	timeouts := map[string]time.Duration{
		KeyMetadataTimeout: cfg.MetadataTimeout,
		KeyChecksumTimeout: cfg.ChecksumTimeout,
		KeyDownloadTimeout: cfg.DownloadTimeout,
	}
	for key, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", key, d)
		}
	}
	if len(cfg.ChecksumSources) == 0 {
		return errors.New("config: checksum_sources must not be empty")
	}
	return nil
}

// splitList 同时接受 YAML 列表与逗号或空格分隔的环境变量。
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' }) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func defaultUserConfigPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "golatest", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "golatest", "config.yaml")
}
