package models

import "time"

// Config 保存一次运行所需的全部配置，由 internal/config 从环境变量、参数与配置文件加载。
type Config struct {
	Quiet   bool   // 仅输出错误
	Verbose bool   // 输出调试日志
	Force   bool   // 检测到第三方包管理器时仍继续安装
	DryRun  bool   // 只打印计划，不做任何下载与文件修改
	Prefix  string // 非 root 安装前缀，默认 ~/.local

	VersionURL      string   // 纯文本最新版本接口
	ReleasesURL     string   // JSON 发行列表接口
	DownloadBase    string   // 发行包下载基础地址
	ChecksumSources []string // 校验值来源基础地址，按顺序尝试

	MetadataTimeout time.Duration
	ChecksumTimeout time.Duration
	DownloadTimeout time.Duration
}
