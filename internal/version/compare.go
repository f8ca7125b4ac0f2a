package version

import (
	"regexp"
	"strconv"
	"strings"
)

// VendorPrefix 是官方版本号前缀。
const VendorPrefix = "go"

var (
	// tokenPattern 匹配 `go version` 输出中的版本号，例如 go1.22.5、go1.23rc1。
	tokenPattern = regexp.MustCompile(`go\d+\.\d+(?:\.\d+)?(?:(?:rc|beta)\d+)?`)
	// goPrerelease 匹配官方无连字符的预发布写法，例如 1.23rc1。
	goPrerelease = regexp.MustCompile(`\d(?:rc|beta)\d*`)
)

// SemanticVersion 是解析后的版本号。排序只看 Major/Minor/Patch，Prerelease 仅用于稳定版过滤。
type SemanticVersion struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

// Parse 宽松解析版本号：去掉前缀与预发布部分（-rc1 或 rc1），缺失字段补 0，非数字字段视为 0。
func Parse(v string) SemanticVersion {
	trimmed := Normalize(v)

	var result SemanticVersion
	if idx := strings.IndexByte(trimmed, '-'); idx >= 0 {
		result.Prerelease = trimmed[idx+1:]
		trimmed = trimmed[:idx]
	} else if loc := goPrerelease.FindStringIndex(trimmed); loc != nil {
		result.Prerelease = trimmed[loc[0]+1:]
		trimmed = trimmed[:loc[0]+1]
	}

	parts := strings.Split(trimmed, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}

	result.Major = parseInt(parts[0])
	result.Minor = parseInt(parts[1])
	result.Patch = parseInt(parts[2])
	return result
}

// Compare 比较两个版本号，a>b 返回 1，a<b 返回 -1，相等返回 0。
//
// 预发布后缀在比较前被去掉，因此 1.23.0-rc1 与 1.23.0 相等。
func Compare(a, b string) int {
	pa := Parse(a)
	pb := Parse(b)

	if pa.Major != pb.Major {
		return cmpInt(pa.Major, pb.Major)
	}
	if pa.Minor != pb.Minor {
		return cmpInt(pa.Minor, pb.Minor)
	}
	return cmpInt(pa.Patch, pb.Patch)
}

// IsStable 判断版本是否为稳定版。
func IsStable(v string) bool {
	if strings.Contains(v, "-rc") || strings.Contains(v, "-beta") {
		return false
	}
	return !goPrerelease.MatchString(v)
}

// Normalize 去掉 go 或 v 前缀与首尾空白。
func Normalize(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case strings.HasPrefix(v, VendorPrefix):
		return strings.TrimPrefix(v, VendorPrefix)
	case strings.HasPrefix(v, "v"), strings.HasPrefix(v, "V"):
		return v[1:]
	}
	return v
}

// ExtractToken 返回文本中第一个版本号，未找到时返回空字符串。
func ExtractToken(output string) string {
	return tokenPattern.FindString(output)
}

func cmpInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func parseInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
