package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/liangyou/golatest/pkg/models"
)

// VerifyFile 计算文件的 SHA256 并与 expected 比较，大小写不敏感。
func VerifyFile(path, expected string) error {
	expected = strings.ToLower(strings.TrimSpace(expected))
	if expected == "" {
		return fmt.Errorf("verify: %w: empty checksum for %s", models.ErrChecksumUnavailable, filepath.Base(path))
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("verify: open file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return fmt.Errorf("verify: hash file: %w", err)
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if actual != expected {
		return &models.ChecksumError{File: filepath.Base(path), Expected: expected, Got: actual}
	}
	return nil
}
