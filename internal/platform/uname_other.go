//go:build !unix

package platform

import (
	"fmt"
	"runtime"

	"github.com/liangyou/golatest/pkg/models"
)

func uname() (string, string, error) {
	return "", "", fmt.Errorf("%w: %s", models.ErrUnsupportedPlatform, runtime.GOOS)
}
