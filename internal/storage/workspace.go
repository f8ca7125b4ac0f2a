package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace 是一次运行独占的临时目录，Cleanup 可重复调用。
type Workspace struct {
	dir  string
	once sync.Once
	err  error
}

// NewWorkspace 在 parent（为空时使用系统临时目录）下创建工作目录。
func NewWorkspace(parent string) (*Workspace, error) {
	dir, err := os.MkdirTemp(parent, "golatest-*")
	if err != nil {
		return nil, fmt.Errorf("storage: create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir 返回工作目录路径。
func (w *Workspace) Dir() string {
	return w.dir
}

// Path 返回工作目录下的文件路径。
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// Cleanup 删除工作目录及其内容。
func (w *Workspace) Cleanup() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.err = fmt.Errorf("storage: remove workspace: %w", err)
		}
	})
	return w.err
}
