package env

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func newInspector(vars map[string]string, goPath string) *Inspector {
	i := NewInspector()
	i.getenv = func(k string) string { return vars[k] }
	i.lookPath = func(string) (string, error) {
		if goPath == "" {
			return "", exec.ErrNotFound
		}
		return goPath, nil
	}
	i.evalSymlinks = func(p string) (string, error) { return p, nil }
	return i
}

func joinPath(dirs ...string) string {
	return strings.Join(dirs, string(os.PathListSeparator))
}

func TestContains(t *testing.T) {
	t.Parallel()

	i := newInspector(map[string]string{"PATH": joinPath("/usr/bin", "", "/home/dev/.local/go/bin/")}, "")
	if !i.Contains("/home/dev/.local/go/bin") {
		t.Fatal("expected bin dir on PATH")
	}
	if i.Contains("/usr/local/go/bin") {
		t.Fatal("unexpected match")
	}
}

func TestAdviseNoneWhenFirstOnPath(t *testing.T) {
	t.Parallel()

	i := newInspector(map[string]string{"PATH": joinPath("/usr/local/go/bin", "/usr/bin")}, "/usr/local/go/bin/go")
	if got := i.Advise("/usr/local/go/bin", "/usr/local/go/bin/go"); got != "" {
		t.Fatalf("expected no advisory, got %q", got)
	}
}

func TestAdviseMissingBinDir(t *testing.T) {
	t.Parallel()

	i := newInspector(map[string]string{"PATH": "/usr/bin", "SHELL": "/bin/zsh"}, "")
	got := i.Advise("/home/dev/.local/go/bin", "/home/dev/.local/go/bin/go")
	if !strings.Contains(got, "not on PATH") || !strings.Contains(got, "~/.zshrc") {
		t.Fatalf("unexpected advisory: %q", got)
	}
	if !strings.Contains(got, `export PATH="/home/dev/.local/go/bin:$PATH"`) {
		t.Fatalf("advisory missing export line: %q", got)
	}
}

func TestAdviseShadowed(t *testing.T) {
	t.Parallel()

	i := newInspector(map[string]string{"PATH": joinPath("/usr/bin", "/home/dev/.local/go/bin")}, "/usr/bin/go")
	got := i.Advise("/home/dev/.local/go/bin", "/home/dev/.local/go/bin/go")
	if !strings.Contains(got, "/usr/bin/go shadows") || !strings.Contains(got, "your shell profile") {
		t.Fatalf("unexpected advisory: %q", got)
	}
}

func TestCanonicalResolvesSymlinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	realBin := filepath.Join(root, "go", "bin")
	if err := os.MkdirAll(realBin, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(root, "link")
	if err := os.Symlink(realBin, link); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}

	i := NewInspector()
	i.getenv = func(string) string { return link }
	if !i.Contains(realBin) {
		t.Fatal("expected symlinked PATH entry to match")
	}
}
