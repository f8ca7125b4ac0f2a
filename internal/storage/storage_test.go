package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/liangyou/golatest/pkg/models"
)

func newResolver(euid int, home string) *TargetResolver {
	r := NewTargetResolver()
	r.geteuid = func() int { return euid }
	r.homeDir = func() (string, error) { return home, nil }
	return r
}

var (
	linuxAMD64 = models.PlatformKey{OS: "linux", Arch: "amd64"}
	darwinARM  = models.PlatformKey{OS: "darwin", Arch: "arm64"}
)

func TestResolveElevatedLinux(t *testing.T) {
	t.Parallel()

	target, err := newResolver(0, "/root").Resolve(models.Config{Prefix: "/ignored"}, linuxAMD64)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if target.Prefix != SystemPrefix || !target.Elevated || target.Method != models.MethodArchive {
		t.Fatalf("unexpected target: %#v", target)
	}
	if target.BinaryPath != "/usr/local/go/bin/go" {
		t.Fatalf("unexpected binary path: %s", target.BinaryPath)
	}
}

func TestResolveElevatedDarwinUsesPackage(t *testing.T) {
	t.Parallel()

	target, err := newResolver(0, "/var/root").Resolve(models.Config{}, darwinARM)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if target.Method != models.MethodPackage {
		t.Fatalf("expected package method, got %s", target.Method)
	}
}

func TestResolveUserDefaultPrefix(t *testing.T) {
	t.Parallel()

	target, err := newResolver(1000, "/home/dev").Resolve(models.Config{}, darwinARM)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if target.Prefix != "/home/dev/.local" || target.Elevated || target.Method != models.MethodArchive {
		t.Fatalf("unexpected target: %#v", target)
	}
	if target.Root != "/home/dev/.local/go" || target.BinDir() != "/home/dev/.local/go/bin" {
		t.Fatalf("unexpected layout: %#v", target)
	}
}

func TestResolveUserPrefixOverride(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/opt/toolchains": "/opt/toolchains",
		"~/sdk":           "/home/dev/sdk",
		"~":               "/home/dev",
		"/opt/x/../y/":    "/opt/y",
	}
	for in, want := range cases {
		target, err := newResolver(1000, "/home/dev").Resolve(models.Config{Prefix: in}, linuxAMD64)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", in, err)
		}
		if target.Prefix != want {
			t.Fatalf("Resolve(%q) prefix=%s want %s", in, target.Prefix, want)
		}
	}
}

func TestResolveRejectsRelativePrefix(t *testing.T) {
	t.Parallel()

	if _, err := newResolver(1000, "/home/dev").Resolve(models.Config{Prefix: "relative/dir"}, linuxAMD64); err == nil {
		t.Fatal("expected error for relative prefix")
	}
}

func TestResolveHomeDirError(t *testing.T) {
	t.Parallel()

	r := newResolver(1000, "")
	r.homeDir = func() (string, error) { return "", errors.New("no home") }
	if _, err := r.Resolve(models.Config{}, linuxAMD64); err == nil {
		t.Fatal("expected error without home dir")
	}
}

func TestCheckWritableWalksToExistingParent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var checked string
	r := newResolver(1000, root)
	r.writable = func(p string) bool {
		checked = p
		return true
	}

	target := models.NewInstallTarget(filepath.Join(root, "a", "b"), false, models.MethodArchive)
	if err := r.CheckWritable(target); err != nil {
		t.Fatalf("CheckWritable error: %v", err)
	}
	if checked != root {
		t.Fatalf("expected writability check on %s, got %s", root, checked)
	}
	if _, err := os.Stat(filepath.Join(root, "a")); !os.IsNotExist(err) {
		t.Fatal("CheckWritable must not create directories")
	}
}

func TestCheckWritableRejects(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	r := newResolver(1000, root)
	r.writable = func(string) bool { return false }
	if err := r.CheckWritable(models.NewInstallTarget(root, false, models.MethodArchive)); err == nil {
		t.Fatal("expected not writable error")
	}

	file := filepath.Join(root, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	r.writable = func(string) bool { return true }
	if err := r.CheckWritable(models.NewInstallTarget(file, false, models.MethodArchive)); err == nil {
		t.Fatal("expected error for file prefix")
	}
}

func TestWorkspaceCleanup(t *testing.T) {
	t.Parallel()

	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace error: %v", err)
	}
	if err := os.WriteFile(ws.Path("go.tar.gz"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if filepath.Dir(ws.Path("../escape")) != ws.Dir() {
		t.Fatalf("Path must stay inside workspace")
	}

	if err := ws.Cleanup(); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Fatalf("workspace still exists: %v", err)
	}
	if err := ws.Cleanup(); err != nil {
		t.Fatalf("second Cleanup error: %v", err)
	}
}
