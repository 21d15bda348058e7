package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLinkIfAbsent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mkv")
	dst := filepath.Join(dir, "import", "nested", "dst.mkv")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	linked, err := LinkIfAbsent(src, dst)
	if err != nil || !linked {
		t.Fatalf("expected link created, got %v %v", linked, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		t.Fatal(err)
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(info, dstInfo) {
		t.Fatal("expected dst to be a hard link of src")
	}

	linked, err = LinkIfAbsent(src, dst)
	if err != nil || linked {
		t.Fatalf("second link should be a no-op, got %v %v", linked, err)
	}
}

func TestLinkIfAbsentKeepsExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mkv")
	dst := filepath.Join(dir, "dst.mkv")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	linked, err := LinkIfAbsent(src, dst)
	if err != nil || linked {
		t.Fatalf("expected skip, got %v %v", linked, err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "existing" {
		t.Fatalf("destination was clobbered: %q", got)
	}
}

func TestPruneEmptyDirs(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Show", "Season 1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "Keep"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "Keep", "a.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed := PruneEmptyDirs(root)
	if len(removed) != 2 {
		t.Fatalf("expected two removed dirs, got %v", removed)
	}
	if _, err := os.Stat(filepath.Join(root, "Show")); !os.IsNotExist(err) {
		t.Fatalf("expected Show removed, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "Keep")); err != nil {
		t.Fatalf("expected Keep retained: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("root must be retained: %v", err)
	}
}

func TestPruneEmptyDirsMissingRoot(t *testing.T) {
	if removed := PruneEmptyDirs(filepath.Join(t.TempDir(), "missing")); len(removed) != 0 {
		t.Fatalf("expected nothing removed, got %v", removed)
	}
}

func TestRemoveItem(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.mkv")
	tree := filepath.Join(dir, "tree")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tree, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tree, "sub", "b.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{file, tree, filepath.Join(dir, "missing")} {
		if err := RemoveItem(path); err != nil {
			t.Fatalf("RemoveItem(%s): %v", path, err)
		}
		if _, err := os.Lstat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed", path)
		}
	}
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 5), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := DirSize(dir); got != 15 {
		t.Fatalf("DirSize = %d, want 15", got)
	}
}
