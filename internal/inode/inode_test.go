package inode_test

import (
	"os"
	"path/filepath"
	"testing"

	"seedkeeper/internal/inode"
	"seedkeeper/internal/testsupport"
)

func TestOfFileReturnsSingleInode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movie.mkv")
	testsupport.WriteFile(t, path, 16)

	set := inode.Of(path)
	if set.Len() != 1 {
		t.Fatalf("expected one inode, got %d", set.Len())
	}
}

func TestOfMissingPathIsEmpty(t *testing.T) {
	set := inode.Of(filepath.Join(t.TempDir(), "gone"))
	if set.Len() != 0 {
		t.Fatalf("expected empty set, got %d", set.Len())
	}
}

func TestOfDirectoryCollectsNestedFilesOnly(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Show.S01")
	testsupport.WriteFile(t, filepath.Join(root, "e01.mkv"), 8)
	testsupport.WriteFile(t, filepath.Join(root, "extras", "e01.srt"), 8)
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	set := inode.Of(root)
	if set.Len() != 2 {
		t.Fatalf("expected two inodes, got %d", set.Len())
	}
}

func TestHardLinksShareIdentity(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "completed", "a.mkv")
	dst := filepath.Join(dir, "import", "Renamed (2024).mkv")
	testsupport.WriteFile(t, src, 8)
	testsupport.Link(t, src, dst)

	a, b := inode.Of(src), inode.Of(dst)
	if !a.SubsetOf(b) || !b.SubsetOf(a) {
		t.Fatal("expected linked paths to share identity")
	}
	if !a.Intersects(b) {
		t.Fatal("expected intersection")
	}

	info, err := inode.Stat(src)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Links != 2 {
		t.Fatalf("expected link count 2, got %d", info.Links)
	}
}

func TestSubsetOf(t *testing.T) {
	a := inode.Set{}
	a.Add(inode.ID{Dev: 1, Ino: 10})
	b := inode.Set{}
	b.Add(inode.ID{Dev: 1, Ino: 10})
	b.Add(inode.ID{Dev: 1, Ino: 11})

	if !a.SubsetOf(b) {
		t.Fatal("expected a to be a subset of b")
	}
	if b.SubsetOf(a) {
		t.Fatal("expected b not to be a subset of a")
	}
	if !(inode.Set{}).SubsetOf(a) {
		t.Fatal("empty set is a subset of anything")
	}
	// Same inode number on another device is a different file.
	c := inode.Set{}
	c.Add(inode.ID{Dev: 2, Ino: 10})
	if c.SubsetOf(b) {
		t.Fatal("device must be part of identity")
	}
}

func TestAllSingleLinked(t *testing.T) {
	dir := t.TempDir()
	manual := filepath.Join(dir, "manual")
	testsupport.WriteFile(t, filepath.Join(manual, "a.mkv"), 4)
	testsupport.WriteFile(t, filepath.Join(manual, "sub", "b.mkv"), 4)
	if !inode.AllSingleLinked(manual) {
		t.Fatal("expected manual tree to be single-linked")
	}

	testsupport.Link(t, filepath.Join(manual, "sub", "b.mkv"), filepath.Join(dir, "elsewhere", "b.mkv"))
	if inode.AllSingleLinked(manual) {
		t.Fatal("expected linked tree to report multiple links")
	}

	empty := filepath.Join(dir, "empty")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	if !inode.AllSingleLinked(empty) {
		t.Fatal("empty directory should count as single-linked")
	}
	if inode.AllSingleLinked(filepath.Join(dir, "missing")) {
		t.Fatal("missing path should not count as single-linked")
	}
}
