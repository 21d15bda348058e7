// Package tree enumerates the items the reconciliation passes act on.
//
// The completed tree is read one level deep; the import tree is walked
// recursively and reduced to leaf files whose remote base path mirrors their
// directory position. Marker files never appear as items.
package tree

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"seedkeeper/internal/marker"
)

// Entry is a top-level item in a directory.
type Entry struct {
	Name    string
	Path    string
	Dir     bool
	Symlink bool
	Marked  bool
}

// Leaf is an import-tree upload candidate with its accumulated remote base.
type Leaf struct {
	Path string
	Base string
}

// Entries lists the non-marker children of dir in name order. A missing dir
// yields no entries and no error.
func Entries(dir string, markers marker.Store) ([]Entry, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	entries := make([]Entry, 0, len(children))
	for _, child := range children {
		if markers.IsMarker(child.Name()) {
			continue
		}
		path := filepath.Join(dir, child.Name())
		isDir := child.IsDir()
		symlink := child.Type()&fs.ModeSymlink != 0
		if symlink {
			if info, err := os.Stat(path); err == nil {
				isDir = info.IsDir()
			}
		}
		entries = append(entries, Entry{
			Name:    child.Name(),
			Path:    path,
			Dir:     isDir,
			Symlink: symlink,
			Marked:  markers.Exists(path),
		})
	}
	return entries, nil
}

// CompletedItems lists the top-level items of a completed-tree directory,
// leaving out any directory whose path is in skip (the managed category
// subdirectories when scanning the completed root).
func CompletedItems(dir string, skip map[string]struct{}, markers marker.Store) ([]Entry, error) {
	entries, err := Entries(dir, markers)
	if err != nil {
		return nil, err
	}
	items := entries[:0]
	for _, entry := range entries {
		if entry.Dir {
			if _, ok := skip[filepath.Clean(entry.Path)]; ok {
				continue
			}
		}
		items = append(items, entry)
	}
	return items, nil
}

// ImportLeaves walks root and returns the unmarked files beneath it. Each
// directory level appends "<name>/" to base. Marked directories and symlinks
// to directories are not descended into, so a link cycle cannot recurse.
func ImportLeaves(root, base string, markers marker.Store) []Leaf {
	entries, err := Entries(root, markers)
	if err != nil {
		return nil
	}
	var leaves []Leaf
	for _, entry := range entries {
		if entry.Marked {
			continue
		}
		if entry.Dir {
			if entry.Symlink {
				continue
			}
			leaves = append(leaves, ImportLeaves(entry.Path, base+entry.Name+"/", markers)...)
			continue
		}
		leaves = append(leaves, Leaf{Path: entry.Path, Base: base})
	}
	return leaves
}
