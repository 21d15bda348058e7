// Package inode resolves the hard-link identity of files and directory trees.
//
// Two paths reference the same bytes when their regular files share device and
// inode numbers. Collection is best effort: entries that vanish or cannot be
// read while walking are skipped rather than failing the whole set.
package inode

import (
	"io/fs"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ID identifies a regular file's storage independent of its path.
type ID struct {
	Dev uint64
	Ino uint64
}

// Info is the subset of stat data the reconciliation passes rely on.
type Info struct {
	ID    ID
	Links uint64
	Dir   bool
	Reg   bool
}

// Stat returns identity and link count for path without following a final
// symlink.
func Stat(path string) (Info, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Info{}, &fs.PathError{Op: "lstat", Path: path, Err: err}
	}
	mode := st.Mode & unix.S_IFMT
	return Info{
		ID:    ID{Dev: uint64(st.Dev), Ino: uint64(st.Ino)},
		Links: uint64(st.Nlink),
		Dir:   mode == unix.S_IFDIR,
		Reg:   mode == unix.S_IFREG,
	}, nil
}

// Set is an unordered collection of inode identities.
type Set map[ID]struct{}

// Add inserts id into the set.
func (s Set) Add(id ID) { s[id] = struct{}{} }

// Contains reports whether id is a member.
func (s Set) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s) }

// SubsetOf reports whether every member of s is also in other. The empty set
// is a subset of anything; callers that need a non-empty match check Len.
func (s Set) SubsetOf(other Set) bool {
	for id := range s {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Intersects reports whether s and other share at least one member.
func (s Set) Intersects(other Set) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for id := range small {
		if large.Contains(id) {
			return true
		}
	}
	return false
}

// Of collects the identities of the regular files at or beneath path. A
// single file yields a one-element set; a missing path yields an empty set.
func Of(path string) Set {
	set := Set{}
	info, err := Stat(path)
	if err != nil {
		return set
	}
	if info.Reg {
		set.Add(info.ID)
		return set
	}
	if !info.Dir {
		return set
	}
	_ = Walk(path, func(_ string, fi Info) {
		set.Add(fi.ID)
	})
	return set
}

// Walk calls fn for every regular file beneath root. Unreadable directories
// and entries that disappear mid-walk are skipped.
func Walk(root string, fn func(path string, info Info)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, statErr := Stat(path)
		if statErr != nil || !info.Reg {
			return nil
		}
		fn(path, info)
		return nil
	})
}

// AllSingleLinked reports whether every regular file at or beneath path has a
// link count of one. Directories with no files qualify. A missing path does
// not.
func AllSingleLinked(path string) bool {
	info, err := Stat(path)
	if err != nil {
		return false
	}
	if info.Reg {
		return info.Links == 1
	}
	if !info.Dir {
		return false
	}
	single := true
	_ = Walk(path, func(_ string, fi Info) {
		if fi.Links > 1 {
			single = false
		}
	})
	return single
}
