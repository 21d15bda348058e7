// Package marker records which items have been durably uploaded.
//
// A marker is an empty sibling file named after the item plus a suffix
// (".uploaded" by default). Its presence means the item's bytes were verified
// or freshly uploaded to the remote store; nothing else is stored in it.
package marker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"seedkeeper/internal/inode"
	"seedkeeper/internal/services"
)

// DefaultSuffix is appended to an item path to form its marker path.
const DefaultSuffix = ".uploaded"

// Store applies the marker naming convention. The zero value uses DefaultSuffix.
type Store struct {
	Suffix string
}

// New returns a store using the default suffix.
func New() Store {
	return Store{Suffix: DefaultSuffix}
}

func (s Store) suffix() string {
	if s.Suffix == "" {
		return DefaultSuffix
	}
	return s.Suffix
}

// Path returns the marker path for item.
func (s Store) Path(item string) string {
	return filepath.Clean(item) + s.suffix()
}

// IsMarker reports whether path names a marker file.
func (s Store) IsMarker(path string) bool {
	return strings.HasSuffix(filepath.Base(path), s.suffix())
}

// Source returns the item a marker path refers to.
func (s Store) Source(markerPath string) string {
	return strings.TrimSuffix(filepath.Clean(markerPath), s.suffix())
}

// Exists reports whether item carries a marker.
func (s Store) Exists(item string) bool {
	_, err := os.Lstat(s.Path(item))
	return err == nil
}

// Set plants the marker for item. Planting an existing marker is a no-op.
// Permission failures are tagged services.ErrPermission so callers can log a
// remediation hint.
func (s Store) Set(item string) error {
	path := s.Path(item)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return services.Wrap(services.ErrPermission, "marker", "set", filepath.Dir(path), err)
		}
		return services.Wrap(services.ErrTransient, "marker", "set", path, err)
	}
	return f.Close()
}

// Clear removes item's marker. A missing marker is not an error.
func (s Store) Clear(item string) error {
	err := os.Remove(s.Path(item))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return services.Wrap(services.ErrPermission, "marker", "clear", s.Path(item), err)
	}
	return err
}

// MarkedInodes returns the identities of regular files beneath root whose
// marker exists alongside them.
func (s Store) MarkedInodes(root string) inode.Set {
	set := inode.Set{}
	s.walkMarkers(context.Background(), root, func(markerPath string) {
		info, err := inode.Stat(s.Source(markerPath))
		if err != nil || !info.Reg {
			return
		}
		set.Add(info.ID)
	})
	return set
}

// RemoveOrphans deletes markers beneath roots whose source no longer exists
// and returns the removed marker paths. Missing roots are skipped.
func (s Store) RemoveOrphans(ctx context.Context, roots []string) []string {
	var removed []string
	for _, root := range roots {
		if ctx.Err() != nil {
			break
		}
		s.walkMarkers(ctx, root, func(markerPath string) {
			if _, err := os.Lstat(s.Source(markerPath)); err == nil || !errors.Is(err, fs.ErrNotExist) {
				return
			}
			if err := os.Remove(markerPath); err == nil {
				removed = append(removed, markerPath)
			}
		})
	}
	return removed
}

func (s Store) walkMarkers(ctx context.Context, root string, fn func(markerPath string)) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !s.IsMarker(path) {
			return nil
		}
		fn(path)
		return nil
	})
}
