// Package linker mirrors manual completed-tree items into the import tree.
//
// An item is manual while every file in it has a link count of one: the
// organizer has not hard-linked it anywhere yet. Manual items are linked into
// the import tree under the same top-level name so the upload pass and the
// organizer see them, without duplicating any data. Existing destinations are
// never overwritten.
package linker

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"

	"seedkeeper/internal/fileutil"
	"seedkeeper/internal/inode"
	"seedkeeper/internal/logging"
	"seedkeeper/internal/marker"
	"seedkeeper/internal/services"
	"seedkeeper/internal/tree"
)

// Options describes one linking run.
type Options struct {
	CompletedDir string
	ImportBase   string
	Subdirs      []string
	Markers      marker.Store
	Logger       *slog.Logger
}

// Result counts what a run did.
type Result struct {
	Items  int
	Links  int
	Errors int
}

// NeedsLinking reports whether path is a manual item: a file with one link, or
// a directory whose files all have one link (an empty directory qualifies).
func NeedsLinking(path string) bool {
	return inode.AllSingleLinked(path)
}

// Link hard-links every manual, unmarked item of each completed subdirectory
// into the matching import subdirectory.
func Link(ctx context.Context, opts Options) Result {
	logger := logging.NewComponentLogger(opts.Logger, "linker")
	var result Result
	for _, subdir := range opts.Subdirs {
		srcDir := filepath.Join(opts.CompletedDir, subdir)
		dstDir := filepath.Join(opts.ImportBase, subdir)
		entries, err := tree.Entries(srcDir, opts.Markers)
		if err != nil {
			logging.WarnWithContext(logger, "cannot list completed subdirectory", "link_scan_failed",
				logging.String("dir", srcDir), logging.Error(err))
			result.Errors++
			continue
		}
		for _, entry := range entries {
			if ctx.Err() != nil {
				return result
			}
			if entry.Marked || !NeedsLinking(entry.Path) {
				continue
			}
			itemCtx := services.WithItem(ctx, entry.Name)
			created, err := linkItem(entry, filepath.Join(dstDir, entry.Name))
			result.Links += created
			if err != nil {
				logging.WarnWithContext(logging.WithContext(itemCtx, logger), "hard link failed", "link_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, services.Hint(classify(err))),
				)
				result.Errors++
				continue
			}
			result.Items++
			if created > 0 || entry.Dir {
				logging.WithContext(itemCtx, logger).Info("linked manual item",
					logging.String("destination", filepath.Join(dstDir, entry.Name)),
					logging.Int("links", created),
				)
			}
		}
	}
	return result
}

// linkItem links a file item directly or mirrors a directory item file by
// file. It returns the number of links created.
func linkItem(entry tree.Entry, dst string) (int, error) {
	if !entry.Dir {
		created, err := fileutil.LinkIfAbsent(entry.Path, dst)
		if created {
			return 1, err
		}
		return 0, err
	}
	created := 0
	var firstErr error
	_ = inode.Walk(entry.Path, func(path string, _ inode.Info) {
		rel, err := filepath.Rel(entry.Path, path)
		if err != nil {
			return
		}
		ok, err := fileutil.LinkIfAbsent(path, filepath.Join(dst, rel))
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if ok {
			created++
		}
	})
	return created, firstErr
}

func classify(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return services.Wrap(services.ErrPermission, "link", "", "", err)
	}
	return err
}
