// Package propagate carries upload markers from the import tree back to the
// completed tree.
//
// The organizer renames what it imports, so the two copies of an item share
// nothing but inodes. A completed item is marked once every one of its files
// is hard-linked to a marked file in the import tree; a partially uploaded
// multi-file release stays unmarked.
package propagate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"seedkeeper/internal/inode"
	"seedkeeper/internal/logging"
	"seedkeeper/internal/marker"
	"seedkeeper/internal/services"
	"seedkeeper/internal/tree"
)

// Options describes one propagation run.
type Options struct {
	CompletedDir string
	ImportBase   string
	Subdirs      []string
	Markers      marker.Store
	Logger       *slog.Logger
}

// Result counts planted markers and failures.
type Result struct {
	Propagated int
	Errors     int
}

// Run propagates markers for every managed subdirectory.
func Run(ctx context.Context, opts Options) Result {
	logger := logging.NewComponentLogger(opts.Logger, "propagate")
	var result Result
	for _, subdir := range opts.Subdirs {
		if ctx.Err() != nil {
			break
		}
		srcDir := filepath.Join(opts.CompletedDir, subdir)
		importDir := filepath.Join(opts.ImportBase, subdir)
		if !isDir(srcDir) || !isDir(importDir) {
			continue
		}

		uploaded := opts.Markers.MarkedInodes(importDir)
		if uploaded.Len() == 0 {
			continue
		}

		entries, err := tree.Entries(srcDir, opts.Markers)
		if err != nil {
			logging.WarnWithContext(logger, "cannot list completed subdirectory", "propagate_scan_failed",
				logging.String("dir", srcDir), logging.Error(err))
			result.Errors++
			continue
		}
		for _, entry := range entries {
			if entry.Marked {
				continue
			}
			own := inode.Of(entry.Path)
			if own.Len() == 0 || !own.SubsetOf(uploaded) {
				continue
			}
			itemLogger := logging.WithContext(services.WithItem(ctx, entry.Name), logger)
			if err := opts.Markers.Set(entry.Path); err != nil {
				logging.WarnWithContext(itemLogger, "cannot propagate marker", "marker_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, `chown -R media:media "`+srcDir+`"`),
				)
				result.Errors++
				continue
			}
			itemLogger.Info("propagated marker", logging.Int("files", own.Len()))
			result.Propagated++
		}
	}
	return result
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
