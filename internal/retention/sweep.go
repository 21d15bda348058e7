package retention

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"seedkeeper/internal/fileutil"
	"seedkeeper/internal/inode"
	"seedkeeper/internal/logging"
	"seedkeeper/internal/marker"
	"seedkeeper/internal/services"
	"seedkeeper/internal/tracker"
	"seedkeeper/internal/tree"
)

// Tracker is the subset of the tracker client the sweep needs.
type Tracker interface {
	List(ctx context.Context) ([]tracker.Torrent, error)
	Remove(ctx context.Context, hash string) error
}

// Stats summarises one sweep.
type Stats struct {
	Cleaned       int
	Seeding       int
	Skipped       int
	Errors        int
	FreedBytes    int64
	OrphanMarkers int
}

type scanDir struct {
	path string
	skip map[string]struct{}
}

// Sweeper walks the completed tree and deletes items whose retention period
// is over. Nothing without a marker is ever deleted.
type Sweeper struct {
	Tracker      Tracker
	Policy       Policy
	Markers      marker.Store
	CompletedDir string
	Subdirs      []string
	ImportDirs   []string
	DryRun       bool
	Now          func() time.Time
	Logger       *slog.Logger
}

// Sweep runs one cleanup pass. It fails only when the tracker snapshot cannot
// be fetched or decoded, in which case nothing on disk is touched.
func (s *Sweeper) Sweep(ctx context.Context) (Stats, error) {
	var stats Stats
	torrents, err := s.Tracker.List(ctx)
	if err != nil {
		return stats, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	logger := logging.NewComponentLogger(s.Logger, "retention")

	categoryDirs := make(map[string]struct{}, len(s.Subdirs))
	for _, subdir := range s.Subdirs {
		categoryDirs[filepath.Join(s.CompletedDir, subdir)] = struct{}{}
	}

	// The completed root first (category subdirectories excluded), then each
	// category subdirectory.
	dirs := []scanDir{{path: s.CompletedDir, skip: categoryDirs}}
	for _, subdir := range s.Subdirs {
		dirs = append(dirs, scanDir{path: filepath.Join(s.CompletedDir, subdir)})
	}

	for _, dir := range dirs {
		items, err := tree.CompletedItems(dir.path, dir.skip, s.Markers)
		if err != nil {
			logging.WarnWithContext(logger, "cannot list completed directory", "cleanup_scan_failed",
				logging.String("dir", dir.path), logging.Error(err))
			stats.Errors++
			continue
		}
		for _, item := range items {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			s.sweepItem(ctx, logger, item, torrents, now(), &stats)
		}
	}

	if !s.DryRun {
		removed := s.Markers.RemoveOrphans(ctx, s.ImportDirs)
		stats.OrphanMarkers = len(removed)
		for _, path := range removed {
			logger.Debug("removed orphan marker", logging.String("marker", path))
		}
	}

	logger.Debug("sweep finished",
		logging.Int("cleaned", stats.Cleaned),
		logging.Int("seeding", stats.Seeding),
		logging.Int("skipped", stats.Skipped),
		logging.Int("errors", stats.Errors),
		logging.Bool("dry_run", s.DryRun),
	)
	return stats, nil
}

func (s *Sweeper) sweepItem(ctx context.Context, base *slog.Logger, item tree.Entry, torrents []tracker.Torrent, now time.Time, stats *Stats) {
	ctx = services.WithItem(ctx, item.Name)
	logger := logging.WithContext(ctx, base)

	if !item.Marked {
		logger.Info("skipping item", logging.Args(logging.DecisionAttrs("retention", "skip", "not yet uploaded")...)...)
		stats.Skipped++
		return
	}

	torrent, tracked := tracker.FindByContentPath(torrents, item.Path)
	if tracked {
		decision := s.Policy.Decide(torrent, now)
		if decision.Keep {
			logger.Info("keeping item", logging.Args(logging.DecisionAttrs("retention", "keep", decision.Reason)...)...)
			stats.Seeding++
			return
		}
		logger.Info("removing stale torrent", logging.Args(append(logging.DecisionAttrs("retention", "remove", decision.Reason),
			logging.String("hash", torrent.Hash),
			logging.Int64("days_seeded", decision.Age/secondsPerDay),
			logging.Int64("avg_kbs", decision.AvgRate/1024),
		)...)...)
		if !s.DryRun {
			if err := s.Tracker.Remove(ctx, torrent.Hash); err != nil {
				logging.WarnWithContext(logger, "tracker removal failed; keeping files", "torrent_remove_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check qBittorrent WebUI reachability"),
				)
				stats.Errors++
				return
			}
		}
	} else {
		logger.Info("cleaning orphan", logging.Args(logging.DecisionAttrs("retention", "remove", "not tracked")...)...)
	}

	if s.DryRun {
		stats.Cleaned++
		stats.FreedBytes += fileutil.DirSize(item.Path)
		return
	}

	// Re-check right before the irreversible step.
	if !s.Markers.Exists(item.Path) {
		stats.Skipped++
		return
	}

	size := fileutil.DirSize(item.Path)
	links := RemoveHardlinks(item.Path, s.ImportDirs, s.Markers)
	pruned := PruneEmptyDirs(s.ImportDirs)
	if err := fileutil.RemoveItem(item.Path); err != nil {
		hint := "check logs for details"
		if errors.Is(err, os.ErrPermission) {
			hint = `chown -R media:media "` + filepath.Dir(item.Path) + `"`
		}
		logging.WarnWithContext(logger, "cannot delete item", "item_delete_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "item and marker kept; retried next run"),
		)
		stats.Errors++
		return
	}
	if err := s.Markers.Clear(item.Path); err != nil {
		logging.WarnWithContext(logger, "cannot remove marker", "marker_clear_failed", logging.Error(err))
	}
	logger.Info("deleted item",
		logging.Int("import_links_removed", len(links)),
		logging.Int("dirs_pruned", len(pruned)),
		logging.Int64("bytes", size),
	)
	stats.Cleaned++
	stats.FreedBytes += size
}

// RemoveHardlinks deletes every file under importDirs that shares an inode
// with item, together with that file's marker, and returns the removed paths.
// Dropping the marker here lets PruneEmptyDirs clear the organizer's folders
// in the same run.
func RemoveHardlinks(item string, importDirs []string, markers marker.Store) []string {
	ids := inode.Of(item)
	if ids.Len() == 0 {
		return nil
	}
	var removed []string
	for _, dir := range importDirs {
		var matches []string
		_ = inode.Walk(dir, func(path string, info inode.Info) {
			if ids.Contains(info.ID) {
				matches = append(matches, path)
			}
		})
		for _, path := range matches {
			if err := os.Remove(path); err == nil {
				removed = append(removed, path)
				_ = markers.Clear(path)
			}
		}
	}
	return removed
}

// PruneEmptyDirs removes empty directories beneath each of dirs, keeping the
// roots themselves.
func PruneEmptyDirs(dirs []string) []string {
	var removed []string
	for _, dir := range dirs {
		removed = append(removed, fileutil.PruneEmptyDirs(dir)...)
	}
	return removed
}
