// Package upload moves items to durable remote storage exactly once.
//
// Each item is first checked against the remote (a crash between upload and
// marking must not cause a second transfer), archives it carries are
// extracted to scratch and uploaded alongside, and the marker is planted only
// after the original item's transfer succeeded.
package upload

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"seedkeeper/internal/logging"
	"seedkeeper/internal/marker"
	"seedkeeper/internal/remote"
	"seedkeeper/internal/services"
	"seedkeeper/internal/staging"
	"seedkeeper/internal/tree"
)

// Remote is the durable storage capability.
type Remote interface {
	Upload(ctx context.Context, src, dest string) error
	ExistsMatching(ctx context.Context, src, dest string) bool
}

// Extractor is the archive extraction capability.
type Extractor interface {
	IsArchive(path string) bool
	Extract(ctx context.Context, archivePath, destDir string) error
}

// Outcome classifies what happened to one item.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeUploaded
	OutcomeAlreadyPresent
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUploaded:
		return "uploaded"
	case OutcomeAlreadyPresent:
		return "already_present"
	case OutcomeBusy:
		return "busy"
	default:
		return "failed"
	}
}

// Result counts outcomes across a scan.
type Result struct {
	Uploaded       int
	AlreadyPresent int
	Failed         int
	Busy           int
}

func (r *Result) record(o Outcome) {
	switch o {
	case OutcomeUploaded:
		r.Uploaded++
	case OutcomeAlreadyPresent:
		r.AlreadyPresent++
	case OutcomeBusy:
		r.Busy++
	default:
		r.Failed++
	}
}

// Add accumulates other into r.
func (r *Result) Add(other Result) {
	r.Uploaded += other.Uploaded
	r.AlreadyPresent += other.AlreadyPresent
	r.Failed += other.Failed
	r.Busy += other.Busy
}

// Uploader runs the per-item upload sequence.
type Uploader struct {
	Remote     Remote
	Extractor  Extractor
	Markers    marker.Store
	RemoteRoot string
	ScratchDir string
	Logger     *slog.Logger
}

// Process uploads item under base and reports whether it is now durably
// stored and marked.
func (u *Uploader) Process(ctx context.Context, item, base string) bool {
	switch u.process(ctx, item, base) {
	case OutcomeUploaded, OutcomeAlreadyPresent:
		return true
	default:
		return false
	}
}

func (u *Uploader) process(ctx context.Context, item, base string) Outcome {
	name := filepath.Base(item)
	ctx = services.WithItem(ctx, name)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(u.Logger, "upload"))

	info, err := os.Stat(item)
	if err != nil {
		logging.WarnWithContext(logger, "item vanished before upload", "upload_item_missing", logging.Error(err))
		return OutcomeFailed
	}

	namedDest := remote.Destination(u.RemoteRoot, base, name)
	dest := remote.Destination(u.RemoteRoot, base, "")
	if info.IsDir() {
		dest = namedDest
	}

	if u.Remote.ExistsMatching(ctx, item, dest) {
		logger.Info("already on remote (checksum match)", logging.String("destination", dest))
		u.mark(logger, item)
		return OutcomeAlreadyPresent
	}

	ws, err := staging.Allocate(u.ScratchDir, name)
	if err != nil {
		if errors.Is(err, staging.ErrBusy) {
			logger.Info("scratch directory held by another run; skipping item")
			return OutcomeBusy
		}
		logging.WarnWithContext(logger, "cannot allocate scratch directory", "scratch_allocate_failed", logging.Error(err))
		return OutcomeFailed
	}

	extracted, err := u.extractArchives(ctx, item, info.IsDir(), ws.Dir)
	if err != nil {
		_ = ws.Release()
		logging.WarnWithContext(logger, "archive extraction failed", "extract_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		return OutcomeFailed
	}
	if extracted > 0 {
		logger.Info("uploading extracted contents", logging.Int("archives", extracted), logging.String("destination", namedDest))
		if err := u.Remote.Upload(ctx, ws.Dir, namedDest); err != nil {
			logging.WarnWithContext(logger, "extracted upload failed", "extracted_upload_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "extracted copy missing on remote; original still uploaded"),
			)
		}
	}
	if err := ws.Release(); err != nil {
		logger.Debug("scratch release failed", logging.Error(err))
	}

	logger.Info("uploading", logging.String("destination", dest))
	if err := u.Remote.Upload(ctx, item, dest); err != nil {
		logging.WarnWithContext(logger, "upload failed", "upload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.Bool("retryable", services.Retryable(err)),
		)
		return OutcomeFailed
	}

	u.mark(logger, item)
	logger.Info("uploaded", logging.String("destination", dest))
	return OutcomeUploaded
}

// extractArchives unpacks a single archive item, or the archives sitting
// directly inside a directory item, into dir.
func (u *Uploader) extractArchives(ctx context.Context, item string, isDir bool, dir string) (int, error) {
	if u.Extractor == nil {
		return 0, nil
	}
	var archives []string
	if !isDir {
		if u.Extractor.IsArchive(item) {
			archives = append(archives, item)
		}
	} else {
		children, err := os.ReadDir(item)
		if err != nil {
			return 0, err
		}
		for _, child := range children {
			if child.Type().IsRegular() && u.Extractor.IsArchive(child.Name()) {
				archives = append(archives, filepath.Join(item, child.Name()))
			}
		}
	}
	for _, archive := range archives {
		if err := u.Extractor.Extract(ctx, archive, dir); err != nil {
			return 0, err
		}
	}
	return len(archives), nil
}

// mark plants the marker; a failure is logged and left for the next run.
func (u *Uploader) mark(logger *slog.Logger, item string) {
	if err := u.Markers.Set(item); err != nil {
		logging.WarnWithContext(logger, "cannot create upload marker", "marker_failed",
			logging.String("marker", u.Markers.Path(item)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, markerHint(item, err)),
			logging.String(logging.FieldImpact, "item stays unmarked and will be re-verified next run"),
		)
	}
}

// markerHint names the ownership fix for a permission failure on item's
// parent directory.
func markerHint(item string, err error) string {
	if errors.Is(err, services.ErrPermission) {
		return `chown -R media:media "` + filepath.Dir(item) + `"`
	}
	return services.Hint(err)
}

// ScanImportDir uploads every unmarked leaf beneath dir, with base
// accumulating the relative directory path.
func (u *Uploader) ScanImportDir(ctx context.Context, dir, base string) Result {
	var result Result
	for _, leaf := range tree.ImportLeaves(dir, base, u.Markers) {
		if ctx.Err() != nil {
			break
		}
		result.record(u.process(ctx, leaf.Path, leaf.Base))
	}
	return result
}

// ScanCompletedDir uploads the unmarked top-level items of dir, skipping the
// managed category subdirectories listed in skip.
func (u *Uploader) ScanCompletedDir(ctx context.Context, dir, base string, skip map[string]struct{}) Result {
	var result Result
	items, err := tree.CompletedItems(dir, skip, u.Markers)
	if err != nil {
		logging.WarnWithContext(logging.NewComponentLogger(u.Logger, "upload"), "cannot list completed directory", "upload_scan_failed",
			logging.String("dir", dir), logging.Error(err))
		return result
	}
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		if item.Marked {
			continue
		}
		result.record(u.process(ctx, item.Path, base))
	}
	return result
}
