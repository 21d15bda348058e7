package workflow

import (
	"log/slog"
	"time"

	"seedkeeper/internal/archive"
	"seedkeeper/internal/config"
	"seedkeeper/internal/marker"
	"seedkeeper/internal/remote"
	"seedkeeper/internal/retention"
	"seedkeeper/internal/tracker"
	"seedkeeper/internal/upload"
)

// Deps carries the external capabilities a pass uses. Nil fields are built
// from the configuration; tests inject fakes.
type Deps struct {
	Remote    upload.Remote
	Extractor upload.Extractor
	Tracker   retention.Tracker
	Markers   marker.Store
	Logger    *slog.Logger
	Now       func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) withUploadDefaults(cfg *config.Config) (Deps, error) {
	if d.Remote == nil {
		client, err := remote.NewFromConfig(cfg, d.Logger)
		if err != nil {
			return d, err
		}
		d.Remote = client
	}
	if d.Extractor == nil {
		d.Extractor = archive.NewFromConfig(cfg, d.Logger)
	}
	return d, nil
}

func (d Deps) withCleanupDefaults(cfg *config.Config) Deps {
	if d.Tracker == nil {
		d.Tracker = tracker.NewFromConfig(cfg, d.Logger)
	}
	return d
}
