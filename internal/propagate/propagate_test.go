package propagate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"seedkeeper/internal/marker"
	"seedkeeper/internal/propagate"
	"seedkeeper/internal/testsupport"
)

func newOptions(t *testing.T) propagate.Options {
	t.Helper()
	base := t.TempDir()
	return propagate.Options{
		CompletedDir: filepath.Join(base, "completed"),
		ImportBase:   filepath.Join(base, "arr"),
		Subdirs:      []string{"tv"},
		Markers:      marker.New(),
	}
}

func TestRunMarksRenamedCopy(t *testing.T) {
	opts := newOptions(t)
	src := filepath.Join(opts.CompletedDir, "tv", "show.s01e01.1080p.mkv")
	dst := filepath.Join(opts.ImportBase, "tv", "Show", "Season 1", "Show - S01E01.mkv")
	testsupport.WriteFile(t, src, 8)
	testsupport.Link(t, src, dst)
	testsupport.Touch(t, opts.Markers.Path(dst))

	result := propagate.Run(context.Background(), opts)
	if result.Propagated != 1 {
		t.Fatalf("expected one propagated marker, got %+v", result)
	}
	if !opts.Markers.Exists(src) {
		t.Fatal("expected completed item marked")
	}
}

func TestRunRequiresEveryFileMarked(t *testing.T) {
	opts := newOptions(t)
	release := filepath.Join(opts.CompletedDir, "tv", "Show.S01")
	e1 := filepath.Join(release, "e01.mkv")
	e2 := filepath.Join(release, "e02.mkv")
	testsupport.WriteFile(t, e1, 4)
	testsupport.WriteFile(t, e2, 4)
	i1 := filepath.Join(opts.ImportBase, "tv", "Show", "Season 1", "Show - S01E01.mkv")
	i2 := filepath.Join(opts.ImportBase, "tv", "Show", "Season 1", "Show - S01E02.mkv")
	testsupport.Link(t, e1, i1)
	testsupport.Link(t, e2, i2)
	testsupport.Touch(t, opts.Markers.Path(i1))

	if result := propagate.Run(context.Background(), opts); result.Propagated != 0 {
		t.Fatalf("partial upload must not mark the release, got %+v", result)
	}
	if opts.Markers.Exists(release) {
		t.Fatal("release marked too early")
	}

	testsupport.Touch(t, opts.Markers.Path(i2))
	if result := propagate.Run(context.Background(), opts); result.Propagated != 1 {
		t.Fatalf("expected release marked once all files uploaded, got %+v", result)
	}
	if !opts.Markers.Exists(release) {
		t.Fatal("expected release marker")
	}
}

func TestRunIgnoresOrphanMarkersAndEmptyItems(t *testing.T) {
	opts := newOptions(t)
	empty := filepath.Join(opts.CompletedDir, "tv", "Empty")
	testsupport.Touch(t, filepath.Join(opts.ImportBase, "tv", "gone.mkv.uploaded"))
	unrelated := filepath.Join(opts.CompletedDir, "tv", "other.mkv")
	testsupport.WriteFile(t, unrelated, 4)
	marked := filepath.Join(opts.ImportBase, "tv", "real.mkv")
	testsupport.WriteFile(t, marked, 4)
	testsupport.Touch(t, opts.Markers.Path(marked))
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}

	result := propagate.Run(context.Background(), opts)
	if result.Propagated != 0 {
		t.Fatalf("expected nothing propagated, got %+v", result)
	}
	if opts.Markers.Exists(unrelated) || opts.Markers.Exists(empty) {
		t.Fatal("unrelated item must not be marked")
	}
}

func TestRunSkipsMissingImportDir(t *testing.T) {
	opts := newOptions(t)
	testsupport.WriteFile(t, filepath.Join(opts.CompletedDir, "tv", "a.mkv"), 4)
	if result := propagate.Run(context.Background(), opts); result != (propagate.Result{}) {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
