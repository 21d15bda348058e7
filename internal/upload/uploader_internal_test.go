package upload

import (
	"errors"
	"testing"

	"seedkeeper/internal/services"
)

func TestMarkerHint(t *testing.T) {
	perm := services.Wrap(services.ErrPermission, "marker", "set", "/data/completed/tv", errors.New("permission denied"))
	if got, want := markerHint("/data/completed/tv/Show.S01", perm), `chown -R media:media "/data/completed/tv"`; got != want {
		t.Fatalf("markerHint = %q, want %q", got, want)
	}
	other := services.Wrap(services.ErrTransient, "marker", "set", "", errors.New("disk full"))
	if got := markerHint("/data/completed/tv/Show.S01", other); got != services.Hint(other) {
		t.Fatalf("non-permission failures should use the generic hint, got %q", got)
	}
}
