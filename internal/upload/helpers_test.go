package upload_test

import (
	"testing"

	"seedkeeper/internal/staging"
)

// lockScratch holds the scratch reservation for name until the returned
// function is called.
func lockScratch(t *testing.T, scratchDir, name string) func() {
	t.Helper()
	ws, err := staging.Allocate(scratchDir, name)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	return func() { _ = ws.Release() }
}
