package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"seedkeeper/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryAccess_Unset(t *testing.T) {
	if result := CheckDirectoryAccess("test", ""); result.Passed {
		t.Fatal("expected failure for unset path")
	}
}

func TestCheckTracker_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app/version" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("v4.6.2"))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithTrackerURL(srv.URL))
	result := CheckTracker(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "v4.6.2") {
		t.Fatalf("expected version in detail, got %q", result.Detail)
	}
}

func TestCheckTracker_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithTrackerURL(srv.URL))
	if result := CheckTracker(context.Background(), cfg); result.Passed {
		t.Fatal("expected failure for forbidden response")
	}
}

func TestCheckTracker_MissingURL(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTrackerURL(""))
	if result := CheckTracker(context.Background(), cfg); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAllCoversImportSubdirs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("v5.0.0"))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithTrackerURL(srv.URL))
	if err := os.MkdirAll(cfg.Paths.ScratchDir, 0o755); err != nil {
		t.Fatal(err)
	}
	results := RunAll(context.Background(), cfg)
	names := make(map[string]bool, len(results))
	for _, result := range results {
		names[result.Name] = true
		if !result.Passed {
			t.Fatalf("expected %s to pass, got %s", result.Name, result.Detail)
		}
	}
	for _, want := range []string{"Completed directory", "Import base", "Import movies", "Import tv", "Scratch directory", "qBittorrent API"} {
		if !names[want] {
			t.Fatalf("expected check %q in %v", want, names)
		}
	}
}

func TestCheckSystemDepsWithStubs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Remote.Destination = "/mnt/local-backup"
	results := CheckSystemDeps(context.Background(), cfg, nil)
	if len(results) != 3 {
		t.Fatalf("expected rclone, unar and remote results, got %#v", results)
	}
	if !results[0].Available || !results[1].Available {
		t.Fatalf("expected stubbed binaries to be available, got %#v", results)
	}
	if results[2].Available {
		t.Fatal("a local path is not an rclone remote")
	}
}
