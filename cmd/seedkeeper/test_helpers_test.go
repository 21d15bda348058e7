package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"seedkeeper/internal/config"
	"seedkeeper/internal/testsupport"
	"seedkeeper/internal/tracker"
)

// fakeQBittorrent serves the subset of the WebUI API seedkeeper calls.
type fakeQBittorrent struct {
	mu          sync.Mutex
	torrents    []tracker.Torrent
	failInfo    bool
	deleted     []string
	deleteFiles []string
	categories  map[string]string
	existing    map[string]bool
}

func (f *fakeQBittorrent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/app/version":
		_, _ = w.Write([]byte("v4.6.2"))
	case "/torrents/info":
		if f.failInfo {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		torrents := f.torrents
		if torrents == nil {
			torrents = []tracker.Torrent{}
		}
		_ = json.NewEncoder(w).Encode(torrents)
	case "/torrents/delete":
		f.deleted = append(f.deleted, r.FormValue("hashes"))
		f.deleteFiles = append(f.deleteFiles, r.FormValue("deleteFiles"))
	case "/torrents/createCategory":
		name := r.FormValue("category")
		if f.existing[name] {
			w.WriteHeader(http.StatusConflict)
			return
		}
		f.categories[name] = r.FormValue("savePath")
	case "/torrents/editCategory":
		f.categories[r.FormValue("category")] = r.FormValue("savePath")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type cliTestEnv struct {
	cfg        *config.Config
	qbt        *fakeQBittorrent
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	for _, key := range []string{"COMPLETED_DIR", "IMPORT_BASE", "EXTRACTED_DIR", "B2_REMOTE", "CATEGORIES", "QBT_API_URL", "MIN_SEEDING_DAYS", "MIN_AVG_RATE"} {
		t.Setenv(key, "")
	}

	qbt := &fakeQBittorrent{categories: map[string]string{}, existing: map[string]bool{}}
	srv := httptest.NewServer(qbt)
	t.Cleanup(srv.Close)

	opts = append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries(), testsupport.WithTrackerURL(srv.URL)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	t.Setenv("HOME", filepath.Join(testsupport.BaseDir(cfg), "home"))

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, qbt: qbt, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
