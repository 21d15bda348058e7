package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"seedkeeper/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"COMPLETED_DIR", "IMPORT_BASE", "EXTRACTED_DIR", "B2_REMOTE", "CATEGORIES", "QBT_API_URL", "MIN_SEEDING_DAYS", "MIN_AVG_RATE"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantScratch := filepath.Join(tempHome, ".cache", "seedkeeper", "extracted")
	if cfg.Paths.ScratchDir != wantScratch {
		t.Fatalf("unexpected scratch dir: got %q want %q", cfg.Paths.ScratchDir, wantScratch)
	}
	if cfg.Tracker.URL != "http://localhost:8080/api/v2" {
		t.Fatalf("unexpected tracker url: %q", cfg.Tracker.URL)
	}
	if cfg.Retention.MinAvgRate != 2048 {
		t.Fatalf("unexpected min avg rate: %d", cfg.Retention.MinAvgRate)
	}
	if !reflect.DeepEqual(cfg.Archive.Extensions, []string{".zip", ".rar"}) {
		t.Fatalf("unexpected archive extensions: %v", cfg.Archive.Extensions)
	}
	if err := cfg.ValidateUpload(); err == nil {
		t.Fatal("expected upload validation to fail without completed_dir")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ScratchDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "seedkeeper.toml")

	type payload struct {
		Paths struct {
			CompletedDir string `toml:"completed_dir"`
			ImportBase   string `toml:"import_base"`
		} `toml:"paths"`
		Categories map[string]string `toml:"categories"`
		Remote     struct {
			Destination string `toml:"destination"`
		} `toml:"remote"`
		Retention struct {
			MinSeedingDays int `toml:"min_seeding_days"`
		} `toml:"retention"`
	}
	custom := payload{}
	custom.Paths.CompletedDir = filepath.Join(tempDir, "completed")
	custom.Paths.ImportBase = filepath.Join(tempDir, "arr")
	custom.Categories = map[string]string{"tv-sonarr": "tv", "tv": "tv", "radarr": "movies/"}
	custom.Remote.Destination = "b2:bucket/"
	custom.Retention.MinSeedingDays = 10
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if got := cfg.Subdirs(); !reflect.DeepEqual(got, []string{"movies", "tv"}) {
		t.Fatalf("expected de-duplicated sorted subdirs, got %v", got)
	}
	if cfg.Remote.Destination != "b2:bucket" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Remote.Destination)
	}
	if cfg.MinSeedingAge().Hours() != 240 {
		t.Fatalf("expected 10 day seeding age, got %v", cfg.MinSeedingAge())
	}
	if err := cfg.ValidateUpload(); err != nil {
		t.Fatalf("ValidateUpload: %v", err)
	}
	wantDirs := map[string]struct{}{
		filepath.Join(tempDir, "completed", "movies"): {},
		filepath.Join(tempDir, "completed", "tv"):     {},
	}
	if !reflect.DeepEqual(cfg.CategoryDirs(), wantDirs) {
		t.Fatalf("unexpected category dirs: %v", cfg.CategoryDirs())
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "seedkeeper.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\ncompleted_dir = \"/file/completed\"\n[categories]\nfile = \"files\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("COMPLETED_DIR", "/env/completed")
	t.Setenv("IMPORT_BASE", "/env/arr")
	t.Setenv("B2_REMOTE", "b2:env-bucket")
	t.Setenv("CATEGORIES", "tv-sonarr:tv, radarr:movies ,")
	t.Setenv("MIN_SEEDING_DAYS", "7")
	t.Setenv("MIN_AVG_RATE", "4096")
	t.Setenv("QBT_API_URL", "http://qbt:8080/api/v2/")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.CompletedDir != "/env/completed" {
		t.Errorf("expected completed dir from env, got %q", cfg.Paths.CompletedDir)
	}
	if cfg.Paths.ImportBase != "/env/arr" {
		t.Errorf("expected import base from env, got %q", cfg.Paths.ImportBase)
	}
	if cfg.Remote.Destination != "b2:env-bucket" {
		t.Errorf("expected remote from env, got %q", cfg.Remote.Destination)
	}
	want := map[string]string{"tv-sonarr": "tv", "radarr": "movies"}
	if !reflect.DeepEqual(cfg.Categories, want) {
		t.Errorf("expected categories from env, got %v", cfg.Categories)
	}
	if cfg.Retention.MinSeedingDays != 7 || cfg.Retention.MinAvgRate != 4096 {
		t.Errorf("expected retention from env, got %+v", cfg.Retention)
	}
	if cfg.Tracker.URL != "http://qbt:8080/api/v2" {
		t.Errorf("expected tracker url from env, got %q", cfg.Tracker.URL)
	}
}

func TestEnvVarRejectsMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MIN_SEEDING_DAYS", "ten")
	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error for non-numeric MIN_SEEDING_DAYS")
	}
}

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{name: "pairs", input: "tv-sonarr:tv,radarr:movies", want: map[string]string{"tv-sonarr": "tv", "radarr": "movies"}},
		{name: "whitespace and empties", input: " tv : tv ,, ", want: map[string]string{"tv": "tv"}},
		{name: "empty", input: "", want: map[string]string{}},
		{name: "colon in subdir", input: "a:b:c", want: map[string]string{"a": "b:c"}},
		{name: "missing colon", input: "tv", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := config.ParseCategories(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategories: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "b2:your-bucket") {
		t.Fatalf("sample config missing remote placeholder: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Categories["radarr"] != "movies" {
		t.Fatalf("expected sample radarr category, got %v", cfg.Categories)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Tracker.RequestTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive request timeout")
	}

	cfg = config.Default()
	cfg.Tracker.URL = "localhost:8080"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http tracker url")
	}

	cfg = config.Default()
	cfg.Categories = map[string]string{"tv": "a/b"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for nested category subdir")
	}

	cfg = config.Default()
	cfg.Retention.MinAvgRate = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative min avg rate")
	}

	cfg = config.Default()
	cfg.Remote.StatsInterval = "soon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unparseable stats interval")
	}

	cfg = config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
