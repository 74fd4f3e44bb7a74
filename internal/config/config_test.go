package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"matinee/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndReadsEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MATINEE_SHEET_URL", "https://docs.google.com/spreadsheets/d/env-sheet/edit")
	t.Setenv("MATINEE_NTFY_TOPIC", "env-topic")

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

	wantCatalog := filepath.Join(tempHome, "films")
	if cfg.Paths.CatalogDir != wantCatalog {
		t.Fatalf("unexpected catalog dir: got %q want %q", cfg.Paths.CatalogDir, wantCatalog)
	}
	if cfg.Paths.AssetsDir != filepath.Join(tempHome, "films", "incoming") {
		t.Fatalf("unexpected assets dir: %q", cfg.Paths.AssetsDir)
	}
	if cfg.Sheet.URL != "https://docs.google.com/spreadsheets/d/env-sheet/edit" {
		t.Fatalf("expected sheet URL from env, got %q", cfg.Sheet.URL)
	}
	if cfg.Notifications.NtfyTopic != "env-topic" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Fetch.Workers != 4 {
		t.Fatalf("unexpected default workers: %d", cfg.Fetch.Workers)
	}
	if cfg.Matching.AssetThreshold != 0.8 {
		t.Fatalf("unexpected asset threshold: %f", cfg.Matching.AssetThreshold)
	}
	if cfg.Matching.ListThreshold != 0.7 {
		t.Fatalf("unexpected list threshold: %f", cfg.Matching.ListThreshold)
	}
	if cfg.LedgerPath() != filepath.Join(cfg.Paths.StateDir, "matinee.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.ReportDir, cfg.Paths.AssetsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.CatalogDir); !os.IsNotExist(err) {
		t.Fatalf("expected catalog dir to stay absent, got %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "matinee.toml")

	type payload struct {
		Sheet struct {
			URL         string `toml:"url"`
			TitleColumn string `toml:"title_column"`
		} `toml:"sheet"`
		Matching struct {
			AssetThreshold float64 `toml:"asset_threshold"`
		} `toml:"matching"`
		Fetch struct {
			Workers int `toml:"workers"`
		} `toml:"fetch"`
	}
	custom := payload{}
	custom.Sheet.URL = "https://example.com/submissions.csv"
	custom.Sheet.TitleColumn = "Film"
	custom.Matching.AssetThreshold = 0.9
	custom.Fetch.Workers = 8
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
	if cfg.Sheet.URL != "https://example.com/submissions.csv" {
		t.Fatalf("expected sheet URL from file, got %q", cfg.Sheet.URL)
	}
	if cfg.Sheet.TitleColumn != "Film" {
		t.Fatalf("expected title column override, got %q", cfg.Sheet.TitleColumn)
	}
	if cfg.Matching.AssetThreshold != 0.9 {
		t.Fatalf("expected asset threshold 0.9, got %f", cfg.Matching.AssetThreshold)
	}
	if cfg.Fetch.Workers != 8 {
		t.Fatalf("expected 8 workers, got %d", cfg.Fetch.Workers)
	}
	if cfg.Matching.ListThreshold != 0.7 {
		t.Fatalf("expected default list threshold to survive, got %f", cfg.Matching.ListThreshold)
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
	if !strings.Contains(string(contents), "your_sheet_id_here") {
		t.Fatalf("sample config missing placeholder sheet URL: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}

	if runtime.GOOS != "windows" {
		if !strings.Contains(cfg.Paths.StateDir, "matinee") {
			t.Fatalf("expected state dir to contain matinee, got %q", cfg.Paths.StateDir)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Matching.AssetThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range asset threshold")
	}

	cfg = config.Default()
	cfg.Matching.ReviewFloor = 0.95
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when review floor exceeds thresholds")
	}

	cfg = config.Default()
	cfg.Fetch.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive workers")
	}

	cfg = config.Default()
	cfg.Audit.MaxVideoMbps = 1.0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when audit max below min")
	}

	cfg = config.Default()
	cfg.Audit.VideoCodecs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty video codec list")
	}
}
