package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupCLIEnv writes a config pointing every path at a fresh temp tree and
// returns the config path plus the base directory.
func setupCLIEnv(t *testing.T) (configPath, base string) {
	t.Helper()

	base = t.TempDir()
	configPath = filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
catalog_dir = %q
assets_dir = %q
state_dir = %q
log_dir = %q
report_dir = %q

[sheet]
title_column = "Title"

[fetch]
workers = 1
`,
		filepath.Join(base, "catalog"),
		filepath.Join(base, "assets"),
		filepath.Join(base, "state"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "reports"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, base
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// seedCatalog builds a small catalog tree: two features and one short in a
// block, each with a single asset file.
func seedCatalog(t *testing.T, base string) {
	t.Helper()
	files := []string{
		filepath.Join(base, "catalog", "Features", "The Gala Opening", "Film", "The Gala Opening - Film.mp4"),
		filepath.Join(base, "catalog", "Features", "Sunset Harbor", "Trailer", "Sunset Harbor - Trailer.mp4"),
		filepath.Join(base, "catalog", "Shorts", "Shorts Block A", "1_Quarry", "Film", "Quarry.mp4"),
	}
	for _, file := range files {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(file), err)
		}
		if err := os.WriteFile(file, []byte("media"), 0o644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
