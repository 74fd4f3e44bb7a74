package preflight

import (
	"context"
	"strings"

	"matinee/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding setting is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Catalog root (always checked)
	results = append(results, CheckDirectoryAccess("Catalog root", cfg.Paths.CatalogDir))

	// Download root (when configured)
	if strings.TrimSpace(cfg.Paths.AssetsDir) != "" {
		results = append(results, CheckDirectoryAccess("Download root", cfg.Paths.AssetsDir))
	}

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Report directory", cfg.Paths.ReportDir))

	// Submissions sheet (when configured)
	if strings.TrimSpace(cfg.Sheet.URL) != "" {
		results = append(results, CheckSheet(ctx, cfg.Sheet.URL))
	}

	return results
}
