package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"matinee/internal/catalog"
	"matinee/internal/fetch"
	"matinee/internal/logging"
)

// aggregateDirs pairs each festival aggregate folder with the asset kind it
// collects. Order is fixed so rebuilds are deterministic.
var aggregateDirs = []struct {
	dir  string
	kind catalog.AssetKind
}{
	{"_Films", catalog.AssetFilm},
	{"_Trailers", catalog.AssetTrailer},
	{"_Stills", catalog.AssetStills},
	{"_Posters", catalog.AssetPosters},
}

// RebuildAggregates recreates the `_Films`, `_Trailers`, `_Stills`, and
// `_Posters` collections at the catalog root as symlinks named
// "Title - Kind.ext". Existing links are cleared first; a filesystem that
// refuses symlinks degrades to warnings, not failure.
func (o *Organizer) RebuildAggregates(cat *catalog.Catalog) (int, error) {
	root := o.cfg.Paths.CatalogDir
	created := 0

	for _, agg := range aggregateDirs {
		dir := filepath.Join(root, agg.dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("create aggregate %s: %w", agg.dir, err)
		}
		if err := clearLinks(dir); err != nil {
			return created, fmt.Errorf("clear aggregate %s: %w", agg.dir, err)
		}

		for _, entry := range cat.Entries() {
			for _, asset := range entry.Assets[agg.kind] {
				if fetch.IsArtifact(filepath.Base(asset)) {
					continue
				}
				linkPath := allocateLinkPath(dir, entry.DisplayName, agg.kind, filepath.Ext(asset))
				if err := os.Symlink(asset, linkPath); err != nil {
					o.logger.Warn("aggregate link failed",
						logging.String("link", linkPath),
						logging.Error(err))
					continue
				}
				created++
			}
		}
	}

	o.logger.Info("aggregates rebuilt", logging.Int("links", created))
	return created, nil
}

// clearLinks removes files and symlinks from an aggregate folder, leaving
// any stray subdirectories alone.
func clearLinks(dir string) error {
	items, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, item.Name())); err != nil {
			return err
		}
	}
	return nil
}

// allocateLinkPath returns a free "Title - Kind.ext" path, numbering
// duplicates when a title delivered several files of one kind.
func allocateLinkPath(dir, title string, kind catalog.AssetKind, ext string) string {
	base := fmt.Sprintf("%s - %s", sanitizeLinkName(title), kind)
	candidate := filepath.Join(dir, base+ext)
	for n := 2; ; n++ {
		if _, err := os.Lstat(candidate); err != nil {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
	}
}

func sanitizeLinkName(title string) string {
	return strings.TrimSpace(strings.ReplaceAll(title, string(filepath.Separator), "_"))
}
