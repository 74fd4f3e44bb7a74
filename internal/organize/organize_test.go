package organize

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"matinee/internal/catalog"
	"matinee/internal/config"
	"matinee/internal/logging"
)

func seedFile(t *testing.T, path string, size int) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func seedDir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func organizeFixture(t *testing.T) (*config.Config, *catalog.Catalog, string) {
	t.Helper()
	root := t.TempDir()
	seedDir(t, filepath.Join(root, "Features", "Gala"))
	seedDir(t, filepath.Join(root, "Features", "Sunset Harbor"))
	seedDir(t, filepath.Join(root, "Shorts", "Block One", "Quarry"))

	cat, err := catalog.Scan(root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	cfg := config.Default()
	cfg.Paths.CatalogDir = root
	return &cfg, cat, root
}

func TestClassifyName(t *testing.T) {
	tests := []struct {
		name string
		want catalog.AssetKind
		ok   bool
	}{
		{"Gala_Trailer_v2.mp4", catalog.AssetTrailer, true},
		{"gala-POSTER.jpg", catalog.AssetPosters, true},
		{"Gala - Screener.mp4", catalog.AssetScreener, true},
		{"TRAILER.png", catalog.AssetTrailer, true},
		{"gala still 01.jpeg", catalog.AssetStills, true},
		{"behind_scenes.webp", catalog.AssetStills, true},
		{"Gala.mp4", catalog.AssetFilm, true},
		{"quarry.MOV", catalog.AssetFilm, true},
		{"presskit.pdf", "", false},
		{"notes.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := ClassifyName(tt.name)
			if ok != tt.ok || kind != tt.want {
				t.Fatalf("ClassifyName(%q) = %q, %v; want %q, %v", tt.name, kind, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRunMovesIntoTree(t *testing.T) {
	cfg, cat, root := organizeFixture(t)
	staging := t.TempDir()
	trailer := seedFile(t, filepath.Join(staging, "Gala_trailer_final.mp4"), 64)
	film := seedFile(t, filepath.Join(staging, "nested", "Quarry.mov"), 64)

	o := New(cfg, logging.NewNop())
	summary, err := o.Run(context.Background(), cat, staging, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	counts := summary.Counts()
	if counts[DispositionMoved] != 2 {
		t.Fatalf("expected 2 moves, got %+v", counts)
	}

	wantTrailer := filepath.Join(root, "Features", "Gala", "Trailer", "Gala_trailer_final.mp4")
	if _, err := os.Stat(wantTrailer); err != nil {
		t.Fatalf("trailer not filed: %v", err)
	}
	wantFilm := filepath.Join(root, "Shorts", "Block One", "Quarry", "Film", "Quarry.mov")
	if _, err := os.Stat(wantFilm); err != nil {
		t.Fatalf("short film not filed: %v", err)
	}
	if _, err := os.Stat(trailer); !os.IsNotExist(err) {
		t.Fatal("moved source should be gone")
	}
	if _, err := os.Stat(film); !os.IsNotExist(err) {
		t.Fatal("moved source should be gone")
	}
}

func TestRunCopyLeavesStub(t *testing.T) {
	cfg, cat, root := organizeFixture(t)
	staging := t.TempDir()
	source := seedFile(t, filepath.Join(staging, "Gala.mp4"), 64)

	o := New(cfg, logging.NewNop())
	summary, err := o.Run(context.Background(), cat, staging, Options{CopyOnly: true, LeaveStubs: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Counts()[DispositionCopied] != 1 {
		t.Fatalf("expected 1 copy, got %+v", summary.Counts())
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("copy mode must keep the source: %v", err)
	}
	if _, err := os.Stat(source + ".stub"); err != nil {
		t.Fatalf("stub sentinel missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "Features", "Gala", "Film", "Gala.mp4")); err != nil {
		t.Fatalf("copy not filed: %v", err)
	}
}

func TestRunReplacesOnlyWhenLarger(t *testing.T) {
	cfg, cat, root := organizeFixture(t)
	dest := filepath.Join(root, "Features", "Gala", "Film", "Gala.mp4")
	seedFile(t, dest, 100)

	staging := t.TempDir()
	seedFile(t, filepath.Join(staging, "Gala.mp4"), 50)

	o := New(cfg, logging.NewNop())
	summary, err := o.Run(context.Background(), cat, staging, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Counts()[DispositionSkipped] != 1 {
		t.Fatalf("smaller source should be skipped, got %+v", summary.Actions)
	}
	if info, _ := os.Stat(dest); info.Size() != 100 {
		t.Fatalf("existing target should be untouched, size=%d", info.Size())
	}

	// A larger delivery replaces the target.
	seedFile(t, filepath.Join(staging, "Gala.mp4"), 200)
	summary, err = o.Run(context.Background(), cat, staging, Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Counts()[DispositionMoved] != 1 {
		t.Fatalf("larger source should replace, got %+v", summary.Actions)
	}
	if info, _ := os.Stat(dest); info.Size() != 200 {
		t.Fatalf("target should be replaced, size=%d", info.Size())
	}
}

func TestRunLeavesUnmatchedAndUnclassified(t *testing.T) {
	cfg, cat, _ := organizeFixture(t)
	staging := t.TempDir()
	mystery := seedFile(t, filepath.Join(staging, "Completely Different.mp4"), 64)
	notes := seedFile(t, filepath.Join(staging, "Gala notes.txt"), 64)

	o := New(cfg, logging.NewNop())
	summary, err := o.Run(context.Background(), cat, staging, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	counts := summary.Counts()
	if counts[DispositionUnmatched] != 1 || counts[DispositionUnclassified] != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	for _, path := range []string{mystery, notes} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("unclaimed file should stay put: %v", err)
		}
	}
}

func TestRunFuzzyFallbackClaimsTypo(t *testing.T) {
	cfg, cat, root := organizeFixture(t)
	staging := t.TempDir()
	// "Galla" does not contain the key "gala" but scores well above 0.8.
	seedFile(t, filepath.Join(staging, "Galla.mp4"), 64)

	o := New(cfg, logging.NewNop())
	summary, err := o.Run(context.Background(), cat, staging, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Counts()[DispositionMoved] != 1 {
		t.Fatalf("expected fuzzy claim, got %+v", summary.Actions)
	}
	if _, err := os.Stat(filepath.Join(root, "Features", "Gala", "Film", "Galla.mp4")); err != nil {
		t.Fatalf("typo delivery not filed under Gala: %v", err)
	}
}

func TestRunSkipsArtifacts(t *testing.T) {
	cfg, cat, _ := organizeFixture(t)
	staging := t.TempDir()
	seedFile(t, filepath.Join(staging, "Gala.mp4.stub"), 0)
	seedFile(t, filepath.Join(staging, "Gala.mp4.part"), 10)

	o := New(cfg, logging.NewNop())
	summary, err := o.Run(context.Background(), cat, staging, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Actions) != 0 {
		t.Fatalf("artifacts should be ignored, got %+v", summary.Actions)
	}
}

func TestRunMissingStagingFails(t *testing.T) {
	cfg, cat, _ := organizeFixture(t)
	o := New(cfg, logging.NewNop())
	if _, err := o.Run(context.Background(), cat, filepath.Join(t.TempDir(), "absent"), Options{}); err == nil {
		t.Fatal("expected error for missing staging directory")
	}
}

func TestRebuildAggregates(t *testing.T) {
	cfg, _, root := organizeFixture(t)
	seedFile(t, filepath.Join(root, "Features", "Gala", "Film", "gala_final.mp4"), 10)
	seedFile(t, filepath.Join(root, "Features", "Gala", "Trailer", "gala_trailer.mov"), 10)
	seedFile(t, filepath.Join(root, "Features", "Gala", "Stills", "a.jpg"), 10)
	seedFile(t, filepath.Join(root, "Features", "Gala", "Stills", "b.jpg"), 10)
	seedFile(t, filepath.Join(root, "Shorts", "Block One", "Quarry", "Film", "quarry.mp4"), 10)

	cat, err := catalog.Scan(root)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}

	o := New(cfg, logging.NewNop())
	created, err := o.RebuildAggregates(cat)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if created != 5 {
		t.Fatalf("expected 5 links, got %d", created)
	}

	for _, link := range []string{
		filepath.Join(root, "_Films", "Gala - Film.mp4"),
		filepath.Join(root, "_Films", "Quarry - Film.mp4"),
		filepath.Join(root, "_Trailers", "Gala - Trailer.mov"),
		filepath.Join(root, "_Stills", "Gala - Stills.jpg"),
		filepath.Join(root, "_Stills", "Gala - Stills (2).jpg"),
	} {
		target, err := os.Readlink(link)
		if err != nil {
			t.Fatalf("missing aggregate link %s: %v", link, err)
		}
		if _, err := os.Stat(target); err != nil {
			t.Fatalf("link %s points at missing target %s", link, target)
		}
	}

	// Rebuilding is idempotent: old links are cleared, not duplicated.
	created, err = o.RebuildAggregates(cat)
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if created != 5 {
		t.Fatalf("expected 5 links after rebuild, got %d", created)
	}
	items, err := os.ReadDir(filepath.Join(root, "_Stills"))
	if err != nil {
		t.Fatalf("read stills aggregate: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 still links, got %d", len(items))
	}
}
