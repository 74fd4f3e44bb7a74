package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"matinee/internal/catalog"
	"matinee/internal/config"
	"matinee/internal/fetch"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.CatalogDir = base
	cfg.Paths.AssetsDir = base
	cfg.Paths.StateDir = base
	cfg.Paths.LogDir = base
	cfg.Paths.ReportDir = base

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleReport(started time.Time) *fetch.Report {
	return &fetch.Report{
		StartedAt: started,
		EndedAt:   started.Add(90 * time.Second),
		Warnings:  []string{"row 4 has download links but no title; skipped"},
		Outcomes: []fetch.Outcome{
			{
				Job:       fetch.Job{RowIndex: 2, Title: "The Gala Opening", Kind: catalog.AssetFilm, SourceURL: "https://example.com/gala.mp4"},
				Status:    fetch.StatusOK,
				Strategy:  fetch.StrategyDirect,
				LocalPath: "/films/incoming/The Gala Opening/Film/The Gala Opening_film.mp4",
				Detail:    "downloaded 1.2 GiB",
			},
			{
				Job:      fetch.Job{RowIndex: 3, Title: "Sunset Harbor", Kind: catalog.AssetTrailer, SourceURL: "https://vimeo.com/123"},
				Status:   fetch.StatusFailed,
				Strategy: fetch.StrategyStream,
				Detail:   "yt-dlp exited with status 1",
			},
			{
				Job:      fetch.Job{RowIndex: 5, Title: "Quarry", Kind: catalog.AssetFilm, SourceURL: "https://drive.google.com/file/d/abc/view"},
				Status:   fetch.StatusSkipped,
				Strategy: fetch.StrategyDrive,
			},
		},
	}
}

func TestRecordRunRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	report := sampleReport(started)
	run, err := store.RecordRun(ctx, "festival.csv", "/films/incoming", report)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if run.ID == "" || report.RunID != run.ID {
		t.Fatalf("run id not assigned back to report: run=%q report=%q", run.ID, report.RunID)
	}
	if run.OK != 1 || run.Skipped != 1 || run.Failed != 1 {
		t.Fatalf("unexpected counts %+v", run)
	}

	got, err := store.GetRun(ctx, "")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if got == nil || got.ID != run.ID {
		t.Fatalf("latest run = %+v, want %s", got, run.ID)
	}
	if !got.StartedAt.Equal(started) || !got.EndedAt.Equal(started.Add(90*time.Second)) {
		t.Fatalf("timestamps mangled: %+v", got)
	}
	if got.SheetSource != "festival.csv" || got.OutputRoot != "/films/incoming" {
		t.Fatalf("provenance mangled: %+v", got)
	}
	if len(got.Warnings) != 1 || got.Warnings[0] != report.Warnings[0] {
		t.Fatalf("warnings mangled: %v", got.Warnings)
	}

	outcomes, err := store.Outcomes(ctx, run.ID)
	if err != nil {
		t.Fatalf("outcomes: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Job.Title != "The Gala Opening" || outcomes[0].Status != fetch.StatusOK {
		t.Fatalf("outcome order or fields mangled: %+v", outcomes[0])
	}
	if outcomes[1].Strategy != fetch.StrategyStream || outcomes[1].Detail != "yt-dlp exited with status 1" {
		t.Fatalf("failed outcome mangled: %+v", outcomes[1])
	}
	if outcomes[2].Detail != "" || outcomes[2].LocalPath != "" {
		t.Fatalf("null fields should load empty: %+v", outcomes[2])
	}
}

func TestGetRunByPrefix(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	first := sampleReport(base)
	first.RunID = "aaaa-1111"
	if _, err := store.RecordRun(ctx, "a.csv", "/out", first); err != nil {
		t.Fatalf("record first: %v", err)
	}
	second := sampleReport(base.Add(time.Hour))
	second.RunID = "bbbb-2222"
	if _, err := store.RecordRun(ctx, "b.csv", "/out", second); err != nil {
		t.Fatalf("record second: %v", err)
	}

	run, err := store.GetRun(ctx, "aa")
	if err != nil {
		t.Fatalf("prefix lookup: %v", err)
	}
	if run == nil || run.ID != "aaaa-1111" {
		t.Fatalf("prefix lookup = %+v", run)
	}

	run, err = store.GetRun(ctx, "zz")
	if err != nil || run != nil {
		t.Fatalf("unknown prefix should be (nil, nil), got %+v, %v", run, err)
	}
}

func TestGetRunAmbiguousPrefix(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"cafe-1", "cafe-2"} {
		report := sampleReport(base.Add(time.Duration(i) * time.Hour))
		report.RunID = id
		if _, err := store.RecordRun(ctx, "sheet.csv", "/out", report); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	if _, err := store.GetRun(ctx, "cafe"); err == nil {
		t.Fatal("ambiguous prefix should error")
	}
	run, err := store.GetRun(ctx, "cafe-1")
	if err != nil || run == nil || run.ID != "cafe-1" {
		t.Fatalf("exact id must win over prefix ambiguity: %+v, %v", run, err)
	}
}

func TestRunsNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		report := sampleReport(base.Add(time.Duration(i) * time.Hour))
		if _, err := store.RecordRun(ctx, "sheet.csv", "/out", report); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	runs, err := store.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].StartedAt.After(runs[i-1].StartedAt) {
			t.Fatalf("runs not newest first: %v then %v", runs[i-1].StartedAt, runs[i].StartedAt)
		}
	}

	limited, err := store.Runs(ctx, 2)
	if err != nil {
		t.Fatalf("limited runs: %v", err)
	}
	if len(limited) != 2 || !limited[0].StartedAt.Equal(runs[0].StartedAt) {
		t.Fatalf("limit broken: %+v", limited)
	}
}

func TestReportForReassembles(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	report := sampleReport(time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
	run, err := store.RecordRun(ctx, "sheet.csv", "/out", report)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	loaded, err := store.ReportFor(ctx, run)
	if err != nil {
		t.Fatalf("report for: %v", err)
	}
	ok, skipped, failed := loaded.Counts()
	if ok != 1 || skipped != 1 || failed != 1 {
		t.Fatalf("reassembled counts wrong: %d %d %d", ok, skipped, failed)
	}
	if loaded.Summary() != report.Summary() {
		t.Fatalf("summary mismatch: %q vs %q", loaded.Summary(), report.Summary())
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.CatalogDir = base
	cfg.Paths.AssetsDir = base
	cfg.Paths.StateDir = base
	cfg.Paths.LogDir = base
	cfg.Paths.ReportDir = base

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	path := store.Path()
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen raw: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw: %v", err)
	}

	if _, err := Open(&cfg); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
