package fetch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"matinee/internal/catalog"
)

func sampleReport() *Report {
	started := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return &Report{
		RunID:     "run-123",
		StartedAt: started,
		EndedAt:   started.Add(5 * time.Minute),
		Outcomes: []Outcome{
			{
				Job:       Job{RowIndex: 2, Title: "Gala", Kind: catalog.AssetFilm, SourceURL: "https://example.com/gala.mp4"},
				Status:    StatusOK,
				Strategy:  StrategyDirect,
				LocalPath: "/assets/Gala/Film/Gala_film.mp4",
				Detail:    "downloaded 1.2 GiB",
			},
			{
				Job:      Job{RowIndex: 2, Title: "Gala", Kind: catalog.AssetTrailer, SourceURL: "https://vimeo.com/1"},
				Status:   StatusFailed,
				Strategy: StrategyStream,
				Detail:   "extractor exited with status 1",
			},
			{
				Job:       Job{RowIndex: 3, Title: "Sunset", Kind: catalog.AssetFilm, SourceURL: "https://drive.google.com/file/d/abcdefghij123/view"},
				Status:    StatusSkipped,
				Strategy:  StrategyDrive,
				LocalPath: "/assets/Sunset/Film/Sunset_film.mov",
				Detail:    "already downloaded (2.0 GiB)",
			},
		},
	}
}

func TestReportCounts(t *testing.T) {
	r := sampleReport()
	ok, skipped, failed := r.Counts()
	if ok != 1 || skipped != 1 || failed != 1 {
		t.Fatalf("unexpected counts ok=%d skipped=%d failed=%d", ok, skipped, failed)
	}
	if got := r.Summary(); got != "1 downloaded, 1 skipped, 1 failed" {
		t.Fatalf("unexpected summary %q", got)
	}
	failures := r.Failed()
	if len(failures) != 1 || failures[0].Job.Kind != catalog.AssetTrailer {
		t.Fatalf("unexpected failures %+v", failures)
	}
}

func TestReportWriteCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	r := sampleReport()

	path, err := r.WriteCSV(dir)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if filepath.Base(path) != ReportFileName {
		t.Fatalf("unexpected report name %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d records", len(records))
	}
	if records[0][0] != "row_index" || records[0][7] != "saved_path" {
		t.Fatalf("unexpected header %v", records[0])
	}
	first := records[1]
	if first[0] != "2" || first[1] != "Gala" || first[2] != "Film" || first[5] != "OK" {
		t.Fatalf("unexpected first row %v", first)
	}
	if records[2][5] != "FAILED" || records[2][4] != "stream" {
		t.Fatalf("unexpected second row %v", records[2])
	}
	if records[3][5] != "SKIPPED" || records[3][4] != "drive" {
		t.Fatalf("unexpected third row %v", records[3])
	}
}

func TestReportWriteCSVOverwrites(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()
	if _, err := r.WriteCSV(dir); err != nil {
		t.Fatalf("first write: %v", err)
	}

	r.Outcomes = r.Outcomes[:1]
	path, err := r.WriteCSV(dir)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected truncated rewrite, got %d records", len(records))
	}
}
