package fetch

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ReportFileName is the canonical name of the per-run download report. Each
// run overwrites it; historical runs live in the ledger.
const ReportFileName = "download_report.csv"

// Report aggregates one run's outcomes for rendering and persistence.
type Report struct {
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	Warnings  []string
	Outcomes  []Outcome
}

// Counts tallies outcomes by status.
func (r *Report) Counts() (ok, skipped, failed int) {
	for _, out := range r.Outcomes {
		switch out.Status {
		case StatusOK:
			ok++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return ok, skipped, failed
}

// Failed returns the outcomes that ended in failure, in submission order.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, out := range r.Outcomes {
		if out.Status == StatusFailed {
			failed = append(failed, out)
		}
	}
	return failed
}

// Summary renders a one-line digest suitable for logs and notifications.
func (r *Report) Summary() string {
	ok, skipped, failed := r.Counts()
	return fmt.Sprintf("%d downloaded, %d skipped, %d failed", ok, skipped, failed)
}

var reportHeader = []string{
	"row_index",
	"title",
	"asset_kind",
	"original_url",
	"resolved_strategy",
	"status",
	"detail",
	"saved_path",
}

// WriteCSV writes the report into dir and returns the file path.
func (r *Report) WriteCSV(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, ReportFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		f.Close()
		return "", fmt.Errorf("write report header: %w", err)
	}
	for _, out := range r.Outcomes {
		record := []string{
			strconv.Itoa(out.Job.RowIndex),
			out.Job.Title,
			string(out.Job.Kind),
			out.Job.SourceURL,
			string(out.Strategy),
			string(out.Status),
			out.Detail,
			out.LocalPath,
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return "", fmt.Errorf("write report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("flush report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}
