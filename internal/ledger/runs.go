package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"matinee/internal/catalog"
	"matinee/internal/fetch"
)

// Run is one recorded fetch run.
type Run struct {
	ID          string
	SheetSource string
	OutputRoot  string
	StartedAt   time.Time
	EndedAt     time.Time
	OK          int
	Skipped     int
	Failed      int
	Warnings    []string
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

const runColumns = "id, sheet_source, output_root, started_at, ended_at, ok_count, skipped_count, failed_count, warnings_json"

// RecordRun persists a fetch report plus its provenance. A report without a
// run id is assigned one; the stored id is returned either way. Passwords
// are never written to the ledger.
func (s *Store) RecordRun(ctx context.Context, sheetSource, outputRoot string, report *fetch.Report) (*Run, error) {
	ctx = ensureContext(ctx)
	id := strings.TrimSpace(report.RunID)
	if id == "" {
		id = uuid.NewString()
		report.RunID = id
	}

	ok, skipped, failed := report.Counts()
	run := &Run{
		ID:          id,
		SheetSource: sheetSource,
		OutputRoot:  outputRoot,
		StartedAt:   report.StartedAt.UTC(),
		EndedAt:     report.EndedAt.UTC(),
		OK:          ok,
		Skipped:     skipped,
		Failed:      failed,
		Warnings:    report.Warnings,
	}

	var warningsJSON any
	if len(report.Warnings) > 0 {
		data, err := json.Marshal(report.Warnings)
		if err != nil {
			return nil, fmt.Errorf("marshal warnings: %w", err)
		}
		warningsJSON = string(data)
	}

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.SheetSource,
			run.OutputRoot,
			run.StartedAt.Format(time.RFC3339Nano),
			run.EndedAt.Format(time.RFC3339Nano),
			run.OK,
			run.Skipped,
			run.Failed,
			warningsJSON,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, out := range report.Outcomes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO outcomes (
                    run_id, row_index, title, asset_kind, original_url,
                    resolved_strategy, status, detail, saved_path
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID,
				out.Job.RowIndex,
				out.Job.Title,
				string(out.Job.Kind),
				out.Job.SourceURL,
				string(out.Strategy),
				string(out.Status),
				nullableString(out.Detail),
				nullableString(out.LocalPath),
			); err != nil {
				return fmt.Errorf("insert outcome: %w", err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Runs returns recorded runs, newest first. A limit of zero or less returns
// everything.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun resolves a run by exact or prefix id; an empty id means the most
// recent run. No matching run returns (nil, nil); an ambiguous prefix is an
// error.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)

	if id == "" {
		row := s.db.QueryRowContext(ctx,
			`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT 1`)
		run, err := scanRun(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &run, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY id = ? DESC LIMIT 2`,
		id, id+"%", id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		return nil, nil
	case matches[0].ID == id:
		return &matches[0], nil
	case len(matches) > 1:
		return nil, fmt.Errorf("run id %q is ambiguous", id)
	default:
		return &matches[0], nil
	}
}

// Outcomes returns the stored outcomes of a run in insertion order.
// Passwords are not stored, so loaded jobs carry none.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]fetch.Outcome, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, title, asset_kind, original_url, resolved_strategy, status, detail, saved_path
         FROM outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []fetch.Outcome
	for rows.Next() {
		var (
			out       fetch.Outcome
			kind      string
			strategy  string
			status    string
			detail    sql.NullString
			savedPath sql.NullString
		)
		if err := rows.Scan(&out.Job.RowIndex, &out.Job.Title, &kind, &out.Job.SourceURL,
			&strategy, &status, &detail, &savedPath); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out.Job.Kind = catalog.AssetKind(kind)
		out.Strategy = fetch.Strategy(strategy)
		out.Status = fetch.Status(status)
		out.Detail = detail.String
		out.LocalPath = savedPath.String
		outcomes = append(outcomes, out)
	}
	return outcomes, rows.Err()
}

// ReportFor reassembles the fetch report recorded for a run.
func (s *Store) ReportFor(ctx context.Context, run *Run) (*fetch.Report, error) {
	outcomes, err := s.Outcomes(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &fetch.Report{
		RunID:     run.ID,
		StartedAt: run.StartedAt,
		EndedAt:   run.EndedAt,
		Warnings:  run.Warnings,
		Outcomes:  outcomes,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run          Run
		startedAt    string
		endedAt      string
		warningsJSON sql.NullString
	)
	if err := row.Scan(&run.ID, &run.SheetSource, &run.OutputRoot, &startedAt, &endedAt,
		&run.OK, &run.Skipped, &run.Failed, &warningsJSON); err != nil {
		return Run{}, err
	}

	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return Run{}, fmt.Errorf("parse ended_at: %w", err)
	}
	if warningsJSON.Valid && warningsJSON.String != "" {
		if err := json.Unmarshal([]byte(warningsJSON.String), &run.Warnings); err != nil {
			return Run{}, fmt.Errorf("parse warnings: %w", err)
		}
	}
	return run, nil
}

func nullableString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
