package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	rowIndexKey contextKey = "row_index"
	stageKey    contextKey = "stage"
)

// WithRunID annotates context with the fetch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the fetch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRowIndex annotates context with the spreadsheet row a job came from.
func WithRowIndex(ctx context.Context, row int) context.Context {
	return context.WithValue(ctx, rowIndexKey, row)
}

// RowIndexFromContext extracts the spreadsheet row index if present.
func RowIndexFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(rowIndexKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
