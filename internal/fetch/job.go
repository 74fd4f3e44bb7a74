package fetch

import (
	"fmt"
	"path/filepath"
	"strings"

	"matinee/internal/catalog"
	"matinee/internal/sheet"
	"matinee/internal/textutil"
)

// Job is one download to perform: a single URL discovered in a single sheet
// cell, bound to a title and an asset kind. Immutable once built.
type Job struct {
	RowIndex  int
	Title     string
	Kind      catalog.AssetKind
	SourceURL string
	Password  string
}

// JobOptions controls how sheet rows become jobs.
type JobOptions struct {
	// TitleColumn is excluded from URL scanning.
	TitleColumn string
	// PasswordColumn names a dedicated password column checked before
	// inline password extraction.
	PasswordColumn string
}

// BuildJobs derives download jobs from a parsed sheet: one job per URL per
// recognized asset column per row. Rows without a usable title are reported
// as warnings and skipped; a sheet with no recognized asset columns at all
// degrades to scanning every column, filing whatever it finds under
// Screener so nothing silently disappears.
func BuildJobs(table *sheet.Table, opts JobOptions) ([]Job, []string) {
	var warnings []string

	type column struct {
		header string
		kind   catalog.AssetKind
	}
	var columns []column
	for _, header := range table.Headers {
		if header == "" || strings.EqualFold(header, opts.TitleColumn) || strings.EqualFold(header, opts.PasswordColumn) {
			continue
		}
		if kind, ok := sheet.KindForHeader(header); ok {
			columns = append(columns, column{header: header, kind: kind})
		}
	}
	if len(columns) == 0 {
		warnings = append(warnings, "no recognized asset columns in sheet header; scanning every column as Screener")
		for _, header := range table.Headers {
			if header == "" || strings.EqualFold(header, opts.TitleColumn) || strings.EqualFold(header, opts.PasswordColumn) {
				continue
			}
			columns = append(columns, column{header: header, kind: catalog.AssetScreener})
		}
	}

	var jobs []Job
	for _, row := range table.Rows {
		if row.Title == "" {
			for _, col := range columns {
				if len(sheet.ExtractURLs(row.Cells[col.header])) > 0 {
					warnings = append(warnings, fmt.Sprintf("row %d has download links but no title; skipped", row.Index))
					break
				}
			}
			continue
		}

		rowPassword := ""
		if opts.PasswordColumn != "" {
			rowPassword = strings.TrimSpace(row.Cells[opts.PasswordColumn])
		}

		for _, col := range columns {
			cell := row.Cells[col.header]
			urls := sheet.ExtractURLs(cell)
			if len(urls) == 0 {
				continue
			}
			password := rowPassword
			if password == "" {
				password = sheet.ExtractPassword(cell)
			}
			for _, u := range urls {
				jobs = append(jobs, Job{
					RowIndex:  row.Index,
					Title:     row.Title,
					Kind:      col.kind,
					SourceURL: u,
					Password:  password,
				})
			}
		}
	}
	return jobs, warnings
}

// destStem returns the extension-less destination path for a job:
// <root>/<SafeTitle>/<Kind>/<SafeTitle>_<kind suffix>. The real extension is
// settled per download from response headers or the extractor's choice.
func destStem(root, title string, kind catalog.AssetKind) string {
	safe := textutil.SafeFileName(title)
	return filepath.Join(root, safe, string(kind), safe+"_"+strings.ToLower(string(kind)))
}
