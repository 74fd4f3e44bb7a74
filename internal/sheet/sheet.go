package sheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"matinee/internal/services"
)

// Row is one data row of the submissions sheet. Index is the spreadsheet row
// number with the header counting as row 1, so Index matches what festival
// staff see in the Google Sheets UI.
type Row struct {
	Index int
	Title string
	Cells map[string]string
}

// Table is a parsed submissions sheet.
type Table struct {
	Headers []string
	Rows    []Row
}

// Options controls how a sheet is loaded and interpreted.
type Options struct {
	// TitleColumn is the header of the column holding film titles. When the
	// header is absent the first column is used.
	TitleColumn string
	// RequestTimeout bounds the HTTP fetch for remote sheets.
	RequestTimeout time.Duration
}

// Load reads the submissions sheet from a URL or local CSV path. Google
// Sheets share links and bare spreadsheet ids are rewritten to their CSV
// export endpoint first.
func Load(ctx context.Context, source string, opts Options) (*Table, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sheet", "load", "no sheet URL or path configured", nil)
	}

	var reader io.ReadCloser
	if export := ExportURL(source); strings.HasPrefix(export, "http://") || strings.HasPrefix(export, "https://") {
		r, err := fetchCSV(ctx, export, opts.RequestTimeout)
		if err != nil {
			return nil, err
		}
		reader = r
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "sheet", "load", "open sheet file", err)
		}
		reader = f
	}
	defer reader.Close()

	return Parse(reader, opts)
}

func fetchCSV(ctx context.Context, url string, timeout time.Duration) (io.ReadCloser, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sheet", "fetch", "build request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "sheet", "fetch", "request sheet export", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, services.Wrap(services.ErrTransient, "sheet", "fetch",
			fmt.Sprintf("sheet export returned status %d", resp.StatusCode), nil)
	}
	return resp.Body, nil
}

// Parse decodes CSV content into a Table. Rows shorter than the header are
// padded; rows with a blank title are kept so callers can report them rather
// than drop them silently.
func Parse(r io.Reader, opts Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sheet", "parse", "decode csv", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	titleIdx := columnIndex(headers, opts.TitleColumn)

	table := &Table{Headers: headers}
	for i, record := range records[1:] {
		cells := make(map[string]string, len(headers))
		for col, header := range headers {
			if header == "" {
				continue
			}
			if col < len(record) {
				cells[header] = strings.TrimSpace(record[col])
			} else {
				cells[header] = ""
			}
		}
		title := ""
		if titleIdx >= 0 && titleIdx < len(record) {
			title = strings.TrimSpace(record[titleIdx])
		}
		table.Rows = append(table.Rows, Row{
			Index: i + 2,
			Title: title,
			Cells: cells,
		})
	}
	return table, nil
}

// columnIndex finds the requested header case-insensitively. Without an
// exact match the first header containing "title" wins, then the first
// column, so sheets without the expected header still yield titles.
func columnIndex(headers []string, want string) int {
	want = strings.TrimSpace(want)
	if want != "" {
		for i, h := range headers {
			if strings.EqualFold(h, want) {
				return i
			}
		}
	}
	for i, h := range headers {
		if strings.Contains(strings.ToLower(h), "title") {
			return i
		}
	}
	if len(headers) > 0 {
		return 0
	}
	return -1
}
