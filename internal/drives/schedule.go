package drives

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"matinee/internal/services"
)

// Showing is one scheduled slot: a feature title or a shorts block name
// playing at a day and time.
type Showing struct {
	Day   string
	Time  string
	Title string
}

// Block reports whether the slot is a shorts block rather than a single
// film, following the festival convention of putting "Shorts" in the block
// name.
func (s Showing) Block() bool {
	return strings.Contains(strings.ToLower(s.Title), "shorts")
}

// Folder returns the show folder path relative to the drive root:
// "<Day>/<Time> - <Title>" with filesystem-hostile runes replaced.
func (s Showing) Folder() string {
	return filepath.Join(safeName(s.Day), fmt.Sprintf("%s - %s", safeName(s.Time), safeName(s.Title)))
}

// ParseSchedule reads a screening schedule from a CSV or tab-delimited
// file. A header row naming day, time, and title (or film/block) columns is
// honored; without one the first three columns are taken positionally.
// Rows missing a title are skipped with a warning, never fatally.
func ParseSchedule(path string) ([]Showing, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrValidation, "drives", "schedule", "open schedule", err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	// Schedules pasted out of spreadsheets arrive tab-delimited.
	if line, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(line, []byte("\t")) > bytes.Count(line, []byte(",")) {
		cr.Comma = '\t'
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, services.Wrap(services.ErrValidation, "drives", "schedule", "decode schedule", err)
	}
	if len(records) == 0 {
		return nil, nil, services.Wrap(services.ErrValidation, "drives", "schedule", "schedule file is empty", nil)
	}

	dayIdx, timeIdx, titleIdx, hasHeader := scheduleColumns(records[0])

	var (
		showings []Showing
		warnings []string
	)
	start := 0
	if hasHeader {
		start = 1
	}
	for i, record := range records[start:] {
		rowNum := start + i + 1
		if len(record) <= max(dayIdx, timeIdx, titleIdx) {
			warnings = append(warnings, fmt.Sprintf("schedule row %d has too few columns", rowNum))
			continue
		}
		showing := Showing{
			Day:   strings.TrimSpace(record[dayIdx]),
			Time:  strings.TrimSpace(record[timeIdx]),
			Title: strings.TrimSpace(record[titleIdx]),
		}
		if showing.Title == "" {
			warnings = append(warnings, fmt.Sprintf("schedule row %d has no title", rowNum))
			continue
		}
		showings = append(showings, showing)
	}
	return showings, warnings, nil
}

// scheduleColumns locates the day, time, and title columns. The row counts
// as a header only when it names all three; otherwise every row is data and
// the first three columns apply.
func scheduleColumns(first []string) (day, tm, title int, hasHeader bool) {
	day, tm, title = 0, 1, 2
	foundDay, foundTime, foundTitle := false, false, false
	for i, cell := range first {
		lower := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case !foundDay && strings.Contains(lower, "day"):
			day, foundDay = i, true
		case !foundTime && strings.Contains(lower, "time"):
			tm, foundTime = i, true
		case !foundTitle && (strings.Contains(lower, "title") ||
			strings.Contains(lower, "film") || strings.Contains(lower, "block")):
			title, foundTitle = i, true
		}
	}
	if foundDay && foundTime && foundTitle {
		return day, tm, title, true
	}
	return 0, 1, 2, false
}
