package main

import (
	"fmt"
	"io"
	"time"
)

// shortRunID trims a run UUID to the 8-character prefix shown in tables.
// The ledger accepts any unambiguous prefix, so the short form round-trips.
func shortRunID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func printWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}

func formatRunDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}

func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
