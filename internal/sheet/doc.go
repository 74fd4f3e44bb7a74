// Package sheet loads the festival's submissions spreadsheet and extracts
// the titles, download URLs, and inline passwords the fetcher runs on.
// Google Sheets share links are rewritten to their CSV export endpoint; a
// local CSV file works the same way for offline use.
package sheet
