// Package fetch turns spreadsheet rows into downloaded files. It derives
// jobs from recognized asset columns, classifies each URL into a retrieval
// strategy, and runs the downloads through a bounded worker pool with
// resume, retry, and skip logic so re-runs only transfer what is missing.
package fetch
