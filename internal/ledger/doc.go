// Package ledger records fetch run history in SQLite: one row per run and
// one per job outcome, mirroring the CSV report. The ledger is purely
// observational; skip and resume decisions always come from the filesystem,
// so deleting the database never changes fetch behavior.
package ledger
