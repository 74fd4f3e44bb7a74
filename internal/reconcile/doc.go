// Package reconcile fuzzy-matches free-text film titles against the on-disk
// catalog. Spreadsheet exports, schedules, and shorts-block lists all spell
// titles slightly differently; the matcher normalizes both sides and scores
// them with a sequence-similarity ratio so minor punctuation, casing, and
// numbering noise does not break the mapping.
package reconcile
