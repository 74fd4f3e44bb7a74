// Package notify pushes run events to an ntfy topic so festival staff hear
// about finished fetches and failures without watching a terminal. Without a
// configured topic every publish is a silent no-op.
package notify
