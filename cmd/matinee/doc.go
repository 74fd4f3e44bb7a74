// Package main hosts the matinee CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the festival asset pipeline end to
// end: fetching submissions from the sheet, filing loose deliveries,
// auditing screeners against projection requirements, building screening
// drives and playlists, and inspecting the run ledger. It centralizes
// configuration resolution and logger setup so subcommands can focus on
// user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
