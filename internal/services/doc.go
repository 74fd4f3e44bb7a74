// Package services defines shared utilities consumed by the festival
// pipeline components and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, spreadsheet row indexes,
//     and stage names for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (fatal configuration vs per-job) with errors.Is.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across components.
package services
