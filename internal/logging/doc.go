// Package logging centralizes slog construction for the CLI.
//
// Loggers are built from explicit Options or from application config and
// write through a console handler (timestamped, component-prefixed, key=value
// attrs) or a JSON handler, optionally teeing to a log file. The package also
// exposes attr aliases, a no-op logger for tests, and helpers that lift
// run/row/stage annotations from a context into structured fields.
package logging
