// Package config loads, normalizes, and validates matinee's TOML
// configuration. Load resolves the config path, applies defaults for missing
// values, expands ~ in path fields, and honors environment fallbacks for
// secrets like the sheet URL and ntfy topic.
package config
