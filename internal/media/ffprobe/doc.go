// Package ffprobe wraps the external ffprobe binary and exposes typed
// accessors over its JSON output. A missing or failing prober degrades to
// "unknown" fields at the call site, never a crash.
package ffprobe
