// Package audit probes delivered film files with ffprobe and evaluates them
// against configured delivery thresholds, producing per-file findings and a
// plain markdown report. Probe failures degrade to unknown fields; the audit
// itself never fails because of a single bad file.
package audit
