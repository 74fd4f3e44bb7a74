package audit

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"matinee/internal/catalog"
	"matinee/internal/config"
	"matinee/internal/fetch"
	"matinee/internal/logging"
	"matinee/internal/media/ffprobe"
)

// Severity ranks a concern. Critical concerns block ingest, warnings need a
// human look, info is advisory.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Concern is one delivery problem found on one file.
type Concern struct {
	Severity Severity
	Category string
	Message  string
}

// MediaSummary carries the probed technical fields checks run against.
// Zero values mean the field could not be determined; checks skip unknowns
// rather than flagging them twice.
type MediaSummary struct {
	Width           int
	Height          int
	VideoCodec      string
	AudioCodec      string
	Channels        int
	ChannelLayout   string
	VideoBitRate    int64
	FPS             float64
	DurationSeconds float64
	SizeBytes       int64
}

// VideoMbps returns the video bitrate in megabits per second.
func (s MediaSummary) VideoMbps() float64 {
	return float64(s.VideoBitRate) / 1e6
}

// SizeGB returns the file size in gigabytes.
func (s MediaSummary) SizeGB() float64 {
	return float64(s.SizeBytes) / 1e9
}

// Finding is the audit result for one delivered file, or for one catalog
// entry with nothing delivered.
type Finding struct {
	Title string
	Kind  catalog.Kind
	Block string
	// Path is empty when the entry has no film file at all.
	Path string
	// Summary is nil when the probe failed; ProbeErr then says why.
	Summary  *MediaSummary
	ProbeErr string
	Concerns []Concern
}

// Report is the full audit output for one catalog walk.
type Report struct {
	GeneratedAt time.Time
	Root        string
	Findings    []Finding
}

// Counts tallies concerns by severity across all findings.
func (r *Report) Counts() (critical, warning, info int) {
	for _, f := range r.Findings {
		for _, c := range f.Concerns {
			switch c.Severity {
			case SeverityCritical:
				critical++
			case SeverityWarning:
				warning++
			case SeverityInfo:
				info++
			}
		}
	}
	return critical, warning, info
}

// HasConcerns reports whether any finding carries at least one concern.
func (r *Report) HasConcerns() bool {
	for _, f := range r.Findings {
		if len(f.Concerns) > 0 {
			return true
		}
	}
	return false
}

// Prober abstracts the media inspector so tests can substitute probes.
type Prober func(ctx context.Context, path string) (ffprobe.Result, error)

// Auditor probes delivered films and evaluates them against the configured
// delivery thresholds.
type Auditor struct {
	cfg    *config.Config
	logger *slog.Logger
	probe  Prober
}

// Option adjusts Auditor construction.
type Option func(*Auditor)

// WithProber substitutes the media prober, primarily for tests.
func WithProber(p Prober) Option {
	return func(a *Auditor) { a.probe = p }
}

// New builds an Auditor from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Auditor {
	if logger == nil {
		logger = logging.NewNop()
	}
	a := &Auditor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "audit"),
	}
	a.probe = func(ctx context.Context, path string) (ffprobe.Result, error) {
		return ffprobe.Inspect(ctx, cfg.FFprobeBinary(), path)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run walks the catalog and produces one finding per delivered film file,
// plus one per entry with no film at all. A failing probe degrades that
// finding to unknown fields; it never fails the run.
func (a *Auditor) Run(ctx context.Context, cat *catalog.Catalog) (*Report, error) {
	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Root:        a.cfg.Paths.CatalogDir,
	}

	for _, entry := range cat.Entries() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		films := deliveredFiles(entry.Assets[catalog.AssetFilm])
		if len(films) == 0 {
			report.Findings = append(report.Findings, Finding{
				Title: entry.DisplayName,
				Kind:  entry.Kind,
				Block: entry.Block,
				Concerns: []Concern{{
					Severity: SeverityCritical,
					Category: "delivery",
					Message:  "no film file delivered",
				}},
			})
			a.logger.Warn("no film delivered", logging.String(logging.FieldTitle, entry.DisplayName))
			continue
		}
		for _, path := range films {
			report.Findings = append(report.Findings, a.auditFile(ctx, entry, path))
		}
	}

	critical, warning, info := report.Counts()
	a.logger.Info("audit complete",
		logging.Int("files", len(report.Findings)),
		logging.Int("critical", critical),
		logging.Int("warning", warning),
		logging.Int("info", info))
	return report, nil
}

func (a *Auditor) auditFile(ctx context.Context, entry catalog.Entry, path string) Finding {
	finding := Finding{
		Title: entry.DisplayName,
		Kind:  entry.Kind,
		Block: entry.Block,
		Path:  path,
	}

	result, err := a.probe(ctx, path)
	if err != nil {
		finding.ProbeErr = err.Error()
		finding.Concerns = []Concern{{
			Severity: SeverityWarning,
			Category: "probe",
			Message:  "media probe failed; technical fields unknown",
		}}
		a.logger.Warn("probe failed",
			logging.String(logging.FieldTitle, entry.DisplayName),
			logging.String("path", path),
			logging.Error(err))
		return finding
	}

	summary := summarize(result, fileSize(path))
	finding.Summary = &summary
	finding.Concerns = evaluate(summary, a.cfg.Audit)
	return finding
}

// summarize flattens a probe result into the fields checks care about.
func summarize(result ffprobe.Result, sizeBytes int64) MediaSummary {
	s := MediaSummary{SizeBytes: sizeBytes}
	if video, ok := result.FirstVideoStream(); ok {
		s.Width = video.Width
		s.Height = video.Height
		s.VideoCodec = strings.ToLower(video.CodecName)
		s.FPS = video.FrameRate()
		s.VideoBitRate = video.BitRateBPS()
	}
	if s.VideoBitRate == 0 {
		// Many containers only report an overall bitrate.
		s.VideoBitRate = result.BitRate()
	}
	if audio, ok := result.FirstAudioStream(); ok {
		s.AudioCodec = strings.ToLower(audio.CodecName)
		s.Channels = audio.Channels
		s.ChannelLayout = audio.ChannelLayout
	}
	s.DurationSeconds = result.DurationSeconds()
	if s.SizeBytes == 0 {
		s.SizeBytes = result.SizeBytes()
	}
	return s
}

// deliveredFiles filters out download bookkeeping artifacts.
func deliveredFiles(paths []string) []string {
	var files []string
	for _, path := range paths {
		if fetch.IsArtifact(filepath.Base(path)) {
			continue
		}
		files = append(files, path)
	}
	return files
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
