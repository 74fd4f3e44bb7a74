package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"matinee/internal/catalog"
)

// ReportFileName is the canonical name of the written audit report.
const ReportFileName = "audit_report.md"

// RenderMarkdown produces the plain markdown report.
func (r *Report) RenderMarkdown() string {
	var b strings.Builder
	b.WriteString("# Delivery audit\n\n")
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Root: `%s`\n", r.Root)
	critical, warning, info := r.Counts()
	fmt.Fprintf(&b, "- Findings: %d, concerns: %d critical / %d warning / %d info\n\n",
		len(r.Findings), critical, warning, info)

	var features, shorts []Finding
	for _, f := range r.Findings {
		if f.Kind == catalog.KindShort {
			shorts = append(shorts, f)
		} else {
			features = append(features, f)
		}
	}
	renderSection(&b, "Features", features, false)
	renderSection(&b, "Shorts", shorts, true)
	return b.String()
}

// WriteMarkdown writes the rendered report to dir and returns the file path.
func (r *Report) WriteMarkdown(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(path, []byte(r.RenderMarkdown()), 0o644); err != nil {
		return "", fmt.Errorf("write audit report: %w", err)
	}
	return path, nil
}

func renderSection(b *strings.Builder, title string, findings []Finding, withBlock bool) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, f := range findings {
		heading := f.Title
		if withBlock && f.Block != "" {
			heading = f.Block + " / " + f.Title
		}
		fmt.Fprintf(b, "### %s\n\n", heading)

		switch {
		case f.Path == "":
			// Nothing delivered; the concern below says so.
		case f.ProbeErr != "":
			fmt.Fprintf(b, "- `%s` (probe failed: %s)\n", filepath.Base(f.Path), f.ProbeErr)
		case f.Summary != nil:
			fmt.Fprintf(b, "- `%s` (%s)\n", filepath.Base(f.Path), describe(*f.Summary))
		default:
			fmt.Fprintf(b, "- `%s`\n", filepath.Base(f.Path))
		}
		for _, c := range f.Concerns {
			fmt.Fprintf(b, "  - **%s** %s: %s\n", c.Severity, c.Category, c.Message)
		}
		b.WriteString("\n")
	}
}

// describe renders the probed fields as a compact single line, omitting
// whatever could not be determined.
func describe(s MediaSummary) string {
	var parts []string
	if s.Width > 0 && s.Height > 0 {
		video := fmt.Sprintf("%dx%d", s.Width, s.Height)
		if s.VideoCodec != "" {
			video += " " + s.VideoCodec
		}
		parts = append(parts, video)
	}
	if s.AudioCodec != "" {
		audio := s.AudioCodec
		if s.ChannelLayout != "" {
			audio += " " + s.ChannelLayout
		} else if s.Channels > 0 {
			audio += fmt.Sprintf(" %dch", s.Channels)
		}
		parts = append(parts, audio)
	}
	if mbps := s.VideoMbps(); mbps > 0 {
		parts = append(parts, fmt.Sprintf("%.1f Mbps", mbps))
	}
	if s.FPS > 0 {
		parts = append(parts, fmt.Sprintf("%.2f fps", s.FPS))
	}
	if s.DurationSeconds > 0 {
		parts = append(parts, fmt.Sprintf("%.1f min", s.DurationSeconds/60))
	}
	if s.SizeBytes > 0 {
		parts = append(parts, humanize.Bytes(uint64(s.SizeBytes)))
	}
	if len(parts) == 0 {
		return "no technical data"
	}
	return strings.Join(parts, ", ")
}
