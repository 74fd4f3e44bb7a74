package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Request describes a single stream-extractor download.
type Request struct {
	// URL is the watch-page URL (Vimeo, YouTube, and friends).
	URL string
	// OutputStem is the absolute destination path without extension; the
	// tool appends the container extension it settles on.
	OutputStem string
	// Password unlocks password-protected Vimeo links.
	Password string
	// MaxHeight caps the selected format's vertical resolution.
	MaxHeight int
	// Retries is passed through to the tool's own retry loop.
	Retries int
	// CookieFile points at a Netscape cookie jar for links behind logins.
	CookieFile string
	// CookiesFromBrowser names a browser profile to lift cookies from.
	CookiesFromBrowser string
}

// Client defines stream download behaviour.
type Client interface {
	Download(ctx context.Context, req Request) (string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the yt-dlp command-line downloader.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "yt-dlp"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Download runs the tool and returns the path of the file it produced. The
// tool exiting zero is not enough on its own: the expected output file must
// exist on disk afterwards, otherwise the download counts as failed.
func (c *CLI) Download(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return "", errors.New("url required")
	}
	stem := strings.TrimSpace(req.OutputStem)
	if stem == "" {
		return "", errors.New("output stem required")
	}

	height := req.MaxHeight
	if height <= 0 {
		height = 1080
	}
	args := []string{
		"--no-playlist",
		"--retries", strconv.Itoa(max(req.Retries, 0)),
		"-f", fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height),
		"-o", stem + ".%(ext)s",
	}
	if req.Password != "" {
		args = append(args, "--video-password", req.Password)
	}
	if req.CookieFile != "" {
		args = append(args, "--cookies", req.CookieFile)
	}
	if req.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", req.CookiesFromBrowser)
	}
	args = append(args, "--", req.URL)

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, tail(output))
	}

	path, found := locateOutput(stem)
	if !found {
		return "", fmt.Errorf("yt-dlp reported success but no output file matches %s.*", filepath.Base(stem))
	}
	return path, nil
}

// locateOutput finds the file the tool wrote for the given stem. The final
// extension is the tool's choice, so any "<stem>.<ext>" counts, excluding
// the in-progress artifacts it leaves behind when interrupted. When a merge
// leaves several candidates the largest wins.
func locateOutput(stem string) (string, bool) {
	dir := filepath.Dir(stem)
	base := filepath.Base(stem)

	items, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	bestPath := ""
	var bestSize int64 = -1
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		name := item.Name()
		if !strings.HasPrefix(name, base+".") {
			continue
		}
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			bestSize = info.Size()
			bestPath = filepath.Join(dir, name)
		}
	}
	return bestPath, bestPath != ""
}

func tail(output []byte) string {
	text := strings.TrimSpace(string(output))
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, "\n")
}

var _ Client = (*CLI)(nil)
