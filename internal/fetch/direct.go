package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"matinee/internal/services"
	"matinee/internal/services/gdrive"
)

// mimeExtensions maps response content types to file extensions when the
// server sends no usable content-disposition filename.
var mimeExtensions = map[string]string{
	"video/mp4":        ".mp4",
	"video/quicktime":  ".mov",
	"video/x-matroska": ".mkv",
	"application/zip":  ".zip",
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"application/pdf":  ".pdf",
}

const fallbackExtension = ".bin"

// interstitialReadLimit bounds how much of an HTML response gets buffered
// while looking for the Drive confirm form.
const interstitialReadLimit = 2 << 20

type directDownloader struct {
	client       *http.Client
	attempts     int
	retryDelay   time.Duration
	showProgress bool
}

// directRequest describes one direct-strategy download.
type directRequest struct {
	// url is the first URL to try.
	url string
	// fallbackURL is tried when the primary keeps serving HTML instead of
	// file bytes; empty disables the fallback.
	fallbackURL string
	// stem is the destination path without extension.
	stem string
	// pl is the pre-network plan; a resume plan pins the extension to the
	// existing partial artifact.
	pl plan
	// sniffHTML enables the Drive interstitial dance.
	sniffHTML bool
}

// download performs a direct HTTP download with resume, retry, and atomic
// rename. It returns the final file path.
func (d *directDownloader) download(ctx context.Context, req directRequest) (string, error) {
	currentURL := req.url
	sniff := req.sniffHTML

	// A resume plan fixes the part path up front; a fresh download settles
	// it from the first response's headers.
	partPath := ""
	offset := int64(0)
	if req.pl.action == actionResume {
		partPath = req.pl.path
		offset = req.pl.offset
	}

	attempts := max(d.attempts, 1)
	hops := 0
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(d.retryDelay):
			}
			// The part may have grown or been truncated on the previous
			// attempt; trust the filesystem, not stale state.
			offset = partSize(partPath)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, currentURL, nil)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "fetch", "download", "build request", err)
		}
		if offset > 0 {
			httpReq.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		}

		resp, err := d.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusPartialContent:
		case http.StatusRequestedRangeNotSatisfiable:
			// The partial artifact no longer lines up with the source.
			// Restart from zero rather than failing permanently.
			resp.Body.Close()
			truncatePart(partPath)
			offset = 0
			lastErr = fmt.Errorf("HTTP 416: resume offset rejected, restarting from zero")
			continue
		default:
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, redactURL(currentURL))
			continue
		}

		if sniff && isHTMLResponse(resp) {
			confirmURL, ok := gdrive.ConfirmURL(io.LimitReader(resp.Body, interstitialReadLimit))
			resp.Body.Close()
			hops++
			switch {
			case ok && hops <= 2:
				currentURL = confirmURL
			case req.fallbackURL != "" && currentURL != req.fallbackURL:
				currentURL = req.fallbackURL
			default:
				return "", fmt.Errorf("source keeps serving an HTML page instead of file bytes (access denied or link dead)")
			}
			// URL hops are resolution steps, not failed transfers.
			attempt--
			continue
		}

		if partPath == "" {
			partPath = req.stem + extFromResponse(resp) + ".part"
		}
		if resp.StatusCode == http.StatusOK && offset > 0 {
			// Server ignored the range request; start the file over.
			truncatePart(partPath)
			offset = 0
		}

		err = d.writeBody(resp, partPath, offset)
		resp.Body.Close()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("write body: %w", err)
			continue
		}

		finalPath := strings.TrimSuffix(partPath, ".part")
		if err := os.Rename(partPath, finalPath); err != nil {
			return "", fmt.Errorf("finalize download: %w", err)
		}
		return finalPath, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("download failed")
	}
	return "", services.Wrap(services.ErrTransient, "fetch", "download",
		fmt.Sprintf("gave up after %d attempts", attempts), lastErr)
}

// writeBody streams the response into the partial artifact at the given
// offset and fsyncs before returning, so a rename never publishes bytes the
// disk has not accepted.
func (d *directDownloader) writeBody(resp *http.Response, partPath string, offset int64) error {
	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(partPath, flags, 0o644)
	if err != nil {
		return err
	}

	var dst io.Writer = f
	var bar *progressbar.ProgressBar
	if d.showProgress {
		total := int64(-1)
		if resp.ContentLength > 0 {
			total = offset + resp.ContentLength
		}
		bar = progressbar.DefaultBytes(total, filepath.Base(strings.TrimSuffix(partPath, ".part")))
		_ = bar.Set64(offset)
		dst = io.MultiWriter(f, bar)
	}

	_, err = io.Copy(dst, resp.Body)
	if bar != nil {
		_ = bar.Close()
	}
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// extFromResponse infers the destination extension: content-disposition
// filename first, then the MIME table, then a generic placeholder.
func extFromResponse(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if filename := params["filename"]; filename != "" {
				if ext := filepath.Ext(filename); ext != "" && ext != "." {
					return strings.ToLower(ext)
				}
			}
		}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			if ext, ok := mimeExtensions[strings.ToLower(mediaType)]; ok {
				return ext
			}
		}
	}
	return fallbackExtension
}

func isHTMLResponse(resp *http.Response) bool {
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "text/html"
}

func partSize(partPath string) int64 {
	if partPath == "" {
		return 0
	}
	info, err := os.Stat(partPath)
	if err != nil {
		return 0
	}
	return info.Size()
}

func truncatePart(partPath string) {
	if partPath == "" {
		return
	}
	_ = os.Truncate(partPath, 0)
}

// redactURL trims query parameters out of logged URLs; Drive confirm links
// carry tokens that do not belong in reports.
func redactURL(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i] + "?..."
	}
	return rawURL
}
