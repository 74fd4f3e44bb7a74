package fetch

import (
	"net/url"
	"strings"

	"matinee/internal/services/gdrive"
)

// Strategy names the retrieval method selected for a URL.
type Strategy string

const (
	// StrategyDirect streams the URL over plain HTTP with range support.
	StrategyDirect Strategy = "direct"
	// StrategyDrive goes through the Google Drive direct-download endpoint.
	StrategyDrive Strategy = "drive"
	// StrategyStream delegates to the external stream extractor.
	StrategyStream Strategy = "stream"
)

// Classification is the result of strategy selection for one URL.
type Classification struct {
	Strategy Strategy
	// FetchURL is what the downloader should actually request. For drive
	// links it is the uc?export=download endpoint; for Dropbox links the
	// dl=1 rewrite; otherwise the original URL.
	FetchURL string
	// FileID carries the extracted Drive file ID, empty for other strategies.
	FileID string
}

// Classify maps a URL to its retrieval strategy. Pure and deterministic:
// the same URL string always yields the same classification. Unparseable
// input degrades to the direct strategy with the URL untouched, so every
// job gets exactly one strategy.
func Classify(rawURL string) Classification {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return Classification{Strategy: StrategyDirect, FetchURL: rawURL}
	}
	host := strings.ToLower(parsed.Hostname())

	switch {
	case hostMatches(host, "drive.google.com") || hostMatches(host, "docs.google.com"):
		if id, ok := gdrive.ExtractFileID(rawURL); ok {
			return Classification{Strategy: StrategyDrive, FetchURL: gdrive.DownloadURL(id), FileID: id}
		}
		// No recognizable file ID: fetch whatever the link serves.
		return Classification{Strategy: StrategyDirect, FetchURL: rawURL}
	case hostMatches(host, "dropbox.com"):
		return Classification{Strategy: StrategyDirect, FetchURL: dropboxDirect(parsed)}
	case hostMatches(host, "vimeo.com"), hostMatches(host, "youtube.com"), host == "youtu.be":
		return Classification{Strategy: StrategyStream, FetchURL: rawURL}
	default:
		return Classification{Strategy: StrategyDirect, FetchURL: rawURL}
	}
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// dropboxDirect forces Dropbox share links into direct-download mode by
// rewriting the dl query parameter.
func dropboxDirect(parsed *url.URL) string {
	rewritten := *parsed
	query := rewritten.Query()
	query.Set("dl", "1")
	rewritten.RawQuery = query.Encode()
	return rewritten.String()
}
