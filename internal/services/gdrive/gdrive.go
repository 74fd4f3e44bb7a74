// Package gdrive handles Google Drive share links: extracting stable file
// IDs, building direct-download URLs, and parsing the virus-scan
// interstitial Drive serves for large files.
package gdrive

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var filePathPattern = regexp.MustCompile(`/(?:file/)?d/([a-zA-Z0-9_-]{10,})`)

// ExtractFileID pulls the file ID out of a Drive or Docs share link.
// Both the ?id= query form and the /file/d/<id>/ path form are recognized.
// Returns false when no plausible ID is present; callers then fall back to
// fetching the raw URL directly.
func ExtractFileID(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if id := strings.TrimSpace(parsed.Query().Get("id")); id != "" {
		return id, true
	}
	if m := filePathPattern.FindStringSubmatch(parsed.Path); m != nil {
		return m[1], true
	}
	return "", false
}

// DownloadURL builds the direct-download endpoint for a file ID.
func DownloadURL(id string) string {
	return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(id)
}

// ConfirmURL parses the "can't scan this file for viruses" interstitial and
// reconstructs the confirmed download URL from the embedded form. Returns
// false when the page is not the interstitial, which usually means the
// request needs different credentials or the link is dead.
func ConfirmURL(page io.Reader) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", false
	}

	form := doc.Find("form#download-form").First()
	if action, ok := form.Attr("action"); ok && strings.TrimSpace(action) != "" {
		values := url.Values{}
		form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
			name, _ := input.Attr("name")
			value, _ := input.Attr("value")
			if name != "" {
				values.Set(name, value)
			}
		})
		if len(values) == 0 {
			return action, true
		}
		separator := "?"
		if strings.Contains(action, "?") {
			separator = "&"
		}
		return action + separator + values.Encode(), true
	}

	// Older interstitials carry a plain confirm anchor instead of a form.
	if href, ok := doc.Find("a#uc-download-link").Attr("href"); ok && strings.TrimSpace(href) != "" {
		if strings.HasPrefix(href, "/") {
			return "https://drive.google.com" + href, true
		}
		return href, true
	}

	return "", false
}
