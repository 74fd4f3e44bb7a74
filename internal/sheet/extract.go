package sheet

import (
	"net/url"
	"regexp"
	"strings"

	"matinee/internal/catalog"
)

var (
	urlPattern        = regexp.MustCompile(`https?://[^\s]+`)
	passwordPattern   = regexp.MustCompile(`(?i)\b(?:password|pass|pw)\b[:=\s-]*(\S+)`)
	sheetIDPattern    = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	gidPattern        = regexp.MustCompile(`[#&?]gid=([0-9]+)`)
	documentIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{40,}$`)
)

// ExtractURLs pulls every http(s) URL out of a free-text cell. Trailing
// punctuation that submitters habitually glue onto links is stripped.
func ExtractURLs(cell string) []string {
	matches := urlPattern.FindAllString(cell, -1)
	if len(matches) == 0 {
		return nil
	}
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		trimmed := strings.TrimRight(m, "),.;]")
		if trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

// ExtractPassword finds an inline viewing password in a cell, e.g.
// "https://vimeo.com/123 password: snare2024". URLs are blanked out first so
// path segments like "/pass/" never produce a phantom password. Returns
// empty when none is present.
func ExtractPassword(cell string) string {
	cleaned := urlPattern.ReplaceAllString(cell, " ")
	m := passwordPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], `"'`)
}

// ExportURL rewrites a Google Sheets share link to its CSV export endpoint,
// keeping the tab selection when the link carries a gid. A bare spreadsheet
// id pasted straight out of a share dialog gets the same treatment. Anything
// else passes through unchanged.
func ExportURL(shareURL string) string {
	shareURL = strings.TrimSpace(shareURL)
	if documentIDPattern.MatchString(shareURL) {
		return "https://docs.google.com/spreadsheets/d/" + shareURL + "/export?format=csv"
	}
	parsed, err := url.Parse(shareURL)
	if err != nil {
		return shareURL
	}
	if !strings.HasSuffix(parsed.Host, "docs.google.com") {
		return shareURL
	}
	idMatch := sheetIDPattern.FindStringSubmatch(parsed.Path)
	if idMatch == nil {
		return shareURL
	}

	export := "https://docs.google.com/spreadsheets/d/" + idMatch[1] + "/export?format=csv"
	if gidMatch := gidPattern.FindStringSubmatch(shareURL); gidMatch != nil {
		export += "&gid=" + gidMatch[1]
	}
	return export
}

var headerKinds = []struct {
	keyword string
	kind    catalog.AssetKind
}{
	{"screener", catalog.AssetScreener},
	{"screening", catalog.AssetScreener},
	{"trailer", catalog.AssetTrailer},
	{"teaser", catalog.AssetTrailer},
	{"still", catalog.AssetStills},
	{"poster", catalog.AssetPosters},
	{"film", catalog.AssetFilm},
	{"feature", catalog.AssetFilm},
	{"short", catalog.AssetFilm},
}

// KindForHeader maps a sheet column header to the asset-type folder its URLs
// belong in. Headers are matched on keywords ("Final Film Link" carries
// films, "Trailer URL" carries trailers). Unrecognized headers report false
// so notes columns full of reference links are not downloaded.
func KindForHeader(header string) (catalog.AssetKind, bool) {
	lowered := strings.ToLower(header)
	for _, hk := range headerKinds {
		if strings.Contains(lowered, hk.keyword) {
			return hk.kind, true
		}
	}
	return "", false
}
