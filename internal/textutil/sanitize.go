package textutil

import "strings"

// maxFileNameRunes keeps generated names comfortably inside common filesystem
// limits even after suffixes like "_trailer.mp4" are appended.
const maxFileNameRunes = 180

// SafeFileName rewrites a display title into a name that is valid on every
// filesystem assets get copied to. Reserved punctuation and control runes
// become underscores, surrounding whitespace is trimmed, and the result is
// capped at 180 runes.
func SafeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20:
			b.WriteRune('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.TrimSpace(b.String())
	runes := []rune(cleaned)
	if len(runes) > maxFileNameRunes {
		cleaned = strings.TrimSpace(string(runes[:maxFileNameRunes]))
	}
	return cleaned
}
