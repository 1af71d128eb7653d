// Package text splits fetched source text into bounded, overlapping windows
// ready for embedding.
package text

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultWindow  = 800
	DefaultOverlap = 120
)

// Split slices text into windows of at most window characters, each window
// starting window-overlap after the previous one so nothing is lost at a
// boundary. Windows are trimmed and empty ones dropped. A non-positive
// window or an overlap >= window falls back to the defaults.
func Split(text string, window, overlap int) []string {
	if window <= 0 || overlap < 0 || overlap >= window {
		window, overlap = DefaultWindow, DefaultOverlap
	}

	step := window - overlap
	var out []string
	for i := 0; i < len(text); i += step {
		end := i + window
		if end > len(text) {
			end = len(text)
		}
		if s := strings.TrimSpace(text[i:end]); s != "" {
			out = append(out, s)
		}
		if end == len(text) {
			break
		}
	}
	return out
}

// Truncate cuts s to at most max bytes without splitting a UTF-8 rune,
// backing the cut up to the nearest rune boundary.
func Truncate(s string, max int) string {
	if max < 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
