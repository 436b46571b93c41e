// Package urltext provides the pure helpers for turning an uploaded text
// document into a classified list of downloadable URLs.
package urltext

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind classifies a URL by the artifact it points at.
type Kind int

const (
	KindMedia Kind = iota
	KindPDF
)

// String returns the label used in user-facing summaries.
func (k Kind) String() string {
	if k == KindPDF {
		return "PDF"
	}
	return "VIDEO"
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// Extract returns all http(s) URLs found anywhere in text, in document order.
func Extract(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// Classify labels a URL as PDF-like or media-like. The check is a suffix and
// content-type substring heuristic, not a MIME probe; anything unrecognized
// is treated as media.
func Classify(url string) Kind {
	lower := strings.ToLower(url)
	if strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "application/pdf") {
		return KindPDF
	}
	return KindMedia
}

// DecodeText decodes raw document bytes as UTF-8, falling back to a lossy
// Latin-1 interpretation so malformed encodings never abort ingestion.
func DecodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// SanitizeLabel turns free text into a filename-safe batch label: path
// separators become underscores and the result is capped at max runes.
// Sanitizing an already sanitized label is a no-op.
func SanitizeLabel(s string, max int) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if max > 0 {
		runes := []rune(s)
		if len(runes) > max {
			s = string(runes[:max])
		}
	}
	return s
}
