package article

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	markerOpen  = "{{Q:"
	markerClose = "}}"
)

// ValidateMarkers checks that every {{Q:phrase}} marker in content is
// well-formed: balanced, non-nested, with a phrase containing no closing
// braces.
func ValidateMarkers(content string) error {
	rest := content
	for {
		open := strings.Index(rest, markerOpen)
		if open < 0 {
			return nil
		}
		rest = rest[open+len(markerOpen):]
		close := strings.Index(rest, markerClose)
		if close < 0 {
			return errors.New("unterminated question marker")
		}
		phrase := rest[:close]
		if strings.Contains(phrase, markerOpen) {
			return errors.New("nested question marker")
		}
		if strings.TrimSpace(phrase) == "" {
			return errors.New("empty question marker phrase")
		}
		rest = rest[close+len(markerClose):]
	}
}

// SanitizeMarkers drops malformed markers, unwrapping their text, so stored
// content always satisfies ValidateMarkers.
func SanitizeMarkers(content string) string {
	if ValidateMarkers(content) == nil {
		return content
	}

	var sb strings.Builder
	rest := content
	for {
		open := strings.Index(rest, markerOpen)
		if open < 0 {
			sb.WriteString(rest)
			return sb.String()
		}
		sb.WriteString(rest[:open])
		rest = rest[open+len(markerOpen):]

		close := strings.Index(rest, markerClose)
		if close < 0 {
			// Unterminated marker: keep the raw phrase text.
			sb.WriteString(rest)
			return sb.String()
		}
		phrase := rest[:close]
		if inner := strings.Index(phrase, markerOpen); inner >= 0 {
			// Nested opener: unwrap the outer marker and rescan from the
			// inner one so no opener survives without its closer.
			sb.WriteString(phrase[:inner])
			rest = rest[inner:]
			continue
		}
		if strings.TrimSpace(phrase) == "" {
			sb.WriteString(phrase)
		} else {
			sb.WriteString(markerOpen + phrase + markerClose)
		}
		rest = rest[close+len(markerClose):]
	}
}

// CountMarkers returns the number of well-formed markers in content.
func CountMarkers(content string) int {
	count := 0
	rest := content
	for {
		open := strings.Index(rest, markerOpen)
		if open < 0 {
			return count
		}
		rest = rest[open+len(markerOpen):]
		close := strings.Index(rest, markerClose)
		if close < 0 {
			return count
		}
		count++
		rest = rest[close+len(markerClose):]
	}
}
