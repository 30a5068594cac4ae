// Package jsontext extracts JSON payloads from free-text model output.
//
// Generation responses frequently wrap JSON in markdown code fences or
// surround it with commentary. Extract strips fences, locates the first
// balanced object or array span, and leaves parsing to the caller, so that
// "no JSON present" and "malformed JSON" stay distinguishable failures.
package jsontext

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoJSON is returned when the text contains no JSON object or array at all.
var ErrNoJSON = errors.New("no JSON payload found in text")

// Extract returns the first balanced {...} or [...] span in s, after
// stripping any markdown code-fence wrapping.
func Extract(s string) (string, error) {
	s = StripFences(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", ErrNoJSON
	}

	span := balancedSpan(s[start:])
	if span == "" {
		return "", ErrNoJSON
	}
	return span, nil
}

// Unmarshal extracts the first JSON span from s and decodes it into v.
// It returns ErrNoJSON when no span exists, and a wrapped decode error when
// a span exists but does not parse.
func Unmarshal(s string, v any) error {
	span, err := Extract(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return errors.Wrap(err, "malformed JSON payload")
	}
	return nil
}

// StripFences removes a leading/trailing markdown code fence if present.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// balancedSpan returns the prefix of s forming a balanced bracket/brace span,
// ignoring brackets inside JSON string literals. Returns "" when the span
// never closes.
func balancedSpan(s string) string {
	open := s[0]
	var close byte
	switch open {
	case '{':
		close = '}'
	case '[':
		close = ']'
	default:
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
