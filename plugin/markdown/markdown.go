// Package markdown renders article bodies for non-chat surfaces (RSS feed,
// plain-text snippets). Inline {{Q:phrase}} curiosity markers are a chat-UI
// concern and are unwrapped to their phrase text before rendering.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var questionMarkerRegexp = regexp.MustCompile(`\{\{Q:([^}]*)\}\}`)

// Service renders article markdown.
type Service interface {
	// RenderHTML converts markdown content to HTML, with curiosity markers
	// unwrapped to their anchor phrases.
	RenderHTML(content string) (string, error)

	// PlainText strips markers and markdown syntax, returning prose suitable
	// for snippets and feed summaries.
	PlainText(content string) string
}

type service struct {
	md goldmark.Markdown
}

// NewService creates a markdown service.
func NewService() Service {
	return &service{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

func (s *service) RenderHTML(content string) (string, error) {
	content = StripQuestionMarkers(content)
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	return buf.String(), nil
}

func (s *service) PlainText(content string) string {
	content = StripQuestionMarkers(content)
	// Cheap markdown stripping is enough for snippet text.
	replacer := strings.NewReplacer(
		"**", "",
		"*", "",
		"`", "",
		"#", "",
		">", "",
	)
	content = replacer.Replace(content)
	return strings.TrimSpace(strings.Join(strings.Fields(content), " "))
}

// StripQuestionMarkers unwraps every {{Q:phrase}} marker to its phrase text.
func StripQuestionMarkers(content string) string {
	return questionMarkerRegexp.ReplaceAllString(content, "$1")
}
