package ui

import (
	"kbase/internal/model"
)

// PreviewLength is the number of characters a collapsed snippet shows.
const PreviewLength = 222

const truncationMarker = "..."

// SnippetView is a context snippet with its view-only collapsed flag.
type SnippetView struct {
	Title     string
	Text      string
	Collapsed bool
}

func newSnippetView(c model.ContextSnippet) SnippetView {
	return SnippetView{Title: c.Title, Text: c.Text, Collapsed: true}
}

// Body is what the snippet shows in its current state.
func (s SnippetView) Body() string {
	if s.Collapsed {
		return Preview(s.Text)
	}
	return s.Text
}

// Arrow is the header indicator for the snippet's state.
func (s SnippetView) Arrow() string {
	if s.Collapsed {
		return "▼"
	}
	return "▲"
}

// Preview returns the first PreviewLength characters of text, followed by "..."
// only when something was cut off. Characters are runes, never bytes.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + truncationMarker
}
