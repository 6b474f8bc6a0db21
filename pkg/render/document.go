// Package render turns a finished transcript into artifacts for people to read:
// a markdown document, its HTML rendering with a collapsible thinking widget,
// and a terminal rendering of the thinking segment.
package render

import (
	"fmt"
	"strings"
)

// Document is the content of the markdown artifact of one request.
type Document struct {
	Model  string
	Prompt string
	// Context lists the names of the files sent along with the prompt.
	Context  []string
	Response string
}

// Markdown assembles the markdown artifact. Paragraphs are separated by a blank line,
// the context list is omitted when no files were sent.
//
// A thinking element that opens the response has its tags set apart as blocks of their
// own, so converters pass them through as raw HTML instead of folding the closing tag
// into the last paragraph of the thinking segment.
func (d Document) Markdown() string {
	paragraphs := []string{
		fmt.Sprintf("**Model:** `%s`", d.Model),
		"## Prompt",
		d.Prompt,
	}

	if len(d.Context) > 0 {
		items := make([]string, len(d.Context))
		for i, name := range d.Context {
			items[i] = fmt.Sprintf("- `%s`", name)
		}
		paragraphs = append(paragraphs, "**Context:**", strings.Join(items, "\n"))
	}

	paragraphs = append(paragraphs, "## Response", isolateThinking(d.Response))
	return strings.Join(paragraphs, "\n\n")
}

// isolateThinking surrounds the tags of the thinking element at the start of response
// with blank lines. Any other response is returned unchanged.
func isolateThinking(response string) string {
	openTag, closeTag := "<"+ThinkingElement+">", "</"+ThinkingElement+">"

	body := strings.TrimLeft(response, " \t\r\n")
	if !strings.HasPrefix(body, openTag) {
		return response
	}
	inner, after, found := strings.Cut(body[len(openTag):], closeTag)
	if !found {
		return response
	}

	blocks := []string{openTag}
	if inner = strings.Trim(inner, "\r\n"); strings.TrimSpace(inner) != "" {
		blocks = append(blocks, inner)
	}
	blocks = append(blocks, closeTag)
	if after = strings.TrimLeft(after, " \t\r\n"); after != "" {
		blocks = append(blocks, after)
	}
	return strings.Join(blocks, "\n\n")
}
