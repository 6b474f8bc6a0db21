package render

import (
	"bytes"
	"fmt"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/shivanshkc/koda/pkg/utils/miscutils"
)

// ThinkingElement is the element name of the thinking segment in a rendered transcript.
const ThinkingElement = "think"

// thoughtSummary is the label of the collapsed thinking widget.
const thoughtSummary = "💡 Thought Process"

// RewriteThinking replaces the first <think> element of an HTML document with a collapsed
// <details> widget holding the same content:
//
//	<details><summary>💡 Thought Process (thought for 1m5s)</summary><div>…</div></details>
//
// The duration suffix is omitted when thinking is nil. The element's content is moved as
// parsed nodes, so markup inside the thinking segment stays markup.
//
// The element ends at its own end tag even where the HTML tree builder would ignore it,
// such as inside a paragraph that markdown converters wrap around "</think>". Elements
// left open inside the segment are closed in the widget, and their stray end tags after
// "</think>" are dropped. The rest of the document is kept byte for byte.
//
// A document without a <think> element is returned unchanged, byte for byte.
func RewriteThinking(document []byte, thinking *time.Duration) ([]byte, error) {
	// Skip tokenizing when there is nothing to do.
	if !bytes.Contains(bytes.ToLower(document), []byte("<"+ThinkingElement)) {
		return document, nil
	}

	seg, ok := locateThinking(document)
	if !ok {
		return document, nil
	}

	nodes, err := html.ParseFragment(bytes.NewReader(document[seg.innerStart:seg.innerEnd]), element(atom.Div))
	if err != nil {
		return nil, fmt.Errorf("failed to parse thinking segment: %w", err)
	}

	summary := thoughtSummary
	if thinking != nil {
		summary += fmt.Sprintf(" (thought for %s)", miscutils.FormatClock(*thinking))
	}

	details := element(atom.Details)
	summaryNode := element(atom.Summary)
	summaryNode.AppendChild(&html.Node{Type: html.TextNode, Data: summary})
	content := element(atom.Div)
	details.AppendChild(summaryNode)
	details.AppendChild(content)
	for _, node := range nodes {
		content.AppendChild(node)
	}

	var out bytes.Buffer
	out.Grow(len(document) + len(summary) + 64)
	out.Write(document[:seg.start])
	if err := html.Render(&out, details); err != nil {
		return nil, fmt.Errorf("failed to render thinking widget: %w", err)
	}
	out.Write(document[seg.end:])
	return out.Bytes(), nil
}

// segment holds the byte offsets of a thinking element in a document.
type segment struct {
	// start and end delimit the whole element including its tags and the stray end tags after it.
	start, end int
	// innerStart and innerEnd delimit its content.
	innerStart, innerEnd int
}

// locateThinking finds the first thinking element by tokenizing the document.
//
// The content ends at the first "</think>". Without one, it ends before the first end tag
// of an element opened outside the segment, or at the end of the document.
func locateThinking(document []byte) (segment, bool) {
	z := html.NewTokenizer(bytes.NewReader(document))

	var seg segment
	found := false
	// open is the stack of elements opened inside the segment and not yet closed.
	var open []string

	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tokenStart := offset
		offset += len(z.Raw())

		name, _ := z.TagName()
		tag := string(name)

		if !found {
			if tag != ThinkingElement || (tt != html.StartTagToken && tt != html.SelfClosingTagToken) {
				continue
			}
			found = true
			seg = segment{start: tokenStart, innerStart: offset, innerEnd: offset, end: offset}
			if tt == html.SelfClosingTagToken {
				return seg, true
			}
			continue
		}

		switch tt {
		case html.StartTagToken:
			if !voidElements[tag] {
				open = append(open, tag)
			}
		case html.EndTagToken:
			if tag == ThinkingElement {
				seg.innerEnd = tokenStart
				seg.end = skipStrayEndTags(z, offset, open)
				return seg, true
			}
			if i := lastIndex(open, tag); i >= 0 {
				open = open[:i]
				continue
			}
			// An element opened before the segment is closing, so the segment ends here.
			seg.innerEnd, seg.end = tokenStart, tokenStart
			return seg, true
		}
	}

	if !found {
		return segment{}, false
	}
	seg.innerEnd, seg.end = len(document), len(document)
	return seg, true
}

// skipStrayEndTags returns the offset after the end tags, separated only by whitespace, that
// close elements left open inside the segment. Their content was closed in the widget already.
func skipStrayEndTags(z *html.Tokenizer, offset int, open []string) int {
	end := offset
	for len(open) > 0 {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := z.Raw()
		offset += len(raw)

		if tt == html.TextToken && len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		if tt != html.EndTagToken {
			break
		}

		name, _ := z.TagName()
		i := lastIndex(open, string(name))
		if i < 0 {
			break
		}
		open = open[:i]
		end = offset
	}
	return end
}

// lastIndex returns the index of the last occurrence of tag in stack, or -1.
func lastIndex(stack []string, tag string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == tag {
			return i
		}
	}
	return -1
}

// voidElements never have content or an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// element creates a detached element node.
func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}
