package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Glamour style names usable with TerminalOptions.
const (
	StyleAuto  = "auto"
	StyleNoTTY = "notty"
)

// TerminalOptions configure the terminal rendering of a thinking segment.
type TerminalOptions struct {
	// Style is a glamour style name. Empty or StyleAuto picks one from the terminal background.
	Style string
	// WordWrap is the wrap width. Zero means 80.
	WordWrap int
	// OpenMarker and CloseMarker are stripped from the segment.
	OpenMarker, CloseMarker string
}

// WriteThinking renders a thinking segment as markdown to w, framed by a heading.
// Nothing is written for a segment that is empty once its markers are stripped.
func WriteThinking(w io.Writer, segment string, opts TerminalOptions) error {
	body := stripMarkers(segment, opts.OpenMarker, opts.CloseMarker)
	if body == "" {
		return nil
	}

	wrap := opts.WordWrap
	if wrap <= 0 {
		wrap = 80
	}

	style := glamour.WithAutoStyle()
	if opts.Style != "" && opts.Style != StyleAuto {
		style = glamour.WithStandardStyle(opts.Style)
	}

	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	rendered, err := renderer.Render("## " + thoughtSummary + "\n\n" + body)
	if err != nil {
		return fmt.Errorf("failed to render thinking segment: %w", err)
	}

	_, err = io.WriteString(w, rendered)
	return err
}

// stripMarkers removes the first opening and closing markers and surrounding whitespace.
func stripMarkers(segment, open, close string) string {
	if open != "" {
		segment = strings.Replace(segment, open, "", 1)
	}
	if close != "" {
		segment = strings.Replace(segment, close, "", 1)
	}
	return strings.TrimSpace(segment)
}
