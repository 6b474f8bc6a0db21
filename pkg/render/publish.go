package render

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Publisher turns a Document into an HTML page and shows it in a viewer.
// Both intermediate files are temporary and are gone when Publish returns.
type Publisher struct {
	Converter Converter
	Viewer    Viewer
	// Dir holds the temporary files. Empty means os.TempDir.
	Dir string
}

// Publish renders doc and opens it. thinking, when known, labels the thinking widget.
//
// Converter failures are returned wrapping ErrConverterFailed, before anything is opened.
func (p *Publisher) Publish(ctx context.Context, doc Document, thinking *time.Duration) error {
	return WithTempFile(p.Dir, "koda-*.md", func(markdown *os.File) error {
		if err := writeTempFile(markdown, []byte(doc.Markdown())); err != nil {
			return err
		}

		page, err := p.Converter.Convert(ctx, markdown.Name())
		if err != nil {
			return fmt.Errorf("failed to convert with %s: %w", p.Converter.Name(), err)
		}

		page, err = RewriteThinking(page, thinking)
		if err != nil {
			return err
		}

		return WithTempFile(p.Dir, "koda-*.html", func(document *os.File) error {
			if err := writeTempFile(document, page); err != nil {
				return err
			}
			return p.Viewer.Open(ctx, document.Name())
		})
	})
}
