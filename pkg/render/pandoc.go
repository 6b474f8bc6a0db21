package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/shivanshkc/koda/internal/logger"
)

// Pandoc converts GitHub-flavored markdown with the pandoc executable.
type Pandoc struct {
	// Path is the pandoc executable.
	Path string
	// Stylesheet is embedded into the document. Empty means the built-in stylesheet.
	Stylesheet string
	Title      string
}

// Name implements Converter.
func (p *Pandoc) Name() string {
	return ConverterPandoc
}

// Convert implements Converter. A non-zero exit status is reported as ErrConverterFailed
// together with whatever pandoc wrote to stderr.
func (p *Pandoc) Convert(ctx context.Context, path string) ([]byte, error) {
	var document []byte

	// pandoc only includes headers and embeds stylesheets from files.
	err := WithTempFile("", "koda-*.html", func(header *os.File) error {
		if err := writeTempFile(header, []byte("<script>\n"+copyScript+"</script>\n")); err != nil {
			return err
		}

		if p.Stylesheet != "" {
			var err error
			document, err = p.run(ctx, path, p.Stylesheet, header.Name())
			return err
		}

		return WithTempFile("", "koda-*.css", func(css *os.File) error {
			if err := writeTempFile(css, defaultStylesheet); err != nil {
				return err
			}

			var err error
			document, err = p.run(ctx, path, css.Name(), header.Name())
			return err
		})
	})
	return document, err
}

// run executes pandoc with the given stylesheet and header files.
func (p *Pandoc) run(ctx context.Context, path, stylesheet, header string) ([]byte, error) {
	args := p.args(path, stylesheet, header)
	logger.Debug("running converter", "command", p.Path+" "+strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("pandoc interrupted: %w", ctxErr)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: pandoc exited with status %d: %s",
				ErrConverterFailed, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("failed to run pandoc: %w", err)
	}

	return stdout.Bytes(), nil
}

// args returns the command line for converting the markdown file at path.
// The header carries the script that adds copy buttons to code blocks.
func (p *Pandoc) args(path, stylesheet, header string) []string {
	return []string{
		"--embed-resources",
		"--standalone",
		"--css", stylesheet,
		"--include-in-header", header,
		"--highlight-style", "kate",
		"--metadata", "title=" + p.Title,
		"-f", "gfm",
		"-t", "html",
		path,
	}
}
