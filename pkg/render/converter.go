package render

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os/exec"
)

// Converter names accepted by NewConverter.
const (
	ConverterAuto    = "auto"
	ConverterPandoc  = "pandoc"
	ConverterBuiltin = "builtin"
)

// DefaultTitle is the title of the rendered HTML document.
const DefaultTitle = "Coding Assistant"

// ErrConverterFailed is returned when a converter ran but did not produce a document.
var ErrConverterFailed = errors.New("converter failed")

// ErrUnknownConverter is returned by NewConverter for an unsupported name.
var ErrUnknownConverter = errors.New("unknown converter")

//go:embed assets/style.css
var defaultStylesheet []byte

//go:embed assets/copy.js
var copyScript string

// Converter renders a markdown file into a standalone HTML document.
type Converter interface {
	// Name identifies the converter in logs.
	Name() string
	// Convert reads the markdown file at path and returns the HTML document.
	Convert(ctx context.Context, path string) ([]byte, error)
}

// ConverterOptions are shared by all converters.
type ConverterOptions struct {
	// Stylesheet is the path of a CSS file to embed. Empty means the built-in stylesheet.
	Stylesheet string
	// Title is the document title. Empty means DefaultTitle.
	Title string
	// PandocPath overrides the pandoc executable.
	PandocPath string
}

// NewConverter returns the converter with the given name.
// ConverterAuto picks pandoc when it can be found, and the builtin converter otherwise.
func NewConverter(name string, opts ConverterOptions) (Converter, error) {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.PandocPath == "" {
		opts.PandocPath = ConverterPandoc
	}

	switch name {
	case ConverterPandoc:
		return &Pandoc{Path: opts.PandocPath, Stylesheet: opts.Stylesheet, Title: opts.Title}, nil
	case ConverterBuiltin:
		return &Builtin{Stylesheet: opts.Stylesheet, Title: opts.Title}, nil
	case ConverterAuto, "":
		if path, err := exec.LookPath(opts.PandocPath); err == nil {
			return &Pandoc{Path: path, Stylesheet: opts.Stylesheet, Title: opts.Title}, nil
		}
		return &Builtin{Stylesheet: opts.Stylesheet, Title: opts.Title}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConverter, name)
	}
}
