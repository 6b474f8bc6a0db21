package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Builtin converts GitHub-flavored markdown in-process, for machines without pandoc.
//
// Raw HTML in the markdown is kept, so a <think> element in the transcript survives
// conversion and can be rewritten afterwards.
type Builtin struct {
	// Stylesheet is embedded into the document. Empty means the built-in stylesheet.
	Stylesheet string
	Title      string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
{{.Stylesheet}}
</style>
<script>
{{.Script}}
</script>
</head>
<body>
<header>
<h1 class="title">{{.Title}}</h1>
</header>
{{.Body}}
</body>
</html>
`))

type page struct {
	Title      string
	Stylesheet template.CSS
	Script     template.JS
	Body       template.HTML
}

// Name implements Converter.
func (b *Builtin) Name() string {
	return ConverterBuiltin
}

// Convert implements Converter.
func (b *Builtin) Convert(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown file: %w", err)
	}

	stylesheet := defaultStylesheet
	if b.Stylesheet != "" {
		if stylesheet, err = os.ReadFile(b.Stylesheet); err != nil {
			return nil, fmt.Errorf("failed to read stylesheet: %w", err)
		}
	}

	var body bytes.Buffer
	if err := newMarkdown().Convert(source, &body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConverterFailed, err)
	}

	var out bytes.Buffer
	err = pageTemplate.Execute(&out, page{
		Title:      b.Title,
		Stylesheet: template.CSS(stylesheet),
		Script:     template.JS(copyScript),
		Body:       template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return out.Bytes(), nil
}

// newMarkdown returns a GFM parser whose fenced code blocks carry copy controls.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{}, 100)),
		),
	)
}

// codeBlockRenderer renders fenced code blocks inside a container with a copy button.
// A block tagged "lang:path" is highlighted as lang and captioned with path.
type codeBlockRenderer struct {
	// count numbers the blocks of one document for their element IDs.
	count int
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	block := node.(*ast.FencedCodeBlock)
	lang, filename := splitCodeInfo(string(block.Language(source)))

	r.count++
	id := fmt.Sprintf("code-%d", r.count)

	_, _ = w.WriteString(`<div class="code-container"><pre id="` + id + `"><code`)
	if lang != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(lang)))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('>')

	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(line.Value(source)))
	}

	_, _ = w.WriteString(`</code></pre><div class="code-controls">`)
	_, _ = w.WriteString(`<button onclick="copyCode('` + id + `')">Copy</button><div></div>`)
	if filename != "" {
		_, _ = w.WriteString(`<span class="code-filename">`)
		_, _ = w.Write(util.EscapeHTML([]byte(filename)))
		_, _ = w.WriteString(`</span>`)
	}
	_, _ = w.WriteString("</div></div>\n")

	return ast.WalkSkipChildren, nil
}

// splitCodeInfo splits a "lang:path" code block tag. A tag without a colon is all language.
func splitCodeInfo(info string) (lang, filename string) {
	lang, filename, _ = strings.Cut(info, ":")
	return lang, filename
}
