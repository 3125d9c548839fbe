package htmlemitter

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/mark3labs/vimanam/internal/emitter/mdemitter"
	"github.com/mark3labs/vimanam/internal/render"
)

// Options controls the surrounding page.
type Options struct {
	// Lang is the html lang attribute. Defaults to "en".
	Lang string
	// Stylesheet replaces the built-in CSS when non-empty.
	Stylesheet string
}

// Emitter renders the Markdown document with explicit heading ids through
// goldmark and wraps it in a standalone page.
type Emitter struct {
	opts Options
	md   goldmark.Markdown
}

var _ render.Renderer = (*Emitter)(nil)

func New(opts Options) *Emitter {
	if opts.Lang == "" {
		opts.Lang = "en"
	}
	if opts.Stylesheet == "" {
		opts.Stylesheet = defaultStylesheet
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAttribute()),
	)
	return &Emitter{opts: opts, md: md}
}

func Emit(ctx context.Context, w io.Writer, out *render.Output, opts Options) error {
	return New(opts).Render(ctx, w, out)
}

func (e *Emitter) Render(ctx context.Context, w io.Writer, out *render.Output) error {
	if out == nil {
		return fmt.Errorf("htmlemitter: nil output")
	}
	var src bytes.Buffer
	md := mdemitter.New(mdemitter.Options{HeadingIDs: true, Comment: note})
	if err := md.Render(ctx, &src, out); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := e.md.Convert(src.Bytes(), &body); err != nil {
		return fmt.Errorf("htmlemitter: convert markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, pageData{
		Lang:       e.opts.Lang,
		Title:      out.Title,
		Version:    out.Version,
		Stylesheet: template.CSS(e.opts.Stylesheet),
		Body:       template.HTML(body.String()),
	})
	if err != nil {
		return fmt.Errorf("htmlemitter: execute page: %w", err)
	}
	_, err = w.Write(page.Bytes())
	return err
}

// note renders placeholders as visible text; goldmark drops raw HTML
// comments in safe mode.
func note(text string) string { return "*" + text + "*" }

type pageData struct {
	Lang       string
	Title      string
	Version    string
	Stylesheet template.CSS
	Body       template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="generator" content="vimanam">
<title>{{.Title}} {{.Version}}</title>
<style>
{{.Stylesheet}}
</style>
</head>
<body>
<main>
{{.Body}}
</main>
</body>
</html>
`))

const defaultStylesheet = `body { font-family: system-ui, sans-serif; line-height: 1.5; margin: 0; }
main { max-width: 60rem; margin: 0 auto; padding: 1rem 2rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
code { background: #f4f4f4; padding: 0 0.2rem; }
blockquote { border-left: 4px solid #d9534f; margin: 1rem 0; padding: 0 1rem; }`
