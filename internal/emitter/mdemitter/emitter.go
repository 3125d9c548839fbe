package mdemitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/vimanam/internal/render"
	"github.com/mark3labs/vimanam/internal/spec"
)

// Options controls Markdown output details that differ between targets.
type Options struct {
	// HeadingIDs appends {#anchor} to every heading so renderers that honor
	// heading attributes use the pipeline's anchors verbatim.
	HeadingIDs bool
	// Comment wraps placeholder text. Defaults to an HTML comment.
	Comment func(text string) string
	// Escape is applied to document text outside code spans, for targets
	// that give characters like braces a meaning of their own.
	Escape func(text string) string
}

// Emitter renders planned output as Markdown.
type Emitter struct {
	opts Options
}

var _ render.Renderer = (*Emitter)(nil)

func New(opts Options) *Emitter {
	if opts.Comment == nil {
		opts.Comment = HTMLComment
	}
	if opts.Escape == nil {
		opts.Escape = func(s string) string { return s }
	}
	return &Emitter{opts: opts}
}

// HTMLComment is the default placeholder format.
func HTMLComment(text string) string { return "<!-- " + text + " -->" }

const noEndpoints = "No endpoints found for this service."

// Emit renders out with opts. It is shorthand for New(opts).Render.
func Emit(ctx context.Context, w io.Writer, out *render.Output, opts Options) error {
	return New(opts).Render(ctx, w, out)
}

// Render writes the whole document to w in one call, so a failure part way
// through leaves nothing behind.
func (e *Emitter) Render(ctx context.Context, w io.Writer, out *render.Output) error {
	if out == nil {
		return fmt.Errorf("mdemitter: nil output")
	}
	var buf bytes.Buffer
	if err := e.write(ctx, &buf, out); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (e *Emitter) write(ctx context.Context, b *bytes.Buffer, out *render.Output) error {
	e.heading(b, 1, out.Title, out.TitleAnchor)
	if out.Description != "" {
		fmt.Fprintf(b, "%s\n\n", e.opts.Escape(out.Description))
	}
	fmt.Fprintf(b, "API Version: %s\n\n", e.opts.Escape(out.Version))

	if out.IncludeTOC {
		e.heading(b, 2, out.TOCHeading, out.TOCAnchor)
		e.writeTOC(b, out.TOC)
		b.WriteString("\n")
	}

	for i := range out.Sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.section(b, out, &out.Sections[i])
	}
	return nil
}

func (e *Emitter) writeTOC(b *bytes.Buffer, toc []render.TOCEntry) {
	for _, entry := range toc {
		fmt.Fprintf(b, "- [%s](#%s)\n", e.linkText(entry.Title), entry.Anchor)
		for _, child := range entry.Children {
			fmt.Fprintf(b, "  * [%s](#%s)\n", e.linkText(child.Title), child.Anchor)
		}
	}
}

func (e *Emitter) section(b *bytes.Buffer, out *render.Output, sec *render.Section) {
	level := 3
	if sec.Headless() {
		level = 2
	} else {
		e.heading(b, 2, sec.Title, sec.Anchor)
		if sec.Description != "" {
			fmt.Fprintf(b, "%s\n\n", e.opts.Escape(sec.Description))
		}
	}
	if len(sec.Entries) == 0 {
		fmt.Fprintf(b, "%s\n\n", noEndpoints)
		return
	}
	if out.Compact {
		for _, entry := range sec.Entries {
			fmt.Fprintf(b, "- %s\n", e.opts.Escape(entry.Title))
		}
		b.WriteString("\n")
		return
	}
	for i := range sec.Entries {
		e.endpoint(b, out.Config, level, &sec.Entries[i])
	}
}

func (e *Emitter) endpoint(b *bytes.Buffer, cfg render.Config, level int, entry *render.Entry) {
	ep := entry.Endpoint
	e.heading(b, level, entry.Title, entry.Anchor)
	fmt.Fprintf(b, "**Operation:** %s %s\n\n", ep.Method, e.opts.Escape(ep.Path))
	if desc := firstNonEmpty(ep.Description, ep.Summary); desc != "" {
		fmt.Fprintf(b, "**Description:** %s\n\n", e.opts.Escape(desc))
	}
	if ep.Deprecated.IsTrue() {
		b.WriteString("> **Deprecated**: This endpoint is deprecated.\n\n")
	}
	if ep.OperationID != "" {
		fmt.Fprintf(b, "**Operation ID:** `%s`\n\n", ep.OperationID)
	}
	if cfg.Detail == render.DetailBasic {
		return
	}

	if len(entry.Parameters) > 0 {
		e.heading(b, 4, "Parameters", entry.ParametersAnchor)
		b.WriteString("| Name | In | Required | Description |\n")
		b.WriteString("|------|----|----------|-------------|\n")
		for _, p := range entry.Parameters {
			fmt.Fprintf(b, "| `%s` | %s | %s | %s |\n", escapeCell(p.Name), e.cell(p.In), yesNo(p.Required), e.cellOrDash(p.Description))
		}
		b.WriteString("\n")
	}
	if len(ep.Responses) > 0 {
		e.heading(b, 4, "Responses", entry.ResponsesAnchor)
		b.WriteString("| Code | Description |\n")
		b.WriteString("|------|-------------|\n")
		for _, r := range ep.Responses {
			fmt.Fprintf(b, "| %s | %s |\n", e.cell(r.Code), e.cellOrDash(r.Description))
		}
		b.WriteString("\n")
	}
	if cfg.IncludeAuth {
		auth := "None"
		if len(ep.Security) > 0 {
			auth = e.opts.Escape(strings.Join(ep.Security, ", "))
		}
		fmt.Fprintf(b, "**Authentication:** %s\n\n", auth)
	}
	if cfg.Detail == render.DetailFull {
		if cfg.IncludeSchemas {
			fmt.Fprintf(b, "%s\n\n", e.opts.Comment("Schemas would be included here"))
		}
		if cfg.IncludeExamples {
			fmt.Fprintf(b, "%s\n\n", e.opts.Comment("Examples would be included here"))
		}
	}
}

func (e *Emitter) heading(b *bytes.Buffer, level int, title, anchor string) {
	b.WriteString(strings.Repeat("#", level))
	b.WriteString(" ")
	b.WriteString(e.opts.Escape(title))
	if e.opts.HeadingIDs && anchor != "" {
		fmt.Fprintf(b, " {#%s}", anchor)
	}
	b.WriteString("\n\n")
}

func yesNo(t spec.Tristate) string {
	if t.IsTrue() {
		return "Yes"
	}
	return "No"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

// escapeCell makes text safe inside a table cell.
func escapeCell(s string) string { return cellReplacer.Replace(s) }

func (e *Emitter) cell(s string) string { return escapeCell(e.opts.Escape(s)) }

func (e *Emitter) cellOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return e.cell(s)
}

var linkReplacer = strings.NewReplacer("[", `\[`, "]", `\]`)

func (e *Emitter) linkText(s string) string { return linkReplacer.Replace(e.opts.Escape(s)) }
