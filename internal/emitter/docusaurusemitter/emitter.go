package docusaurusemitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/vimanam/internal/emitter/mdemitter"
	"github.com/mark3labs/vimanam/internal/render"
)

// Options overrides frontmatter fields. Empty values are derived from the
// document.
type Options struct {
	ID           string
	SidebarLabel string
	// SidebarPosition is written when non-zero.
	SidebarPosition int
}

// Emitter writes an MDX page: YAML frontmatter followed by Markdown with
// explicit heading ids.
type Emitter struct {
	opts Options
	md   *mdemitter.Emitter
}

var _ render.Renderer = (*Emitter)(nil)

func New(opts Options) *Emitter {
	return &Emitter{
		opts: opts,
		md: mdemitter.New(mdemitter.Options{
			HeadingIDs: true,
			Comment:    MDXComment,
			Escape:     EscapeMDX,
		}),
	}
}

func Emit(ctx context.Context, w io.Writer, out *render.Output, opts Options) error {
	return New(opts).Render(ctx, w, out)
}

// MDXComment formats placeholders as MDX expression comments; HTML
// comments do not parse in MDX.
func MDXComment(text string) string { return "{/* " + text + " */}" }

var mdxReplacer = strings.NewReplacer("{", `\{`, "}", `\}`, "<", "&lt;", ">", "&gt;")

// EscapeMDX neutralizes the characters MDX reads as JSX or expressions.
func EscapeMDX(s string) string { return mdxReplacer.Replace(s) }

func (e *Emitter) Render(ctx context.Context, w io.Writer, out *render.Output) error {
	if out == nil {
		return fmt.Errorf("docusaurusemitter: nil output")
	}
	front, err := e.frontmatter(out)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(front)
	buf.WriteString("---\n\n")
	if err := e.md.Render(ctx, &buf, out); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func (e *Emitter) frontmatter(out *render.Output) ([]byte, error) {
	id := e.opts.ID
	if id == "" {
		id = out.TitleAnchor
	}
	label := e.opts.SidebarLabel
	if label == "" {
		label = out.Title
	}

	// Fixed key order; every scalar tagged so versions like 1.0 stay strings.
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
	}
	str := func(v string) *yaml.Node { return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v} }

	add("id", str(id))
	add("title", str(out.Title))
	add("sidebar_label", str(label))
	if e.opts.SidebarPosition != 0 {
		add("sidebar_position", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(e.opts.SidebarPosition)})
	}
	if desc := firstLine(out.Description); desc != "" {
		add("description", str(desc))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("docusaurusemitter: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("docusaurusemitter: encode frontmatter: %w", err)
	}
	return buf.Bytes(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
