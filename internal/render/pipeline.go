package render

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/mark3labs/vimanam/internal/spec"
)

// Renderer serializes a planned document into one output format.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, out *Output) error
}

// Output is the format-independent result of the pipeline. Sections and TOC
// come from the same pass, so every TOC anchor names a body heading.
type Output struct {
	Title       string
	Version     string
	Description string
	// TitleAnchor is the anchor of the document heading.
	TitleAnchor string

	TOCHeading string
	TOCAnchor  string
	IncludeTOC bool

	// Compact is set at summary detail: entries carry titles only and
	// have no headings of their own.
	Compact  bool
	Grouping GroupBy
	Sections []Section
	TOC      []TOCEntry

	Config Config
}

type Section struct {
	Key         string
	Title       string
	Anchor      string // empty for headless sections
	Description string
	Entries     []Entry
}

// Headless reports whether the section is rendered without a heading.
func (s *Section) Headless() bool { return s.Anchor == "" }

type Entry struct {
	Title    string
	Anchor   string // empty in compact output
	Endpoint *spec.Endpoint
	// Parameters are the endpoint parameters left after RequiredOnly.
	Parameters []spec.Parameter
	// Anchors of the per-endpoint table headings, claimed in document order
	// so they never collide with entry anchors. Empty when no table renders.
	ParametersAnchor string
	ResponsesAnchor  string
}

type TOCEntry struct {
	Title    string
	Anchor   string
	Children []TOCEntry
}

// EntryCount is the number of rendered endpoint entries. An endpoint listed
// under several sections counts once per section.
func (o *Output) EntryCount() int {
	n := 0
	for i := range o.Sections {
		n += len(o.Sections[i].Entries)
	}
	return n
}

// Plan filters, groups and sorts doc under cfg. Summary detail is the same
// pass with service grouping forced and compact entries.
func Plan(doc *spec.Documentation, cfg Config) *Output {
	compact := cfg.Detail == DetailSummary
	tables := cfg.Detail >= DetailStandard
	mode := cfg.GroupBy
	if compact {
		mode = GroupByService
	}
	g := GroupingFor(mode)

	buckets := make(map[string][]*spec.Endpoint)
	filled := make(map[string]bool)
	for i := range doc.Endpoints {
		ep := &doc.Endpoints[i]
		if !passes(ep, cfg, g) {
			continue
		}
		for _, key := range g.keys(ep) {
			buckets[key] = append(buckets[key], ep)
			filled[key] = true
		}
	}

	anchors := newAnchorSet()
	out := &Output{
		Title:       doc.Title,
		Version:     doc.Version,
		Description: doc.Description,
		TitleAnchor: anchors.claim(doc.Title),
		TOCHeading:  g.TOCHeading,
		IncludeTOC:  cfg.IncludeTOC,
		Compact:     compact,
		Grouping:    g.Mode,
		Config:      cfg,
	}
	if cfg.IncludeTOC {
		out.TOCAnchor = anchors.claim(g.TOCHeading)
	}

	for _, head := range g.sections(doc, cfg, filled) {
		eps := buckets[head.key]
		if len(eps) == 0 && !head.keepEmpty {
			continue
		}
		sortEndpoints(eps, cfg.Sort)

		sec := Section{Key: head.key, Title: head.key, Description: head.description}
		if !g.headless {
			sec.Anchor = anchors.claim(head.key)
		}
		prefix := ""
		if g.stripService {
			prefix = head.key
		}
		for _, ep := range eps {
			e := Entry{
				Title:      ShortTitle(ep, prefix),
				Endpoint:   ep,
				Parameters: visibleParameters(ep.Parameters, cfg.RequiredOnly),
			}
			if !compact {
				e.Anchor = anchors.claim(e.Title)
			}
			if tables && len(e.Parameters) > 0 {
				e.ParametersAnchor = anchors.claim("Parameters")
			}
			if tables && len(ep.Responses) > 0 {
				e.ResponsesAnchor = anchors.claim("Responses")
			}
			sec.Entries = append(sec.Entries, e)
		}
		out.Sections = append(out.Sections, sec)
	}

	if cfg.IncludeTOC {
		out.TOC = buildTOC(out.Sections)
	}
	return out
}

// passes is the filter predicate shared by every grouping mode.
func passes(ep *spec.Endpoint, cfg Config, g Grouping) bool {
	if cfg.ExcludeDeprecated && ep.Deprecated.IsTrue() {
		return false
	}
	if cfg.PathFilter != "" && !strings.Contains(ep.Path, cfg.PathFilter) {
		return false
	}
	if !cfg.allowsMethod(ep.Method) {
		return false
	}
	if g.byMembership && len(cfg.ServiceFilter) > 0 {
		for _, s := range ep.Services {
			if cfg.allowsService(s) {
				return true
			}
		}
		return false
	}
	return true
}

// sortEndpoints applies the one comparator used for body and TOC alike.
func sortEndpoints(eps []*spec.Endpoint, method SortMethod) {
	switch method {
	case SortAlpha:
		sort.SliceStable(eps, func(i, j int) bool { return eps[i].OperationID < eps[j].OperationID })
	case SortPathLength:
		sort.SliceStable(eps, func(i, j int) bool { return len(eps[i].Path) < len(eps[j].Path) })
	}
}

// visibleParameters drops parameters explicitly marked not required when
// requiredOnly is set. An absent required flag is kept.
func visibleParameters(params []spec.Parameter, requiredOnly bool) []spec.Parameter {
	if !requiredOnly {
		return params
	}
	var out []spec.Parameter
	for _, p := range params {
		if p.Required.IsExplicitFalse() {
			continue
		}
		out = append(out, p)
	}
	return out
}

func buildTOC(sections []Section) []TOCEntry {
	var toc []TOCEntry
	for i := range sections {
		sec := &sections[i]
		var children []TOCEntry
		for _, e := range sec.Entries {
			if e.Anchor == "" {
				continue
			}
			children = append(children, TOCEntry{Title: e.Title, Anchor: e.Anchor})
		}
		if sec.Headless() {
			toc = append(toc, children...)
			continue
		}
		toc = append(toc, TOCEntry{Title: sec.Title, Anchor: sec.Anchor, Children: children})
	}
	return toc
}
