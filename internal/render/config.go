package render

import (
	"fmt"
	"strings"

	"github.com/mark3labs/vimanam/internal/spec"
)

// GroupBy selects how endpoints are split into sections.
type GroupBy int

const (
	GroupByService GroupBy = iota
	GroupByMethod
	GroupByPath
	GroupByTag
	GroupByFlat
)

var groupByNames = map[GroupBy]string{
	GroupByService: "service",
	GroupByMethod:  "method",
	GroupByPath:    "path",
	GroupByTag:     "tag",
	GroupByFlat:    "flat",
}

func (g GroupBy) String() string { return groupByNames[g] }

// ParseGroupBy accepts service, method, path, tag or flat in any case.
func ParseGroupBy(s string) (GroupBy, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for g, name := range groupByNames {
		if name == key {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown grouping %q (want service, method, path, tag or flat)", s)
}

// ResolveGroupBy applies the grouping precedence: flat, then method, then an
// explicit group-by value, then service.
func ResolveGroupBy(flat, method bool, groupBy string) (GroupBy, error) {
	switch {
	case flat:
		return GroupByFlat, nil
	case method:
		return GroupByMethod, nil
	case strings.TrimSpace(groupBy) != "":
		return ParseGroupBy(groupBy)
	}
	return GroupByService, nil
}

// Detail controls how much of each endpoint is rendered.
type Detail int

const (
	DetailSummary Detail = iota
	DetailBasic
	DetailStandard
	DetailFull
)

var detailNames = map[Detail]string{
	DetailSummary:  "summary",
	DetailBasic:    "basic",
	DetailStandard: "standard",
	DetailFull:     "full",
}

func (d Detail) String() string { return detailNames[d] }

func ParseDetail(s string) (Detail, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for d, name := range detailNames {
		if name == key {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown detail level %q (want summary, basic, standard or full)", s)
}

// Format names an output format.
type Format int

const (
	FormatMarkdown Format = iota
	FormatHTML
	FormatDocusaurus
)

var formatNames = map[Format]string{
	FormatMarkdown:   "markdown",
	FormatHTML:       "html",
	FormatDocusaurus: "docusaurus",
}

func (f Format) String() string { return formatNames[f] }

func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "md" {
		return FormatMarkdown, nil
	}
	for f, name := range formatNames {
		if name == key {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown format %q (want markdown, html or docusaurus)", s)
}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatDocusaurus:
		return ".mdx"
	default:
		return ".md"
	}
}

// SortMethod orders endpoints inside a section.
type SortMethod int

const (
	SortAlpha SortMethod = iota
	SortPathLength
	SortNone
)

var sortNames = map[SortMethod]string{
	SortAlpha:      "alpha",
	SortPathLength: "path-length",
	SortNone:       "none",
}

func (s SortMethod) String() string { return sortNames[s] }

func ParseSort(s string) (SortMethod, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if key == "alphabetical" {
		return SortAlpha, nil
	}
	for m, name := range sortNames {
		if name == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown sort method %q (want alpha, path-length or none)", s)
}

// Config is built once per run and never mutated by the pipeline.
type Config struct {
	GroupBy           GroupBy
	ServiceFilter     []string
	PathFilter        string
	MethodFilter      []spec.HttpMethod
	ExcludeDeprecated bool
	RequiredOnly      bool
	Detail            Detail
	IncludeSchemas    bool
	IncludeExamples   bool
	IncludeAuth       bool
	IncludeTOC        bool
	Format            Format
	Sort              SortMethod
}

// DefaultConfig mirrors the CLI defaults.
func DefaultConfig() Config {
	return Config{
		GroupBy:    GroupByService,
		Detail:     DetailSummary,
		IncludeTOC: true,
		Format:     FormatMarkdown,
		Sort:       SortAlpha,
	}
}

// ParseMethodFilter turns verbs in any case into canonical methods.
func ParseMethodFilter(values []string) ([]spec.HttpMethod, error) {
	var out []spec.HttpMethod
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		m, ok := spec.ParseMethod(v)
		if !ok {
			return nil, fmt.Errorf("unknown HTTP method %q", v)
		}
		out = append(out, m)
	}
	return out, nil
}

func (c Config) allowsService(name string) bool {
	if len(c.ServiceFilter) == 0 {
		return true
	}
	for _, s := range c.ServiceFilter {
		if s == name {
			return true
		}
	}
	return false
}

func (c Config) allowsMethod(m spec.HttpMethod) bool {
	if len(c.MethodFilter) == 0 {
		return true
	}
	for _, want := range c.MethodFilter {
		if want == m {
			return true
		}
	}
	return false
}
