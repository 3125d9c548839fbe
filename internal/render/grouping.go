package render

import (
	"sort"
	"strings"

	"github.com/mark3labs/vimanam/internal/spec"
)

// Grouping assigns endpoints to sections and orders the sections. Every
// grouping mode is one value of this type; the pipeline never branches on
// the mode itself.
type Grouping struct {
	Mode GroupBy
	// TOCHeading titles the table of contents.
	TOCHeading string

	keys     func(ep *spec.Endpoint) []string
	sections func(doc *spec.Documentation, cfg Config, filled map[string]bool) []sectionHead
	// stripService drops "<key>_" from operation ids of listed endpoints.
	stripService bool
	// byMembership applies the service filter to endpoints; otherwise it
	// narrows which sections exist.
	byMembership bool
	headless     bool
}

type sectionHead struct {
	key         string
	description string
	// keepEmpty lists the section even when no endpoint passed the filters.
	keepEmpty bool
}

// GroupingFor returns the strategy for mode.
func GroupingFor(mode GroupBy) Grouping {
	switch mode {
	case GroupByMethod:
		return Grouping{
			Mode:         mode,
			TOCHeading:   "HTTP Methods",
			keys:         func(ep *spec.Endpoint) []string { return []string{string(ep.Method)} },
			sections:     methodSections,
			byMembership: true,
		}
	case GroupByPath:
		return Grouping{
			Mode:         mode,
			TOCHeading:   "Paths",
			keys:         func(ep *spec.Endpoint) []string { return []string{pathRoot(ep.Path)} },
			sections:     sortedSections,
			byMembership: true,
		}
	case GroupByTag:
		return Grouping{
			Mode:         mode,
			TOCHeading:   "Tags",
			keys:         tagKeys,
			sections:     sortedSections,
			byMembership: true,
		}
	case GroupByFlat:
		return Grouping{
			Mode:         mode,
			TOCHeading:   "Endpoints",
			keys:         func(*spec.Endpoint) []string { return []string{""} },
			sections:     func(*spec.Documentation, Config, map[string]bool) []sectionHead { return []sectionHead{{}} },
			byMembership: true,
			headless:     true,
		}
	default:
		return Grouping{
			Mode:         GroupByService,
			TOCHeading:   "Services",
			keys:         func(ep *spec.Endpoint) []string { return ep.Services },
			sections:     serviceSections,
			stripService: true,
		}
	}
}

// serviceSections lists the declared services that pass the filter, in
// declaration order, then Untagged when anything landed there.
func serviceSections(doc *spec.Documentation, cfg Config, filled map[string]bool) []sectionHead {
	var out []sectionHead
	declared := false
	for _, s := range doc.Services {
		if s.Name == spec.UntaggedService {
			declared = true
		}
		if !cfg.allowsService(s.Name) {
			continue
		}
		out = append(out, sectionHead{key: s.Name, description: s.Description, keepEmpty: true})
	}
	if !declared && filled[spec.UntaggedService] && cfg.allowsService(spec.UntaggedService) {
		out = append(out, sectionHead{key: spec.UntaggedService})
	}
	return out
}

func methodSections(_ *spec.Documentation, _ Config, filled map[string]bool) []sectionHead {
	var out []sectionHead
	for _, m := range spec.Methods {
		if filled[string(m)] {
			out = append(out, sectionHead{key: string(m)})
		}
	}
	return out
}

// sortedSections orders keys by name with Untagged last.
func sortedSections(_ *spec.Documentation, _ Config, filled map[string]bool) []sectionHead {
	keys := make([]string, 0, len(filled))
	for k := range filled {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ui, uj := keys[i] == spec.UntaggedService, keys[j] == spec.UntaggedService
		if ui != uj {
			return uj
		}
		return keys[i] < keys[j]
	})
	out := make([]sectionHead, 0, len(keys))
	for _, k := range keys {
		out = append(out, sectionHead{key: k})
	}
	return out
}

func tagKeys(ep *spec.Endpoint) []string {
	if len(ep.Tags) == 0 {
		return []string{spec.UntaggedService}
	}
	return ep.Tags
}

// pathRoot returns the first path segment: /users/{id} -> /users.
func pathRoot(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}
