package spec

import (
	"fmt"
	"sort"
	"strings"
)

// Build converts a raw document into the canonical documentation model.
//
// Declared tags become services in declaration order. When the document
// declares none, services are inferred from operation tags and sorted by
// name so repeated runs produce the same output.
func Build(raw *RawDocument) (*Documentation, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil document")
	}
	title := safeStr(raw.Info.Title)
	version := safeStr(raw.Info.Version)
	if title == "" {
		return nil, &SpecError{Code: ValidationError, Message: "spec: info.title is required", JSONPointer: "#/info/title"}
	}
	if version == "" {
		return nil, &SpecError{Code: ValidationError, Message: "spec: info.version is required", JSONPointer: "#/info/version"}
	}

	doc := &Documentation{
		Title:       title,
		Version:     version,
		Description: safeStr(raw.Info.Description),
		Services:    buildServices(raw),
	}

	known := make(map[string]struct{}, len(doc.Services))
	for _, s := range doc.Services {
		known[s.Name] = struct{}{}
	}
	refs := newParamResolver(raw)

	for _, entry := range raw.Paths {
		path := entry.Key
		item := entry.Value
		base := "#/paths/" + pointerEscape(path)

		pathParams, err := refs.resolveAll(item.Parameters, base+"/parameters")
		if err != nil {
			return nil, err
		}

		for _, m := range Methods {
			op := item.Operation(m)
			if op == nil {
				continue
			}
			opParams, err := refs.resolveAll(op.Parameters, base+"/"+strings.ToLower(string(m))+"/parameters")
			if err != nil {
				return nil, err
			}
			tags := cleanTags(op.Tags)
			ep := Endpoint{
				Path:        path,
				Method:      m,
				Services:    resolveServices(tags, known),
				Tags:        tags,
				Summary:     safeStr(op.Summary),
				Description: safeStr(op.Description),
				OperationID: safeStr(op.OperationID),
				Parameters:  mergeParams(pathParams, opParams),
				Responses:   toResponses(op.Responses),
				Deprecated:  TristateOf(op.Deprecated),
				Security:    securityNames(op.Security, raw.Security),
			}
			doc.Endpoints = append(doc.Endpoints, ep)
		}
	}

	return doc, nil
}

func buildServices(raw *RawDocument) []Service {
	if len(raw.Tags) > 0 {
		seen := make(map[string]struct{}, len(raw.Tags))
		services := make([]Service, 0, len(raw.Tags))
		for _, t := range raw.Tags {
			name := safeStr(t.Name)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			services = append(services, Service{Name: name, Description: safeStr(t.Description)})
		}
		return services
	}

	var services []Service
	for _, name := range collectSortedTags(raw) {
		services = append(services, Service{Name: name})
	}
	return services
}

func collectSortedTags(raw *RawDocument) []string {
	set := make(map[string]struct{})
	for _, entry := range raw.Paths {
		for _, m := range Methods {
			op := entry.Value.Operation(m)
			if op == nil {
				continue
			}
			for _, t := range cleanTags(op.Tags) {
				set[t] = struct{}{}
			}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// resolveServices intersects the operation tags with the known services.
func resolveServices(tags []string, known map[string]struct{}) []string {
	var out []string
	for _, t := range tags {
		if _, ok := known[t]; ok {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{UntaggedService}
	}
	return out
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mergeParams keeps path-level parameters first; an operation parameter with
// the same location and name replaces the path-level one in place.
func mergeParams(pathParams, opParams []Parameter) []Parameter {
	if len(pathParams) == 0 && len(opParams) == 0 {
		return nil
	}
	out := make([]Parameter, 0, len(pathParams)+len(opParams))
	index := make(map[string]int, len(pathParams)+len(opParams))
	for _, group := range [][]Parameter{pathParams, opParams} {
		for _, p := range group {
			key := paramKey(p.In, p.Name)
			if i, ok := index[key]; ok {
				out[i] = p
				continue
			}
			index[key] = len(out)
			out = append(out, p)
		}
	}
	return out
}

func paramKey(in, name string) string { return in + ":" + name }

func safeStr(s string) string { return strings.TrimSpace(s) }

func toResponses(raw RawResponses) []Response {
	if len(raw) == 0 {
		return nil
	}
	out := make([]Response, 0, len(raw))
	for _, entry := range raw {
		r := entry.Value
		out = append(out, Response{
			Code:        safeStr(entry.Key),
			Description: safeStr(r.Description),
			Schema:      r.schemaInfo(),
		})
	}
	return out
}

// securityNames flattens the effective requirement list into scheme names.
// An operation-level list, even an empty one, replaces the document default.
func securityNames(op *[]RawSecurityRequirement, root []RawSecurityRequirement) []string {
	reqs := root
	if op != nil {
		reqs = *op
	}
	var names []string
	seen := make(map[string]struct{})
	for _, req := range reqs {
		keys := make([]string, 0, len(req))
		for k := range req {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			names = append(names, k)
		}
	}
	return names
}

// paramResolver resolves local parameter refs against #/parameters (v2) and
// #/components/parameters (v3).
type paramResolver struct {
	shared map[string]RawParameter
}

func newParamResolver(raw *RawDocument) *paramResolver {
	shared := make(map[string]RawParameter)
	for name, p := range raw.Parameters {
		shared["#/parameters/"+name] = p
	}
	if raw.Components != nil {
		for name, p := range raw.Components.Parameters {
			shared["#/components/parameters/"+name] = p
		}
	}
	return &paramResolver{shared: shared}
}

func (r *paramResolver) resolveAll(params []RawParameter, pointer string) ([]Parameter, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make([]Parameter, 0, len(params))
	for i, p := range params {
		resolved, err := r.resolve(p, fmt.Sprintf("%s/%d", pointer, i))
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (r *paramResolver) resolve(p RawParameter, pointer string) (Parameter, error) {
	for depth := 0; p.Ref != ""; depth++ {
		target, ok := r.shared[strings.TrimSpace(p.Ref)]
		if !ok || depth > 8 {
			return Parameter{}, &SpecError{Code: ValidationError, Message: fmt.Sprintf("spec: unresolved parameter ref %q", p.Ref), JSONPointer: pointer}
		}
		p = target
	}
	if safeStr(p.Name) == "" || safeStr(p.In) == "" {
		return Parameter{}, &SpecError{Code: ValidationError, Message: "spec: parameter requires name and in", JSONPointer: pointer}
	}
	schema := p.Schema.info()
	if schema == nil {
		if t := typeName(p.Type); t != "" {
			schema = &SchemaInfo{Type: t}
		}
	}
	return Parameter{
		Name:        safeStr(p.Name),
		In:          safeStr(p.In),
		Required:    TristateOf(p.Required),
		Description: safeStr(p.Description),
		Schema:      schema,
	}, nil
}
