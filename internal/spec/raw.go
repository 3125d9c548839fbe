package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Raw document model: the subset of Swagger 2.0 / OpenAPI 3.x the docs need.
// Field tags cover both YAML and JSON sources.

type RawDocument struct {
	Swagger    string                   `yaml:"swagger" json:"swagger"`
	OpenAPI    string                   `yaml:"openapi" json:"openapi"`
	Info       RawInfo                  `yaml:"info" json:"info"`
	Tags       []RawTag                 `yaml:"tags" json:"tags"`
	Paths      RawPaths                 `yaml:"paths" json:"paths"`
	Parameters map[string]RawParameter  `yaml:"parameters" json:"parameters"`
	Components *RawComponents           `yaml:"components" json:"components"`
	Security   []RawSecurityRequirement `yaml:"security" json:"security"`
}

type RawInfo struct {
	Title       string `yaml:"title" json:"title"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

type RawTag struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

type RawComponents struct {
	Parameters map[string]RawParameter `yaml:"parameters" json:"parameters"`
}

type RawPaths = Ordered[RawPathItem]

type RawResponses = Ordered[RawResponse]

type RawPathItem struct {
	Get        *RawOperation  `yaml:"get" json:"get"`
	Put        *RawOperation  `yaml:"put" json:"put"`
	Post       *RawOperation  `yaml:"post" json:"post"`
	Delete     *RawOperation  `yaml:"delete" json:"delete"`
	Options    *RawOperation  `yaml:"options" json:"options"`
	Head       *RawOperation  `yaml:"head" json:"head"`
	Patch      *RawOperation  `yaml:"patch" json:"patch"`
	Trace      *RawOperation  `yaml:"trace" json:"trace"`
	Parameters []RawParameter `yaml:"parameters" json:"parameters"`
}

// Operation returns the slot for m, or nil when the path has no such operation.
func (p *RawPathItem) Operation(m HttpMethod) *RawOperation {
	switch m {
	case GET:
		return p.Get
	case PUT:
		return p.Put
	case POST:
		return p.Post
	case DELETE:
		return p.Delete
	case OPTIONS:
		return p.Options
	case HEAD:
		return p.Head
	case PATCH:
		return p.Patch
	case TRACE:
		return p.Trace
	}
	return nil
}

type RawOperation struct {
	Tags        []string                  `yaml:"tags" json:"tags"`
	Summary     string                    `yaml:"summary" json:"summary"`
	Description string                    `yaml:"description" json:"description"`
	OperationID string                    `yaml:"operationId" json:"operationId"`
	Parameters  []RawParameter            `yaml:"parameters" json:"parameters"`
	Responses   RawResponses              `yaml:"responses" json:"responses"`
	Deprecated  *bool                     `yaml:"deprecated" json:"deprecated"`
	Security    *[]RawSecurityRequirement `yaml:"security" json:"security"`
}

type RawParameter struct {
	Ref         string     `yaml:"$ref" json:"$ref"`
	Name        string     `yaml:"name" json:"name"`
	In          string     `yaml:"in" json:"in"`
	Description string     `yaml:"description" json:"description"`
	Required    *bool      `yaml:"required" json:"required"`
	Type        any        `yaml:"type" json:"type"`
	Schema      *RawSchema `yaml:"schema" json:"schema"`
}

type RawResponse struct {
	Ref         string                  `yaml:"$ref" json:"$ref"`
	Description string                  `yaml:"description" json:"description"`
	Schema      *RawSchema              `yaml:"schema" json:"schema"`
	Content     map[string]RawMediaType `yaml:"content" json:"content"`
}

type RawMediaType struct {
	Schema *RawSchema `yaml:"schema" json:"schema"`
}

type RawSchema struct {
	Ref  string `yaml:"$ref" json:"$ref"`
	Type any    `yaml:"type" json:"type"` // string, or a list in OpenAPI 3.1
}

// RawSecurityRequirement maps scheme names to scopes.
type RawSecurityRequirement map[string][]string

// Entry is one key/value pair of an Ordered mapping.
type Entry[V any] struct {
	Key   string
	Value V
}

// Ordered is a mapping that keeps the source document's key order. A nil
// Ordered means the key was absent; an empty non-nil one means "{}".
type Ordered[V any] []Entry[V]

func (o *Ordered[V]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	out := make(Ordered[V], 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v V
		if err := node.Content[i+1].Decode(&v); err != nil {
			return err
		}
		out = append(out, Entry[V]{Key: node.Content[i].Value, Value: v})
	}
	*o = out
	return nil
}

func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}
	out := make(Ordered[V], 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", tok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, Entry[V]{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

// Keys returns the mapping keys in document order.
func (o Ordered[V]) Keys() []string {
	keys := make([]string, 0, len(o))
	for _, e := range o {
		keys = append(keys, e.Key)
	}
	return keys
}

// decodeDocument picks the JSON decoder for JSON input. yaml.v3 rejects
// tab-indented JSON, which is how many generators emit it.
func decodeDocument(data []byte) (*RawDocument, error) {
	var doc RawDocument
	if looksLikeJSON(data) {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		return &doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &doc, nil
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// majorVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
func (d *RawDocument) majorVersion() (int, error) {
	if strings.HasPrefix(strings.TrimSpace(d.OpenAPI), "3.") {
		return 3, nil
	}
	if strings.HasPrefix(strings.TrimSpace(d.Swagger), "2.") {
		return 2, nil
	}
	return 0, fmt.Errorf("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

func (s *RawSchema) info() *SchemaInfo {
	if s == nil {
		return nil
	}
	si := &SchemaInfo{Ref: strings.TrimSpace(s.Ref), Type: typeName(s.Type)}
	if si.Ref == "" && si.Type == "" {
		return nil
	}
	return si
}

func typeName(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		var parts []string
		for _, item := range t {
			if s, ok := item.(string); ok && s != "null" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "|")
	}
	return ""
}

// schemaInfo picks the v2 inline schema or the first v3 media type by name.
func (r *RawResponse) schemaInfo() *SchemaInfo {
	if si := r.Schema.info(); si != nil {
		return si
	}
	if len(r.Content) == 0 {
		return nil
	}
	mimes := make([]string, 0, len(r.Content))
	for m := range r.Content {
		mimes = append(mimes, m)
	}
	sort.Strings(mimes)
	for _, m := range mimes {
		if si := r.Content[m].Schema.info(); si != nil {
			return si
		}
	}
	return nil
}

// pointerEscape encodes one JSON pointer reference token.
func pointerEscape(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
