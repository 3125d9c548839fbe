package spec

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// relaxV2Body rewrites Swagger 2.0 operations that openapi2conv refuses to
// convert, so strict validation reports real problems instead:
//   - several "in: body" parameters collapse into one object-typed body;
//   - body parameters mixed with formData become formData fields, and the
//     operation consumes multipart/form-data.
//
// The returned bytes are YAML. changed is false when nothing was rewritten,
// in which case data is returned untouched.
func relaxV2Body(data []byte) (out []byte, changed bool, err error) {
	var doc map[string]any
	if looksLikeJSON(data) {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return data, false, err
	}
	paths, _ := doc["paths"].(map[string]any)
	for _, item := range paths {
		ops, _ := item.(map[string]any)
		for verb, raw := range ops {
			if _, ok := ParseMethod(verb); !ok {
				continue
			}
			op, _ := raw.(map[string]any)
			if op != nil && relaxOperation(op) {
				changed = true
			}
		}
	}
	if !changed {
		return data, false, nil
	}
	out, err = yaml.Marshal(doc)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

func relaxOperation(op map[string]any) bool {
	params, _ := op["parameters"].([]any)
	var bodies, rest []map[string]any
	form := false
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		switch in, _ := pm["in"].(string); strings.ToLower(in) {
		case "body":
			bodies = append(bodies, pm)
			continue
		case "formdata":
			form = true
		}
		rest = append(rest, pm)
	}

	switch {
	case len(bodies) > 0 && form:
		for _, b := range bodies {
			rest = append(rest, bodyAsFormField(b))
		}
		op["parameters"] = toAnySlice(rest)
		consumes, _ := op["consumes"].([]any)
		for _, c := range consumes {
			if c == "multipart/form-data" {
				return true
			}
		}
		op["consumes"] = append(consumes, "multipart/form-data")
		return true
	case len(bodies) > 1:
		props := map[string]any{}
		var required []any
		for _, b := range bodies {
			name := paramName(b)
			props[name] = paramSchema(b)
			if req, _ := b["required"].(bool); req {
				required = append(required, name)
			}
		}
		schema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		merged := map[string]any{"in": "body", "name": "body", "schema": schema}
		op["parameters"] = append([]any{merged}, toAnySlice(rest)...)
		return true
	}
	return false
}

func paramName(pm map[string]any) string {
	if name, _ := pm["name"].(string); name != "" {
		return name
	}
	return "field"
}

// paramSchema returns the body schema, or one synthesized from v2 type
// fields; string when neither exists.
func paramSchema(pm map[string]any) map[string]any {
	if s, ok := pm["schema"].(map[string]any); ok {
		return s
	}
	t, _ := pm["type"].(string)
	if t == "" {
		return map[string]any{"type": "string"}
	}
	s := map[string]any{"type": t}
	for _, k := range []string{"items", "format"} {
		if v, ok := pm[k]; ok {
			s[k] = v
		}
	}
	return s
}

func bodyAsFormField(pm map[string]any) map[string]any {
	field := map[string]any{"in": "formData", "name": paramName(pm)}
	for _, k := range []string{"description", "required"} {
		if v, ok := pm[k]; ok {
			field[k] = v
		}
	}
	schema := paramSchema(pm)
	// A referenced object has no formData form.
	if _, ok := schema["type"]; !ok {
		schema = map[string]any{"type": "string"}
	}
	for k, v := range schema {
		if k == "type" || k == "items" || k == "format" {
			field[k] = v
		}
	}
	return field
}

func toAnySlice(in []map[string]any) []any {
	out := make([]any, 0, len(in))
	for _, m := range in {
		out = append(out, m)
	}
	return out
}
