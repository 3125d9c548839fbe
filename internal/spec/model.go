package spec

import "strings"

// Canonical documentation model consumed by the render pipeline and emitters.

type HttpMethod string

const (
	GET     HttpMethod = "GET"
	POST    HttpMethod = "POST"
	PUT     HttpMethod = "PUT"
	DELETE  HttpMethod = "DELETE"
	PATCH   HttpMethod = "PATCH"
	OPTIONS HttpMethod = "OPTIONS"
	HEAD    HttpMethod = "HEAD"
	TRACE   HttpMethod = "TRACE"
)

// Methods is the canonical verb order. Path iteration, method grouping and
// method validation all read it.
var Methods = []HttpMethod{GET, POST, PUT, DELETE, PATCH, OPTIONS, HEAD, TRACE}

// ParseMethod maps a verb in any case onto its canonical form.
func ParseMethod(s string) (HttpMethod, bool) {
	m := HttpMethod(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// UntaggedService is assigned to endpoints that match no known service.
const UntaggedService = "Untagged"

// Tristate is an optional boolean that keeps "absent" distinct from false.
type Tristate uint8

const (
	Unspecified Tristate = iota
	True
	False
)

// TristateOf converts a decoded *bool.
func TristateOf(b *bool) Tristate {
	switch {
	case b == nil:
		return Unspecified
	case *b:
		return True
	default:
		return False
	}
}

func (t Tristate) IsTrue() bool { return t == True }

// IsExplicitFalse reports whether the source said false, not merely nothing.
func (t Tristate) IsExplicitFalse() bool { return t == False }

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unspecified"
	}
}

type Documentation struct {
	Title       string
	Version     string
	Description string
	Services    []Service
	Endpoints   []Endpoint
}

type Service struct {
	Name        string
	Description string
}

type Endpoint struct {
	Path        string
	Method      HttpMethod
	Services    []string // never empty
	Tags        []string // operation tags as declared
	Summary     string
	Description string
	OperationID string
	Parameters  []Parameter
	Responses   []Response // document order
	Deprecated  Tristate
	Security    []string // scheme names; nil when no auth applies
}

type Parameter struct {
	Name        string
	In          string // path|query|header|body|formData|cookie
	Required    Tristate
	Description string
	Schema      *SchemaInfo
}

type Response struct {
	Code        string // 200, 4xx, default
	Description string
	Schema      *SchemaInfo
}

// SchemaInfo is the small slice of a schema the docs show: a type or a ref.
type SchemaInfo struct {
	Type string
	Ref  string
}

// HasService reports whether the endpoint is listed under name.
func (e *Endpoint) HasService(name string) bool {
	for _, s := range e.Services {
		if s == name {
			return true
		}
	}
	return false
}

// ServiceNames returns the service names in declaration order.
func (d *Documentation) ServiceNames() []string {
	out := make([]string, 0, len(d.Services))
	for _, s := range d.Services {
		out = append(out, s.Name)
	}
	return out
}
