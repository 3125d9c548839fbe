package render

import (
	"strings"
	"unicode"

	"github.com/mark3labs/vimanam/internal/spec"
)

// ShortTitle names an endpoint in headings and the TOC. When service is
// non-empty, a leading "<service>_" is dropped from the operation id.
func ShortTitle(ep *spec.Endpoint, service string) string {
	if id := ep.OperationID; id != "" {
		if service != "" {
			if rest, ok := strings.CutPrefix(id, service+"_"); ok && rest != "" {
				return rest
			}
		}
		return id
	}
	if ep.Summary != "" {
		if fields := strings.Fields(ep.Summary); len(fields) > 0 && hasUpper(fields[0]) {
			return fields[0]
		}
		return ep.Summary
	}
	return string(ep.Method) + " " + ep.Path
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
