package docusaurusemitter

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/vimanam/internal/render"
	"github.com/mark3labs/vimanam/internal/spec"
)

func planned(detail render.Detail) *render.Output {
	doc := &spec.Documentation{
		Title:       "Store API",
		Version:     "1.0",
		Description: "Sells things.\nSecond line.",
		Services:    []spec.Service{{Name: "Items"}},
		Endpoints: []spec.Endpoint{{
			Path: "/items/{id}", Method: spec.GET, Services: []string{"Items"},
			OperationID: "getItem", Description: "Returns <b>one</b> item",
			Responses: []spec.Response{{Code: "200", Description: "map of {k: v}"}},
		}},
	}
	cfg := render.DefaultConfig()
	cfg.Detail = detail
	cfg.IncludeSchemas = true
	return render.Plan(doc, cfg)
}

func split(t *testing.T, page string) (map[string]any, string) {
	t.Helper()
	require.True(t, strings.HasPrefix(page, "---\n"))
	rest := strings.TrimPrefix(page, "---\n")
	end := strings.Index(rest, "---\n")
	require.GreaterOrEqual(t, end, 0)
	var front map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(rest[:end]), &front))
	return front, rest[end+len("---\n"):]
}

func TestEmit_Frontmatter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Emit(context.Background(), &buf, planned(render.DetailSummary), Options{}))
	front, body := split(t, buf.String())

	assert.Equal(t, "store-api", front["id"])
	assert.Equal(t, "Store API", front["title"])
	assert.Equal(t, "Store API", front["sidebar_label"])
	assert.Equal(t, "Sells things.", front["description"])
	assert.NotContains(t, front, "sidebar_position")
	assert.True(t, strings.HasPrefix(body, "\n# Store API {#store-api}\n"))

	// Key order is fixed.
	raw := buf.String()
	assert.Less(t, strings.Index(raw, "id:"), strings.Index(raw, "title:"))
	assert.Less(t, strings.Index(raw, "title:"), strings.Index(raw, "sidebar_label:"))
}

func TestEmit_FrontmatterOverrides(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Emit(context.Background(), &buf, planned(render.DetailSummary), Options{ID: "api", SidebarLabel: "API", SidebarPosition: 3}))
	front, _ := split(t, buf.String())
	assert.Equal(t, "api", front["id"])
	assert.Equal(t, "API", front["sidebar_label"])
	assert.Equal(t, 3, front["sidebar_position"])
}

func TestEmit_MDXSafeBody(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Emit(context.Background(), &buf, planned(render.DetailFull), Options{}))
	_, body := split(t, buf.String())

	assert.Contains(t, body, "## Items {#items}")
	assert.Contains(t, body, "### getItem {#getitem}")
	assert.Contains(t, body, `**Operation:** GET /items/\{id\}`)
	assert.Contains(t, body, "Returns &lt;b&gt;one&lt;/b&gt; item")
	assert.Contains(t, body, `| 200 | map of \{k: v\} |`)
	assert.Contains(t, body, "{/* Schemas would be included here */}")
	assert.NotContains(t, body, "<!--")
}
