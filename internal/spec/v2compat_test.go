package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func relaxedParams(t *testing.T, out []byte, path string) (params []map[string]any, consumes []any) {
	t.Helper()
	var doc struct {
		Paths map[string]map[string]struct {
			Parameters []map[string]any `yaml:"parameters"`
			Consumes   []any            `yaml:"consumes"`
		} `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(out, &doc))
	op := doc.Paths[path]["post"]
	return op.Parameters, op.Consumes
}

func TestRelaxV2Body_MultipleBodiesMerged(t *testing.T) {
	t.Parallel()
	in := []byte(`swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /x:
    post:
      parameters:
      - in: body
        name: a
        required: true
        schema: { type: string }
      - in: body
        name: b
        schema: { type: integer }
      - in: query
        name: q
        type: string
      responses: { '200': { description: ok } }
`)
	out, changed, err := relaxV2Body(in)
	require.NoError(t, err)
	require.True(t, changed)

	params, _ := relaxedParams(t, out, "/x")
	require.Len(t, params, 2)
	assert.Equal(t, "body", params[0]["name"])
	schema := params[0]["schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	assert.Len(t, schema["properties"], 2)
	assert.Equal(t, []any{"a"}, schema["required"])
	assert.Equal(t, "q", params[1]["name"])
}

func TestRelaxV2Body_BodyAndFormDataToFormData(t *testing.T) {
	t.Parallel()
	in := []byte(`swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /upload:
    post:
      parameters:
      - in: body
        name: desc
        schema: { $ref: '#/definitions/Desc' }
      - in: formData
        name: file
        type: file
        required: true
      responses: { '200': { description: ok } }
`)
	out, changed, err := relaxV2Body(in)
	require.NoError(t, err)
	require.True(t, changed)

	params, consumes := relaxedParams(t, out, "/upload")
	require.Len(t, params, 2)
	for _, p := range params {
		assert.Equal(t, "formData", p["in"])
	}
	assert.Equal(t, "string", params[1]["type"])
	assert.Contains(t, consumes, "multipart/form-data")
}

func TestRelaxV2Body_UnchangedWhenCompliant(t *testing.T) {
	t.Parallel()
	in := []byte(petstoreV2)
	out, changed, err := relaxV2Body(in)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, in, out)
}
