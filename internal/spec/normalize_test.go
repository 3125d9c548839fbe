package spec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFrom(t *testing.T, src string) *Documentation {
	t.Helper()
	raw, err := Parse(context.Background(), []byte(src), "test.yaml")
	require.NoError(t, err)
	doc, err := Build(raw)
	require.NoError(t, err)
	return doc
}

const usersV3 = `openapi: 3.0.0
info:
  title: Users API
  version: "2.1"
  description: Manage users
tags:
  - name: Users
    description: User accounts
  - name: Admin
  - name: Users
    description: duplicate
security:
  - apiKey: []
paths:
  /users/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema: { type: string }
      - $ref: '#/components/parameters/Trace'
    delete:
      tags: [Admin]
      operationId: deleteUser
      security: []
      responses:
        "204": { description: gone }
    get:
      tags: [Users, Users, Unknown]
      operationId: Users_get
      deprecated: false
      parameters:
        - name: id
          in: path
          required: true
          description: user id
          schema: { type: string }
        - name: fields
          in: query
          schema: { type: [string, "null"] }
      responses:
        "404": { description: missing }
        "200":
          description: ok
          content:
            application/xml:
              schema: { type: string }
            application/json:
              schema: { $ref: '#/components/schemas/User' }
  /health:
    get:
      summary: Health check
      security:
        - oauth: [read]
          basic: []
      responses:
        default: { description: fine }
components:
  parameters:
    Trace:
      name: X-Trace
      in: header
      schema: { type: string }
`

func TestBuild_DeclaredServicesAndEndpoints(t *testing.T) {
	t.Parallel()
	doc := buildFrom(t, usersV3)

	assert.Equal(t, "Users API", doc.Title)
	assert.Equal(t, "2.1", doc.Version)
	assert.Equal(t, "Manage users", doc.Description)
	require.Equal(t, []string{"Users", "Admin"}, doc.ServiceNames())
	assert.Equal(t, "User accounts", doc.Services[0].Description)

	require.Len(t, doc.Endpoints, 3)
	// Paths in document order, verbs in canonical order within a path.
	get, del, health := doc.Endpoints[0], doc.Endpoints[1], doc.Endpoints[2]
	assert.Equal(t, GET, get.Method)
	assert.Equal(t, DELETE, del.Method)
	assert.Equal(t, "/health", health.Path)

	assert.Equal(t, []string{"Users"}, get.Services)
	assert.Equal(t, []string{"Users", "Unknown"}, get.Tags)
	assert.Equal(t, []string{"Admin"}, del.Services)
	assert.Equal(t, []string{UntaggedService}, health.Services)
	assert.True(t, get.HasService("Users"))
	assert.False(t, get.HasService("Admin"))

	assert.Equal(t, False, get.Deprecated)
	assert.Equal(t, Unspecified, del.Deprecated)
}

func TestBuild_ParameterMergeAndRefs(t *testing.T) {
	t.Parallel()
	doc := buildFrom(t, usersV3)
	get := doc.Endpoints[0]

	require.Len(t, get.Parameters, 3)
	// The operation's id replaces the path-level one in place.
	assert.Equal(t, "id", get.Parameters[0].Name)
	assert.Equal(t, "user id", get.Parameters[0].Description)
	assert.Equal(t, True, get.Parameters[0].Required)
	assert.Equal(t, "X-Trace", get.Parameters[1].Name)
	assert.Equal(t, "header", get.Parameters[1].In)
	assert.Equal(t, Unspecified, get.Parameters[1].Required)
	assert.Equal(t, "fields", get.Parameters[2].Name)
	require.NotNil(t, get.Parameters[2].Schema)
	assert.Equal(t, "string", get.Parameters[2].Schema.Type)

	del := doc.Endpoints[1]
	require.Len(t, del.Parameters, 2)
	assert.Equal(t, "id", del.Parameters[0].Name)
}

func TestBuild_ResponsesKeepDocumentOrder(t *testing.T) {
	t.Parallel()
	doc := buildFrom(t, usersV3)
	get := doc.Endpoints[0]

	require.Len(t, get.Responses, 2)
	assert.Equal(t, "404", get.Responses[0].Code)
	assert.Equal(t, "200", get.Responses[1].Code)
	require.NotNil(t, get.Responses[1].Schema)
	// First media type by name wins.
	assert.Equal(t, "#/components/schemas/User", get.Responses[1].Schema.Ref)
	assert.Equal(t, "default", doc.Endpoints[2].Responses[0].Code)
}

func TestBuild_Security(t *testing.T) {
	t.Parallel()
	doc := buildFrom(t, usersV3)
	assert.Equal(t, []string{"apiKey"}, doc.Endpoints[0].Security)
	assert.Nil(t, doc.Endpoints[1].Security, "explicit empty list disables auth")
	assert.Equal(t, []string{"basic", "oauth"}, doc.Endpoints[2].Security)
}

func TestBuild_InfersServicesSorted(t *testing.T) {
	t.Parallel()
	doc := buildFrom(t, `swagger: "2.0"
info: {title: T, version: "1"}
paths:
  /b:
    get:
      tags: [zeta, alpha]
      responses: {"200": {description: ok}}
  /a:
    post:
      tags: [mid]
      responses: {"200": {description: ok}}
    get:
      responses: {"200": {description: ok}}
`)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, doc.ServiceNames())
	require.Len(t, doc.Endpoints, 3)
	assert.Equal(t, []string{"zeta", "alpha"}, doc.Endpoints[0].Services)
	assert.Equal(t, GET, doc.Endpoints[1].Method)
	assert.Equal(t, []string{UntaggedService}, doc.Endpoints[1].Services)
	assert.Equal(t, POST, doc.Endpoints[2].Method)
}

func TestBuild_NoTagsAnywhere(t *testing.T) {
	t.Parallel()
	doc := buildFrom(t, `openapi: 3.0.0
info: {title: T, version: "1"}
paths:
  /health:
    get:
      responses: {"200": {description: ok}}
  /jobs:
    post:
      responses: {"202": {description: accepted}}
`)
	assert.Empty(t, doc.Services)
	require.Len(t, doc.Endpoints, 2)
	for _, ep := range doc.Endpoints {
		assert.Equal(t, []string{UntaggedService}, ep.Services, "%s %s", ep.Method, ep.Path)
		assert.Empty(t, ep.Tags)
	}
}

func TestBuild_V2ParameterRefAndType(t *testing.T) {
	t.Parallel()
	doc := buildFrom(t, `swagger: "2.0"
info: {title: T, version: "1"}
parameters:
  Limit:
    name: limit
    in: query
    type: integer
    required: false
paths:
  /items:
    get:
      parameters:
        - $ref: '#/parameters/Limit'
      responses:
        "200":
          description: ok
          schema: { $ref: '#/definitions/Item' }
`)
	ep := doc.Endpoints[0]
	require.Len(t, ep.Parameters, 1)
	assert.Equal(t, "limit", ep.Parameters[0].Name)
	assert.Equal(t, False, ep.Parameters[0].Required)
	assert.Equal(t, &SchemaInfo{Type: "integer"}, ep.Parameters[0].Schema)
	assert.Equal(t, "#/definitions/Item", ep.Responses[0].Schema.Ref)
}

func TestBuild_UnresolvedParameterRef(t *testing.T) {
	t.Parallel()
	raw, err := Parse(context.Background(), []byte(`openapi: 3.0.0
info: {title: T, version: "1"}
paths:
  /x:
    get:
      parameters:
        - $ref: '#/components/parameters/Nope'
      responses: {"200": {description: ok}}
`), "x.yaml")
	require.NoError(t, err)
	_, err = Build(raw)
	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ValidationError, se.Code)
	assert.Equal(t, "#/paths/~1x/get/parameters/0", se.JSONPointer)
}

func TestBuild_RequiresTitleAndVersion(t *testing.T) {
	t.Parallel()
	_, err := Build(&RawDocument{Info: RawInfo{Version: "1"}})
	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "#/info/title", se.JSONPointer)

	_, err = Build(&RawDocument{Info: RawInfo{Title: "T"}})
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "#/info/version", se.JSONPointer)
}

func TestBuild_EmptyPaths(t *testing.T) {
	t.Parallel()
	doc := buildFrom(t, "openapi: 3.1.0\ninfo: {title: T, version: \"1\"}\npaths: {}\n")
	assert.Empty(t, doc.Endpoints)
	assert.Empty(t, doc.Services)
}

func TestParseMethodAndTristate(t *testing.T) {
	t.Parallel()
	m, ok := ParseMethod(" patch ")
	require.True(t, ok)
	assert.Equal(t, PATCH, m)
	_, ok = ParseMethod("CONNECT")
	assert.False(t, ok)

	yes, no := true, false
	assert.True(t, TristateOf(&yes).IsTrue())
	assert.True(t, TristateOf(&no).IsExplicitFalse())
	assert.False(t, TristateOf(nil).IsExplicitFalse())
	assert.Equal(t, "unspecified", TristateOf(nil).String())
}
