package extract

import (
	"testing"

	"github.com/kolah/clientgen/internal/model"
	"github.com/kolah/clientgen/internal/resolver"
	"github.com/kolah/clientgen/internal/spec"
	"github.com/kolah/clientgen/internal/specerr"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, src string) *spec.Node {
	t.Helper()
	doc, err := spec.Decode([]byte(src))
	require.NoError(t, err)
	doc, err = resolver.Resolve(doc, resolver.WithIgnorePrefix("#/components/schemas/"))
	require.NoError(t, err)
	return doc
}

func TestOperationsDeclarationOrder(t *testing.T) {
	doc := load(t, `
paths:
  /b:
    post: {operationId: createB}
    parameters: []
    get: {operationId: listB}
  /a:
    x-internal: true
    delete: {operationId: deleteA}
    get: {operationId: getA}
`)

	ops, err := Operations(doc)
	require.NoError(t, err)

	var got []string
	for _, op := range ops {
		got = append(got, string(op.Method)+" "+op.URL)
	}
	require.Equal(t, []string{"POST /b", "GET /b", "DELETE /a", "GET /a"}, got)
	require.Equal(t, "CreateB", ops[0].Name)
}

func TestOperationsMissingPaths(t *testing.T) {
	ops, err := Operations(load(t, `{"openapi": "3.0.0"}`))
	require.NoError(t, err)
	require.Empty(t, ops)
	require.NotNil(t, ops)
}

func TestOperationsPathsNotObject(t *testing.T) {
	_, err := Operations(load(t, `{"paths": [1, 2]}`))
	require.ErrorIs(t, err, specerr.ErrUnsupportedSpec)
}

func TestOperationsSkipsMalformedItems(t *testing.T) {
	ops, err := Operations(load(t, `
paths:
  /a: "nope"
  /b:
    get: 3
    put: {}
`))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, model.MethodPut, ops[0].Method)
}

func TestOperationsParameters(t *testing.T) {
	doc := load(t, `
components:
  parameters:
    Limit:
      name: limit
      in: query
      schema: {type: integer, default: 20}
paths:
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        schema: {type: string}
      - name: X-Trace
        in: header
        description: shared
        schema: {type: string}
    get:
      parameters:
        - $ref: '#/components/parameters/Limit'
        - name: X-Trace
          in: header
          required: true
          schema: {type: string}
        - name: session
          in: cookie
          schema: {type: string}
        - name: sort order
          in: query
          example: asc
          schema: {type: string, example: desc}
`)

	ops, err := Operations(doc)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	op := ops[0]

	require.Len(t, op.Parameters, 3)
	require.Equal(t, "petID", op.Parameters[0].Name)
	require.Equal(t, model.LocationPath, op.Parameters[0].In)
	require.False(t, op.Parameters[0].Optional, "path params are always required")

	require.Equal(t, "limit", op.Parameters[1].Name)
	require.Equal(t, "int", op.Parameters[1].Type)
	require.True(t, op.Parameters[1].Optional)
	require.Equal(t, int64(20), op.Parameters[1].Value)

	require.Equal(t, "sortOrder", op.Parameters[2].Name)
	require.Equal(t, "sort order", op.Parameters[2].OriginalName)
	require.Equal(t, "asc", op.Parameters[2].Value)

	require.Len(t, op.Headers, 1)
	require.Equal(t, "xTrace", op.Headers[0].Name)
	require.Equal(t, "X-Trace", op.Headers[0].OriginalName)
	require.False(t, op.Headers[0].Optional, "operation level parameter overrides path level")
	require.Nil(t, op.Headers[0].Value)

	require.Equal(t, []string{"petID", "limit", "sortOrder"}, names(op.PathParams(), op.QueryParams()))
}

func TestOperationsParameterNameCollisions(t *testing.T) {
	doc := load(t, `
paths:
  /search:
    get:
      parameters:
        - {name: page-size, in: query, schema: {type: integer}}
        - {name: page_size, in: query, schema: {type: integer}}
        - {name: type, in: query, schema: {type: string}}
        - {name: ctx, in: query, schema: {type: string}}
`)

	ops, err := Operations(doc)
	require.NoError(t, err)
	require.Equal(t, []string{"pageSize", "pageSize2", "type_", "ctxParam"}, names(ops[0].Parameters))
}

func TestOperationsParameterSchemaSources(t *testing.T) {
	doc := load(t, `
paths:
  /x:
    get:
      parameters:
        - name: filter
          in: query
          content:
            application/json:
              schema: {type: object, additionalProperties: {type: string}}
        - name: legacy
          in: query
          type: integer
          format: int64
        - name: free
          in: query
`)

	ops, err := Operations(doc)
	require.NoError(t, err)
	params := ops[0].Parameters
	require.Equal(t, "map[string]string", params[0].Type)
	require.Equal(t, "int64", params[1].Type)
	require.Equal(t, "any", params[2].Type)
	require.Nil(t, params[2].Schema)
}

func TestOperationsBody(t *testing.T) {
	doc := load(t, `
components:
  schemas:
    Pet: {type: object}
paths:
  /pets:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema: {$ref: '#/components/schemas/Pet'}
          application/xml:
            schema: {type: string}
    put:
      requestBody:
        content:
          application/octet-stream: {}
    get: {}
    patch:
      requestBody:
        content: [1, 2]
`)

	var ops []model.Operation
	var err error
	require.NotPanics(t, func() { ops, err = Operations(doc) })
	require.NoError(t, err)
	require.Len(t, ops, 4)

	require.NotNil(t, ops[0].Body)
	require.Equal(t, "application/json", ops[0].Body.MediaType)
	require.True(t, ops[0].Body.Required)
	require.Equal(t, "Pet", ops[0].Body.Type)

	require.NotNil(t, ops[1].Body)
	require.Equal(t, "any", ops[1].Body.Type)
	require.Nil(t, ops[1].Body.Schema)

	require.Nil(t, ops[2].Body)
	require.Equal(t, model.MethodPatch, ops[3].Method)
	require.Nil(t, ops[3].Body)
}

func TestOperationsReturnType(t *testing.T) {
	tests := []struct {
		name       string
		responses  string
		returnType string
		status     string
		mediaType  string
	}{
		{
			name:       "lowest 2xx wins",
			responses:  `{"201": {"content": {"application/json": {"schema": {"type": "integer"}}}}, "200": {"content": {"application/json": {"schema": {"type": "string"}}}}}`,
			returnType: "string",
			status:     "200",
			mediaType:  "application/json",
		},
		{
			name:       "first content type with a schema",
			responses:  `{"200": {"content": {"text/plain": {}, "application/json": {"schema": {"type": "boolean"}}}}}`,
			returnType: "bool",
			status:     "200",
			mediaType:  "application/json",
		},
		{
			name:       "range before default",
			responses:  `{"default": {"content": {"application/json": {"schema": {"type": "string"}}}}, "2XX": {"content": {"application/json": {"schema": {"type": "number"}}}}}`,
			returnType: "float64",
			status:     "2XX",
			mediaType:  "application/json",
		},
		{
			name:       "default",
			responses:  `{"404": {"description": "missing"}, "default": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}}}}`,
			returnType: "Pet",
			status:     "default",
			mediaType:  "application/json",
		},
		{
			name:       "no payload",
			responses:  `{"204": {"description": "deleted"}, "200": {"description": "ok"}}`,
			returnType: "",
			status:     "200",
		},
		{
			name:       "no success response",
			responses:  `{"404": {"description": "missing"}}`,
			returnType: "",
			status:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := load(t, `{"components": {"schemas": {"Pet": {"type": "object"}}}, "paths": {"/x": {"get": {"responses": `+tt.responses+`}}}}`)

			ops, err := Operations(doc)
			require.NoError(t, err)
			require.Len(t, ops, 1)
			require.Equal(t, tt.returnType, ops[0].ReturnType)
			require.Equal(t, tt.status, ops[0].ResponseStatus)
			require.Equal(t, tt.mediaType, ops[0].ResponseMediaType)
		})
	}
}

func TestOperationsNames(t *testing.T) {
	doc := load(t, `
paths:
  /pets/{petId}:
    get: {}
    delete: {operationId: remove}
  /pets:
    get: {operationId: get_pets_by_pet_id}
  /other:
    get: {operationId: remove}
`)

	ops, err := Operations(doc)
	require.NoError(t, err)

	var got []string
	for _, op := range ops {
		got = append(got, op.Name)
	}
	require.Equal(t, []string{"GetPetsByPetID", "Remove", "GetPetsByPetID2", "Remove2"}, got)
}

func TestOperationsTagFilters(t *testing.T) {
	doc := load(t, `
paths:
  /pets:
    get: {operationId: listPets, tags: [pets]}
    post: {operationId: createPet, tags: [pets, admin]}
  /users:
    get: {operationId: listUsers, tags: [users]}
  /health:
    get: {operationId: health}
`)

	tests := []struct {
		name     string
		opts     []Option
		expected []string
	}{
		{"no filter", nil, []string{"ListPets", "CreatePet", "ListUsers", "Health"}},
		{"include", []Option{WithIncludeTags("pets")}, []string{"ListPets", "CreatePet"}},
		{"exclude", []Option{WithExcludeTags("admin", " ")}, []string{"ListPets", "ListUsers", "Health"}},
		{"include and exclude", []Option{WithIncludeTags("pets", "users"), WithExcludeTags("admin")}, []string{"ListPets", "ListUsers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := Operations(doc, tt.opts...)
			require.NoError(t, err)

			var got []string
			for _, op := range ops {
				got = append(got, op.Name)
			}
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestOperationsMetadata(t *testing.T) {
	doc := load(t, `
paths:
  /pets:
    get:
      summary: List pets
      description: Returns all pets.
      deprecated: true
      tags: [pets]
`)

	ops, err := Operations(doc)
	require.NoError(t, err)
	op := ops[0]
	require.Equal(t, "List pets", op.Summary)
	require.Equal(t, "Returns all pets.", op.Description)
	require.True(t, op.Deprecated)
	require.Equal(t, []string{"pets"}, op.Tags)
}

func names(groups ...[]model.Param) []string {
	var out []string
	for _, g := range groups {
		for _, p := range g {
			out = append(out, p.Name)
		}
	}
	return out
}
