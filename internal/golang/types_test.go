package golang

import (
	"testing"

	"github.com/kolah/clientgen/internal/model"
	"github.com/kolah/clientgen/internal/spec"
	"github.com/stretchr/testify/require"
)

func mustNode(t *testing.T, src string) *spec.Node {
	t.Helper()
	n, err := spec.Decode([]byte(src))
	require.NoError(t, err)
	return n
}

func TestGoType(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		expected string
	}{
		{"string", `{"type": "string"}`, "string"},
		{"string uuid", `{"type": "string", "format": "uuid"}`, "string"},
		{"string date-time", `{"type": "string", "format": "date-time"}`, "time.Time"},
		{"string binary", `{"type": "string", "format": "binary"}`, "[]byte"},
		{"integer", `{"type": "integer"}`, "int"},
		{"integer int64", `{"type": "integer", "format": "int64"}`, "int64"},
		{"number float", `{"type": "number", "format": "float"}`, "float32"},
		{"number", `{"type": "number"}`, "float64"},
		{"boolean", `{"type": "boolean"}`, "bool"},
		{"nullable type list", `{"type": ["string", "null"]}`, "string"},
		{"array of strings", `{"type": "array", "items": {"type": "string"}}`, "[]string"},
		{"array of refs", `{"type": "array", "items": {"$ref": "#/components/schemas/Pet"}}`, "[]Pet"},
		{"empty object", `{"type": "object"}`, "map[string]any"},
		{"map", `{"type": "object", "additionalProperties": {"type": "integer"}}`, "map[string]int"},
		{"ref", `{"$ref": "#/components/schemas/pet_owner"}`, "PetOwner"},
		{"single allOf", `{"allOf": [{"$ref": "#/components/schemas/Pet"}]}`, "Pet"},
		{"oneOf", `{"oneOf": [{"type": "string"}, {"type": "integer"}]}`, "any"},
		{"untyped", `{"description": "anything"}`, "any"},
		{
			"inline struct",
			`{"type": "object", "required": ["id"], "properties": {"id": {"type": "integer"}, "name": {"type": "string"}}}`,
			"struct { ID int `json:\"id\"`; Name *string `json:\"name,omitempty\"` }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, GoType(mustNode(t, tt.schema)))
		})
	}
}

func TestGoTypeNonObject(t *testing.T) {
	require.Equal(t, "any", GoType(nil))
	require.Equal(t, "any", GoType(spec.String("x")))
}

func TestGoTypeCyclicGraph(t *testing.T) {
	node := mustNode(t, `{"type": "object", "properties": {"next": {"type": "string"}}}`)
	// Point the property back at its parent, as a resolved self reference would.
	node.Get("properties").Set("next", node)

	require.NotPanics(t, func() {
		got := GoType(node)
		require.Contains(t, got, "Next any")
	})
}

func TestFieldType(t *testing.T) {
	require.Equal(t, "string", FieldType(mustNode(t, `{"type": "string"}`), true))
	require.Equal(t, "*string", FieldType(mustNode(t, `{"type": "string"}`), false))
	require.Equal(t, "[]string", FieldType(mustNode(t, `{"type": "array", "items": {"type": "string"}}`), false))
	require.Equal(t, "*Pet", FieldType(mustNode(t, `{"$ref": "#/components/schemas/Pet"}`), false))
	require.Equal(t, "Pet", FieldType(mustNode(t, `{"$ref": "#/components/schemas/Pet"}`), true))
	require.Equal(t, "any", FieldType(mustNode(t, `{"$ref": "external.yaml#/Pet"}`), false))
}

func TestDeclType(t *testing.T) {
	tests := []struct {
		name     string
		def      *model.TypeDefinition
		expected string
	}{
		{"string enum", &model.TypeDefinition{Type: "string"}, "string"},
		{"int64", &model.TypeDefinition{Type: "integer", Format: "int64"}, "int64"},
		{"array", &model.TypeDefinition{Type: "array", Items: mustNode(t, `{"$ref": "#/components/schemas/Pet"}`)}, "[]Pet"},
		{"free object", &model.TypeDefinition{Type: "object", Schema: mustNode(t, `{"type": "object"}`)}, "map[string]any"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, DeclType(tt.def))
		})
	}
}

func TestRefToTypeName(t *testing.T) {
	require.Equal(t, "Pet", RefToTypeName("#/components/schemas/Pet"))
	require.Equal(t, "Pet", RefToTypeName("#/definitions/Pet"))
	require.Equal(t, "any", RefToTypeName("other.yaml#/"))
	require.Equal(t, "any", RefToTypeName("Pet"))
}

func TestJSONTag(t *testing.T) {
	require.Equal(t, "`json:\"id\"`", JSONTag("id", true))
	require.Equal(t, "`json:\"id,omitempty\"`", JSONTag("id", false))
}

func TestEnumLiteral(t *testing.T) {
	require.Equal(t, `"available"`, EnumLiteral("string", "available"))
	require.Equal(t, "3", EnumLiteral("int", int64(3)))
	require.Equal(t, "1.5", EnumLiteral("float64", 1.5))
}

func TestStatusCodeInt(t *testing.T) {
	require.Equal(t, 200, StatusCodeInt("200"))
	require.Equal(t, 200, StatusCodeInt("2XX"))
	require.Equal(t, 0, StatusCodeInt("default"))
}
