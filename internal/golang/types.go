package golang

import (
	"fmt"
	"strings"

	"github.com/kolah/clientgen/internal/model"
	"github.com/kolah/clientgen/internal/spec"
)

// GoType maps a schema fragment to a Go type expression. A $ref left in the
// fragment names a generated type. Object schemas with properties become
// anonymous structs.
func GoType(s *spec.Node) string {
	return goType(s, make(map[*spec.Node]bool))
}

func goType(s *spec.Node, active map[*spec.Node]bool) string {
	if !s.IsObject() {
		return "any"
	}
	if ref, ok := s.Ref(); ok {
		return RefToTypeName(ref)
	}
	// Resolved graphs may be cyclic.
	if active[s] {
		return "any"
	}
	active[s] = true
	defer delete(active, s)

	if all := s.Get("allOf"); all.Len() == 1 {
		return goType(all.Item(0), active)
	}
	if s.Has("allOf") || s.Has("oneOf") || s.Has("anyOf") {
		return "any"
	}

	format := s.Get("format").Str()
	switch SchemaType(s) {
	case "string":
		return goStringType(format)
	case "integer":
		return goIntegerType(format)
	case "number":
		return goNumberType(format)
	case "boolean":
		return "bool"
	case "array":
		return "[]" + goType(s.Get("items"), active)
	case "object":
		if ap := s.Get("additionalProperties"); ap.IsObject() && ap.Len() > 0 {
			return "map[string]" + goType(ap, active)
		}
		props := s.Get("properties")
		if props.Len() == 0 {
			return "map[string]any"
		}
		return structType(props, requiredSet(s), active)
	default:
		return "any"
	}
}

func structType(props *spec.Node, required map[string]struct{}, active map[*spec.Node]bool) string {
	var fields []string
	taken := make(map[string]bool)
	for name, prop := range props.Pairs() {
		_, req := required[name]
		typ := goType(prop, active)
		if !req && isScalar(prop) {
			typ = "*" + typ
		}
		fields = append(fields, fmt.Sprintf("%s %s %s", Unique(TypeName(name), taken), typ, JSONTag(name, req)))
	}
	return "struct { " + strings.Join(fields, "; ") + " }"
}

// SchemaType returns the JSON Schema type of s. A type list such as
// ["string", "null"] yields its first non-null entry; a missing type is
// inferred from properties or items.
func SchemaType(s *spec.Node) string {
	t := s.Get("type")
	switch t.Kind() {
	case spec.KindString:
		return t.Str()
	case spec.KindArray:
		for _, v := range t.StringList() {
			if v != "null" {
				return v
			}
		}
	}
	switch {
	case s.Has("properties") || s.Has("additionalProperties"):
		return "object"
	case s.Has("items"):
		return "array"
	}
	return ""
}

// FieldType is the Go type of a struct field. Optional scalars and optional
// named types become pointers, which also breaks recursive type definitions.
func FieldType(s *spec.Node, required bool) string {
	typ := GoType(s)
	if required || typ == "any" {
		return typ
	}
	if _, ok := s.Ref(); ok || isScalar(s) {
		return "*" + typ
	}
	return typ
}

func isScalar(s *spec.Node) bool {
	if _, ok := s.Ref(); ok {
		return false
	}
	switch SchemaType(s) {
	case "string", "integer", "number", "boolean":
		return true
	}
	return false
}

func requiredSet(s *spec.Node) map[string]struct{} {
	set := make(map[string]struct{})
	for _, name := range s.Get("required").StringList() {
		set[name] = struct{}{}
	}
	return set
}

// DeclType is the underlying type of a named type declaration.
func DeclType(def *model.TypeDefinition) string {
	switch def.Type {
	case "string":
		return goStringType(def.Format)
	case "integer":
		return goIntegerType(def.Format)
	case "number":
		return goNumberType(def.Format)
	case "boolean":
		return "bool"
	case "array":
		return "[]" + GoType(def.Items)
	default:
		return GoType(def.Schema)
	}
}

func goStringType(format string) string {
	switch format {
	case "date-time", "date":
		return "time.Time"
	case "byte", "binary":
		return "[]byte"
	default:
		return "string"
	}
}

func goIntegerType(format string) string {
	switch format {
	case "int32":
		return "int32"
	case "int64":
		return "int64"
	default:
		return "int"
	}
}

func goNumberType(format string) string {
	switch format {
	case "float":
		return "float32"
	default:
		return "float64"
	}
}

// RefToTypeName extracts the type name from the last segment of a $ref.
func RefToTypeName(ref string) string {
	i := strings.LastIndex(ref, "/")
	if !strings.HasPrefix(ref, "#") || i < 0 || i == len(ref)-1 {
		return "any"
	}
	seg := strings.ReplaceAll(ref[i+1:], "~1", "/")
	return TypeName(strings.ReplaceAll(seg, "~0", "~"))
}

func JSONTag(name string, required bool) string {
	if required {
		return fmt.Sprintf("`json:\"%s\"`", name)
	}
	return fmt.Sprintf("`json:\"%s,omitempty\"`", name)
}

// EnumLiteral formats an enum value as a Go literal of the given type.
func EnumLiteral(goType string, v any) string {
	switch goType {
	case "string":
		return fmt.Sprintf("%q", fmt.Sprint(v))
	case "bool":
		return fmt.Sprintf("%v", v)
	default:
		if strings.HasPrefix(goType, "int") || strings.HasPrefix(goType, "float") {
			return fmt.Sprintf("%v", v)
		}
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
}
