package model

import (
	"iter"
	"slices"

	"github.com/kolah/clientgen/internal/spec"
)

// TypeDefinition is a normalized reusable schema.
type TypeDefinition struct {
	Name        string
	Type        string
	Format      string
	Description string
	Required    map[string]struct{}
	Properties  []Property
	Enum        []any
	EnumNames   []string
	// Enums pairs Enum values with EnumNames positionally.
	Enums []EnumEntry
	// Items is the element schema of an array type.
	Items  *spec.Node
	Schema *spec.Node
}

type Property struct {
	Name   string
	Schema *spec.Node
}

type EnumEntry struct {
	Name  string
	Value any
}

func (t *TypeDefinition) IsRequired(name string) bool {
	_, ok := t.Required[name]
	return ok
}

func (t *TypeDefinition) IsEnum() bool {
	return len(t.Enums) > 0
}

// TypeDefinitions maps schema names to definitions, iterating in insertion order.
type TypeDefinitions struct {
	names []string
	defs  map[string]*TypeDefinition
}

func NewTypeDefinitions() *TypeDefinitions {
	return &TypeDefinitions{defs: make(map[string]*TypeDefinition)}
}

// Add stores def under its name. Re-adding a name replaces the definition and
// keeps the original position.
func (t *TypeDefinitions) Add(def *TypeDefinition) {
	if _, ok := t.defs[def.Name]; !ok {
		t.names = append(t.names, def.Name)
	}
	t.defs[def.Name] = def
}

func (t *TypeDefinitions) Get(name string) (*TypeDefinition, bool) {
	def, ok := t.defs[name]
	return def, ok
}

func (t *TypeDefinitions) Names() []string {
	return slices.Clone(t.names)
}

func (t *TypeDefinitions) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

func (t *TypeDefinitions) All() iter.Seq2[string, *TypeDefinition] {
	return func(yield func(string, *TypeDefinition) bool) {
		for _, n := range t.names {
			if !yield(n, t.defs[n]) {
				return
			}
		}
	}
}

// List returns the definitions in order, for templates.
func (t *TypeDefinitions) List() []*TypeDefinition {
	out := make([]*TypeDefinition, 0, len(t.names))
	for _, n := range t.names {
		out = append(out, t.defs[n])
	}
	return out
}
