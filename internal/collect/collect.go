// Package collect builds named type definitions from the reusable schemas of a
// resolved document.
package collect

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kolah/clientgen/internal/golang"
	"github.com/kolah/clientgen/internal/model"
	"github.com/kolah/clientgen/internal/spec"
	"github.com/kolah/clientgen/internal/specerr"
)

// DefaultPrefix is the pointer prefix of OpenAPI 3 component schemas.
const DefaultPrefix = "#/components/schemas/"

const definitionsPrefix = "#/definitions/"

type Option func(*options)

type options struct {
	prefix string
	all    bool
	logger *slog.Logger
}

// WithPrefix sets the pointer prefix of named schemas. It should match the
// prefix the resolver left unexpanded.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithAllSchemas includes every named schema, reachable or not.
func WithAllSchemas() Option {
	return func(o *options) { o.all = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Result holds the collected definitions and the non-fatal problems found
// while building them.
type Result struct {
	Types    *model.TypeDefinitions
	Warnings []error
}

type collector struct {
	opts    options
	section *spec.Node
	// byNode maps each named schema node to its name, so inlined copies
	// that kept their identity are recognized too.
	byNode  map[*spec.Node]string
	reached map[string]bool
	queue   []string
	visited map[*spec.Node]bool
	result  *Result
}

// Types returns the definitions of the named schemas reachable from the
// parameter, body and response schemas of ops, in declaration order.
func Types(doc *spec.Node, ops []model.Operation, opts ...Option) *Result {
	o := options{prefix: DefaultPrefix, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	section := lookup(doc, o.prefix)
	if section == nil && o.prefix == DefaultPrefix {
		// Swagger 2 documents that were not converted.
		section = lookup(doc, definitionsPrefix)
		o.prefix = definitionsPrefix
	}

	c := &collector{
		opts:    o,
		section: section,
		byNode:  make(map[*spec.Node]string),
		reached: make(map[string]bool),
		visited: make(map[*spec.Node]bool),
		result:  &Result{Types: model.NewTypeDefinitions()},
	}
	if !section.IsObject() {
		return c.result
	}
	for name, s := range section.Pairs() {
		c.byNode[s] = name
	}

	if o.all {
		for name := range section.Pairs() {
			c.reached[name] = true
		}
	} else {
		for _, op := range ops {
			for _, s := range op.Schemas() {
				c.walk(s)
			}
		}
		for len(c.queue) > 0 {
			name := c.queue[0]
			c.queue = c.queue[1:]
			c.walk(section.Get(name))
		}
	}

	for name, s := range section.Pairs() {
		if c.reached[name] {
			c.result.Types.Add(c.define(name, s))
		}
	}
	return c.result
}

// lookup walks a pointer prefix such as #/components/schemas/ from doc.
func lookup(doc *spec.Node, prefix string) *spec.Node {
	path := strings.Trim(strings.TrimPrefix(prefix, "#"), "/")
	if path == "" {
		return nil
	}
	var keys []string
	for _, seg := range strings.Split(path, "/") {
		keys = append(keys, unescape(seg))
	}
	return doc.Lookup(keys...)
}

func unescape(seg string) string {
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}

func (c *collector) reach(name string) {
	if c.reached[name] || !c.section.Has(name) {
		return
	}
	c.reached[name] = true
	c.queue = append(c.queue, name)
}

// walk marks every named schema referenced from n.
func (c *collector) walk(n *spec.Node) {
	if !n.IsContainer() || c.visited[n] {
		return
	}
	c.visited[n] = true

	if name, ok := c.byNode[n]; ok {
		c.reach(name)
	}
	if ref, ok := n.Ref(); ok && strings.HasPrefix(ref, c.opts.prefix) {
		c.reach(unescape(strings.TrimPrefix(ref, c.opts.prefix)))
	}
	for _, it := range n.Items() {
		c.walk(it)
	}
	for _, v := range n.Pairs() {
		c.walk(v)
	}
}

func (c *collector) define(name string, s *spec.Node) *model.TypeDefinition {
	def := &model.TypeDefinition{
		Name:        name,
		Type:        golang.SchemaType(s),
		Format:      s.Get("format").Str(),
		Description: s.Get("description").Str(),
		Required:    make(map[string]struct{}),
		Items:       s.Get("items"),
		Schema:      s,
	}
	for _, r := range s.Get("required").StringList() {
		def.Required[r] = struct{}{}
	}
	for prop, ps := range s.Get("properties").Pairs() {
		def.Properties = append(def.Properties, model.Property{Name: prop, Schema: ps})
	}

	enum := s.Get("enum").Items()
	for _, v := range enum {
		def.Enum = append(def.Enum, v.Value())
	}
	if names := s.Get("x-enumNames"); names != nil {
		def.EnumNames = enumNames(names)
		if len(def.EnumNames) != len(def.Enum) {
			err := &specerr.EnumMetadataError{Schema: name, Values: len(def.Enum), Names: len(def.EnumNames)}
			c.result.Warnings = append(c.result.Warnings, err)
			c.opts.logger.Warn("inconsistent enum metadata", "schema", name,
				"values", len(def.Enum), "names", len(def.EnumNames))
		}
	}
	def.Enums = pairEnum(def.Enum, def.EnumNames, s.Has("x-enumNames"))
	return def
}

// enumNames lists x-enumNames by position. Items that are not strings keep
// their slot, labelled with their value.
func enumNames(names *spec.Node) []string {
	out := make([]string, 0, names.Len())
	for _, it := range names.Items() {
		switch v := it.Value(); {
		case it.Kind() == spec.KindString:
			out = append(out, it.Str())
		case v == nil:
			out = append(out, "null")
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// pairEnum pairs values with display names by position. When names are given
// the shorter list governs; otherwise each entry is named after its value.
func pairEnum(values []any, names []string, named bool) []model.EnumEntry {
	n := len(values)
	if named {
		n = min(n, len(names))
	}
	taken := make(map[string]bool, n)
	entries := make([]model.EnumEntry, 0, n)
	for i := range n {
		label := fmt.Sprint(values[i])
		if named {
			label = names[i]
		} else if values[i] == nil {
			label = "null"
		}
		entries = append(entries, model.EnumEntry{
			Name:  golang.Unique(golang.TypeName(label), taken),
			Value: values[i],
		})
	}
	return entries
}
