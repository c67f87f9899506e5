package spec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// Decode parses a YAML or JSON document into a node tree. Mapping key order is
// preserved and YAML aliases resolve to the same *Node as their anchor.
func Decode(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if doc.Kind == 0 || (doc.Kind == yaml.DocumentNode && len(doc.Content) == 0) {
		return nil, errors.New("parsing document: empty document")
	}

	d := &decoder{seen: make(map[*yaml.Node]*Node)}
	root := &doc
	if doc.Kind == yaml.DocumentNode {
		root = doc.Content[0]
	}
	return d.node(root)
}

type decoder struct {
	seen map[*yaml.Node]*Node
}

func (d *decoder) node(y *yaml.Node) (*Node, error) {
	if n, ok := d.seen[y]; ok {
		return n, nil
	}

	switch y.Kind {
	case yaml.AliasNode:
		if y.Alias == nil {
			return nil, fmt.Errorf("line %d: alias without anchor", y.Line)
		}
		return d.node(y.Alias)

	case yaml.SequenceNode:
		n := Array()
		d.seen[y] = n
		for _, c := range y.Content {
			item, err := d.node(c)
			if err != nil {
				return nil, err
			}
			n.Append(item)
		}
		return n, nil

	case yaml.MappingNode:
		n := Object()
		d.seen[y] = n
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			val, err := d.node(v)
			if err != nil {
				return nil, err
			}
			if k.Value == "<<" && k.ShortTag() == "!!merge" {
				mergeInto(n, val)
				continue
			}
			n.Set(k.Value, val)
		}
		return n, nil

	case yaml.ScalarNode:
		n := scalar(y)
		d.seen[y] = n
		return n, nil

	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", y.Line, y.Kind)
	}
}

// mergeInto applies a YAML merge key. Explicit keys already present win.
func mergeInto(dst, src *Node) {
	sources := []*Node{src}
	if src.IsArray() {
		sources = src.Items()
	}
	for _, s := range sources {
		for k, v := range s.Pairs() {
			if !dst.Has(k) {
				dst.Set(k, v)
			}
		}
	}
}

func scalar(y *yaml.Node) *Node {
	switch y.ShortTag() {
	case "!!null":
		return Null()
	case "!!bool":
		b, err := strconv.ParseBool(strings.ToLower(y.Value))
		if err != nil {
			return String(y.Value)
		}
		return Bool(b)
	case "!!int", "!!float":
		return Number(y.Value)
	default:
		return String(y.Value)
	}
}
