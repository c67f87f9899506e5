// Package spec holds the in-memory form of a parsed OpenAPI document: a tree of
// tagged nodes that keeps mapping keys in declaration order.
//
// Node identity is pointer identity. Two references to the same *Node are the
// same subtree, which is what the resolver relies on to expand shared and
// cyclic subtrees exactly once.
package spec

import (
	"iter"
	"slices"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// RefKey is the mapping key carrying a reference pointer.
const RefKey = "$ref"

// Node is one value of the document tree.
type Node struct {
	kind Kind
	// scalar holds the string value, the number literal or "true"/"false".
	scalar string
	items  []*Node
	keys   []string
	fields map[string]*Node
}

func Null() *Node { return &Node{kind: KindNull} }

func Bool(b bool) *Node { return &Node{kind: KindBool, scalar: strconv.FormatBool(b)} }

func String(s string) *Node { return &Node{kind: KindString, scalar: s} }

// Number creates a number node from its literal form, e.g. "42" or "1.5e3".
func Number(literal string) *Node { return &Node{kind: KindNumber, scalar: literal} }

func Int(i int64) *Node { return Number(strconv.FormatInt(i, 10)) }

func Float(f float64) *Node { return Number(strconv.FormatFloat(f, 'g', -1, 64)) }

func Array(items ...*Node) *Node {
	return &Node{kind: KindArray, items: items}
}

func Object() *Node {
	return &Node{kind: KindObject, fields: make(map[string]*Node)}
}

func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

func (n *Node) IsObject() bool { return n.Kind() == KindObject }

func (n *Node) IsArray() bool { return n.Kind() == KindArray }

// IsContainer reports whether n is an array or an object.
func (n *Node) IsContainer() bool {
	k := n.Kind()
	return k == KindArray || k == KindObject
}

// Str returns the string value of a string node, or the literal of a number
// or bool node. Containers and null return "".
func (n *Node) Str() string {
	if n == nil || n.IsContainer() {
		return ""
	}
	return n.scalar
}

func (n *Node) Bool() bool {
	return n.Kind() == KindBool && n.scalar == "true"
}

func (n *Node) Float() (float64, bool) {
	if n.Kind() != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(n.scalar, "_", ""), 64)
	if err != nil {
		if i, ierr := strconv.ParseInt(n.scalar, 0, 64); ierr == nil {
			return float64(i), true
		}
		return 0, false
	}
	return f, true
}

// Len returns the number of items of an array or fields of an object.
func (n *Node) Len() int {
	switch n.Kind() {
	case KindArray:
		return len(n.items)
	case KindObject:
		return len(n.keys)
	default:
		return 0
	}
}

// Items returns the array elements. The slice is shared with the node.
func (n *Node) Items() []*Node {
	if n.Kind() != KindArray {
		return nil
	}
	return n.items
}

func (n *Node) Item(i int) *Node {
	if n.Kind() != KindArray || i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

func (n *Node) SetItem(i int, v *Node) {
	if n.Kind() != KindArray || i < 0 || i >= len(n.items) {
		return
	}
	n.items[i] = v
}

func (n *Node) Append(v *Node) {
	if n.Kind() == KindArray {
		n.items = append(n.items, v)
	}
}

// Keys returns the object keys in declaration order.
func (n *Node) Keys() []string {
	if n.Kind() != KindObject {
		return nil
	}
	return slices.Clone(n.keys)
}

func (n *Node) Get(key string) *Node {
	if n.Kind() != KindObject {
		return nil
	}
	return n.fields[key]
}

func (n *Node) Has(key string) bool {
	if n.Kind() != KindObject {
		return false
	}
	_, ok := n.fields[key]
	return ok
}

// Set stores v under key. An existing key keeps its position.
func (n *Node) Set(key string, v *Node) {
	if n.Kind() != KindObject {
		return
	}
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = v
}

func (n *Node) Delete(key string) {
	if !n.Has(key) {
		return
	}
	delete(n.fields, key)
	n.keys = slices.DeleteFunc(n.keys, func(k string) bool { return k == key })
}

// Pairs iterates object fields in declaration order. Fields replaced during
// iteration are observed with their new value.
func (n *Node) Pairs() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		if n.Kind() != KindObject {
			return
		}
		for _, k := range slices.Clone(n.keys) {
			v, ok := n.fields[k]
			if !ok {
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Lookup walks object keys from n and returns nil when any step is missing.
func (n *Node) Lookup(keys ...string) *Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Ref returns the $ref string carried by an object node.
func (n *Node) Ref() (string, bool) {
	r := n.Get(RefKey)
	if r == nil || r.Kind() != KindString {
		return "", false
	}
	return r.scalar, true
}

// StringList returns the string items of an array node, skipping non-strings.
func (n *Node) StringList() []string {
	var out []string
	for _, it := range n.Items() {
		if it.Kind() == KindString {
			out = append(out, it.scalar)
		}
	}
	return out
}
