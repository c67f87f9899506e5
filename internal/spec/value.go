package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
)

// ErrCyclic is returned when a cyclic tree is serialized.
var ErrCyclic = errors.New("cyclic document")

// Value converts the tree into plain Go values: map[string]any, []any, string,
// bool, int64, float64 and nil. A back edge of a cycle becomes nil.
func (n *Node) Value() any {
	return n.value(make(map[*Node]bool))
}

func (n *Node) value(active map[*Node]bool) any {
	switch n.Kind() {
	case KindBool:
		return n.Bool()
	case KindString:
		return n.scalar
	case KindNumber:
		if i, err := strconv.ParseInt(n.scalar, 10, 64); err == nil {
			return i
		}
		f, _ := n.Float()
		return f
	case KindArray:
		if active[n] {
			return nil
		}
		active[n] = true
		defer delete(active, n)
		out := make([]any, 0, len(n.items))
		for _, it := range n.items {
			out = append(out, it.value(active))
		}
		return out
	case KindObject:
		if active[n] {
			return nil
		}
		active[n] = true
		defer delete(active, n)
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.fields[k].value(active)
		}
		return out
	default:
		return nil
	}
}

// FromValue builds a tree from plain Go values. Map keys are sorted since Go
// maps carry no order.
func FromValue(v any) (*Node, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case *Node:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint64:
		return Number(strconv.FormatUint(t, 10)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		return Number(t.String()), nil
	case []any:
		arr := Array()
		for _, it := range t {
			n, err := FromValue(it)
			if err != nil {
				return nil, err
			}
			arr.Append(n)
		}
		return arr, nil
	case []string:
		arr := Array()
		for _, s := range t {
			arr.Append(String(s))
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := Object()
		for _, k := range keys {
			n, err := FromValue(t[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, n)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// MarshalJSON writes the tree with object keys in declaration order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.writeJSON(&buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer, stack []*Node) error {
	switch n.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(n.Bool()))
	case KindNumber:
		buf.WriteString(n.jsonNumber())
	case KindString:
		b, err := json.Marshal(n.scalar)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray, KindObject:
		if slices.Contains(stack, n) {
			return ErrCyclic
		}
		stack = append(stack, n)
		if n.kind == KindArray {
			buf.WriteByte('[')
			for i, it := range n.items {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := it.writeJSON(buf, stack); err != nil {
					return err
				}
			}
			buf.WriteByte(']')
			return nil
		}
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := n.fields[k].writeJSON(buf, stack); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// jsonNumber normalizes YAML number spellings (0x1f, 1_000, .inf) to JSON.
func (n *Node) jsonNumber() string {
	if json.Valid([]byte(n.scalar)) {
		return n.scalar
	}
	f, ok := n.Float()
	if !ok || math.IsInf(f, 0) || math.IsNaN(f) {
		return "null"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
