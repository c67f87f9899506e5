// Package resolver expands internal $ref pointers of a document tree in place.
//
// Every object or array is expanded at most once per Resolve call: a memo keyed
// by node identity maps each visited node to its replacement. Cyclic reference
// graphs therefore terminate, and a subtree shared by several ref sites is
// expanded once and shared by all of them. The memo lives only for the duration
// of one call.
package resolver

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/kolah/clientgen/internal/spec"
	"github.com/kolah/clientgen/internal/specerr"
)

type Option func(*options)

type options struct {
	ignorePrefix string
	logger       *slog.Logger
}

// WithIgnorePrefix leaves every $ref starting with prefix unexpanded, e.g.
// "#/components/schemas/" to keep component schemas as named types.
func WithIgnorePrefix(prefix string) Option {
	return func(o *options) { o.ignorePrefix = prefix }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type resolver struct {
	root *spec.Node
	opts options
	// done maps a visited node to the node that replaces it. Non-ref nodes
	// map to themselves.
	done map[*spec.Node]*spec.Node
}

// Resolve expands the references of doc. Containers are rewritten in place, so
// the returned node is doc itself unless the root carries a $ref. Targets are
// looked up from the root of doc. Resolution stops at the first malformed or
// dangling pointer.
func Resolve(doc *spec.Node, opts ...Option) (*spec.Node, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	r := &resolver{
		root: doc,
		opts: o,
		done: make(map[*spec.Node]*spec.Node),
	}
	return r.resolve(doc)
}

func (r *resolver) ignored(ref string) bool {
	return r.opts.ignorePrefix != "" && strings.HasPrefix(ref, r.opts.ignorePrefix)
}

func (r *resolver) resolve(n *spec.Node) (*spec.Node, error) {
	switch n.Kind() {
	case spec.KindArray:
		if out, ok := r.done[n]; ok {
			return out, nil
		}
		r.done[n] = n
		for i, it := range n.Items() {
			v, err := r.resolve(it)
			if err != nil {
				return nil, err
			}
			n.SetItem(i, v)
		}
		return n, nil

	case spec.KindObject:
		if out, ok := r.done[n]; ok {
			return out, nil
		}

		if v := n.Get(spec.RefKey); v != nil && v.Kind() != spec.KindString {
			return nil, &specerr.ReferenceError{
				Ref:       fmt.Sprint(v.Value()),
				Malformed: true,
				Message:   "$ref must be a string, got " + v.Kind().String(),
			}
		}

		out := n
		if ref, ok := n.Ref(); ok && !r.ignored(ref) {
			expanded, err := r.expand(n, ref)
			if err != nil {
				return nil, err
			}
			if !expanded.IsObject() {
				r.done[n] = expanded
				return r.resolve(expanded)
			}
			out = expanded
		}

		// Marked before descending so self references see the node being built.
		r.done[n] = out
		r.done[out] = out

		for k, v := range out.Pairs() {
			rv, err := r.resolve(v)
			if err != nil {
				return nil, err
			}
			if rv != v {
				out.Set(k, rv)
			}
		}
		return out, nil

	default:
		return n, nil
	}
}

// expand follows the ref chain starting at n and merges the layers into a new
// node: the final target's fields first, each referring layer overriding them.
func (r *resolver) expand(n *spec.Node, ref string) (*spec.Node, error) {
	layers := []*spec.Node{n}
	seen := map[string]bool{ref: true}
	keepRef := false

	for {
		target, err := r.lookup(ref)
		if err != nil {
			return nil, err
		}
		r.opts.logger.Debug("expanding reference", "ref", ref)

		if !target.IsObject() {
			if siblingCount(layers) > 0 {
				r.opts.logger.Warn("dropping fields next to reference to non-object",
					"ref", ref, "kind", target.Kind().String())
			}
			return target, nil
		}
		layers = append(layers, target)

		next, ok := target.Ref()
		if !ok {
			break
		}
		if r.ignored(next) {
			keepRef = true
			break
		}
		if seen[next] {
			r.opts.logger.Debug("cyclic reference chain", "ref", next)
			break
		}
		seen[next] = true
		ref = next
	}

	return merge(layers, keepRef), nil
}

// merge builds a fresh object from layers, outermost first in the slice. The
// deepest layer supplies the base fields and key order; shallower layers
// override values in place and append their extra keys.
func merge(layers []*spec.Node, keepRef bool) *spec.Node {
	out := spec.Object()
	deepest := len(layers) - 1
	for i := deepest; i >= 0; i-- {
		for k, v := range layers[i].Pairs() {
			if k == spec.RefKey && !(keepRef && i == deepest) {
				continue
			}
			out.Set(k, v)
		}
	}
	return out
}

func siblingCount(layers []*spec.Node) int {
	count := 0
	for _, l := range layers {
		count += l.Len()
		if l.Has(spec.RefKey) {
			count--
		}
	}
	return count
}

// lookup walks an internal pointer of the form #/a/b/c from the root.
func (r *resolver) lookup(ref string) (*spec.Node, error) {
	parts := strings.Split(ref, "/")
	if parts[0] != "#" || len(parts) < 2 || parts[1] == "" {
		return nil, &specerr.ReferenceError{
			Ref:       ref,
			Malformed: true,
			Message:   "only internal references of the form '#/path/to/ref' are supported",
		}
	}

	cur := r.root
	for _, raw := range parts[1:] {
		seg := unescape(raw)
		var next *spec.Node
		switch cur.Kind() {
		case spec.KindObject:
			next = cur.Get(seg)
		case spec.KindArray:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 {
				return nil, &specerr.ReferenceError{Ref: ref, Segment: seg, Message: "invalid array index"}
			}
			next = cur.Item(idx)
		default:
			return nil, &specerr.ReferenceError{
				Ref:     ref,
				Segment: seg,
				Message: "cannot descend into " + cur.Kind().String(),
			}
		}
		if next == nil {
			return nil, &specerr.ReferenceError{Ref: ref, Segment: seg, Message: "not found"}
		}
		cur = next
	}
	return cur, nil
}

// unescape decodes a pointer segment: percent-encoding of the URI fragment,
// then the JSON Pointer escapes ~1 and ~0.
func unescape(seg string) string {
	if s, err := url.PathUnescape(seg); err == nil {
		seg = s
	}
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}
