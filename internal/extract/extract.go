// Package extract flattens the paths of a resolved document into an ordered
// list of operations.
package extract

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/kolah/clientgen/internal/golang"
	"github.com/kolah/clientgen/internal/model"
	"github.com/kolah/clientgen/internal/spec"
	"github.com/kolah/clientgen/internal/specerr"
)

type Option func(*options)

type options struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	logger      *slog.Logger
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags ...string) Option {
	return func(o *options) {
		o.includeTags = addTags(o.includeTags, tags)
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags ...string) Option {
	return func(o *options) {
		o.excludeTags = addTags(o.excludeTags, tags)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// methods maps path item keys to HTTP methods. Other keys of a path item
// (parameters, summary, servers, extensions) are not operations.
var methods = map[string]model.Method{
	"get":     model.MethodGet,
	"put":     model.MethodPut,
	"post":    model.MethodPost,
	"delete":  model.MethodDelete,
	"options": model.MethodOptions,
	"head":    model.MethodHead,
	"patch":   model.MethodPatch,
	"trace":   model.MethodTrace,
	"query":   model.MethodQuery, // OpenAPI 3.2
}

type extractor struct {
	opts  options
	names map[string]bool
}

// Operations returns one operation per path and method of doc, in declaration
// order: paths as declared, then methods as declared within each path. doc is
// expected to be resolved; parameter and body refs that are still present are
// skipped.
func Operations(doc *spec.Node, opts ...Option) ([]model.Operation, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	paths := doc.Get("paths")
	if paths == nil || paths.Kind() == spec.KindNull {
		return []model.Operation{}, nil
	}
	if !paths.IsObject() {
		return nil, &specerr.ShapeError{Location: "paths", Message: "expected an object, got " + paths.Kind().String()}
	}

	e := &extractor{opts: o, names: make(map[string]bool)}
	ops := []model.Operation{}
	for url, item := range paths.Pairs() {
		if !item.IsObject() {
			o.logger.Warn("skipping path item that is not an object", "path", url)
			continue
		}
		shared := item.Get("parameters")
		for key, raw := range item.Pairs() {
			method, ok := methods[strings.ToLower(key)]
			if !ok {
				continue
			}
			if !raw.IsObject() {
				o.logger.Warn("skipping operation that is not an object", "path", url, "method", key)
				continue
			}
			tags := raw.Get("tags").StringList()
			if !e.allowed(tags) {
				o.logger.Debug("operation filtered by tags", "path", url, "method", key, "tags", tags)
				continue
			}
			ops = append(ops, e.operation(method, url, raw, shared))
		}
	}
	return ops, nil
}

func (e *extractor) allowed(tags []string) bool {
	if len(e.opts.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := e.opts.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := e.opts.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

func (e *extractor) operation(method model.Method, url string, raw, shared *spec.Node) model.Operation {
	name := golang.OperationName(raw.Get("operationId").Str(), string(method), url)
	op := model.Operation{
		Name:        golang.Unique(name, e.names),
		Method:      method,
		URL:         url,
		Summary:     raw.Get("summary").Str(),
		Description: raw.Get("description").Str(),
		Tags:        raw.Get("tags").StringList(),
		Deprecated:  raw.Get("deprecated").Bool(),
	}

	taken := make(map[string]bool)
	for _, p := range mergeParams(shared, raw.Get("parameters")) {
		param, ok := e.param(p, taken)
		if !ok {
			continue
		}
		if param.In == model.LocationHeader {
			op.Headers = append(op.Headers, param)
		} else {
			op.Parameters = append(op.Parameters, param)
		}
	}

	op.Body = e.body(raw.Get("requestBody"))

	status, resp := successResponse(raw.Get("responses"))
	op.ResponseStatus = status
	if mediaType, schema, ok := firstSchema(resp.Get("content")); ok {
		op.ResponseMediaType = mediaType
		op.ResponseSchema = schema
		op.ReturnType = golang.GoType(schema)
	}
	return op
}

// mergeParams joins path level and operation level parameters. An operation
// parameter with the same location and name replaces the path level one in
// place; new ones are appended in declaration order.
func mergeParams(shared, own *spec.Node) []*spec.Node {
	var out []*spec.Node
	index := make(map[string]int)
	add := func(list *spec.Node) {
		for _, p := range list.Items() {
			if !p.IsObject() {
				continue
			}
			key := p.Get("in").Str() + ":" + p.Get("name").Str()
			if i, ok := index[key]; ok {
				out[i] = p
				continue
			}
			index[key] = len(out)
			out = append(out, p)
		}
	}
	add(shared)
	add(own)
	return out
}

func (e *extractor) param(p *spec.Node, taken map[string]bool) (model.Param, bool) {
	original := p.Get("name").Str()
	in := model.ParameterLocation(p.Get("in").Str())
	switch in {
	case model.LocationPath, model.LocationQuery, model.LocationHeader:
	case model.LocationCookie:
		e.opts.logger.Debug("skipping cookie parameter", "name", original)
		return model.Param{}, false
	default:
		if ref, ok := p.Ref(); ok {
			e.opts.logger.Warn("skipping unexpanded parameter reference", "ref", ref)
		} else {
			e.opts.logger.Warn("skipping parameter with unsupported location", "name", original, "in", string(in))
		}
		return model.Param{}, false
	}
	if original == "" {
		e.opts.logger.Warn("skipping parameter without a name", "in", string(in))
		return model.Param{}, false
	}

	schema := paramSchema(p)
	required := p.Get("required").Bool() || in == model.LocationPath

	return model.Param{
		Name:         golang.Unique(golang.ParamName(original), taken),
		OriginalName: original,
		In:           in,
		Type:         golang.GoType(schema),
		Optional:     !required,
		Value:        paramValue(p, schema),
		Schema:       schema,
		Original:     p,
	}, true
}

// paramSchema returns the schema of a parameter. Parameters described with
// content use the schema of their first media type; Swagger 2 style
// parameters carry the type on the parameter itself.
func paramSchema(p *spec.Node) *spec.Node {
	if s := p.Get("schema"); s.IsObject() {
		return s
	}
	if _, s, ok := firstSchema(p.Get("content")); ok {
		return s
	}
	if p.Has("type") {
		return p
	}
	return nil
}

// paramValue is the schema default, else the parameter example, else the
// schema example.
func paramValue(p, schema *spec.Node) any {
	for _, v := range []*spec.Node{schema.Get("default"), p.Get("example"), schema.Get("example")} {
		if v != nil {
			return v.Value()
		}
	}
	return nil
}

func (e *extractor) body(rb *spec.Node) *model.Body {
	if !rb.IsObject() {
		return nil
	}
	content := rb.Get("content")
	if content.Kind() != spec.KindNull && !content.IsObject() {
		e.opts.logger.Warn("skipping request body content that is not an object", "kind", content.Kind().String())
		return nil
	}
	if content.Len() == 0 {
		if ref, ok := rb.Ref(); ok {
			e.opts.logger.Warn("skipping unexpanded request body reference", "ref", ref)
		}
		return nil
	}
	mediaType := content.Keys()[0]
	schema := content.Get(mediaType).Get("schema")
	return &model.Body{
		MediaType: mediaType,
		Required:  rb.Get("required").Bool(),
		Type:      golang.GoType(schema),
		Schema:    schema,
	}
}

// successResponse picks the response describing the success payload: the
// numerically lowest literal 2xx code, else the 2XX range, else default.
func successResponse(responses *spec.Node) (string, *spec.Node) {
	best := -1
	for code := range responses.Pairs() {
		if len(code) != 3 || code[0] != '2' {
			continue
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			continue
		}
		if best < 0 || n < best {
			best = n
		}
	}
	if best >= 0 {
		code := strconv.Itoa(best)
		return code, responses.Get(code)
	}
	for _, code := range []string{"2XX", "2xx", "default"} {
		if r := responses.Get(code); r != nil {
			return code, r
		}
	}
	return "", nil
}

// firstSchema returns the first media type of content that has a schema.
func firstSchema(content *spec.Node) (string, *spec.Node, bool) {
	for mediaType, mt := range content.Pairs() {
		if s := mt.Get("schema"); s.IsObject() {
			return mediaType, s, true
		}
	}
	return "", nil, false
}
