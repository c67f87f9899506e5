package model

import "github.com/kolah/clientgen/internal/spec"

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodQuery   Method = "QUERY"
)

type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
)

// Operation is one HTTP method on one path, normalized for code generation.
// It is created once by the extractor and not modified afterwards.
type Operation struct {
	Name        string
	Method      Method
	URL         string // path template, placeholders such as {id} kept
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool

	// Parameters holds path and query parameters, Headers the header ones.
	Parameters []Param
	Headers    []Param

	// Body is nil when the operation takes no request body.
	Body *Body

	// ReturnType is the Go type of the success payload, "" when there is none.
	ReturnType        string
	ResponseSchema    *spec.Node
	ResponseStatus    string
	ResponseMediaType string
}

type Body struct {
	MediaType string
	Required  bool
	Type      string
	Schema    *spec.Node
}

// Param is a path, query or header parameter.
type Param struct {
	// Name is the Go identifier derived from OriginalName.
	Name         string
	OriginalName string
	In           ParameterLocation
	Type         string
	Optional     bool
	// Value is the default or example value, nil when the document has none.
	Value any
	// Schema is the schema fragment the type was derived from, nil when the
	// parameter has none.
	Schema *spec.Node
	// Original is the parameter object the param was built from.
	Original *spec.Node
}

// PathParams returns the parameters substituted into the URL template.
func (o *Operation) PathParams() []Param {
	return o.paramsIn(LocationPath)
}

// QueryParams returns the parameters sent in the query string.
func (o *Operation) QueryParams() []Param {
	return o.paramsIn(LocationQuery)
}

func (o *Operation) paramsIn(loc ParameterLocation) []Param {
	var out []Param
	for _, p := range o.Parameters {
		if p.In == loc {
			out = append(out, p)
		}
	}
	return out
}

// Schemas returns the schema fragments the operation refers to: parameter
// schemas, the body schema and the response schema.
func (o *Operation) Schemas() []*spec.Node {
	var out []*spec.Node
	for _, group := range [][]Param{o.Parameters, o.Headers} {
		for _, p := range group {
			if p.Schema != nil {
				out = append(out, p.Schema)
			}
		}
	}
	if o.Body != nil && o.Body.Schema != nil {
		out = append(out, o.Body.Schema)
	}
	if o.ResponseSchema != nil {
		out = append(out, o.ResponseSchema)
	}
	return out
}
