package codegen

import (
	"fmt"
	"strings"

	"github.com/kolah/clientgen/internal/golang"
	"github.com/kolah/clientgen/internal/model"
	"github.com/kolah/clientgen/internal/spec"
)

type templateData struct {
	Package    string
	ClientName string
	BaseURL    string
	Title      string
	Version    string
	Operations []operationData
	Types      []typeData
}

type operationData struct {
	Name         string
	Method       string
	Path         string
	Summary      string
	Description  string
	Deprecated   bool
	PathParams   []parameterData
	QueryParams  []parameterData
	HeaderParams []parameterData
	Body         *bodyData
	Response     *responseData
}

// Args lists the method arguments after ctx, in declaration order.
func (o operationData) Args() []parameterData {
	var args []parameterData
	args = append(args, o.PathParams...)
	args = append(args, o.QueryParams...)
	args = append(args, o.HeaderParams...)
	return args
}

// ReturnPrefix is what precedes the error in an early return statement.
func (o operationData) ReturnPrefix() string {
	if o.Response != nil {
		return "out, "
	}
	return ""
}

// Parameter modes select how a value is written into the request.
const (
	modeValue   = "value"   // always set
	modePointer = "pointer" // set when non-nil, dereferenced
	modeNilable = "nilable" // set when non-nil
	modeSlice   = "slice"   // one entry per element
	modeJSON    = "json"    // JSON encoded, set when non-nil
)

type parameterData struct {
	Name     string
	GoName   string
	ArgType  string
	Required bool
	Mode     string
	Nilable  bool
	Doc      string
}

type bodyData struct {
	GoName    string
	ArgType   string
	MediaType string
	Required  bool
	// Mode is one of json, form, text, multipart or reader.
	Mode    string
	Nilable bool
}

type responseData struct {
	Type      string
	MediaType string
	Status    string
	// Mode is one of json, text or bytes.
	Mode string
}

type typeData struct {
	Name        string
	SchemaName  string
	Description string
	// Kind is one of struct, enum, array or alias.
	Kind     string
	Underlay string
	Fields   []fieldData
	Embeds   []string
	Consts   []constData
}

type fieldData struct {
	Name string
	Type string
	Tag  string
	Doc  string
}

type constData struct {
	Name  string
	Value string
}

// clientIdentifiers are the package level names the client template declares
// besides the client type itself.
func clientIdentifiers(clientName string) []string {
	return []string{
		clientName,
		"New" + clientName,
		clientName + "Option",
		"RequestEditorFn",
		"WithBaseURL",
		"WithHTTPClient",
		"WithRequestEditorFn",
		"APIError",
	}
}

func newTemplateData(client *model.Client) (*templateData, error) {
	data := &templateData{
		Package:    client.Package,
		ClientName: client.Name,
		BaseURL:    client.BaseURL,
		Title:      client.Title,
		Version:    client.Version,
	}

	owner := make(map[string]string)
	for _, id := range clientIdentifiers(client.Name) {
		owner[id] = "the generated client"
	}

	if client.Types != nil {
		for name, def := range client.Types.All() {
			td := newTypeData(def)
			if other, ok := owner[td.Name]; ok {
				return nil, fmt.Errorf("type %s of schema %q collides with %s", td.Name, name, other)
			}
			owner[td.Name] = fmt.Sprintf("schema %q", name)
			for _, c := range td.Consts {
				if other, ok := owner[c.Name]; ok {
					return nil, fmt.Errorf("enum constant %s of schema %q collides with %s", c.Name, name, other)
				}
				owner[c.Name] = fmt.Sprintf("an enum constant of schema %q", name)
			}
			data.Types = append(data.Types, td)
		}
	}

	for _, op := range client.Operations {
		data.Operations = append(data.Operations, newOperationData(op))
	}
	return data, nil
}

func newOperationData(op model.Operation) operationData {
	od := operationData{
		Name:        op.Name,
		Method:      string(op.Method),
		Path:        op.URL,
		Summary:     op.Summary,
		Description: op.Description,
		Deprecated:  op.Deprecated,
	}

	for _, p := range op.Parameters {
		switch p.In {
		case model.LocationPath:
			pd := newParameterData(p)
			pd.Mode = modeValue
			pd.ArgType = p.Type
			od.PathParams = append(od.PathParams, pd)
		case model.LocationQuery:
			od.QueryParams = append(od.QueryParams, newParameterData(p))
		}
	}
	for _, p := range op.Headers {
		od.HeaderParams = append(od.HeaderParams, newParameterData(p))
	}

	if op.Body != nil {
		od.Body = newBodyData(op.Body)
	}
	if op.ReturnType != "" {
		od.Response = newResponseData(op)
	}
	return od
}

func newParameterData(p model.Param) parameterData {
	pd := parameterData{
		Name:     p.OriginalName,
		GoName:   p.Name,
		ArgType:  p.Type,
		Required: !p.Optional,
		Doc:      p.Original.Get("description").Str(),
	}
	if p.Value != nil {
		if pd.Doc != "" {
			pd.Doc += " "
		}
		pd.Doc += fmt.Sprintf("Default: %v.", p.Value)
	}

	typ := p.Type
	switch {
	case typ == "[]byte":
		pd.Mode = modeValue
		if !pd.Required {
			pd.Mode = modeNilable
		}
	case strings.HasPrefix(typ, "[]"):
		pd.Mode = modeSlice
	case strings.HasPrefix(typ, "map[") || typ == "any":
		pd.Mode = modeJSON
		pd.Nilable = true
	case strings.HasPrefix(typ, "struct"):
		pd.Mode = modeJSON
		if !pd.Required {
			pd.ArgType = "*" + typ
			pd.Nilable = true
		}
	default:
		pd.Mode = modeValue
		if !pd.Required {
			pd.Mode = modePointer
			pd.ArgType = "*" + typ
		}
	}
	return pd
}

func isJSONMediaType(mt string) bool {
	mt = strings.ToLower(mt)
	return mt == "application/json" || strings.HasSuffix(mt, "+json") || strings.Contains(mt, "/json")
}

func newBodyData(b *model.Body) *bodyData {
	bd := &bodyData{
		GoName:    "body",
		ArgType:   b.Type,
		MediaType: b.MediaType,
		Required:  b.Required,
	}
	mt := strings.ToLower(b.MediaType)
	switch {
	case mt == "application/x-www-form-urlencoded":
		bd.Mode = "form"
		bd.ArgType = "url.Values"
	case strings.HasPrefix(mt, "multipart/"):
		bd.Mode = "multipart"
		bd.ArgType = "io.Reader"
	case isJSONMediaType(mt):
		bd.Mode = "json"
		typ := b.Type
		nilable := typ == "any" || strings.HasPrefix(typ, "[]") || strings.HasPrefix(typ, "map[")
		if !b.Required && !nilable {
			bd.ArgType = "*" + typ
			nilable = true
		}
		bd.Nilable = nilable
	case strings.HasPrefix(mt, "text/") && b.Type == "string":
		bd.Mode = "text"
	default:
		bd.Mode = "reader"
		bd.ArgType = "io.Reader"
	}
	return bd
}

func newResponseData(op model.Operation) *responseData {
	rd := &responseData{
		Type:      op.ReturnType,
		MediaType: op.ResponseMediaType,
		Status:    op.ResponseStatus,
	}
	mt := strings.ToLower(op.ResponseMediaType)
	switch {
	case isJSONMediaType(mt) && op.ReturnType != "[]byte":
		rd.Mode = "json"
	case strings.HasPrefix(mt, "text/") && op.ReturnType == "string":
		rd.Mode = "text"
	default:
		rd.Mode = "bytes"
		rd.Type = "[]byte"
	}
	return rd
}

func newTypeData(def *model.TypeDefinition) typeData {
	td := typeData{
		Name:        golang.TypeName(def.Name),
		SchemaName:  def.Name,
		Description: def.Description,
	}

	switch {
	case def.IsEnum():
		td.Kind = "enum"
		td.Underlay = enumUnderlay(def)
		if td.Underlay == "" {
			td.Kind = "alias"
			td.Underlay = "any"
			return td
		}
		taken := make(map[string]bool)
		for _, e := range def.Enums {
			if !enumValueFits(td.Underlay, e.Value) {
				continue
			}
			td.Consts = append(td.Consts, constData{
				Name:  golang.Unique(td.Name+e.Name, taken),
				Value: golang.EnumLiteral(td.Underlay, e.Value),
			})
		}
	case def.Type == "array":
		td.Kind = "alias"
		td.Underlay = golang.DeclType(def)
	case len(def.Properties) > 0 || def.Schema.Has("allOf"):
		td.Kind = "struct"
		td.Fields, td.Embeds = structFields(def)
		if len(td.Fields) == 0 && len(td.Embeds) == 0 {
			td.Kind = "alias"
			td.Underlay = golang.DeclType(def)
		}
	default:
		td.Kind = "alias"
		td.Underlay = golang.DeclType(def)
	}
	return td
}

// enumUnderlay returns the basic type backing an enum, inferred from the
// values when the schema type is missing. "" means no constant can be
// declared.
func enumUnderlay(def *model.TypeDefinition) string {
	switch decl := golang.DeclType(def); decl {
	case "string", "bool", "int", "int32", "int64", "float32", "float64":
		return decl
	}
	for _, e := range def.Enums {
		switch e.Value.(type) {
		case string:
			return "string"
		case int64:
			return "int64"
		case float64:
			return "float64"
		case bool:
			return "bool"
		}
	}
	return ""
}

func enumValueFits(underlay string, v any) bool {
	switch v.(type) {
	case string:
		return underlay == "string"
	case bool:
		return underlay == "bool"
	case int64:
		return strings.HasPrefix(underlay, "int") || strings.HasPrefix(underlay, "float")
	case float64:
		return strings.HasPrefix(underlay, "float")
	default:
		return false
	}
}

// structFields lists the fields of an object type. Members of allOf that
// name another type are embedded; inline members contribute their fields.
func structFields(def *model.TypeDefinition) ([]fieldData, []string) {
	var fields []fieldData
	var embeds []string
	taken := make(map[string]bool)

	add := func(props *spec.Node, required map[string]struct{}) {
		for name, ps := range props.Pairs() {
			_, req := required[name]
			fields = append(fields, fieldData{
				Name: golang.Unique(golang.TypeName(name), taken),
				Type: golang.FieldType(ps, req),
				Tag:  golang.JSONTag(name, req),
				Doc:  ps.Get("description").Str(),
			})
		}
	}

	for _, member := range def.Schema.Get("allOf").Items() {
		if ref, ok := member.Ref(); ok {
			name := golang.RefToTypeName(ref)
			if name != "any" && !taken[name] {
				taken[name] = true
				embeds = append(embeds, name)
			}
			continue
		}
		add(member.Get("properties"), requiredOf(member))
	}

	for _, p := range def.Properties {
		req := def.IsRequired(p.Name)
		fields = append(fields, fieldData{
			Name: golang.Unique(golang.TypeName(p.Name), taken),
			Type: golang.FieldType(p.Schema, req),
			Tag:  golang.JSONTag(p.Name, req),
			Doc:  p.Schema.Get("description").Str(),
		})
	}
	return fields, embeds
}

func requiredOf(s *spec.Node) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range s.Get("required").StringList() {
		set[r] = struct{}{}
	}
	return set
}
