package golang

import (
	"strconv"
	"strings"
	"text/template"
)

// TemplateFuncs returns the functions available to client templates,
// including user supplied ones.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"pascalCase":    PascalCase,
		"camelCase":     CamelCase,
		"snakeCase":     SnakeCase,
		"typeName":      TypeName,
		"paramName":     ParamName,
		"goComment":     GoComment,
		"quote":         strconv.Quote,
		"lower":         strings.ToLower,
		"upper":         strings.ToUpper,
		"join":          strings.Join,
		"hasPrefix":     strings.HasPrefix,
		"hasSuffix":     strings.HasSuffix,
		"trimPrefix":    strings.TrimPrefix,
		"trimSuffix":    strings.TrimSuffix,
		"dict":          Dict,
		"statusCodeInt": StatusCodeInt,
	}
}

// Dict creates a map from key-value pairs for use in templates.
func Dict(values ...any) map[string]any {
	if len(values)%2 != 0 {
		return nil
	}
	dict := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		dict[key] = values[i+1]
	}
	return dict
}

func GoComment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}
		result.WriteString("// ")
		result.WriteString(strings.TrimSpace(line))
	}
	return result.String()
}

// StatusCodeInt converts an HTTP status code string to int. Range codes such
// as 2XX map to their lowest member; default maps to 0.
func StatusCodeInt(code string) int {
	if len(code) == 3 && (strings.HasSuffix(code, "XX") || strings.HasSuffix(code, "xx")) {
		if n, err := strconv.Atoi(code[:1]); err == nil {
			return n * 100
		}
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0
	}
	return n
}
