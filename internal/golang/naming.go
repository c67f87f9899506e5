package golang

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var commonInitialisms = map[string]bool{
	"API":   true,
	"ASCII": true,
	"CPU":   true,
	"CSS":   true,
	"DNS":   true,
	"EOF":   true,
	"GUID":  true,
	"HTML":  true,
	"HTTP":  true,
	"HTTPS": true,
	"ID":    true,
	"IP":    true,
	"JSON":  true,
	"LHS":   true,
	"QPS":   true,
	"RAM":   true,
	"RHS":   true,
	"RPC":   true,
	"SLA":   true,
	"SMTP":  true,
	"SQL":   true,
	"SSH":   true,
	"TCP":   true,
	"TLS":   true,
	"TTL":   true,
	"UDP":   true,
	"UI":    true,
	"UID":   true,
	"UUID":  true,
	"URI":   true,
	"URL":   true,
	"UTF8":  true,
	"VM":    true,
	"XML":   true,
	"XMPP":  true,
	"XSRF":  true,
	"XSS":   true,
	"CVV":   true,
}

// SetAdditionalInitialisms adds custom initialisms to the naming rules.
// This should be called once during initialization before generation.
func SetAdditionalInitialisms(initialisms []string) {
	for _, init := range initialisms {
		upper := strings.ToUpper(init)
		commonInitialisms[upper] = true
	}
}

func PascalCase(s string) string {
	words := splitWords(s)
	var result strings.Builder
	for _, word := range words {
		upper := strings.ToUpper(word)
		if commonInitialisms[upper] {
			result.WriteString(upper)
		} else {
			result.WriteString(capitalize(word))
		}
	}
	return result.String()
}

func CamelCase(s string) string {
	words := splitWords(s)
	var result strings.Builder
	for i, word := range words {
		if i == 0 {
			result.WriteString(strings.ToLower(word))
		} else {
			upper := strings.ToUpper(word)
			if commonInitialisms[upper] {
				result.WriteString(upper)
			} else {
				result.WriteString(capitalize(word))
			}
		}
	}
	return result.String()
}

func SnakeCase(s string) string {
	words := splitWords(s)
	for i, word := range words {
		words[i] = strings.ToLower(word)
	}
	return strings.Join(words, "_")
}

func splitWords(s string) []string {
	var words []string
	var current strings.Builder

	for i, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
			continue
		}

		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				if current.Len() > 0 {
					words = append(words, current.String())
					current.Reset()
				}
			}
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	rs := []rune(s)
	rs[0] = unicode.ToUpper(rs[0])
	for i := 1; i < len(rs); i++ {
		rs[i] = unicode.ToLower(rs[i])
	}
	return string(rs)
}

func ToGoIdentifier(s string) string {
	result := PascalCase(s)
	if len(result) == 0 {
		return "X"
	}
	first := rune(result[0])
	if unicode.IsDigit(first) {
		return "X" + result
	}
	return result
}

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

func EscapeKeyword(s string) string {
	if goKeywords[s] {
		return s + "_"
	}
	return s
}

var asciiFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldASCII strips diacritics so "déjà_vu" becomes "deja_vu". Runes that have
// no ASCII base letter are kept and later treated as word separators.
func FoldASCII(s string) string {
	out, _, err := transform.String(asciiFolder, s)
	if err != nil {
		return s
	}
	return out
}

// reservedParamNames collide with locals of generated request methods.
var reservedParamNames = map[string]bool{
	"c": true, "ctx": true, "req": true, "resp": true, "err": true,
	"body": true, "query": true, "path": true, "header": true,
	"payload": true, "out": true, "raw": true, "contentType": true,
}

// ParamName turns an OpenAPI parameter name into a lowerCamel Go identifier.
func ParamName(s string) string {
	name := CamelCase(asciiOnly(FoldASCII(s)))
	if name == "" {
		return "param"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "p" + name
	}
	if reservedParamNames[name] {
		return name + "Param"
	}
	return EscapeKeyword(name)
}

// TypeName turns a schema name into an exported Go identifier.
func TypeName(s string) string {
	return ToGoIdentifier(asciiOnly(FoldASCII(s)))
}

// OperationName returns the method name for an operation: the operationId when
// present, otherwise one built from the method and path, e.g.
// GET /pets/{petId} becomes GetPetsByPetID.
func OperationName(operationID, method, path string) string {
	if operationID != "" {
		return TypeName(operationID)
	}

	var sb strings.Builder
	sb.WriteString(PascalCase(strings.ToLower(method)))
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			sb.WriteString("By")
			sb.WriteString(PascalCase(seg[1 : len(seg)-1]))
			continue
		}
		sb.WriteString(PascalCase(asciiOnly(FoldASCII(seg))))
	}
	name := sb.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return "X" + name
	}
	return name
}

// Unique returns name, or name with the smallest numeric suffix from 2 up that
// is not yet in taken. The returned name is added to taken.
func Unique(name string, taken map[string]bool) string {
	candidate := name
	for i := 2; taken[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	taken[candidate] = true
	return candidate
}

func asciiOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '_'
		}
		return r
	}, s)
}
