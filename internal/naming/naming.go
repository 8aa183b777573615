// Package naming converts identifiers into wire keys and derives the Go
// identifiers used by generated views.
package naming

import (
	"fmt"
	"go/token"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jinzhu/inflection"
)

// Policy is a case convention for wire keys. The zero value is SnakeCase.
type Policy int

const (
	SnakeCase Policy = iota
	CamelCase
	UpperSnakeCase
	LowerSnakeCase
	KebabCase
	LowerKebabCase
	UpperKebabCase
	None
)

var policyNames = map[Policy]string{
	SnakeCase:      "snake",
	CamelCase:      "camel",
	UpperSnakeCase: "upper_snake",
	LowerSnakeCase: "lower_snake",
	KebabCase:      "kebab",
	LowerKebabCase: "lower_kebab",
	UpperKebabCase: "upper_kebab",
	None:           "none",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy accepts the short names ("camel", "upper_snake", ...) as well as
// the constant spellings ("CamelCase", "UPPER_SNAKE_CASE"). An empty string
// yields SnakeCase.
func ParsePolicy(s string) (Policy, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	key = strings.TrimSuffix(key, "case")
	if key == "" {
		return SnakeCase, nil
	}
	for p, name := range policyNames {
		if strings.ReplaceAll(name, "_", "") == key {
			return p, nil
		}
	}
	return SnakeCase, fmt.Errorf("unknown naming policy %q", s)
}

var (
	acronymBoundary = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	wordBoundary    = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	separated       = regexp.MustCompile(`[_-]+([A-Za-z0-9])`)
)

func words(s string) string {
	s = acronymBoundary.ReplaceAllString(s, "${1}_${2}")
	s = wordBoundary.ReplaceAllString(s, "${1}_${2}")
	return strings.ReplaceAll(s, "-", "_")
}

// Convert maps identifier to its wire key under p.
func Convert(identifier string, p Policy) string {
	switch p {
	case None:
		return identifier
	case CamelCase:
		s := strings.TrimLeft(strings.ToLower(words(identifier)), "_")
		return separated.ReplaceAllStringFunc(s, func(m string) string {
			return strings.ToUpper(strings.TrimLeft(m, "_-"))
		})
	case UpperSnakeCase:
		return strings.ToUpper(words(identifier))
	case KebabCase, LowerKebabCase:
		return strings.ReplaceAll(strings.ToLower(words(identifier)), "_", "-")
	case UpperKebabCase:
		return strings.ReplaceAll(strings.ToUpper(words(identifier)), "_", "-")
	default:
		return strings.ToLower(words(identifier))
	}
}

// initialisms are upper-cased whole when they make up the entire name.
var initialisms = map[string]bool{
	"id": true, "ip": true, "url": true, "uri": true, "uuid": true, "api": true,
	"sql": true, "json": true, "xml": true, "html": true, "http": true,
}

// Exported upper-cases the first rune of name, or all of it when name is a
// common initialism such as id.
func Exported(name string) string {
	if initialisms[name] {
		return strings.ToUpper(name)
	}
	r, n := utf8.DecodeRuneInString(name)
	if n == 0 {
		return name
	}
	return string(unicode.ToUpper(r)) + name[n:]
}

// Unexported lower-cases the leading word of name, treating a leading
// initialism as one word: ID -> id, URLPath -> urlPath, Email -> email.
// Keywords get a trailing underscore.
func Unexported(name string) string {
	runes := []rune(name)
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	switch {
	case i == 0:
	case i == len(runes) || i == 1:
		for j := 0; j < i; j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
	default:
		for j := 0; j < i-1; j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
	}
	out := string(runes)
	if token.IsKeyword(out) {
		out += "_"
	}
	return out
}

func Getter(base string) string   { return "Get" + base }
func GetterOr(base string) string { return "Get" + base + "Or" }
func Setter(base string) string   { return "Set" + base }
func Has(base string) string      { return "Has" + base }
func Clear(base string) string    { return "Clear" + base }

// Singular returns an unexported singular variable name for a collection
// field, e.g. Groups -> group.
func Singular(base string) string {
	s := Unexported(inflection.Singular(base))
	if s == "" || s == "v" || s == "from" {
		return "item"
	}
	return s
}

// FileName returns the generated file name for a view type.
func FileName(view, suffix string) string {
	return Convert(view, SnakeCase) + suffix
}
