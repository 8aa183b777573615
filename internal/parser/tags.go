package parser

import (
	"go/ast"
	"reflect"
	"strings"
)

const (
	directivePrefix = "//projgen:"
	tagKey          = "projgen"
)

// TagFilter excludes a field when the struct tag Key contains Value.
type TagFilter struct {
	Key   string
	Value string
}

// directive is one //projgen:<name> k=v ... line.
type directive struct {
	name   string
	params map[string]string
}

// parseDirectives reads projgen directives from doc comments. Directive
// lines are dropped by CommentGroup.Text, so the raw list is scanned.
func parseDirectives(groups ...*ast.CommentGroup) []directive {
	var out []directive
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if !strings.HasPrefix(c.Text, directivePrefix) {
				continue
			}
			words := strings.Fields(strings.TrimPrefix(c.Text, directivePrefix))
			if len(words) == 0 {
				continue
			}
			d := directive{name: words[0], params: make(map[string]string)}
			for _, w := range words[1:] {
				k, v, ok := strings.Cut(w, "=")
				if !ok {
					v = "true"
				}
				d.params[k] = v
			}
			out = append(out, d)
		}
	}
	return out
}

func commentText(cg *ast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	return strings.TrimSpace(cg.Text())
}

// tagPair is one key:"value" entry of a struct tag, in declaration order.
type tagPair struct {
	key, value string
}

// structTagPairs splits a struct tag into its key/value pairs, keeping order.
func structTagPairs(tag reflect.StructTag) []tagPair {
	var out []tagPair
	raw := strings.TrimSpace(string(tag))
	for raw != "" {
		parts := strings.SplitN(raw, ":\"", 2)
		if len(parts) != 2 {
			break
		}
		key := strings.TrimSpace(parts[0])
		rest := parts[1]
		end := closingQuote(rest)
		if end < 0 {
			break
		}
		if v, ok := tag.Lookup(key); ok {
			out = append(out, tagPair{key: key, value: v})
		}
		raw = strings.TrimSpace(rest[end+1:])
	}
	return out
}

func closingQuote(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// containsTagPart splits a tag value on common delimiters and reports whether
// any fragment matches the expected value.
func containsTagPart(tagVal, expected string) bool {
	if tagVal == "" {
		return false
	}
	for _, part := range tagParts(tagVal) {
		if part == expected {
			return true
		}
	}
	return false
}

func tagParts(tagVal string) []string {
	parts := strings.FieldsFunc(tagVal, func(r rune) bool {
		return r == ';' || r == ','
	})
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// fieldOptions is the parsed projgen tag of a field.
type fieldOptions struct {
	omit          bool
	final         bool
	skipNullCheck bool
	constant      *string
	layout        string
}

func parseFieldOptions(tag reflect.StructTag) fieldOptions {
	var o fieldOptions
	v, ok := tag.Lookup(tagKey)
	if !ok {
		return o
	}
	for _, part := range tagParts(v) {
		switch {
		case part == "-":
			o.omit = true
		case part == "final":
			o.final = true
		case strings.EqualFold(part, "skipnullcheck"):
			o.skipNullCheck = true
		case strings.HasPrefix(part, "default="):
			c := strings.TrimPrefix(part, "default=")
			o.constant = &c
		case strings.HasPrefix(part, "layout="):
			o.layout = strings.TrimPrefix(part, "layout=")
		}
	}
	return o
}

// excludedByTag reports whether any filter matches tag.
func excludedByTag(tag reflect.StructTag, filters []TagFilter) bool {
	for _, f := range filters {
		if v, ok := tag.Lookup(f.Key); ok && containsTagPart(v, f.Value) {
			return true
		}
	}
	return false
}

// isTagEmbedded checks well-known inline markers on a named struct field.
func isTagEmbedded(tag reflect.StructTag) bool {
	for _, f := range []TagFilter{
		{Key: "gorm", Value: "embedded"},
		{Key: "db", Value: "embedded"},
		{Key: "json", Value: "inline"},
		{Key: "yaml", Value: "inline"},
		{Key: "mapstructure", Value: "squash"},
	} {
		if v, ok := tag.Lookup(f.Key); ok && containsTagPart(v, f.Value) {
			return true
		}
	}
	return false
}

// isGormReadOnly reports columns clients must not write: read-only,
// create-only and primary keys.
func isGormReadOnly(tag reflect.StructTag) bool {
	raw := tag.Get("gorm")
	if raw == "" {
		return false
	}
	for _, part := range strings.Split(raw, ";") {
		switch strings.TrimSpace(part) {
		case "->", "<-:create", "primaryKey":
			return true
		}
	}
	return false
}
