// Package naming converts model field paths into GraphQL-visible names.
// Relation paths use "__" as the separator ("author__name"); the generated
// argument names are camelCase with an optional lookup suffix.
package naming

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// PathSeparator separates relation hops in a filter or ordering field path.
const PathSeparator = "__"

// ToFieldName converts a snake_case model name to a camelCase GraphQL field.
// Example: "created_at" -> "createdAt".
func ToFieldName(name string) string {
	return toCamelCase(name)
}

// ToTypeName converts a model name to a PascalCase GraphQL type name.
// Example: "user_profile" -> "UserProfile".
func ToTypeName(name string) string {
	camel := toCamelCase(name)
	if camel == "" {
		return camel
	}
	return strings.ToUpper(camel[:1]) + camel[1:]
}

// ArgumentName renders a (field path, lookup) pair as a GraphQL argument name.
// Path hops are camelCased and concatenated; the default "exact" lookup carries
// no suffix, every other lookup is appended after an underscore.
// Examples:
//
//	("name", "exact")            -> "name"
//	("name", "icontains")        -> "name_Icontains"
//	("author__name", "iexact")   -> "authorName_Iexact"
func ArgumentName(fieldPath, lookupName string) string {
	base := pathToArgument(fieldPath)
	if lookupName == "" || lookupName == "exact" {
		return base
	}
	return base + "_" + ToTypeName(lookupName)
}

// Pluralize returns the plural form of a field name, used for list query
// field names ("user" -> "users").
func Pluralize(word string) string {
	return inflection.Plural(word)
}

// Singularize returns the singular form of a name.
func Singularize(word string) string {
	return inflection.Singular(word)
}

func pathToArgument(fieldPath string) string {
	hops := strings.Split(fieldPath, PathSeparator)
	parts := make([]string, 0, len(hops))
	for _, hop := range hops {
		if hop == "" {
			continue
		}
		parts = append(parts, hop)
	}
	if len(parts) == 0 {
		return ""
	}
	out := toCamelCase(parts[0])
	for _, part := range parts[1:] {
		out += ToTypeName(part)
	}
	return out
}

func toCamelCase(name string) string {
	tokens := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(tokens[0][:1]) + tokens[0][1:])
	for _, token := range tokens[1:] {
		b.WriteString(strings.ToUpper(token[:1]) + token[1:])
	}
	return b.String()
}
