// Package ordering parses and validates ordering expressions. A client
// expression is a comma-separated list of field paths, each optionally
// prefixed with "-" for descending order. Configuration defaults may be
// declared as a string or a sequence; both normalize to the same Spec.
package ordering

import (
	"fmt"
	"strings"

	"gql-listkit/internal/collection"
	"gql-listkit/internal/model"
	"gql-listkit/internal/qerr"
)

// Term is one directional sort key.
type Term struct {
	Field string // field path, possibly a relation path
	Desc  bool
}

// Spec is an ordered sequence of sort keys; the first term is the primary key
// of the sort.
type Spec []Term

// String renders the spec back into expression form.
func (s Spec) String() string {
	tokens := make([]string, len(s))
	for i, term := range s {
		if term.Desc {
			tokens[i] = "-" + term.Field
		} else {
			tokens[i] = term.Field
		}
	}
	return strings.Join(tokens, ",")
}

// Parse converts a client-supplied expression into a Spec. Whitespace around
// tokens is trimmed and empty tokens are dropped. A field repeated with
// conflicting directions is rejected; an identical repeat is deduplicated.
func Parse(raw string) (Spec, error) {
	var spec Spec
	seen := make(map[string]bool)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		term := Term{Field: token}
		if strings.HasPrefix(token, "-") {
			term = Term{Field: strings.TrimSpace(token[1:]), Desc: true}
		}
		if term.Field == "" {
			return nil, qerr.Validationf("ordering", raw, "empty field name in ordering expression")
		}
		if desc, ok := seen[term.Field]; ok {
			if desc != term.Desc {
				return nil, qerr.Validationf("ordering", raw, "field %q ordered in conflicting directions", term.Field)
			}
			continue
		}
		seen[term.Field] = term.Desc
		spec = append(spec, term)
	}
	return spec, nil
}

// Normalize converts a configuration default-ordering value into a Spec.
// Accepted forms: "", "name,-created", []string{"name", "-created"},
// []interface{} of strings, or an existing Spec. String and sequence forms
// of the same ordering produce identical specs.
func Normalize(value interface{}) (Spec, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case Spec:
		return append(Spec(nil), v...), nil
	case string:
		spec, err := Parse(v)
		if err != nil {
			return nil, qerr.Configf("invalid default ordering %q: %v", v, err)
		}
		return spec, nil
	case []string:
		return Normalize(strings.Join(v, ","))
	case []interface{}:
		tokens := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, qerr.Configf("default ordering entries must be strings, got %T", item)
			}
			tokens = append(tokens, s)
		}
		return Normalize(strings.Join(tokens, ","))
	default:
		return nil, qerr.Configf("unsupported default ordering type %T", value)
	}
}

// Resolve validates every term against the entity (traversing relation paths
// through the registry) and returns backend order terms. Unknown fields are a
// request-time validation error naming the offending token.
func (s Spec) Resolve(e *model.Entity, reg *model.Registry) ([]collection.OrderTerm, error) {
	terms := make([]collection.OrderTerm, 0, len(s))
	for _, term := range s {
		path, err := e.ResolvePath(term.Field, reg)
		if err != nil {
			return nil, qerr.Validationf("ordering", term.Field, "unknown ordering field")
		}
		if path.Field.NotOrderable {
			return nil, qerr.Validationf("ordering", term.Field, "field is not orderable")
		}
		terms = append(terms, collection.OrderTerm{Path: path, Desc: term.Desc})
	}
	return terms, nil
}

// Equal reports whether two specs contain the same terms in the same order.
func (s Spec) Equal(other Spec) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// MustNormalize is Normalize for statically-known configuration values; it
// panics on error and is intended for package-level defaults in callers.
func MustNormalize(value interface{}) Spec {
	spec, err := Normalize(value)
	if err != nil {
		panic(fmt.Sprintf("ordering: %v", err))
	}
	return spec
}
