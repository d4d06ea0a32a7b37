// Package filterset compiles declarative filter specs into FilterSets:
// immutable objects that expose a GraphQL argument schema and apply validated
// client arguments as predicates over a collection. Invalid field names or
// lookup operators fail when the spec is compiled, never at request time.
package filterset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"

	"gql-listkit/internal/collection"
	"gql-listkit/internal/lookup"
	"gql-listkit/internal/model"
	"gql-listkit/internal/naming"
	"gql-listkit/internal/qerr"
)

// Spec maps a field path (possibly a relation path such as "author__name")
// to the lookup operators exposed for it.
type Spec map[string][]lookup.Lookup

// FromList builds a shorthand spec exposing only the exact lookup for each
// listed field path.
func FromList(fields []string) Spec {
	spec := make(Spec, len(fields))
	for _, field := range fields {
		spec[field] = []lookup.Lookup{lookup.Exact}
	}
	return spec
}

// Filterer validates and applies client filter arguments to a collection.
// The standard FilterSet implements it; collaborators may supply a fully
// custom implementation instead and the call sites cannot tell the
// difference.
type Filterer interface {
	// Entity returns the entity the filter set is bound to.
	Entity() *model.Entity
	// Arguments returns the GraphQL-visible argument schema.
	Arguments() map[string]*graphql.ArgumentConfig
	// Recognizes reports whether the named argument belongs to this filter.
	Recognizes(argName string) bool
	// Apply narrows the collection by the recognized subset of args.
	// Unrecognized keys are ignored; they belong to pagination or ordering.
	// Apply never executes the underlying query.
	Apply(ctx context.Context, col collection.Collection, args map[string]interface{}) (collection.Collection, error)
}

// Argument is one compiled filter argument.
type Argument struct {
	Name   string
	Path   *model.ResolvedPath
	Lookup lookup.Lookup
}

// FilterSet is the compiled form of a Spec, immutable after construction and
// shared across all queries of the declaring GraphQL field.
type FilterSet struct {
	entity      *model.Entity
	args        []Argument
	byName      map[string]Argument
	fingerprint string
}

var _ Filterer = (*FilterSet)(nil)

// New compiles a spec against the entity. Field paths are resolved through
// the registry; unknown fields or operators are configuration errors. The
// spec's canonical fingerprint is bound in the registry so two independently
// declared fields for one entity cannot diverge in filter semantics.
func New(entity *model.Entity, spec Spec, reg *model.Registry) (*FilterSet, error) {
	if entity == nil {
		return nil, qerr.Configf("filter set requires an entity")
	}

	paths := make([]string, 0, len(spec))
	for path := range spec {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	fs := &FilterSet{
		entity: entity,
		byName: make(map[string]Argument),
	}
	fingerprint := sha256.New()

	for _, fieldPath := range paths {
		resolved, err := entity.ResolvePath(fieldPath, reg)
		if err != nil {
			return nil, err
		}
		lookups := spec[fieldPath]
		if len(lookups) == 0 {
			return nil, qerr.Configf("filter field %q on entity %s declares no lookups", fieldPath, entity.Name)
		}
		for _, l := range lookups {
			if !lookup.Valid(l) {
				return nil, qerr.Configf("filter field %q on entity %s uses unknown lookup %q", fieldPath, entity.Name, l)
			}
			name := naming.ArgumentName(fieldPath, string(l))
			if _, dup := fs.byName[name]; dup {
				return nil, qerr.Configf("filter argument %q on entity %s declared twice", name, entity.Name)
			}
			arg := Argument{Name: name, Path: resolved, Lookup: l}
			fs.args = append(fs.args, arg)
			fs.byName[name] = arg
			_, _ = fmt.Fprintf(fingerprint, "%d:%s=%s|", len(fieldPath), fieldPath, l)
		}
	}

	fs.fingerprint = hex.EncodeToString(fingerprint.Sum(nil))
	if reg != nil {
		if err := reg.BindFilterFingerprint(entity.Name, fs.fingerprint); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Entity returns the bound entity.
func (fs *FilterSet) Entity() *model.Entity { return fs.entity }

// Fingerprint returns the canonical identity of the compiled spec.
func (fs *FilterSet) Fingerprint() string { return fs.fingerprint }

// ArgumentNames returns the recognized argument names, sorted.
func (fs *FilterSet) ArgumentNames() []string {
	names := make([]string, 0, len(fs.byName))
	for name := range fs.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Recognizes reports whether argName is one of the compiled filter arguments.
func (fs *FilterSet) Recognizes(argName string) bool {
	_, ok := fs.byName[argName]
	return ok
}

// Arguments renders the compiled arguments as a GraphQL argument schema.
func (fs *FilterSet) Arguments() map[string]*graphql.ArgumentConfig {
	out := make(map[string]*graphql.ArgumentConfig, len(fs.args))
	for _, arg := range fs.args {
		out[arg.Name] = &graphql.ArgumentConfig{
			Type:        argumentType(arg),
			Description: fmt.Sprintf("Filter by %s (%s)", strings.ReplaceAll(arg.Path.Path, naming.PathSeparator, "."), arg.Lookup),
		}
	}
	return out
}

// Apply narrows the collection by every supplied argument this filter set
// recognizes. It is a pure transformation: the returned collection is a new
// value and no query executes here.
func (fs *FilterSet) Apply(_ context.Context, col collection.Collection, args map[string]interface{}) (collection.Collection, error) {
	var preds []collection.Predicate
	// Deterministic application order keeps generated SQL stable.
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		arg, ok := fs.byName[name]
		if !ok {
			continue
		}
		value := args[name]
		if value == nil {
			continue
		}
		preds = append(preds, collection.Predicate{
			ArgName: name,
			Path:    arg.Path,
			Lookup:  arg.Lookup,
			Value:   value,
		})
	}
	if len(preds) == 0 {
		return col, nil
	}
	return col.Filter(preds)
}

func argumentType(arg Argument) graphql.Input {
	switch {
	case lookup.BoolValued(arg.Lookup):
		return graphql.Boolean
	case lookup.IntValued(arg.Lookup):
		return graphql.Int
	case lookup.ListValued(arg.Lookup):
		return graphql.NewList(arg.Path.Field.Kind.GraphQLInputType())
	default:
		return arg.Path.Field.Kind.GraphQLInputType()
	}
}
