// Package model describes the entities exposed through generated GraphQL
// fields: their scalar fields, relations, and the metadata the filter and
// ordering layers need to validate client-supplied field names.
package model

import (
	"strings"

	"github.com/graphql-go/graphql"

	"gql-listkit/internal/naming"
	"gql-listkit/internal/qerr"
)

// Kind classifies an entity field's scalar type.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindID
)

// GraphQLType returns the output scalar for a field kind.
func (k Kind) GraphQLType() graphql.Output {
	switch k {
	case KindInt:
		return graphql.Int
	case KindFloat:
		return graphql.Float
	case KindBool:
		return graphql.Boolean
	case KindTime:
		return graphql.DateTime
	case KindID:
		return graphql.ID
	default:
		return graphql.String
	}
}

// GraphQLInputType returns the input scalar used for filter arguments on a
// field of this kind.
func (k Kind) GraphQLInputType() graphql.Input {
	switch k {
	case KindInt:
		return graphql.Int
	case KindFloat:
		return graphql.Float
	case KindBool:
		return graphql.Boolean
	case KindTime:
		return graphql.DateTime
	case KindID:
		return graphql.ID
	default:
		return graphql.String
	}
}

// Field is one scalar attribute of an entity.
type Field struct {
	Name       string // model name, snake_case
	Column     string // backing column; defaults to Name
	Kind       Kind
	PrimaryKey bool
	// Orderable marks fields that may appear in ordering expressions.
	// Defaults to true for all fields; set false for unindexed blobs etc.
	NotOrderable bool
}

// ColumnName returns the backing column for the field.
func (f *Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// Relation is a single-hop link to another entity, traversable in filter
// and ordering paths as "<relation>__<field>".
type Relation struct {
	Name         string // path segment name, snake_case
	Target       string // target entity name
	LocalColumn  string // FK column on this entity (many-to-one)
	RemoteColumn string // referenced column on the target
	ToMany       bool   // reversed FK: target rows point back at this entity
}

// Entity describes one homogeneous collection's record type.
type Entity struct {
	Name      string // singular snake_case name, e.g. "user"
	Table     string // backing table; defaults to pluralized Name
	Fields    []Field
	Relations []Relation
}

// TableName returns the backing table for the entity.
func (e *Entity) TableName() string {
	if e.Table != "" {
		return e.Table
	}
	return naming.Pluralize(e.Name)
}

// FieldByName returns the named field, or nil.
func (e *Entity) FieldByName(name string) *Field {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// RelationByName returns the named relation, or nil.
func (e *Entity) RelationByName(name string) *Relation {
	for i := range e.Relations {
		if e.Relations[i].Name == name {
			return &e.Relations[i]
		}
	}
	return nil
}

// PrimaryKey returns the entity's primary key field, or nil when none is
// declared.
func (e *Entity) PrimaryKey() *Field {
	for i := range e.Fields {
		if e.Fields[i].PrimaryKey {
			return &e.Fields[i]
		}
	}
	return nil
}

// ResolvedPath is a validated filter/ordering field path. Relation is nil for
// paths that name a field on the entity itself.
type ResolvedPath struct {
	Path     string
	Relation *Relation
	Target   *Entity // entity owning Field; equals the root entity when Relation is nil
	Field    *Field
}

// ResolvePath validates a "field" or "relation__field" path against the
// entity, looking related entities up in the registry. Paths deeper than one
// relation hop are rejected.
func (e *Entity) ResolvePath(path string, reg *Registry) (*ResolvedPath, error) {
	hops := strings.Split(path, naming.PathSeparator)
	switch len(hops) {
	case 1:
		field := e.FieldByName(hops[0])
		if field == nil {
			return nil, qerr.Configf("entity %s has no field %q", e.Name, path)
		}
		return &ResolvedPath{Path: path, Target: e, Field: field}, nil
	case 2:
		rel := e.RelationByName(hops[0])
		if rel == nil {
			return nil, qerr.Configf("entity %s has no relation %q (path %q)", e.Name, hops[0], path)
		}
		if reg == nil {
			return nil, qerr.Configf("relation path %q requires a registry", path)
		}
		target := reg.Entity(rel.Target)
		if target == nil {
			return nil, qerr.Configf("relation %s.%s targets unregistered entity %q", e.Name, rel.Name, rel.Target)
		}
		field := target.FieldByName(hops[1])
		if field == nil {
			return nil, qerr.Configf("entity %s has no field %q (path %q)", target.Name, hops[1], path)
		}
		return &ResolvedPath{Path: path, Relation: rel, Target: target, Field: field}, nil
	default:
		return nil, qerr.Configf("field path %q exceeds the single relation hop supported by filters", path)
	}
}
