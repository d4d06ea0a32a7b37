// Package collection abstracts the backing store for entity collections.
// A Collection is an immutable query description: Filter, Order, and Slice
// return narrowed copies without touching the store, and only Count and
// Fetch execute anything. The SQL provider is the production implementation;
// the memory provider backs tests and examples.
package collection

import (
	"context"

	"gql-listkit/internal/lookup"
	"gql-listkit/internal/model"
)

// Record is one fetched entity row, keyed by column name.
type Record map[string]interface{}

// Predicate is one resolved filter condition: a validated field path, a
// lookup operator, and the client-supplied value. ArgName is the external
// argument name, used in validation error messages.
type Predicate struct {
	ArgName string
	Path    *model.ResolvedPath
	Lookup  lookup.Lookup
	Value   interface{}
}

// OrderTerm is one resolved ordering clause.
type OrderTerm struct {
	Path *model.ResolvedPath
	Desc bool
}

// Collection is a lazily-built query over one entity's records.
type Collection interface {
	// Filter returns a copy narrowed by all predicates (AND semantics).
	Filter(preds []Predicate) (Collection, error)
	// Order returns a copy with the ordering replaced by terms.
	Order(terms []OrderTerm) (Collection, error)
	// Slice returns a copy restricted to the [offset, offset+limit) window.
	Slice(offset, limit int) Collection
	// Count executes a count over the collection, ignoring any slice window
	// or ordering applied to it.
	Count(ctx context.Context) (int, error)
	// Fetch executes the query and materializes the records.
	Fetch(ctx context.Context) ([]Record, error)
}

// Provider builds base collections for entities.
type Provider interface {
	Base(e *model.Entity) Collection
}

// Hook customizes a base collection before filters are applied, e.g. default
// scoping to active records. It composes with, rather than replaces, client
// filters.
type Hook func(ctx context.Context, col Collection) (Collection, error)
