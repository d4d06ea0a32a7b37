package pagination

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"

	"gql-listkit/internal/collection"
	"gql-listkit/internal/qerr"
)

// Cursor declares the argument surface of cursor pagination without
// implementing it. The argument schema participates in schema construction so
// field shapes stay stable, but every runtime operation fails with
// qerr.ErrNotImplemented.
type Cursor struct {
	cursorArg string
}

// NewCursor builds the placeholder strategy.
func NewCursor(cfg Config) *Cursor {
	cursorArg := cfg.CursorArg
	if cursorArg == "" {
		cursorArg = DefaultCursorArg
	}
	return &Cursor{cursorArg: cursorArg}
}

// Name identifies the strategy.
func (p *Cursor) Name() string { return "cursor" }

// Arguments declares the required cursor argument.
func (p *Cursor) Arguments() map[string]*graphql.ArgumentConfig {
	return map[string]*graphql.ArgumentConfig{
		p.cursorArg: {
			Type:        graphql.NewNonNull(graphql.String),
			Description: "Opaque pagination cursor.",
		},
	}
}

// Apply always fails; cursor slicing is not implemented.
func (p *Cursor) Apply(context.Context, collection.Collection, map[string]interface{}) (collection.Collection, error) {
	return nil, fmt.Errorf("cursor pagination: %w", qerr.ErrNotImplemented)
}

// Count always fails; cursor totals are not implemented.
func (p *Cursor) Count(context.Context, collection.Collection) (int, error) {
	return 0, fmt.Errorf("cursor pagination: %w", qerr.ErrNotImplemented)
}
