package pagination

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"

	"gql-listkit/internal/collection"
	"gql-listkit/internal/config"
	"gql-listkit/internal/model"
	"gql-listkit/internal/qerr"
)

// LimitOffset slices by an absolute offset and a result limit. A requested
// limit above the maximum is clamped, never rejected; a missing limit falls
// back to the configured default.
type LimitOffset struct {
	defaultLimit int
	maxLimit     int
	limitArg     string
	offsetArg    string
	ordering     *orderingResolver
}

// NewLimitOffset compiles the strategy for one entity. Per-field Config
// values override the process-wide pagination settings; a default limit that
// exceeds the maximum is a configuration error.
func NewLimitOffset(entity *model.Entity, reg *model.Registry, cfg Config, settings *config.PaginationSettings) (*LimitOffset, error) {
	s := settingsOrDefault(settings)
	defaultLimit := fallbackInt(cfg.DefaultLimit, s.DefaultPageSize)
	maxLimit := fallbackInt(cfg.MaxLimit, s.MaxPageSize)
	if maxLimit > 0 && defaultLimit > maxLimit {
		return nil, qerr.Configf("default limit %d exceeds max limit %d", defaultLimit, maxLimit)
	}

	ord, err := newOrderingResolver(entity, reg, cfg)
	if err != nil {
		return nil, err
	}

	limitArg := cfg.LimitArg
	if limitArg == "" {
		limitArg = DefaultLimitArg
	}
	offsetArg := cfg.OffsetArg
	if offsetArg == "" {
		offsetArg = DefaultOffsetArg
	}
	if limitArg == offsetArg {
		return nil, qerr.Configf("limit and offset share argument name %q", limitArg)
	}

	return &LimitOffset{
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		limitArg:     limitArg,
		offsetArg:    offsetArg,
		ordering:     ord,
	}, nil
}

// Name identifies the strategy.
func (p *LimitOffset) Name() string { return "limit_offset" }

// Arguments declares the limit, offset, and ordering arguments under their
// configured names.
func (p *LimitOffset) Arguments() map[string]*graphql.ArgumentConfig {
	args := map[string]*graphql.ArgumentConfig{
		p.limitArg: {
			Type:        graphql.Int,
			Description: fmt.Sprintf("Number of results to return. Default %d, maximum %d.", p.defaultLimit, p.maxLimit),
		},
		p.offsetArg: {
			Type:        graphql.Int,
			Description: "Index of the first result to return.",
		},
	}
	name, cfg := p.ordering.argument()
	args[name] = cfg
	return args
}

// Apply orders the collection, then slices it by the validated window.
func (p *LimitOffset) Apply(_ context.Context, col collection.Collection, args map[string]interface{}) (collection.Collection, error) {
	var window struct {
		Limit  *int `mapstructure:"limit"`
		Offset *int `mapstructure:"offset"`
	}
	names := map[string]string{"limit": p.limitArg, "offset": p.offsetArg}
	if err := decodeArgs(args, names, &window); err != nil {
		return nil, qerr.Validationf(p.limitArg, args[p.limitArg], "invalid pagination arguments: %v", err)
	}

	limit := p.defaultLimit
	if window.Limit != nil {
		limit = *window.Limit
		if limit <= 0 {
			return nil, qerr.Validationf(p.limitArg, limit, "limit must be positive")
		}
	}
	if p.maxLimit > 0 && limit > p.maxLimit {
		limit = p.maxLimit
	}

	offset := 0
	if window.Offset != nil {
		offset = *window.Offset
		if offset < 0 {
			return nil, qerr.Validationf(p.offsetArg, offset, "offset must not be negative")
		}
	}

	ordered, err := p.ordering.apply(col, args)
	if err != nil {
		return nil, err
	}
	return ordered.Slice(offset, limit), nil
}

// Count reports the total of the unsliced collection.
func (p *LimitOffset) Count(ctx context.Context, col collection.Collection) (int, error) {
	return col.Count(ctx)
}
