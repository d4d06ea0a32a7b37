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

// PageNumber slices by a 1-indexed page over a fixed page size. When a
// PageSizeArg is configured clients may request their own page size, clamped
// to the maximum; without one the size is fixed at configuration time.
type PageNumber struct {
	pageSize    int
	maxPageSize int
	pageArg     string
	pageSizeArg string // empty disables dynamic page sizing
	ordering    *orderingResolver
}

// NewPageNumber compiles the strategy for one entity.
func NewPageNumber(entity *model.Entity, reg *model.Registry, cfg Config, settings *config.PaginationSettings) (*PageNumber, error) {
	s := settingsOrDefault(settings)
	pageSize := fallbackInt(cfg.PageSize, s.DefaultPageSize)
	maxPageSize := fallbackInt(cfg.MaxPageSize, s.MaxPageSize)
	if maxPageSize > 0 && pageSize > maxPageSize {
		return nil, qerr.Configf("page size %d exceeds max page size %d", pageSize, maxPageSize)
	}

	ord, err := newOrderingResolver(entity, reg, cfg)
	if err != nil {
		return nil, err
	}

	pageArg := cfg.PageArg
	if pageArg == "" {
		pageArg = DefaultPageArg
	}
	if cfg.PageSizeArg != "" && cfg.PageSizeArg == pageArg {
		return nil, qerr.Configf("page and page size share argument name %q", pageArg)
	}

	return &PageNumber{
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		pageArg:     pageArg,
		pageSizeArg: cfg.PageSizeArg,
		ordering:    ord,
	}, nil
}

// Name identifies the strategy.
func (p *PageNumber) Name() string { return "page" }

// Arguments declares the page, optional page size, and ordering arguments.
func (p *PageNumber) Arguments() map[string]*graphql.ArgumentConfig {
	args := map[string]*graphql.ArgumentConfig{
		p.pageArg: {
			Type:        graphql.Int,
			Description: "Page of results to return, starting at 1.",
		},
	}
	if p.pageSizeArg != "" {
		args[p.pageSizeArg] = &graphql.ArgumentConfig{
			Type:        graphql.Int,
			Description: fmt.Sprintf("Number of results per page. Default %d, maximum %d.", p.pageSize, p.maxPageSize),
		}
	}
	name, cfg := p.ordering.argument()
	args[name] = cfg
	return args
}

// Apply orders the collection, then slices the requested page. A page below 1
// is treated as page 1; a page past the data yields an empty window while the
// total count is unaffected.
func (p *PageNumber) Apply(_ context.Context, col collection.Collection, args map[string]interface{}) (collection.Collection, error) {
	var window struct {
		Page     *int `mapstructure:"page"`
		PageSize *int `mapstructure:"page_size"`
	}
	names := map[string]string{"page": p.pageArg}
	if p.pageSizeArg != "" {
		names["page_size"] = p.pageSizeArg
	}
	if err := decodeArgs(args, names, &window); err != nil {
		return nil, qerr.Validationf(p.pageArg, args[p.pageArg], "invalid pagination arguments: %v", err)
	}

	page := 1
	if window.Page != nil && *window.Page > 1 {
		page = *window.Page
	}

	size := p.pageSize
	if window.PageSize != nil {
		size = *window.PageSize
		if size <= 0 {
			return nil, qerr.Validationf(p.pageSizeArg, size, "page size must be positive")
		}
		if p.maxPageSize > 0 && size > p.maxPageSize {
			size = p.maxPageSize
		}
	}

	ordered, err := p.ordering.apply(col, args)
	if err != nil {
		return nil, err
	}
	return ordered.Slice((page-1)*size, size), nil
}

// Count reports the total of the unsliced collection.
func (p *PageNumber) Count(ctx context.Context, col collection.Collection) (int, error) {
	return col.Count(ctx)
}
