// Package listing ties the pieces of a list field together: provider, hook,
// filter set, pagination strategy, and count cache, resolved into a
// count-plus-results envelope.
package listing

import (
	"context"
	"log/slog"
	"time"

	"gql-listkit/internal/collection"
	"gql-listkit/internal/countcache"
	"gql-listkit/internal/filterset"
	"gql-listkit/internal/logging"
	"gql-listkit/internal/model"
	"gql-listkit/internal/observability"
	"gql-listkit/internal/pagination"
	"gql-listkit/internal/qerr"
)

// Envelope is the resolved list payload. Count is the total over the filtered
// collection and never depends on the requested page window.
type Envelope struct {
	Count   int
	Results []collection.Record
}

// Options carries the optional collaborators of a Resolver.
type Options struct {
	// Hook customizes the base collection before client filters apply.
	Hook collection.Hook
	// Cache memoizes totals keyed by the resolver's cache scope and filter
	// arguments.
	Cache *countcache.Cache
	// CacheScope distinguishes this resolver's cache entries from other list
	// fields sharing the cache; it defaults to the entity name. Fields over
	// one entity with different hooks need distinct scopes.
	CacheScope string
	// Metrics records resolution instruments; nil disables recording.
	Metrics *observability.ListMetrics
}

// Resolver executes one entity's list field. It is immutable after
// construction and shared across concurrent requests.
type Resolver struct {
	entity   *model.Entity
	provider collection.Provider
	filter   filterset.Filterer
	strategy pagination.Strategy
	hook     collection.Hook
	cache    *countcache.Cache
	scope    string
	metrics  *observability.ListMetrics
}

// NewResolver wires a list resolver. The filter may be nil for an unfiltered
// list; provider and strategy are required.
func NewResolver(entity *model.Entity, provider collection.Provider, filter filterset.Filterer, strategy pagination.Strategy, opts Options) (*Resolver, error) {
	if entity == nil {
		return nil, qerr.Configf("list resolver requires an entity")
	}
	if provider == nil {
		return nil, qerr.Configf("list resolver for entity %s requires a collection provider", entity.Name)
	}
	if strategy == nil {
		return nil, qerr.Configf("list resolver for entity %s requires a pagination strategy", entity.Name)
	}
	if filter != nil && filter.Entity() != entity {
		return nil, qerr.Configf("filter set for entity %s attached to list resolver for entity %s", filter.Entity().Name, entity.Name)
	}
	scope := opts.CacheScope
	if scope == "" {
		scope = entity.Name
	}
	return &Resolver{
		entity:   entity,
		provider: provider,
		filter:   filter,
		strategy: strategy,
		hook:     opts.Hook,
		cache:    opts.Cache,
		scope:    scope,
		metrics:  opts.Metrics,
	}, nil
}

// Entity returns the resolved entity.
func (r *Resolver) Entity() *model.Entity { return r.entity }

// Resolve runs the list pipeline: base collection, hook, filters, total
// count, ordering and slicing, fetch. Errors from the backing store propagate
// unmodified.
func (r *Resolver) Resolve(ctx context.Context, args map[string]interface{}) (*Envelope, error) {
	start := time.Now()
	envelope, err := r.resolve(ctx, args)
	r.metrics.RecordResolve(ctx, r.entity.Name, time.Since(start), err != nil)
	if err != nil {
		logging.FromContext(ctx).Debug("list resolution failed",
			slog.String("entity", r.entity.Name),
			slog.String("error", err.Error()))
		return nil, err
	}
	r.metrics.RecordResultsCount(ctx, r.entity.Name, int64(len(envelope.Results)))
	return envelope, nil
}

func (r *Resolver) resolve(ctx context.Context, args map[string]interface{}) (*Envelope, error) {
	col := r.provider.Base(r.entity)
	if r.hook != nil {
		hooked, err := r.hook(ctx, col)
		if err != nil {
			return nil, err
		}
		col = hooked
	}

	if r.filter != nil {
		filtered, err := r.filter.Apply(ctx, col, args)
		if err != nil {
			return nil, err
		}
		col = filtered
	}

	count, err := r.countTotal(ctx, col, args)
	if err != nil {
		return nil, err
	}

	window, err := r.strategy.Apply(ctx, col, args)
	if err != nil {
		return nil, err
	}
	records, err := window.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	return &Envelope{Count: count, Results: records}, nil
}

// countTotal computes the filtered total, through the cache when one is
// configured. The cache key covers the resolver scope and filter arguments,
// so requests that differ solely in their window share an entry while other
// list fields over the same entity do not.
func (r *Resolver) countTotal(ctx context.Context, col collection.Collection, args map[string]interface{}) (int, error) {
	if r.cache == nil {
		return r.strategy.Count(ctx, col)
	}
	key := countcache.Signature(r.scope, r.filterArguments(args))
	count, hit, err := r.cache.GetOrCompute(ctx, key, func(ctx context.Context) (int, error) {
		return r.strategy.Count(ctx, col)
	})
	if err != nil {
		return 0, err
	}
	r.metrics.RecordCountCache(ctx, r.entity.Name, hit)
	return count, nil
}

func (r *Resolver) filterArguments(args map[string]interface{}) map[string]interface{} {
	if r.filter == nil {
		return nil
	}
	subset := make(map[string]interface{})
	for name, value := range args {
		if r.filter.Recognizes(name) {
			subset[name] = value
		}
	}
	return subset
}
