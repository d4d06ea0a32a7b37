package listing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gql-listkit/internal/collection"
	"gql-listkit/internal/countcache"
	"gql-listkit/internal/filterset"
	"gql-listkit/internal/lookup"
	"gql-listkit/internal/model"
	"gql-listkit/internal/pagination"
	"gql-listkit/internal/qerr"
)

func bookEntity() *model.Entity {
	return &model.Entity{
		Name: "book",
		Fields: []model.Field{
			{Name: "id", Kind: model.KindInt, PrimaryKey: true},
			{Name: "title", Kind: model.KindString},
			{Name: "genre", Kind: model.KindString},
		},
	}
}

func seededProvider(entity *model.Entity, n int) *collection.MemoryProvider {
	provider := collection.NewMemoryProvider()
	records := make([]collection.Record, 0, n)
	for i := 1; i <= n; i++ {
		genre := "fiction"
		if i%3 == 0 {
			genre = "history"
		}
		records = append(records, collection.Record{
			"id":    i,
			"title": fmt.Sprintf("Book %03d", i),
			"genre": genre,
		})
	}
	provider.Seed(entity.Name, records)
	return provider
}

func newResolver(t *testing.T, entity *model.Entity, provider collection.Provider, strategy pagination.Strategy, spec filterset.Spec, opts Options) *Resolver {
	t.Helper()
	reg := model.NewRegistry()
	require.NoError(t, reg.Register(entity))

	var filter filterset.Filterer
	if spec != nil {
		compiled, err := filterset.New(entity, spec, reg)
		require.NoError(t, err)
		filter = compiled
	}
	resolver, err := NewResolver(entity, provider, filter, strategy, opts)
	require.NoError(t, err)
	return resolver
}

func ids(records []collection.Record) []int {
	out := make([]int, 0, len(records))
	for _, record := range records {
		out = append(out, record["id"].(int))
	}
	return out
}

func TestResolveLimitOffsetWindow(t *testing.T) {
	entity := bookEntity()
	provider := seededProvider(entity, 57)
	strategy, err := pagination.NewLimitOffset(entity, nil, pagination.Config{DefaultOrdering: "id"}, nil)
	require.NoError(t, err)
	resolver := newResolver(t, entity, provider, strategy, nil, Options{})

	envelope, err := resolver.Resolve(context.Background(), map[string]interface{}{
		"limit":  10,
		"offset": 50,
	})
	require.NoError(t, err)
	require.Equal(t, 57, envelope.Count)
	require.Equal(t, []int{51, 52, 53, 54, 55, 56, 57}, ids(envelope.Results))
}

func TestResolvePageWindow(t *testing.T) {
	entity := bookEntity()
	provider := seededProvider(entity, 45)
	strategy, err := pagination.NewPageNumber(entity, nil, pagination.Config{PageSize: 20, DefaultOrdering: "id"}, nil)
	require.NoError(t, err)
	resolver := newResolver(t, entity, provider, strategy, nil, Options{})

	envelope, err := resolver.Resolve(context.Background(), map[string]interface{}{"page": 3})
	require.NoError(t, err)
	require.Equal(t, 45, envelope.Count)
	require.Equal(t, []int{41, 42, 43, 44, 45}, ids(envelope.Results))
}

func TestResolveCountTracksFiltersNotWindow(t *testing.T) {
	entity := bookEntity()
	provider := seededProvider(entity, 30) // 10 history, 20 fiction
	strategy, err := pagination.NewLimitOffset(entity, nil, pagination.Config{DefaultOrdering: "id"}, nil)
	require.NoError(t, err)
	spec := filterset.Spec{
		"genre": {lookup.Exact},
		"title": {lookup.IContains},
	}
	resolver := newResolver(t, entity, provider, strategy, spec, Options{})

	unfiltered, err := resolver.Resolve(context.Background(), map[string]interface{}{"limit": 5})
	require.NoError(t, err)
	require.Equal(t, 30, unfiltered.Count)
	require.Len(t, unfiltered.Results, 5)

	filtered, err := resolver.Resolve(context.Background(), map[string]interface{}{
		"genre": "history",
		"limit": 4,
	})
	require.NoError(t, err)
	require.Equal(t, 10, filtered.Count)
	require.Equal(t, []int{3, 6, 9, 12}, ids(filtered.Results))

	// Same filter, different window: same count.
	shifted, err := resolver.Resolve(context.Background(), map[string]interface{}{
		"genre":  "history",
		"limit":  4,
		"offset": 8,
	})
	require.NoError(t, err)
	require.Equal(t, 10, shifted.Count)
	require.Equal(t, []int{27, 30}, ids(shifted.Results))
}

func TestResolveCursorStrategyFails(t *testing.T) {
	entity := bookEntity()
	provider := seededProvider(entity, 5)
	resolver := newResolver(t, entity, provider, pagination.NewCursor(pagination.Config{}), nil, Options{})

	_, err := resolver.Resolve(context.Background(), map[string]interface{}{"cursor": "opaque"})
	require.True(t, errors.Is(err, qerr.ErrNotImplemented))
}

func TestResolveHookComposesWithFilters(t *testing.T) {
	entity := bookEntity()
	provider := seededProvider(entity, 30)
	strategy, err := pagination.NewLimitOffset(entity, nil, pagination.Config{DefaultOrdering: "id"}, nil)
	require.NoError(t, err)

	reg := model.NewRegistry()
	require.NoError(t, reg.Register(entity))
	idPath, err := entity.ResolvePath("id", reg)
	require.NoError(t, err)

	hook := func(_ context.Context, col collection.Collection) (collection.Collection, error) {
		return col.Filter([]collection.Predicate{{
			ArgName: "id", Path: idPath, Lookup: lookup.LTE, Value: 15,
		}})
	}
	spec := filterset.Spec{"genre": {lookup.Exact}}
	filter, err := filterset.New(entity, spec, reg)
	require.NoError(t, err)

	resolver, err := NewResolver(entity, provider, filter, strategy, Options{Hook: hook})
	require.NoError(t, err)

	envelope, err := resolver.Resolve(context.Background(), map[string]interface{}{"genre": "history"})
	require.NoError(t, err)
	require.Equal(t, 5, envelope.Count)
	require.Equal(t, []int{3, 6, 9, 12, 15}, ids(envelope.Results))
}

func TestResolveValidationErrorStopsPipeline(t *testing.T) {
	entity := bookEntity()
	provider := seededProvider(entity, 5)
	strategy, err := pagination.NewLimitOffset(entity, nil, pagination.Config{}, nil)
	require.NoError(t, err)
	resolver := newResolver(t, entity, provider, strategy, nil, Options{})

	_, err = resolver.Resolve(context.Background(), map[string]interface{}{"offset": -2})
	require.True(t, qerr.IsValidation(err))
}

func TestResolveUsesCountCache(t *testing.T) {
	entity := bookEntity()
	provider := seededProvider(entity, 30)
	strategy, err := pagination.NewLimitOffset(entity, nil, pagination.Config{DefaultOrdering: "id"}, nil)
	require.NoError(t, err)
	cache := countcache.New(countcache.NewMemoryBackend(), time.Minute)
	spec := filterset.Spec{"genre": {lookup.Exact}}
	resolver := newResolver(t, entity, provider, strategy, spec, Options{Cache: cache})

	first, err := resolver.Resolve(context.Background(), map[string]interface{}{
		"genre": "history",
		"limit": 2,
	})
	require.NoError(t, err)
	require.Equal(t, 10, first.Count)

	// A different window with the same filter reuses the cached total.
	second, err := resolver.Resolve(context.Background(), map[string]interface{}{
		"genre":  "history",
		"limit":  2,
		"offset": 4,
	})
	require.NoError(t, err)
	require.Equal(t, 10, second.Count)

	// A different filter gets its own entry.
	other, err := resolver.Resolve(context.Background(), map[string]interface{}{
		"genre": "fiction",
		"limit": 2,
	})
	require.NoError(t, err)
	require.Equal(t, 20, other.Count)
}

func TestSharedCacheScopedPerField(t *testing.T) {
	entity := bookEntity()
	provider := seededProvider(entity, 30) // 10 history, 20 fiction
	cache := countcache.New(countcache.NewMemoryBackend(), time.Minute)

	reg := model.NewRegistry()
	require.NoError(t, reg.Register(entity))
	idPath, err := entity.ResolvePath("id", reg)
	require.NoError(t, err)

	newScoped := func(scope string, hook collection.Hook) *Resolver {
		strategy, err := pagination.NewLimitOffset(entity, nil, pagination.Config{DefaultOrdering: "id"}, nil)
		require.NoError(t, err)
		resolver, err := NewResolver(entity, provider, nil, strategy, Options{
			Hook:       hook,
			Cache:      cache,
			CacheScope: scope,
		})
		require.NoError(t, err)
		return resolver
	}

	all := newScoped("book/books", nil)
	recent := newScoped("book/recentBooks", func(_ context.Context, col collection.Collection) (collection.Collection, error) {
		return col.Filter([]collection.Predicate{{
			ArgName: "id", Path: idPath, Lookup: lookup.GT, Value: 20,
		}})
	})

	first, err := all.Resolve(context.Background(), map[string]interface{}{"limit": 1})
	require.NoError(t, err)
	require.Equal(t, 30, first.Count)

	// The hooked field over the same entity must not inherit the total
	// cached for the unhooked one.
	second, err := recent.Resolve(context.Background(), map[string]interface{}{"limit": 1})
	require.NoError(t, err)
	require.Equal(t, 10, second.Count)
}

func TestNewResolverRequiresCollaborators(t *testing.T) {
	entity := bookEntity()
	provider := seededProvider(entity, 1)
	strategy, err := pagination.NewLimitOffset(entity, nil, pagination.Config{}, nil)
	require.NoError(t, err)

	_, err = NewResolver(nil, provider, nil, strategy, Options{})
	require.True(t, qerr.IsConfiguration(err))

	_, err = NewResolver(entity, nil, nil, strategy, Options{})
	require.True(t, qerr.IsConfiguration(err))

	_, err = NewResolver(entity, provider, nil, nil, Options{})
	require.True(t, qerr.IsConfiguration(err))
}
