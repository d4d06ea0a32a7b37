package schema

import (
	"context"
	"fmt"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/require"

	"gql-listkit/internal/collection"
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

func seededBooks(n int) *collection.MemoryProvider {
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
	provider.Seed("book", records)
	return provider
}

func buildTestSchema(t *testing.T, cfg ListConfig) graphql.Schema {
	t.Helper()
	entity := bookEntity()
	builder := NewBuilder(model.NewRegistry(), seededBooks(30), Options{})
	require.NoError(t, builder.AddList(entity, cfg))
	require.NoError(t, builder.AddGet(entity))
	schema, err := builder.Schema()
	require.NoError(t, err)
	return schema
}

func execute(t *testing.T, schema graphql.Schema, query string) *graphql.Result {
	t.Helper()
	return graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: query,
		Context:       context.Background(),
	})
}

func TestSchemaListQuery(t *testing.T) {
	schema := buildTestSchema(t, ListConfig{
		Filter:     filterset.Spec{"genre": {lookup.Exact}, "title": {lookup.IContains}},
		Pagination: pagination.Config{DefaultOrdering: "id"},
	})

	result := execute(t, schema, `{
		books(genre: "history", limit: 2, offset: 1) {
			count
			results { id title }
		}
	}`)
	require.Empty(t, result.Errors)

	data := result.Data.(map[string]interface{})
	books := data["books"].(map[string]interface{})
	require.Equal(t, 10, books["count"])

	results := books["results"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	require.Equal(t, 6, first["id"])
	require.Equal(t, "Book 006", first["title"])
}

func TestSchemaListOrderingArgument(t *testing.T) {
	schema := buildTestSchema(t, ListConfig{
		Pagination: pagination.Config{DefaultOrdering: "id"},
	})

	result := execute(t, schema, `{
		books(ordering: "-id", limit: 3) {
			results { id }
		}
	}`)
	require.Empty(t, result.Errors)

	books := result.Data.(map[string]interface{})["books"].(map[string]interface{})
	results := books["results"].([]interface{})
	require.Len(t, results, 3)
	require.Equal(t, 30, results[0].(map[string]interface{})["id"])
}

func TestSchemaValidationErrorsSurface(t *testing.T) {
	schema := buildTestSchema(t, ListConfig{})

	result := execute(t, schema, `{ books(offset: -5) { count results { id } } }`)
	require.NotEmpty(t, result.Errors)
	require.Contains(t, result.Errors[0].Message, "offset")
}

func TestSchemaCursorStrategyErrors(t *testing.T) {
	schema := buildTestSchema(t, ListConfig{Strategy: StrategyCursor})

	result := execute(t, schema, `{ books(cursor: "abc") { count results { id } } }`)
	require.NotEmpty(t, result.Errors)
	require.Contains(t, result.Errors[0].Message, "not implemented")
}

func TestSchemaGetByPrimaryKey(t *testing.T) {
	schema := buildTestSchema(t, ListConfig{})

	result := execute(t, schema, `{ book(id: 7) { id title } }`)
	require.Empty(t, result.Errors)
	book := result.Data.(map[string]interface{})["book"].(map[string]interface{})
	require.Equal(t, "Book 007", book["title"])

	// Missing record resolves to null, not an error.
	result = execute(t, schema, `{ book(id: 999) { id } }`)
	require.Empty(t, result.Errors)
	require.Nil(t, result.Data.(map[string]interface{})["book"])
}

func TestSchemaPageStrategyField(t *testing.T) {
	schema := buildTestSchema(t, ListConfig{
		Strategy: StrategyPage,
		Pagination: pagination.Config{
			PageSize:        20,
			PageSizeArg:     "pageSize",
			DefaultOrdering: "id",
		},
	})

	result := execute(t, schema, `{
		books(page: 2, pageSize: 4) {
			count
			results { id }
		}
	}`)
	require.Empty(t, result.Errors)

	books := result.Data.(map[string]interface{})["books"].(map[string]interface{})
	require.Equal(t, 30, books["count"])
	results := books["results"].([]interface{})
	require.Len(t, results, 4)
	require.Equal(t, 5, results[0].(map[string]interface{})["id"])
}

func TestBuilderRejectsDuplicateQueryFields(t *testing.T) {
	entity := bookEntity()
	builder := NewBuilder(model.NewRegistry(), seededBooks(3), Options{})
	require.NoError(t, builder.AddList(entity, ListConfig{}))

	err := builder.AddList(entity, ListConfig{})
	require.True(t, qerr.IsConfiguration(err))
}

func TestBuilderRejectsArgumentCollision(t *testing.T) {
	entity := &model.Entity{
		Name: "item",
		Fields: []model.Field{
			{Name: "id", Kind: model.KindInt, PrimaryKey: true},
			{Name: "limit", Kind: model.KindInt},
		},
	}
	builder := NewBuilder(model.NewRegistry(), collection.NewMemoryProvider(), Options{})

	// A filter argument named "limit" collides with the pagination window.
	err := builder.AddList(entity, ListConfig{
		Filter: filterset.Spec{"limit": {lookup.Exact}},
	})
	require.True(t, qerr.IsConfiguration(err))
}

func TestBuilderRejectsUnknownStrategy(t *testing.T) {
	builder := NewBuilder(model.NewRegistry(), collection.NewMemoryProvider(), Options{})
	err := builder.AddList(bookEntity(), ListConfig{Strategy: "keyset"})
	require.True(t, qerr.IsConfiguration(err))
}

func TestBuilderSharesObjectTypeAcrossFields(t *testing.T) {
	entity := bookEntity()
	reg := model.NewRegistry()
	builder := NewBuilder(reg, seededBooks(3), Options{})
	require.NoError(t, builder.AddList(entity, ListConfig{}))
	require.NoError(t, builder.AddGet(entity))

	require.NotNil(t, reg.Type("book"))
	schema, err := builder.Schema()
	require.NoError(t, err)
	require.NotNil(t, schema.QueryType().Fields()["books"])
	require.NotNil(t, schema.QueryType().Fields()["book"])
}
