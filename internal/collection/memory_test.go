package collection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gql-listkit/internal/lookup"
	"gql-listkit/internal/model"
)

func memEntity() *model.Entity {
	return &model.Entity{
		Name: "event",
		Fields: []model.Field{
			{Name: "id", Kind: model.KindInt, PrimaryKey: true},
			{Name: "name", Kind: model.KindString},
			{Name: "score", Kind: model.KindFloat},
			{Name: "starts_at", Kind: model.KindTime},
			{Name: "note", Kind: model.KindString},
		},
	}
}

func memCollectionWith(t *testing.T, records []Record) (Collection, *model.Entity) {
	t.Helper()
	entity := memEntity()
	provider := NewMemoryProvider()
	provider.Seed(entity.Name, records)
	return provider.Base(entity), entity
}

func memPredicate(t *testing.T, e *model.Entity, field string, l lookup.Lookup, value interface{}) Predicate {
	t.Helper()
	path, err := e.ResolvePath(field, nil)
	require.NoError(t, err)
	return Predicate{ArgName: field, Path: path, Lookup: l, Value: value}
}

func memIDs(t *testing.T, col Collection) []int {
	t.Helper()
	records, err := col.Fetch(context.Background())
	require.NoError(t, err)
	out := make([]int, 0, len(records))
	for _, record := range records {
		out = append(out, record["id"].(int))
	}
	return out
}

func TestMemoryLookups(t *testing.T) {
	may := time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC) // a Wednesday
	june := time.Date(2024, 6, 2, 18, 0, 0, 0, time.UTC)
	records := []Record{
		{"id": 1, "name": "Alpha Launch", "score": 3.5, "starts_at": may, "note": "ok"},
		{"id": 2, "name": "beta launch", "score": 7.0, "starts_at": june, "note": nil},
		{"id": 3, "name": "Gamma", "score": 5.0, "starts_at": june, "note": "ok"},
	}

	tests := []struct {
		name   string
		field  string
		lookup lookup.Lookup
		value  interface{}
		want   []int
	}{
		{"exact", "name", lookup.Exact, "Gamma", []int{3}},
		{"iexact", "name", lookup.IExact, "gamma", []int{3}},
		{"contains is case sensitive", "name", lookup.Contains, "Launch", []int{1}},
		{"icontains folds case", "name", lookup.IContains, "launch", []int{1, 2}},
		{"startswith", "name", lookup.StartsWith, "Alpha", []int{1}},
		{"istartswith", "name", lookup.IStartsWith, "BE", []int{2}},
		{"iendswith", "name", lookup.IEndsWith, "LAUNCH", []int{1, 2}},
		{"in", "name", lookup.In, []interface{}{"Gamma", "beta launch"}, []int{2, 3}},
		{"gt", "score", lookup.GT, 5.0, []int{2}},
		{"gte", "score", lookup.GTE, 5.0, []int{2, 3}},
		{"lt", "score", lookup.LT, 5.0, []int{1}},
		{"lte", "score", lookup.LTE, 5.0, []int{1, 3}},
		{"range inclusive", "score", lookup.Range, []interface{}{3.5, 5.0}, []int{1, 3}},
		{"isnull true", "note", lookup.IsNull, true, []int{2}},
		{"isnull false", "note", lookup.IsNull, false, []int{1, 3}},
		{"year", "starts_at", lookup.Year, 2024, []int{1, 2, 3}},
		{"month", "starts_at", lookup.Month, 6, []int{2, 3}},
		{"day", "starts_at", lookup.Day, 15, []int{1}},
		{"week_day sunday is 1", "starts_at", lookup.WeekDay, 1, []int{2, 3}},
		{"week_day wednesday is 4", "starts_at", lookup.WeekDay, 4, []int{1}},
		{"hour", "starts_at", lookup.Hour, 9, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, entity := memCollectionWith(t, records)
			narrowed, err := col.Filter([]Predicate{memPredicate(t, entity, tt.field, tt.lookup, tt.value)})
			require.NoError(t, err)
			require.ElementsMatch(t, tt.want, memIDs(t, narrowed))
		})
	}
}

func TestMemoryFilterIsImmutable(t *testing.T) {
	col, entity := memCollectionWith(t, []Record{
		{"id": 1, "name": "a"},
		{"id": 2, "name": "b"},
	})

	narrowed, err := col.Filter([]Predicate{memPredicate(t, entity, "name", lookup.Exact, "a")})
	require.NoError(t, err)

	narrowedCount, err := narrowed.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, narrowedCount)

	baseCount, err := col.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, baseCount)
}

func TestMemoryOrderAndSlice(t *testing.T) {
	col, entity := memCollectionWith(t, []Record{
		{"id": 1, "name": "b", "score": 1.0},
		{"id": 2, "name": "a", "score": 2.0},
		{"id": 3, "name": "a", "score": 3.0},
		{"id": 4, "name": "c", "score": 4.0},
	})

	namePath, err := entity.ResolvePath("name", nil)
	require.NoError(t, err)
	idPath, err := entity.ResolvePath("id", nil)
	require.NoError(t, err)

	ordered, err := col.Order([]OrderTerm{
		{Path: namePath},
		{Path: idPath, Desc: true},
	})
	require.NoError(t, err)
	require.Equal(t, []int{3, 2, 1, 4}, memIDs(t, ordered))

	require.Equal(t, []int{2, 1}, memIDs(t, ordered.Slice(1, 2)))

	// Out-of-range windows clamp to empty rather than panicking.
	require.Empty(t, memIDs(t, ordered.Slice(10, 5)))
}

func TestMemoryRelationPathsRejected(t *testing.T) {
	entity := memEntity()
	entity.Relations = []model.Relation{
		{Name: "venue", Target: "venue", LocalColumn: "venue_id", RemoteColumn: "id"},
	}
	reg := model.NewRegistry()
	require.NoError(t, reg.Register(entity))
	require.NoError(t, reg.Register(&model.Entity{
		Name:   "venue",
		Fields: []model.Field{{Name: "id", Kind: model.KindInt, PrimaryKey: true}, {Name: "city", Kind: model.KindString}},
	}))

	provider := NewMemoryProvider()
	provider.Seed(entity.Name, []Record{{"id": 1}})
	col := provider.Base(entity)

	path, err := entity.ResolvePath("venue__city", reg)
	require.NoError(t, err)

	_, err = col.Filter([]Predicate{{ArgName: "venueCity", Path: path, Lookup: lookup.Exact, Value: "x"}})
	require.Error(t, err)

	_, err = col.Order([]OrderTerm{{Path: path}})
	require.Error(t, err)
}
