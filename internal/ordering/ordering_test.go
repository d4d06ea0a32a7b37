package ordering

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gql-listkit/internal/model"
	"gql-listkit/internal/qerr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Spec
	}{
		{"empty", "", nil},
		{"single ascending", "name", Spec{{Field: "name"}}},
		{"single descending", "-name", Spec{{Field: "name", Desc: true}}},
		{"mixed", "name,-created_at", Spec{{Field: "name"}, {Field: "created_at", Desc: true}}},
		{"whitespace and empties", " name , , -created_at ", Spec{{Field: "name"}, {Field: "created_at", Desc: true}}},
		{"identical repeat deduplicated", "name,name", Spec{{Field: "name"}}},
		{"relation path", "author__name", Spec{{Field: "author__name"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestParseRejectsConflictsAndBlanks(t *testing.T) {
	_, err := Parse("name,-name")
	require.True(t, qerr.IsValidation(err))

	_, err = Parse("-")
	require.True(t, qerr.IsValidation(err))
}

func TestNormalizeEquivalentForms(t *testing.T) {
	fromString, err := Normalize("name,-created_at")
	require.NoError(t, err)

	fromSlice, err := Normalize([]string{"name", "-created_at"})
	require.NoError(t, err)
	require.True(t, fromString.Equal(fromSlice))

	fromAny, err := Normalize([]interface{}{"name", "-created_at"})
	require.NoError(t, err)
	require.True(t, fromString.Equal(fromAny))

	fromNil, err := Normalize(nil)
	require.NoError(t, err)
	require.Empty(t, fromNil)
}

func TestNormalizeRejectsUnsupportedTypes(t *testing.T) {
	_, err := Normalize(42)
	require.True(t, qerr.IsConfiguration(err))

	_, err = Normalize([]interface{}{"name", 42})
	require.True(t, qerr.IsConfiguration(err))

	_, err = Normalize("name,-name")
	require.True(t, qerr.IsConfiguration(err))
}

func TestResolve(t *testing.T) {
	entity := &model.Entity{
		Name: "post",
		Fields: []model.Field{
			{Name: "id", Kind: model.KindInt, PrimaryKey: true},
			{Name: "title", Kind: model.KindString},
			{Name: "body", Kind: model.KindString, NotOrderable: true},
		},
	}

	spec := MustNormalize("-title,id")
	terms, err := spec.Resolve(entity, nil)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	require.True(t, terms[0].Desc)
	require.Equal(t, "title", terms[0].Path.Field.Name)
	require.False(t, terms[1].Desc)

	_, err = MustNormalize("unknown").Resolve(entity, nil)
	require.True(t, qerr.IsValidation(err))

	_, err = MustNormalize("body").Resolve(entity, nil)
	require.True(t, qerr.IsValidation(err))
}

func TestString(t *testing.T) {
	spec := MustNormalize("name,-created_at")
	require.Equal(t, "name,-created_at", spec.String())
}
