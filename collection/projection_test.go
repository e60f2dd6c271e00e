package collection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/supakorn-kn/propadmin/errors"
)

func TestParseProjection(t *testing.T) {

	t.Run("Should parse fields and relations", func(t *testing.T) {

		p, err := ParseProjection("id, name, property:properties(name), unit_categories!category_id(id, name)")
		require.NoError(t, err)

		require.False(t, p.All)
		require.Equal(t, []string{"id", "name"}, p.Fields)
		require.Equal(t, []Relation{
			{Alias: "property", Collection: "properties", LocalKey: "property_id", Fields: []string{"name"}},
			{Alias: "unit_categories", Collection: "unit_categories", LocalKey: "category_id", Fields: []string{"id", "name"}},
		}, p.Relations)
	})

	t.Run("Should select every field for empty or star projection", func(t *testing.T) {

		for _, text := range []string{"", "  ", "*"} {
			p, err := ParseProjection(text)
			require.NoError(t, err)
			require.True(t, p.All, "projection %q", text)
			require.True(t, p.Includes("anything"))
		}
	})

	t.Run("Should collapse relation star", func(t *testing.T) {

		p, err := ParseProjection("*, facilities(*, name)")
		require.NoError(t, err)
		require.True(t, p.Relations[0].AllFields())
	})

	t.Run("Should render canonical form", func(t *testing.T) {

		p, err := ParseProjection(" id ,name,  leasing_type:leasing_types( name ) , owner:users!owner_ref(email)")
		require.NoError(t, err)
		require.Equal(t, "id,name,leasing_type:leasing_types(name),owner:users!owner_ref(email)", p.String())

		again, err := ParseProjection(p.String())
		require.NoError(t, err)
		require.Equal(t, p, again)
	})

	t.Run("Should reject invalid projections", func(t *testing.T) {

		var testCases = map[string]string{
			"Unbalanced":        "id, property:properties(name",
			"Closing only":      "id)",
			"Nested relation":   "property:properties(name, owner:users(email))",
			"Bad identifier":    "id, 1name",
			"Duplicated field":  "id, name, id",
			"Duplicated alias":  "name, name:properties(name)",
			"Bad relation head": "pro-perty:properties(name)",
			"Trailing text":     "properties(name)x",
		}

		for name, text := range testCases {
			t.Run(fmt.Sprintf("Projection %s", name), func(t *testing.T) {

				_, err := ParseProjection(text)
				require.True(t, errors.HasCode(err, errors.ProjectionInvalidErrorCode), "got %v", err)
			})
		}
	})
}

func TestNewReference(t *testing.T) {

	t.Run("Should default to partial match", func(t *testing.T) {

		ref, err := NewReference("units", "id, name", "name")
		require.NoError(t, err)
		require.Equal(t, PartialMatchType, ref.MatchType)
	})

	t.Run("Should build page request", func(t *testing.T) {

		ref, err := NewReference("units", "id, name", "name", WithMatchType(StartWithMatchType))
		require.NoError(t, err)

		req := ref.Request(3, 5, "a")
		require.Equal(t, 10, req.From)
		require.Equal(t, 14, req.To)
		require.Equal(t, 5, req.Limit())
		require.Equal(t, StartWithMatchType, req.MatchType)
		require.True(t, req.Filtered())
	})

	t.Run("Should not filter without search field", func(t *testing.T) {

		ref, err := NewReference("facilities", "*", "")
		require.NoError(t, err)
		require.False(t, ref.Request(1, 10, "pool").Filtered())
	})

	t.Run("Should reject bad references", func(t *testing.T) {

		_, err := NewReference("units; drop", "*", "")
		require.True(t, errors.HasCode(err, errors.CollectionInvalidErrorCode))

		_, err = NewReference("units", "*", "name or 1=1")
		require.True(t, errors.HasCode(err, errors.ProjectionInvalidErrorCode))

		_, err = NewReference("units", "*", "name", WithMatchType(MatchType(9)))
		require.True(t, errors.HasCode(err, errors.MatchTypeInvalidErrorCode))
	})
}
