package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/objects"
	"github.com/supakorn-kn/propadmin/query"
)

func TestFormatValue(t *testing.T) {

	created := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	testCases := map[string]struct {
		value    any
		expected string
	}{
		"Nil":             {value: nil, expected: ""},
		"String":          {value: "Riverside", expected: "Riverside"},
		"Time":            {value: created, expected: "2024-05-01 08:30"},
		"Whole float":     {value: float64(4500), expected: "4500"},
		"Fraction float":  {value: 32.5, expected: "32.5"},
		"Integer":         {value: 7, expected: "7"},
		"Named relation":  {value: collection.Record{"name": "Riverside"}, expected: "Riverside"},
		"Wide relation":   {value: collection.Record{"name": "Riverside", "city": "Bangkok"}, expected: "city=Bangkok name=Riverside"},
		"Missing related": {value: collection.Record(nil), expected: ""},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, formatValue(tc.value))
		})
	}
}

func TestRenderTable(t *testing.T) {

	def := objects.Collections[objects.PropertiesCollection]

	t.Run("Should show loading only on first load", func(t *testing.T) {

		var out bytes.Buffer
		renderTable(&out, def, query.Result{Status: query.StatusLoading, Page: 1, PageSize: 5})

		require.Equal(t, "Loading...\n", out.String())
	})

	t.Run("Should keep previous rows while refreshing", func(t *testing.T) {

		var out bytes.Buffer
		renderTable(&out, def, query.Result{
			Rows:     []collection.Record{{"id": "p1", "name": "Riverside"}},
			Count:    1,
			Status:   query.StatusLoading,
			Page:     1,
			PageSize: 5,
			HasData:  true,
		})

		require.Contains(t, out.String(), "Riverside")
		require.Contains(t, out.String(), "page 1/1 (1 items) refreshing")
		require.NotContains(t, out.String(), "Loading...")
	})

	t.Run("Should show empty message for empty collection", func(t *testing.T) {

		var out bytes.Buffer
		renderTable(&out, def, query.Result{Status: query.StatusSuccess, Page: 1, PageSize: 5, HasData: true})

		require.Equal(t, "No items yet\npage 1/1 (0 items)\n", out.String())
	})

	t.Run("Should show search in footer when nothing matched", func(t *testing.T) {

		var out bytes.Buffer
		renderTable(&out, def, query.Result{Status: query.StatusSuccess, Page: 1, PageSize: 5, SearchTerm: "zzz", HasData: true})

		require.Equal(t, "No results found\npage 1/1 (0 items) search \"zzz\"\n", out.String())
	})

	t.Run("Should show error without empty message", func(t *testing.T) {

		var out bytes.Buffer
		renderTable(&out, def, query.Result{Status: query.StatusError, Err: fmt.Errorf("boom"), Page: 1, PageSize: 5})

		require.Equal(t, "Error: boom\npage 1/1 (0 items)\n", out.String())
	})

	t.Run("Should render rows in column order", func(t *testing.T) {

		var out bytes.Buffer
		renderTable(&out, def, query.Result{
			Rows: []collection.Record{
				{"id": "p2", "name": "Lakeside", "city": "Chiang Mai"},
				{"id": "p1", "name": "Riverside", "city": "Bangkok"},
			},
			Count:    7,
			Status:   query.StatusSuccess,
			Page:     2,
			PageSize: 2,
			HasData:  true,
		})

		rendered := out.String()
		require.Contains(t, rendered, "Properties")
		require.Contains(t, rendered, "CITY")
		require.Contains(t, rendered, "Chiang Mai")
		require.Less(t, bytes.Index(out.Bytes(), []byte("Lakeside")), bytes.Index(out.Bytes(), []byte("Riverside")))
		require.Contains(t, rendered, "page 2/4 (7 items)")
	})
}

func TestRenderJSON(t *testing.T) {

	def := objects.Collections[objects.UnitsCollection]

	t.Run("Should write page metadata and rows", func(t *testing.T) {

		var out bytes.Buffer
		err := renderResult(&out, def, query.Result{
			Rows:       []collection.Record{{"id": "u1", "name": "A-101"}},
			Count:      11,
			Status:     query.StatusSuccess,
			Page:       1,
			PageSize:   5,
			SearchTerm: "A-",
			HasData:    true,
		}, formatJSON)
		require.NoError(t, err)

		var page jsonPage
		require.NoError(t, json.Unmarshal(out.Bytes(), &page))
		require.Equal(t, "units", page.Collection)
		require.Equal(t, 3, page.TotalPages)
		require.Equal(t, 11, page.Count)
		require.Equal(t, "A-", page.Search)
		require.Len(t, page.Rows, 1)
		require.Empty(t, page.Error)
	})

	t.Run("Should write empty rows as array", func(t *testing.T) {

		var out bytes.Buffer
		require.NoError(t, renderResult(&out, def, query.Result{Status: query.StatusSuccess, Page: 1, PageSize: 5}, formatJSON))
		require.Contains(t, out.String(), `"rows": []`)
	})

	t.Run("Should reject unknown format", func(t *testing.T) {
		require.Error(t, renderResult(&bytes.Buffer{}, def, query.Result{}, "xml"))
	})
}
