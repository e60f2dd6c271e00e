package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {

	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--backend", "memory", "--log-level", "error"))

	err := cmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {

	t.Run("Should print a page of demo units as json", func(t *testing.T) {

		out, err := execute(t, "list", "units", "--format", "json", "--page-size", "4", "--page", "2")
		require.NoError(t, err)

		var page jsonPage
		require.NoError(t, json.Unmarshal([]byte(out), &page))
		require.Equal(t, "units", page.Collection)
		require.Equal(t, 2, page.Page)
		require.Equal(t, 4, page.PageSize)
		require.Equal(t, demoUnits, page.Count)
		require.Len(t, page.Rows, 4)
	})

	t.Run("Should print a table", func(t *testing.T) {

		out, err := execute(t, "list", "leasing_types")
		require.NoError(t, err)
		require.Contains(t, out, "Leasing types")
		require.Contains(t, out, "Monthly")
		require.Contains(t, out, "page 1/1 (3 items)")
	})

	t.Run("Should reject unknown collection", func(t *testing.T) {

		_, err := execute(t, "list", "tenants")
		require.Error(t, err)
	})

	t.Run("Should reject unknown format", func(t *testing.T) {

		_, err := execute(t, "list", "units", "--format", "xml")
		require.ErrorContains(t, err, "unknown format")
	})
}

func TestSeedCommand(t *testing.T) {

	out, err := execute(t, "seed", "--count", "5", "--seed", "7")
	require.NoError(t, err)
	require.Contains(t, out, "units            5")
	require.Contains(t, out, "properties       1")
}

func TestInvalidBackend(t *testing.T) {

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"list", "units", "--backend", "oracle"})

	require.ErrorContains(t, cmd.Execute(), "backend.driver")
}
