package postgrest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"go.uber.org/zap"
)

type BackendTestSuite struct {
	suite.Suite

	server  *httptest.Server
	backend *Backend
	handle  http.HandlerFunc
	ref     collection.Reference
}

func (s *BackendTestSuite) SetupTest() {

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handle(w, r)
	}))

	backend, err := NewBackend(Config{URL: s.server.URL + "/", APIKey: "anon-key", Schema: "public"}, zap.NewNop(),
		WithHTTPClient(s.server.Client()))
	s.Require().NoError(err)
	s.backend = backend

	ref, err := collection.NewReference("units", "id, name, property:properties(name)", "name")
	s.Require().NoError(err)
	s.ref = ref
}

func (s *BackendTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *BackendTestSuite) TestQuery() {

	s.Run("Should send projection, filter, ordering and range", func() {

		s.handle = func(w http.ResponseWriter, r *http.Request) {

			s.Equal(http.MethodGet, r.Method)
			s.Equal("/rest/v1/units", r.URL.Path)
			s.Equal("id,name,property:properties!property_id(name)", r.URL.Query().Get("select"))
			s.Equal("imatch.alp_ha", r.URL.Query().Get("name"))
			s.Equal("created_at.desc,id.desc", r.URL.Query().Get("order"))
			s.Equal("5-9", r.Header.Get("Range"))
			s.Equal("items", r.Header.Get("Range-Unit"))
			s.Equal("count=exact", r.Header.Get("Prefer"))
			s.Equal("anon-key", r.Header.Get("apikey"))
			s.Equal("Bearer anon-key", r.Header.Get("Authorization"))
			s.Equal("public", r.Header.Get("Accept-Profile"))

			w.Header().Set("Content-Range", "5-6/7")
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write([]byte(`[{"id":"u6","name":"Alpha 06","property":{"name":"Riverside"}},{"id":"u7","name":"Alpha 07","property":null}]`))
		}

		page, err := s.backend.Query(context.Background(), s.ref.Request(2, 5, "alp_ha"))
		s.Require().NoError(err)
		s.Require().Equal(7, page.Count)
		s.Require().Len(page.Rows, 2)
		s.Equal("Alpha 06", page.Rows[0]["name"])
		s.Equal(map[string]any{"name": "Riverside"}, page.Rows[0]["property"])
		s.Nil(page.Rows[1]["property"])
	})

	s.Run("Should answer an unsatisfiable range with the real count", func() {

		s.handle = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Range", "*/3")
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		}

		page, err := s.backend.Query(context.Background(), s.ref.Request(2, 5, ""))
		s.Require().NoError(err)
		s.Equal(3, page.Count)
		s.NotNil(page.Rows)
		s.Empty(page.Rows)
	})

	s.Run("Should return empty rows when nothing matches", func() {

		s.handle = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Range", "*/0")
			_, _ = w.Write([]byte(`[]`))
		}

		page, err := s.backend.Query(context.Background(), s.ref.Request(1, 5, "zzz"))
		s.Require().NoError(err)
		s.Equal(0, page.Count)
		s.Empty(page.Rows)
	})

	s.Run("Should classify a rejected query", func() {

		s.handle = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"PGRST100","message":"failed to parse filter"}`))
		}

		_, err := s.backend.Query(context.Background(), s.ref.Request(1, 5, ""))
		s.Require().Error(err)
		s.True(errors.HasCode(err, errors.BackendQueryErrorCode))
		s.Contains(err.Error(), "failed to parse filter")
	})
}

func (s *BackendTestSuite) TestTransportFailure() {

	s.handle = func(w http.ResponseWriter, r *http.Request) {}
	s.server.Close()

	_, err := s.backend.Query(context.Background(), s.ref.Request(1, 5, ""))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.TransportErrorCode))
}

func (s *BackendTestSuite) TestDelete() {

	s.Run("Should delete by id", func() {

		s.handle = func(w http.ResponseWriter, r *http.Request) {
			s.Equal(http.MethodDelete, r.Method)
			s.Equal("eq.u1", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(`[{"id":"u1"}]`))
		}

		s.Require().NoError(s.backend.Delete(context.Background(), "units", "u1"))
	})

	s.Run("Should report a missing id", func() {

		s.handle = func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}

		err := s.backend.Delete(context.Background(), "units", "missing")
		s.True(errors.IsError(err, errors.ObjectIDNotFoundError.New("missing")))
	})
}

func TestBackendTestSuite(t *testing.T) {
	suite.Run(t, new(BackendTestSuite))
}

func TestParseContentRange(t *testing.T) {

	testCases := map[string]struct {
		header string
		count  int
		fails  bool
	}{
		"Range with total": {header: "0-4/12", count: 12},
		"Empty":            {header: "*/0", count: 0},
		"Unknown total":    {header: "0-4/*", fails: true},
		"Missing":          {header: "", fails: true},
		"Garbage":          {header: "0-4/abc", fails: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {

			count, err := ParseContentRange(tc.header)
			if tc.fails {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.count, count)
		})
	}
}

func TestQueryValuesMatchTypes(t *testing.T) {

	testCases := map[string]struct {
		matchType collection.MatchType
		term      string
		filter    string
	}{
		"Equal":              {matchType: collection.EqualMatchType, term: "a*b", filter: "eq.a*b"},
		"Partial":            {matchType: collection.PartialMatchType, term: "alpha", filter: "imatch.alpha"},
		"Partial wildcard":   {matchType: collection.PartialMatchType, term: "a*b", filter: `imatch.a\*b`},
		"StartWith":          {matchType: collection.StartWithMatchType, term: "A-1.", filter: `imatch.^A-1\.`},
		"EndWith":            {matchType: collection.EndWithMatchType, term: "(west)", filter: `imatch.\(west\)$`},
		"Partial percent":    {matchType: collection.PartialMatchType, term: "50%", filter: "imatch.50%"},
		"Partial underscore": {matchType: collection.PartialMatchType, term: "a_b", filter: "imatch.a_b"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {

			ref, err := collection.NewReference("units", "id, name", "name", collection.WithMatchType(tc.matchType))
			require.NoError(t, err)

			values, err := QueryValues(ref.Request(1, 5, tc.term))
			require.NoError(t, err)
			require.Equal(t, tc.filter, values.Get("name"))
		})
	}
}
