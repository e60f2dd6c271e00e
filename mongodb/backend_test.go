package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildPipeline(t *testing.T) {

	t.Run("Should match everything without search term", func(t *testing.T) {

		pipeline, err := BuildPipeline(collection.Request{
			Collection:  "units",
			Projection:  collection.MustParseProjection("*"),
			SearchField: "name",
			From:        10,
			To:          14,
		})
		require.NoError(t, err)
		require.Len(t, pipeline, 3)
		require.Equal(t, bson.D{{Key: "$match", Value: bson.D{}}}, pipeline[0])

		facet := pipeline[1][0].Value.(bson.D)
		paginate := facet[0].Value.(bson.A)
		require.Equal(t, bson.D{{Key: "$skip", Value: 10}}, paginate[1])
		require.Equal(t, bson.D{{Key: "$limit", Value: 5}}, paginate[2])
		require.Equal(t, bson.D{{Key: "$unset", Value: bson.A{"_id"}}}, paginate[len(paginate)-1])
	})

	t.Run("Should escape search term", func(t *testing.T) {

		var testCases = map[string]struct {
			MatchType collection.MatchType
			Expected  bson.D
		}{
			"Partial": {
				MatchType: collection.PartialMatchType,
				Expected:  bson.D{{Key: "name", Value: bson.M{"$regex": `a\.b`, "$options": "i"}}},
			},
			"Start with": {
				MatchType: collection.StartWithMatchType,
				Expected:  bson.D{{Key: "name", Value: bson.M{"$regex": `^a\.b`, "$options": "i"}}},
			},
			"End with": {
				MatchType: collection.EndWithMatchType,
				Expected:  bson.D{{Key: "name", Value: bson.M{"$regex": `a\.b$`, "$options": "i"}}},
			},
			"Equal": {
				MatchType: collection.EqualMatchType,
				Expected:  bson.D{{Key: "name", Value: "a.b"}},
			},
		}

		for name, tc := range testCases {
			t.Run(fmt.Sprintf("Match %s", name), func(t *testing.T) {

				pipeline, err := BuildPipeline(collection.Request{
					Collection:  "units",
					Projection:  collection.MustParseProjection("id"),
					SearchField: "name",
					SearchTerm:  "a.b",
					MatchType:   tc.MatchType,
					From:        0,
					To:          9,
				})
				require.NoError(t, err)
				require.Equal(t, bson.D{{Key: "$match", Value: tc.Expected}}, pipeline[0])
			})
		}
	})

	t.Run("Should join relations after paging", func(t *testing.T) {

		pipeline, err := BuildPipeline(collection.Request{
			Collection: "units",
			Projection: collection.MustParseProjection("id, property:properties(name), leasing_types!lease_id(*)"),
			From:       0,
			To:         4,
		})
		require.NoError(t, err)

		paginate := pipeline[1][0].Value.(bson.D)[0].Value.(bson.A)
		require.Equal(t, bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "properties"},
			{Key: "localField", Value: "property_id"},
			{Key: "foreignField", Value: "id"},
			{Key: "as", Value: "property"},
		}}}, paginate[3])
		require.Equal(t, bson.D{{Key: "$project", Value: bson.D{
			{Key: "id", Value: 1},
			{Key: "property", Value: 1},
			{Key: "leasing_types", Value: 1},
		}}}, paginate[len(paginate)-2])
		require.Equal(t, bson.D{{Key: "$unset", Value: bson.A{"_id", "leasing_types._id"}}}, paginate[len(paginate)-1])
	})

	t.Run("Should throw error when set invalid match type", func(t *testing.T) {

		_, err := BuildPipeline(collection.Request{
			Collection:  "units",
			SearchField: "name",
			SearchTerm:  "x",
			MatchType:   collection.MatchType(42),
			From:        0,
			To:          0,
		})
		require.True(t, errors.HasCode(err, errors.MatchTypeInvalidErrorCode))
	})
}

func TestToRecord(t *testing.T) {

	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	rec := toRecord(bson.M{
		"id":         "unit_1",
		"created_at": primitive.NewDateTimeFromTime(at),
		"property":   bson.M{"name": "Riverside"},
		"tags":       bson.A{"a", bson.D{{Key: "b", Value: 1}}},
	})

	require.Equal(t, collection.Record{
		"id":         "unit_1",
		"created_at": at,
		"property":   collection.Record{"name": "Riverside"},
		"tags":       []any{"a", collection.Record{"b": 1}},
	}, rec)
}

func TestBuildURI(t *testing.T) {

	require.Equal(t, "mongodb://localhost:27017", BuildURI("localhost", 27017, "", ""))
	require.Equal(t, "mongodb://admin:p%40ss@db:27018", BuildURI("db", 27018, "admin", "p@ss"))
}

// BackendTestSuite runs against a live MongoDB named by PROPADMIN_TEST_MONGODB_URI.
type BackendTestSuite struct {
	suite.Suite
	conn    *MongoDBConn
	backend *Backend
}

func (s *BackendTestSuite) SetupSuite() {

	uri := os.Getenv("PROPADMIN_TEST_MONGODB_URI")
	if uri == "" {
		s.T().Skip("PROPADMIN_TEST_MONGODB_URI is not set")
	}

	conn, err := InitConnection(context.Background(), uri, "propadmin_test")
	s.Require().NoError(err, "Create MongoDB connection failed")

	s.conn = conn
	s.backend = NewBackend(conn)
}

func (s *BackendTestSuite) SetupTest() {

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	_, err := s.conn.GetCollection("properties").InsertOne(ctx, bson.M{"id": "prop_a", "name": "Riverside", "address": gofakeit.Street(), "created_at": base})
	s.Require().NoError(err)

	for i := 0; i < 12; i++ {
		_, err := s.conn.GetCollection("units").InsertOne(ctx, bson.M{
			"id":          fmt.Sprintf("unit_%02d", i),
			"name":        fmt.Sprintf("Alpha %02d", i),
			"property_id": "prop_a",
			"created_at":  base.Add(time.Duration(i) * time.Minute),
		})
		s.Require().NoError(err)
	}
}

func (s *BackendTestSuite) TearDownTest() {
	s.Require().NoError(s.conn.GetDatabase().Drop(context.Background()))
}

func (s *BackendTestSuite) TearDownSuite() {

	if s.conn != nil {
		_ = s.conn.Disconnect(context.Background())
	}
}

func (s *BackendTestSuite) TestQuery() {

	s.Run("Should get page with total and relation", func() {

		page, err := s.backend.Query(context.Background(), collection.Request{
			Collection: "units",
			Projection: collection.MustParseProjection("id, property:properties(name), owner:users(name)"),
			From:       10,
			To:         14,
		})
		s.Require().NoError(err)
		s.Require().Equal(12, page.Count)
		s.Require().Equal([]collection.Record{
			{"id": "unit_01", "property": collection.Record{"name": "Riverside"}, "owner": nil},
			{"id": "unit_00", "property": collection.Record{"name": "Riverside"}, "owner": nil},
		}, page.Rows)
	})

	s.Run("Should get empty page for unmatched search", func() {

		page, err := s.backend.Query(context.Background(), collection.Request{
			Collection:  "units",
			Projection:  collection.MustParseProjection("id"),
			SearchField: "name",
			MatchType:   collection.PartialMatchType,
			SearchTerm:  "zulu",
			From:        0,
			To:          4,
		})
		s.Require().NoError(err)
		s.Require().Equal(0, page.Count)
		s.Require().Empty(page.Rows)
	})

	s.Run("Should delete by id", func() {

		s.Require().NoError(s.backend.Delete(context.Background(), "units", "unit_03"))
		s.Require().Equal(errors.ObjectIDNotFoundError.New("unit_03"), s.backend.Delete(context.Background(), "units", "unit_03"))
	})
}

func TestBackend(t *testing.T) {
	suite.Run(t, new(BackendTestSuite))
}
