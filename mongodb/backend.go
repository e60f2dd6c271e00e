package mongodb

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const backendName = "mongodb"

type AggregatedResult[T any] struct {
	Count int `bson:"count"`
	Total int `bson:"total"`
	Data  []T `bson:"data"`
}

// Backend answers list queries with a single aggregation per page.
type Backend struct {
	db *mongo.Database
}

func NewBackend(conn *MongoDBConn) *Backend {
	return &Backend{db: conn.GetDatabase()}
}

func (b *Backend) Query(ctx context.Context, req collection.Request) (collection.Page, error) {

	pipeline, err := BuildPipeline(req)
	if err != nil {
		return collection.Page{}, err
	}

	cur, err := b.db.Collection(req.Collection).Aggregate(ctx, pipeline, options.Aggregate())
	if err != nil {
		return collection.Page{}, classify(err, req.Collection)
	}

	var aggResultList []AggregatedResult[bson.M]
	if err := cur.All(ctx, &aggResultList); err != nil {
		return collection.Page{}, classify(err, req.Collection)
	}

	page := collection.Page{Rows: []collection.Record{}}
	if len(aggResultList) == 0 {
		return page, nil
	}

	aggResult := aggResultList[0]
	page.Count = aggResult.Total
	for _, doc := range aggResult.Data {
		page.Rows = append(page.Rows, toRecord(doc))
	}

	return page, nil
}

func (b *Backend) Delete(ctx context.Context, collectionName, id string) error {

	result, err := b.db.Collection(collectionName).DeleteOne(ctx, bson.D{{Key: collection.IDField, Value: id}})
	if err != nil {
		return classify(err, collectionName)
	}

	if result.DeletedCount == 0 {
		return errors.ObjectIDNotFoundError.New(id)
	}

	return nil
}

// BuildPipeline filters the collection, then splits into the requested page
// and the total count in one $facet.
func BuildPipeline(req collection.Request) (mongo.Pipeline, error) {

	matchStage := bson.D{{Key: "$match", Value: bson.D{}}}
	if req.Filtered() {

		matchBson, err := CreateMatchBson(req.SearchField, req.SearchTerm, req.MatchType)
		if err != nil {
			return nil, err
		}

		matchStage = bson.D{{Key: "$match", Value: matchBson}}
	}

	paginateResultQuery := bson.A{
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: collection.CreatedAtField, Value: -1},
			{Key: collection.IDField, Value: -1},
		}}},
		bson.D{{Key: "$skip", Value: max(req.From, 0)}},
		bson.D{{Key: "$limit", Value: max(req.Limit(), 1)}},
	}

	paginateResultQuery = append(paginateResultQuery, projectionStages(req.Projection)...)

	matchResultQuery := bson.A{
		bson.D{{Key: "$count", Value: "total"}},
	}

	facetStage := bson.D{
		{
			Key: "$facet", Value: bson.D{
				{Key: "paginate_result", Value: paginateResultQuery},
				{Key: "match_result", Value: matchResultQuery},
			},
		},
	}

	projectStage := bson.D{
		{
			Key: "$project", Value: bson.D{
				{Key: "count", Value: bson.D{{Key: "$size", Value: "$paginate_result"}}},
				{Key: "total", Value: bson.D{{Key: "$ifNull", Value: bson.A{bson.D{{Key: "$first", Value: "$match_result.total"}}, 0}}}},
				{Key: "data", Value: "$paginate_result"},
			},
		},
	}

	return mongo.Pipeline{matchStage, facetStage, projectStage}, nil
}

// projectionStages joins relations on the page rows only, then trims the
// documents to the projection.
func projectionStages(p collection.Projection) bson.A {

	var stages bson.A
	unset := bson.A{"_id"}

	for _, rel := range p.Relations {

		stages = append(stages, bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: rel.Collection},
			{Key: "localField", Value: rel.LocalKey},
			{Key: "foreignField", Value: collection.IDField},
			{Key: "as", Value: rel.Alias},
		}}})

		joined := "$" + rel.Alias
		var value any
		if rel.AllFields() {
			value = bson.D{{Key: "$first", Value: joined}}
			unset = append(unset, rel.Alias+"._id")
		} else {
			fields := bson.D{}
			for _, field := range rel.Fields {
				fields = append(fields, bson.E{Key: field, Value: bson.D{{Key: "$first", Value: joined + "." + field}}})
			}

			value = bson.D{{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$gt", Value: bson.A{bson.D{{Key: "$size", Value: joined}}, 0}}}},
				{Key: "then", Value: fields},
				{Key: "else", Value: nil},
			}}}
		}

		stages = append(stages, bson.D{{Key: "$addFields", Value: bson.D{
			{Key: rel.Alias, Value: bson.D{{Key: "$ifNull", Value: bson.A{value, nil}}}},
		}}})
	}

	if !p.All {

		include := bson.D{}
		for _, field := range p.Fields {
			include = append(include, bson.E{Key: field, Value: 1})
		}

		for _, rel := range p.Relations {
			include = append(include, bson.E{Key: rel.Alias, Value: 1})
		}

		stages = append(stages, bson.D{{Key: "$project", Value: include}})
	}

	return append(stages, bson.D{{Key: "$unset", Value: unset}})
}

func toRecord(doc bson.M) collection.Record {

	rec := make(collection.Record, len(doc))
	for key, value := range doc {
		rec[key] = toValue(value)
	}

	return rec
}

func toValue(value any) any {

	switch v := value.(type) {
	case bson.M:
		return toRecord(v)
	case bson.D:
		return toRecord(v.Map())
	case bson.A:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = toValue(item)
		}
		return out
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.ObjectID:
		return v.Hex()
	case time.Time:
		return v.UTC()
	default:
		return v
	}
}

func classify(err error, collectionName string) error {

	if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return errors.TransportError.Wrap(err, backendName)
	}

	var serverErr mongo.ServerError
	if goerrors.As(err, &serverErr) {
		return errors.BackendQueryError.Wrap(err, collectionName)
	}

	return errors.TransportError.Wrap(err, backendName)
}
