package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/supakorn-kn/propadmin/collection"
	serverError "github.com/supakorn-kn/propadmin/errors"
	"github.com/supakorn-kn/propadmin/mongodb"
	"github.com/supakorn-kn/propadmin/objects"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BaseModel stores records of one collection in MongoDB.
type BaseModel[T objects.Item] struct {
	Coll *mongo.Collection

	name string
	now  func() time.Time
}

func NewBaseModel[T objects.Item](conn *mongodb.MongoDBConn, collectionName string) *BaseModel[T] {

	return &BaseModel[T]{
		Coll: conn.GetCollection(collectionName),
		name: collectionName,
		now:  time.Now,
	}
}

func (m BaseModel[T]) GetCollectionName() string {
	return m.name
}

// Insert stores a new record under a generated id and returns the id.
func (m BaseModel[T]) Insert(ctx context.Context, item T) (string, error) {

	if err := item.Validate(); err != nil {
		return "", err
	}

	doc, err := objects.Encode(item)
	if err != nil {
		return "", err
	}

	itemID := uuid.NewString()
	doc[collection.IDField] = itemID
	doc[collection.CreatedAtField] = m.now().UTC()

	if _, err := m.Coll.InsertOne(ctx, doc); err != nil {

		if mongo.IsDuplicateKeyError(err) {
			return "", serverError.DuplicatedObjectIDError.New(itemID)
		}

		return "", err
	}

	return itemID, nil
}

func (m BaseModel[T]) GetByID(ctx context.Context, itemID string) (item T, err error) {

	result := m.Coll.FindOne(ctx, bson.D{{Key: collection.IDField, Value: itemID}})

	err = result.Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = serverError.ObjectIDNotFoundError.New(itemID)
		return
	}

	return
}

// Update overwrites the stored fields of a record, leaving its id and
// created_at untouched.
func (m BaseModel[T]) Update(ctx context.Context, itemID string, item T) error {

	if err := item.Validate(); err != nil {
		return err
	}

	filter, err := mongodb.CreateMatchBson(collection.IDField, itemID, collection.EqualMatchType)
	if err != nil {
		return err
	}

	doc, err := objects.Encode(item)
	if err != nil {
		return err
	}

	var updateBson bson.D
	for key, value := range doc {

		if key != collection.IDField && key != collection.CreatedAtField {
			updateBson = append(updateBson, bson.E{Key: key, Value: value})
		}
	}

	option := options.FindOneAndUpdate()
	result := m.Coll.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: updateBson}}, option)
	if err := result.Err(); err != nil {

		if errors.Is(err, mongo.ErrNoDocuments) {
			return serverError.ObjectIDNotFoundError.New(itemID)
		}

		return err
	}

	return nil
}

func (m BaseModel[T]) Delete(ctx context.Context, itemID string) error {

	filter := bson.D{{Key: collection.IDField, Value: itemID}}

	result := m.Coll.FindOneAndDelete(ctx, filter)
	if err := result.Err(); err != nil {

		if errors.Is(err, mongo.ErrNoDocuments) {
			return serverError.ObjectIDNotFoundError.New(itemID)
		}

		return err
	}

	return nil
}
