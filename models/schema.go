package models

import (
	"context"
	"slices"

	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/mongodb"
	"github.com/supakorn-kn/propadmin/objects"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Schema is the validator and index set of one MongoDB collection.
type Schema struct {
	Collection  string
	Required    []string
	Properties  bson.M
	SearchField string
}

func stringProperty(description string) bson.M {
	return bson.M{"bsonType": "string", "description": description}
}

func numberProperty(description string) bson.M {
	return bson.M{"bsonType": []string{"int", "long", "double", "decimal"}, "minimum": 0, "description": description}
}

var baseProperties = bson.M{
	collection.IDField:        stringProperty("ID must not be empty"),
	collection.CreatedAtField: bson.M{"bsonType": "date", "description": "Creation time must be a date"},
	"name":                    stringProperty("Name must not be empty"),
}

var Schemas = map[string]Schema{
	objects.PropertiesCollection: {
		Collection: objects.PropertiesCollection,
		Required:   []string{"address", "city"},
		Properties: bson.M{
			"address":   stringProperty("Address must not be empty"),
			"city":      stringProperty("City must not be empty"),
			"image_url": stringProperty("Image URL must be a string"),
		},
		SearchField: "name",
	},
	objects.UnitsCollection: {
		Collection: objects.UnitsCollection,
		Required:   []string{"property_id"},
		Properties: bson.M{
			"property_id":     stringProperty("Property ID must not be empty"),
			"category_id":     stringProperty("Category ID must be a string"),
			"leasing_type_id": stringProperty("Leasing type ID must be a string"),
			"floor":           numberProperty("Floor must be a number"),
			"size":            numberProperty("Size must not be negative"),
			"price":           numberProperty("Price must not be negative"),
			"status": bson.M{
				"enum":        []string{"", string(objects.UnitAvailable), string(objects.UnitReserved), string(objects.UnitOccupied)},
				"description": "Status must be available, reserved or occupied",
			},
		},
		SearchField: "name",
	},
	objects.FacilitiesCollection: {
		Collection:  objects.FacilitiesCollection,
		Properties:  bson.M{"icon": stringProperty("Icon must be a string")},
		SearchField: "name",
	},
	objects.LeasingTypesCollection: {
		Collection:  objects.LeasingTypesCollection,
		Properties:  bson.M{"description": stringProperty("Description must be a string")},
		SearchField: "name",
	},
	objects.UnitCategoriesCollection: {
		Collection:  objects.UnitCategoriesCollection,
		SearchField: "name",
	},
}

// Validator renders the $jsonSchema document of the collection.
func (s Schema) Validator() bson.D {

	properties := bson.M{}
	for key, value := range baseProperties {
		properties[key] = value
	}

	for key, value := range s.Properties {
		properties[key] = value
	}

	required := append([]string{collection.IDField, "name", collection.CreatedAtField}, s.Required...)

	return bson.D{
		{
			Key: "$jsonSchema", Value: bson.M{
				"bsonType":   "object",
				"required":   required,
				"properties": properties,
			},
		},
	}
}

// Indexes lists the indexes every listing relies on.
func (s Schema) Indexes() []mongo.IndexModel {

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: collection.IDField, Value: 1}},
			Options: options.Index().SetName("id_1").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: collection.CreatedAtField, Value: -1}, {Key: collection.IDField, Value: -1}},
			Options: options.Index().SetName("created_at_-1_id_-1"),
		},
	}

	if s.SearchField != "" {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: s.SearchField, Value: 1}},
			Options: options.Index().SetName(s.SearchField + "_1"),
		})
	}

	return indexes
}

// Setup creates or updates the collection validator and ensures its indexes.
func (s Schema) Setup(ctx context.Context, conn *mongodb.MongoDBConn) error {

	if err := s.initCollection(ctx, conn); err != nil {
		return err
	}

	return s.initIndexes(ctx, conn)
}

func (s Schema) initCollection(ctx context.Context, conn *mongodb.MongoDBConn) error {

	db := conn.GetDatabase()

	collectionNameList, err := db.ListCollectionNames(ctx, bson.D{}, options.ListCollections())
	if err != nil {
		return err
	}

	validator := s.Validator()

	if slices.Contains(collectionNameList, s.Collection) {

		cmd := bson.D{
			{Key: "collMod", Value: s.Collection},
			{Key: "validator", Value: validator},
			{Key: "validationLevel", Value: "strict"},
		}

		result := db.RunCommand(ctx, cmd, options.RunCmd())
		return result.Err()
	}

	collectionOption := options.CreateCollection()
	collectionOption.SetValidator(validator)
	collectionOption.SetValidationLevel("strict")

	return db.CreateCollection(ctx, s.Collection, collectionOption)
}

func (s Schema) initIndexes(ctx context.Context, conn *mongodb.MongoDBConn) error {

	coll := conn.GetCollection(s.Collection)
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return err
	}

	var existing []bson.M
	if err := cur.All(ctx, &existing); err != nil {
		return err
	}

	var missing []mongo.IndexModel
	for _, index := range s.Indexes() {

		name := *index.Options.Name
		contains := slices.ContainsFunc(existing, func(m primitive.M) bool {
			return m["name"] == name
		})

		if !contains {
			missing = append(missing, index)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	_, err = coll.Indexes().CreateMany(ctx, missing, options.CreateIndexes())
	return err
}

// SetupAll prepares every registered collection.
func SetupAll(ctx context.Context, conn *mongodb.MongoDBConn) error {

	for _, name := range objects.Names() {
		if err := Schemas[name].Setup(ctx, conn); err != nil {
			return err
		}
	}

	return nil
}
