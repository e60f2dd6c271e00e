package mongodb

import (
	"regexp"

	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"go.mongodb.org/mongo-driver/bson"
)

func CreateMatchBson(key string, value string, matchType collection.MatchType) (bson.D, error) {

	switch matchType {

	case collection.EqualMatchType:
		return EqualMatchBson(key, value), nil

	case collection.PartialMatchType:
		return PartialMatchBson(key, value), nil

	case collection.StartWithMatchType:
		return StartWithMatchBson(key, value), nil

	case collection.EndWithMatchType:
		return EndWithMatchBson(key, value), nil

	default:
		return nil, errors.MatchTypeInvalidError.New(matchType)
	}
}

// EqualMatchBson creates BSON for equal search (Case-sensitive)
func EqualMatchBson(key string, value any) bson.D {
	return bson.D{{Key: key, Value: value}}
}

// PartialMatchBson creates BSON for partial search (Case-insensitive)
func PartialMatchBson(key string, value string) bson.D {
	return bson.D{{Key: key, Value: bson.M{"$regex": regexp.QuoteMeta(value), "$options": "i"}}}
}

// StartWithMatchBson creates BSON for start with keyword search (Case-insensitive)
func StartWithMatchBson(key string, value string) bson.D {
	return bson.D{{Key: key, Value: bson.M{"$regex": "^" + regexp.QuoteMeta(value), "$options": "i"}}}
}

// EndWithMatchBson creates BSON for end with keyword search (Case-insensitive)
func EndWithMatchBson(key string, value string) bson.D {
	return bson.D{{Key: key, Value: bson.M{"$regex": regexp.QuoteMeta(value) + "$", "$options": "i"}}}
}
