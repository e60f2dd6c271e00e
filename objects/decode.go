package objects

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decode converts a backend row into a typed record. Rows from JSON backends
// carry timestamps as RFC 3339 strings and numbers as float64.
func Decode[T any](rec collection.Record) (T, error) {

	var out T

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			dateTimeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return out, err
	}

	if err := decoder.Decode(rec); err != nil {
		return out, errors.InvalidRecordError.New(err.Error())
	}

	return out, nil
}

// DecodeAll decodes every row of a page.
func DecodeAll[T any](rows []collection.Record) ([]T, error) {

	items := make([]T, 0, len(rows))
	for _, rec := range rows {

		item, err := Decode[T](rec)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, nil
}

// Encode flattens a record into the stored field set, leaving out embedded
// relations and a zero created_at.
func Encode(item any) (collection.Record, error) {

	b, err := bson.Marshal(item)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	if err := bson.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	rec := make(collection.Record, len(doc))
	for key, value := range doc {

		if dt, ok := value.(primitive.DateTime); ok {
			at := dt.Time().UTC()
			if at.Equal(time.Time{}) {
				continue
			}
			rec[key] = at
			continue
		}

		rec[key] = value
	}

	return rec, nil
}

func dateTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {

	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}

	if dt, ok := data.(primitive.DateTime); ok {
		return dt.Time().UTC(), nil
	}

	return data, nil
}

func requireFields(fields map[string]string) error {

	var missing []string
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return invalid("%s must not be empty", strings.Join(missing, ", "))
	}

	return nil
}

func invalid(format string, args ...any) error {
	return errors.InvalidRecordError.New(fmt.Sprintf(format, args...))
}
