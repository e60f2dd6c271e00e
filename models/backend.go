package models

import (
	"context"

	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"github.com/supakorn-kn/propadmin/objects"
)

// BackendModel serves single records from a read backend such as postgres or
// postgrest. Writes other than Delete are not available through it.
type BackendModel[T objects.Item] struct {
	backend     collection.Backend
	backendName string
	name        string
}

func NewBackendModel[T objects.Item](backend collection.Backend, backendName, collectionName string) *BackendModel[T] {
	return &BackendModel[T]{backend: backend, backendName: backendName, name: collectionName}
}

func (m BackendModel[T]) GetCollectionName() string {
	return m.name
}

func (m BackendModel[T]) Insert(context.Context, T) (string, error) {
	return "", errors.OperationUnsupportedError.New("insert", m.backendName)
}

// GetByID reads the record through an exact match on id.
func (m BackendModel[T]) GetByID(ctx context.Context, itemID string) (item T, err error) {

	page, err := m.backend.Query(ctx, collection.Request{
		Collection:  m.name,
		Projection:  collection.Projection{All: true},
		SearchField: collection.IDField,
		MatchType:   collection.EqualMatchType,
		SearchTerm:  itemID,
		From:        0,
		To:          0,
	})
	if err != nil {
		return item, err
	}

	if len(page.Rows) == 0 {
		return item, errors.ObjectIDNotFoundError.New(itemID)
	}

	return objects.Decode[T](page.Rows[0])
}

func (m BackendModel[T]) Update(context.Context, string, T) error {
	return errors.OperationUnsupportedError.New("update", m.backendName)
}

func (m BackendModel[T]) Delete(ctx context.Context, itemID string) error {

	deleter, ok := m.backend.(collection.Deleter)
	if !ok {
		return errors.OperationUnsupportedError.New("delete", m.backendName)
	}

	return deleter.Delete(ctx, m.name, itemID)
}
