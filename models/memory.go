package models

import (
	"context"

	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/memstore"
	"github.com/supakorn-kn/propadmin/objects"
)

// MemoryModel keeps records of one collection in a memstore.Store.
type MemoryModel[T objects.Item] struct {
	store *memstore.Store
	name  string
}

func NewMemoryModel[T objects.Item](store *memstore.Store, collectionName string) *MemoryModel[T] {
	return &MemoryModel[T]{store: store, name: collectionName}
}

func (m MemoryModel[T]) GetCollectionName() string {
	return m.name
}

func (m MemoryModel[T]) Insert(_ context.Context, item T) (string, error) {

	if err := item.Validate(); err != nil {
		return "", err
	}

	rec, err := objects.Encode(item)
	if err != nil {
		return "", err
	}

	delete(rec, collection.IDField)

	stored, err := m.store.Insert(m.name, rec)
	if err != nil {
		return "", err
	}

	itemID, _ := stored[collection.IDField].(string)
	return itemID, nil
}

func (m MemoryModel[T]) GetByID(_ context.Context, itemID string) (item T, err error) {

	rec, err := m.store.Get(m.name, itemID)
	if err != nil {
		return item, err
	}

	return objects.Decode[T](rec)
}

func (m MemoryModel[T]) Update(_ context.Context, itemID string, item T) error {

	if err := item.Validate(); err != nil {
		return err
	}

	rec, err := objects.Encode(item)
	if err != nil {
		return err
	}

	return m.store.Update(m.name, itemID, rec)
}

func (m MemoryModel[T]) Delete(ctx context.Context, itemID string) error {
	return m.store.Delete(ctx, m.name, itemID)
}
