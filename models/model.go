package models

import (
	"context"

	"github.com/supakorn-kn/propadmin/objects"
)

// Model performs single record operations for one collection.
type Model[T objects.Item] interface {
	GetCollectionName() string
	Insert(ctx context.Context, item T) (string, error)
	GetByID(ctx context.Context, itemID string) (T, error)
	Update(ctx context.Context, itemID string, item T) error
	Delete(ctx context.Context, itemID string) error
}

type PaginationData[Data any] struct {
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Count      int    `json:"count"`
	Data       []Data `json:"data"`
}
