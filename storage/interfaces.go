package storage

import (
	"context"
	"errors"

	"property-media/models"
)

// ErrNotFound is returned by RowStore.FindByID when no row matches.
var ErrNotFound = errors.New("storage: row not found")

// RowStore is the interface any backend holding listing tables must satisfy.
type RowStore interface {
	FindByID(ctx context.Context, table, id string) (models.Record, error)
	FetchAll(ctx context.Context, table string) ([]models.Record, error)
	Close() error
}

// PropertyWriter is the interface for persisting normalised properties.
type PropertyWriter interface {
	Write(ctx context.Context, properties []*models.Property) error
	Close() error
}
