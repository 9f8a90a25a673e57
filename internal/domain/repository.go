package domain

import (
	"context"
	"image"
	"time"
)

// TextExtractor defines the interface to the optical character
// recognition engine. Implementations treat the engine as a black box:
// bilevel image in, raw multi-line text out.
type TextExtractor interface {
	ExtractText(ctx context.Context, img image.Image) (string, error)
}

// CatalogStore provides read access to the reference food catalog.
type CatalogStore interface {
	ListEntries(ctx context.Context) ([]CatalogEntry, error)
}

// PantryStore defines the interface for inventory persistence.
// ListAll returns records ordered by ascending expiry date.
// Update and Delete return ErrNotFound for an unknown id.
type PantryStore interface {
	Insert(ctx context.Context, item *PantryItem) error
	ListAll(ctx context.Context) ([]PantryItem, error)
	Update(ctx context.Context, id uint, name, expiryDate string) error
	Delete(ctx context.Context, id uint) error
}

// CacheRepository defines the interface for caching the loaded catalog
// between reconciliation passes.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]CatalogEntry, error)
	Set(ctx context.Context, key string, entries []CatalogEntry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
