// Package postgres persists the reference food catalog and the pantry
// inventory via gorm.
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

// CatalogStore reads the reference catalog of known food products.
// Read-only from the pipeline's perspective.
type CatalogStore struct {
	db *gorm.DB
}

// NewCatalogStore creates a catalog store backed by db.
func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// ListEntries returns the full catalog.
func (s *CatalogStore) ListEntries(ctx context.Context) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	if err := s.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing catalog entries: %w", err)
	}
	return entries, nil
}
