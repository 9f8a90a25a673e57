package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

// PantryStore persists inventory records. Each mutation is a single
// atomic statement; no transaction spans a whole receipt upload.
type PantryStore struct {
	db *gorm.DB
}

// NewPantryStore creates a pantry store backed by db.
func NewPantryStore(db *gorm.DB) *PantryStore {
	return &PantryStore{db: db}
}

// Insert creates one inventory record and fills in its assigned id.
func (s *PantryStore) Insert(ctx context.Context, item *domain.PantryItem) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("inserting pantry item: %w", err)
	}
	return nil
}

// ListAll returns the full inventory ordered by ascending expiry date.
func (s *PantryStore) ListAll(ctx context.Context) ([]domain.PantryItem, error) {
	var items []domain.PantryItem
	if err := s.db.WithContext(ctx).Order("expirydate ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing pantry items: %w", err)
	}
	return items, nil
}

// Update changes the name and expiry date of the record with the given
// id. Returns ErrNotFound when no record matches.
func (s *PantryStore) Update(ctx context.Context, id uint, name, expiryDate string) error {
	result := s.db.WithContext(ctx).
		Model(&domain.PantryItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "expirydate": expiryDate})
	if result.Error != nil {
		return fmt.Errorf("updating pantry item %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the record with the given id. Returns ErrNotFound
// when no record matches.
func (s *PantryStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&domain.PantryItem{}, id)
	if result.Error != nil {
		return fmt.Errorf("deleting pantry item %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
