// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/mercat-labs/loyalty-platform/models"
	"gorm.io/gorm"
)

// MarketStoreRepositoryImpl implements MarketStoreRepository interface
type MarketStoreRepositoryImpl struct {
	*BaseRepository[models.MarketStore, models.MarketStoreFilter]
}

// NewMarketStoreRepository creates a new market store repository
func NewMarketStoreRepository(db *gorm.DB) MarketStoreRepository {
	return &MarketStoreRepositoryImpl{
		BaseRepository: NewBaseRepository[models.MarketStore, models.MarketStoreFilter](db),
	}
}

func applyMarketStoreFilter(filter models.MarketStoreFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.Name != nil {
			db = db.Where("name = ?", *filter.Name)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		return db
	}
}

// ByFilter retrieves market stores matching the filter criteria
func (r *MarketStoreRepositoryImpl) ByFilter(ctx context.Context, filter models.MarketStoreFilter, orderBy string, limit, offset int) ([]*models.MarketStore, error) {
	return r.list(ctx, applyMarketStoreFilter(filter), orderBy, limit, offset)
}

// Count returns the number of market stores matching the filter
func (r *MarketStoreRepositoryImpl) Count(ctx context.Context, filter models.MarketStoreFilter) (int64, error) {
	return r.count(ctx, applyMarketStoreFilter(filter))
}

// Exists checks if any market store matching the filter exists
func (r *MarketStoreRepositoryImpl) Exists(ctx context.Context, filter models.MarketStoreFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ListActiveNames returns the names of all active market stores
func (r *MarketStoreRepositoryImpl) ListActiveNames(ctx context.Context) ([]string, error) {
	db := r.getDB(ctx)

	var names []string
	err := db.Model(&models.MarketStore{}).
		Where("is_active = ?", true).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active market store names: %w", err)
	}

	return names, nil
}
