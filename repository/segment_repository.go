// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/mercat-labs/loyalty-platform/models"
	"gorm.io/gorm"
)

// SegmentRepositoryImpl implements SegmentRepository interface
type SegmentRepositoryImpl struct {
	*BaseRepository[models.Segment, models.SegmentFilter]
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(db *gorm.DB) SegmentRepository {
	return &SegmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Segment, models.SegmentFilter](db),
	}
}

func applySegmentFilter(filter models.SegmentFilter) func(*gorm.DB) *gorm.DB {
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

// ByFilter retrieves segments matching the filter criteria
func (r *SegmentRepositoryImpl) ByFilter(ctx context.Context, filter models.SegmentFilter, orderBy string, limit, offset int) ([]*models.Segment, error) {
	return r.list(ctx, applySegmentFilter(filter), orderBy, limit, offset)
}

// Count returns the number of segments matching the filter
func (r *SegmentRepositoryImpl) Count(ctx context.Context, filter models.SegmentFilter) (int64, error) {
	return r.count(ctx, applySegmentFilter(filter))
}

// Exists checks if any segment matching the filter exists
func (r *SegmentRepositoryImpl) Exists(ctx context.Context, filter models.SegmentFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ByName retrieves a segment by its exact name
func (r *SegmentRepositoryImpl) ByName(ctx context.Context, name string) (*models.Segment, error) {
	segments, err := r.ByFilter(ctx, models.SegmentFilter{Name: &name}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find segment by name: %w", err)
	}

	if len(segments) == 0 {
		return nil, nil
	}

	return segments[0], nil
}

// ListActive returns all active segments newest first
func (r *SegmentRepositoryImpl) ListActive(ctx context.Context) ([]*models.Segment, error) {
	active := true
	segments, err := r.ByFilter(ctx, models.SegmentFilter{IsActive: &active}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list active segments: %w", err)
	}

	return segments, nil
}
