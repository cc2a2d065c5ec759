// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/models"
	"gorm.io/gorm"
)

// GamificationProfileRepositoryImpl implements GamificationProfileRepository interface
type GamificationProfileRepositoryImpl struct {
	*BaseRepository[models.GamificationProfile, models.GamificationProfileFilter]
}

// NewGamificationProfileRepository creates a new gamification profile repository
func NewGamificationProfileRepository(db *gorm.DB) GamificationProfileRepository {
	return &GamificationProfileRepositoryImpl{
		BaseRepository: NewBaseRepository[models.GamificationProfile, models.GamificationProfileFilter](db),
	}
}

func applyGamificationProfileFilter(filter models.GamificationProfileFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.MinLevel != nil {
			db = db.Where("level >= ?", *filter.MinLevel)
		}
		return db
	}
}

// ByFilter retrieves profiles matching the filter criteria
func (r *GamificationProfileRepositoryImpl) ByFilter(ctx context.Context, filter models.GamificationProfileFilter, orderBy string, limit, offset int) ([]*models.GamificationProfile, error) {
	return r.list(ctx, applyGamificationProfileFilter(filter), orderBy, limit, offset)
}

// Count returns the number of profiles matching the filter
func (r *GamificationProfileRepositoryImpl) Count(ctx context.Context, filter models.GamificationProfileFilter) (int64, error) {
	return r.count(ctx, applyGamificationProfileFilter(filter))
}

// Exists checks if any profile matching the filter exists
func (r *GamificationProfileRepositoryImpl) Exists(ctx context.Context, filter models.GamificationProfileFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ByUserID retrieves the profile of a user
func (r *GamificationProfileRepositoryImpl) ByUserID(ctx context.Context, userID uuid.UUID) (*models.GamificationProfile, error) {
	profiles, err := r.ByFilter(ctx, models.GamificationProfileFilter{UserID: &userID}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find gamification profile by user: %w", err)
	}

	if len(profiles) == 0 {
		return nil, nil
	}

	return profiles[0], nil
}

// Leaderboard returns top profiles ordered by experience
func (r *GamificationProfileRepositoryImpl) Leaderboard(ctx context.Context, limit int) ([]*models.GamificationProfile, error) {
	profiles, err := r.ByFilter(ctx, models.GamificationProfileFilter{}, "experience DESC, level DESC", limit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	return profiles, nil
}

// BadgeRepositoryImpl implements BadgeRepository interface
type BadgeRepositoryImpl struct {
	*BaseRepository[models.Badge, models.BadgeFilter]
}

// NewBadgeRepository creates a new badge repository
func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &BadgeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Badge, models.BadgeFilter](db),
	}
}

func applyBadgeFilter(filter models.BadgeFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.Type != nil {
			db = db.Where("type = ?", *filter.Type)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		return db
	}
}

// ByFilter retrieves badges matching the filter criteria
func (r *BadgeRepositoryImpl) ByFilter(ctx context.Context, filter models.BadgeFilter, orderBy string, limit, offset int) ([]*models.Badge, error) {
	return r.list(ctx, applyBadgeFilter(filter), orderBy, limit, offset)
}

// Count returns the number of badges matching the filter
func (r *BadgeRepositoryImpl) Count(ctx context.Context, filter models.BadgeFilter) (int64, error) {
	return r.count(ctx, applyBadgeFilter(filter))
}

// Exists checks if any badge matching the filter exists
func (r *BadgeRepositoryImpl) Exists(ctx context.Context, filter models.BadgeFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ListActiveByUser returns a user's active badges newest first
func (r *BadgeRepositoryImpl) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.Badge, error) {
	active := true
	badges, err := r.ByFilter(ctx, models.BadgeFilter{UserID: &userID, IsActive: &active}, "earned_at DESC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges for user %s: %w", userID, err)
	}

	return badges, nil
}

// HasActiveBadge checks whether the user already holds an active badge of the given type
func (r *BadgeRepositoryImpl) HasActiveBadge(ctx context.Context, userID uuid.UUID, badgeType string) (bool, error) {
	active := true
	return r.Exists(ctx, models.BadgeFilter{UserID: &userID, Type: &badgeType, IsActive: &active})
}

// ExperienceEntryRepositoryImpl implements ExperienceEntryRepository interface
type ExperienceEntryRepositoryImpl struct {
	*BaseRepository[models.ExperienceEntry, models.ExperienceEntryFilter]
}

// NewExperienceEntryRepository creates a new experience entry repository
func NewExperienceEntryRepository(db *gorm.DB) ExperienceEntryRepository {
	return &ExperienceEntryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ExperienceEntry, models.ExperienceEntryFilter](db),
	}
}

func applyExperienceEntryFilter(filter models.ExperienceEntryFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.Reason != nil {
			db = db.Where("reason = ?", *filter.Reason)
		}
		return db
	}
}

// ByFilter retrieves experience entries matching the filter criteria
func (r *ExperienceEntryRepositoryImpl) ByFilter(ctx context.Context, filter models.ExperienceEntryFilter, orderBy string, limit, offset int) ([]*models.ExperienceEntry, error) {
	return r.list(ctx, applyExperienceEntryFilter(filter), orderBy, limit, offset)
}

// Count returns the number of experience entries matching the filter
func (r *ExperienceEntryRepositoryImpl) Count(ctx context.Context, filter models.ExperienceEntryFilter) (int64, error) {
	return r.count(ctx, applyExperienceEntryFilter(filter))
}

// Exists checks if any experience entry matching the filter exists
func (r *ExperienceEntryRepositoryImpl) Exists(ctx context.Context, filter models.ExperienceEntryFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ListByUser returns a user's XP log newest first with pagination
func (r *ExperienceEntryRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ExperienceEntry, error) {
	entries, err := r.ByFilter(ctx, models.ExperienceEntryFilter{UserID: &userID}, "created_at DESC", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list experience entries for user %s: %w", userID, err)
	}

	return entries, nil
}
