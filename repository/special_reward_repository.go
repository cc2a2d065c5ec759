// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// SpecialRewardRepositoryImpl implements SpecialRewardRepository interface
type SpecialRewardRepositoryImpl struct {
	*BaseRepository[models.SpecialReward, models.SpecialRewardFilter]
}

// NewSpecialRewardRepository creates a new special reward repository
func NewSpecialRewardRepository(db *gorm.DB) SpecialRewardRepository {
	return &SpecialRewardRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SpecialReward, models.SpecialRewardFilter](db),
	}
}

func applySpecialRewardFilter(filter models.SpecialRewardFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.Type != nil {
			db = db.Where("type = ?", *filter.Type)
		}
		if filter.IsGlobal != nil {
			db = db.Where("is_global = ?", *filter.IsGlobal)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		return db
	}
}

// ByFilter retrieves special rewards matching the filter criteria
func (r *SpecialRewardRepositoryImpl) ByFilter(ctx context.Context, filter models.SpecialRewardFilter, orderBy string, limit, offset int) ([]*models.SpecialReward, error) {
	return r.list(ctx, applySpecialRewardFilter(filter), orderBy, limit, offset)
}

// Count returns the number of special rewards matching the filter
func (r *SpecialRewardRepositoryImpl) Count(ctx context.Context, filter models.SpecialRewardFilter) (int64, error) {
	return r.count(ctx, applySpecialRewardFilter(filter))
}

// Exists checks if any special reward matching the filter exists
func (r *SpecialRewardRepositoryImpl) Exists(ctx context.Context, filter models.SpecialRewardFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ListActive returns all active special rewards newest first
func (r *SpecialRewardRepositoryImpl) ListActive(ctx context.Context) ([]*models.SpecialReward, error) {
	active := true
	rewards, err := r.ByFilter(ctx, models.SpecialRewardFilter{IsActive: &active}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list active special rewards: %w", err)
	}

	return rewards, nil
}

// SpecialRewardRedemptionRepositoryImpl implements SpecialRewardRedemptionRepository interface
type SpecialRewardRedemptionRepositoryImpl struct {
	*BaseRepository[models.SpecialRewardRedemption, models.SpecialRewardRedemptionFilter]
}

// NewSpecialRewardRedemptionRepository creates a new special reward redemption repository
func NewSpecialRewardRedemptionRepository(db *gorm.DB) SpecialRewardRedemptionRepository {
	return &SpecialRewardRedemptionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SpecialRewardRedemption, models.SpecialRewardRedemptionFilter](db),
	}
}

func applySpecialRewardRedemptionFilter(filter models.SpecialRewardRedemptionFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.SpecialRewardID != nil {
			db = db.Where("special_reward_id = ?", *filter.SpecialRewardID)
		}
		if filter.Code != nil {
			db = db.Where("code = ?", utils.NormalizeCode(*filter.Code))
		}
		if filter.Used != nil {
			db = db.Where("used = ?", *filter.Used)
		}
		return db
	}
}

// ByFilter retrieves special reward redemptions matching the filter criteria
func (r *SpecialRewardRedemptionRepositoryImpl) ByFilter(ctx context.Context, filter models.SpecialRewardRedemptionFilter, orderBy string, limit, offset int) ([]*models.SpecialRewardRedemption, error) {
	return r.list(ctx, applySpecialRewardRedemptionFilter(filter), orderBy, limit, offset)
}

// Count returns the number of special reward redemptions matching the filter
func (r *SpecialRewardRedemptionRepositoryImpl) Count(ctx context.Context, filter models.SpecialRewardRedemptionFilter) (int64, error) {
	return r.count(ctx, applySpecialRewardRedemptionFilter(filter))
}

// Exists checks if any special reward redemption matching the filter exists
func (r *SpecialRewardRedemptionRepositoryImpl) Exists(ctx context.Context, filter models.SpecialRewardRedemptionFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ByCode retrieves a special reward redemption by its code, case-insensitively
func (r *SpecialRewardRedemptionRepositoryImpl) ByCode(ctx context.Context, code string) (*models.SpecialRewardRedemption, error) {
	db := r.getDB(ctx)

	var redemption models.SpecialRewardRedemption
	err := db.Preload("SpecialReward").
		Where("code = ?", utils.NormalizeCode(code)).
		First(&redemption).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find special reward redemption by code: %w", err)
	}

	return &redemption, nil
}

// ByUserAndReward retrieves a user's distribution row for a special reward, if any
func (r *SpecialRewardRedemptionRepositoryImpl) ByUserAndReward(ctx context.Context, userID, specialRewardID uuid.UUID) (*models.SpecialRewardRedemption, error) {
	redemptions, err := r.ByFilter(ctx, models.SpecialRewardRedemptionFilter{
		UserID:          &userID,
		SpecialRewardID: &specialRewardID,
	}, "created_at ASC", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find special reward redemption: %w", err)
	}

	if len(redemptions) == 0 {
		return nil, nil
	}

	return redemptions[0], nil
}

// ListByUser returns a user's special reward redemptions newest first
func (r *SpecialRewardRedemptionRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.SpecialRewardRedemption, error) {
	db := r.getDB(ctx)

	var redemptions []*models.SpecialRewardRedemption
	err := db.Preload("SpecialReward").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&redemptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list special reward redemptions for user %s: %w", userID, err)
	}

	return redemptions, nil
}

// CountByReward returns the number of distribution rows for a special reward
func (r *SpecialRewardRedemptionRepositoryImpl) CountByReward(ctx context.Context, specialRewardID uuid.UUID) (int64, error) {
	return r.Count(ctx, models.SpecialRewardRedemptionFilter{SpecialRewardID: &specialRewardID})
}
