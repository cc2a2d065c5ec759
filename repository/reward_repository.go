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

// RewardRepositoryImpl implements RewardRepository interface
type RewardRepositoryImpl struct {
	*BaseRepository[models.Reward, models.RewardFilter]
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &RewardRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Reward, models.RewardFilter](db),
	}
}

func applyRewardFilter(filter models.RewardFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
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

// ByFilter retrieves rewards matching the filter criteria
func (r *RewardRepositoryImpl) ByFilter(ctx context.Context, filter models.RewardFilter, orderBy string, limit, offset int) ([]*models.Reward, error) {
	return r.list(ctx, applyRewardFilter(filter), orderBy, limit, offset)
}

// Count returns the number of rewards matching the filter
func (r *RewardRepositoryImpl) Count(ctx context.Context, filter models.RewardFilter) (int64, error) {
	return r.count(ctx, applyRewardFilter(filter))
}

// Exists checks if any reward matching the filter exists
func (r *RewardRepositoryImpl) Exists(ctx context.Context, filter models.RewardFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ListActive returns the active reward catalog cheapest first
func (r *RewardRepositoryImpl) ListActive(ctx context.Context) ([]*models.Reward, error) {
	active := true
	rewards, err := r.ByFilter(ctx, models.RewardFilter{IsActive: &active}, "points_cost ASC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rewards: %w", err)
	}

	return rewards, nil
}

// RewardRedemptionRepositoryImpl implements RewardRedemptionRepository interface
type RewardRedemptionRepositoryImpl struct {
	*BaseRepository[models.RewardRedemption, models.RewardRedemptionFilter]
}

// NewRewardRedemptionRepository creates a new reward redemption repository
func NewRewardRedemptionRepository(db *gorm.DB) RewardRedemptionRepository {
	return &RewardRedemptionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.RewardRedemption, models.RewardRedemptionFilter](db),
	}
}

func applyRewardRedemptionFilter(filter models.RewardRedemptionFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.RewardID != nil {
			db = db.Where("reward_id = ?", *filter.RewardID)
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

// ByFilter retrieves redemptions matching the filter criteria
func (r *RewardRedemptionRepositoryImpl) ByFilter(ctx context.Context, filter models.RewardRedemptionFilter, orderBy string, limit, offset int) ([]*models.RewardRedemption, error) {
	return r.list(ctx, applyRewardRedemptionFilter(filter), orderBy, limit, offset)
}

// Count returns the number of redemptions matching the filter
func (r *RewardRedemptionRepositoryImpl) Count(ctx context.Context, filter models.RewardRedemptionFilter) (int64, error) {
	return r.count(ctx, applyRewardRedemptionFilter(filter))
}

// Exists checks if any redemption matching the filter exists
func (r *RewardRedemptionRepositoryImpl) Exists(ctx context.Context, filter models.RewardRedemptionFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ByCode retrieves a redemption by its code, case-insensitively
func (r *RewardRedemptionRepositoryImpl) ByCode(ctx context.Context, code string) (*models.RewardRedemption, error) {
	db := r.getDB(ctx)

	var redemption models.RewardRedemption
	err := db.Preload("Reward").
		Where("code = ?", utils.NormalizeCode(code)).
		First(&redemption).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find redemption by code: %w", err)
	}

	return &redemption, nil
}

// ListByUser returns a user's redemptions newest first with reward details
func (r *RewardRedemptionRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.RewardRedemption, error) {
	db := r.getDB(ctx)

	var redemptions []*models.RewardRedemption
	err := db.Preload("Reward").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&redemptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions for user %s: %w", userID, err)
	}

	return redemptions, nil
}
