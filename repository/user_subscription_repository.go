// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// UserSubscriptionRepositoryImpl implements UserSubscriptionRepository interface
type UserSubscriptionRepositoryImpl struct {
	*BaseRepository[models.UserSubscription, models.UserSubscriptionFilter]
}

// NewUserSubscriptionRepository creates a new subscription repository
func NewUserSubscriptionRepository(db *gorm.DB) UserSubscriptionRepository {
	return &UserSubscriptionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.UserSubscription, models.UserSubscriptionFilter](db),
	}
}

func applyUserSubscriptionFilter(filter models.UserSubscriptionFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.Channel != nil {
			db = db.Where("channel = ?", *filter.Channel)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		return db
	}
}

// ByFilter retrieves subscriptions matching the filter criteria
func (r *UserSubscriptionRepositoryImpl) ByFilter(ctx context.Context, filter models.UserSubscriptionFilter, orderBy string, limit, offset int) ([]*models.UserSubscription, error) {
	return r.list(ctx, applyUserSubscriptionFilter(filter), orderBy, limit, offset)
}

// Count returns the number of subscriptions matching the filter
func (r *UserSubscriptionRepositoryImpl) Count(ctx context.Context, filter models.UserSubscriptionFilter) (int64, error) {
	return r.count(ctx, applyUserSubscriptionFilter(filter))
}

// Exists checks if any subscription matching the filter exists
func (r *UserSubscriptionRepositoryImpl) Exists(ctx context.Context, filter models.UserSubscriptionFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ActiveByUserAndChannel retrieves a user's newest active subscription on a channel
func (r *UserSubscriptionRepositoryImpl) ActiveByUserAndChannel(ctx context.Context, userID uuid.UUID, channel string) (*models.UserSubscription, error) {
	active := true
	subscriptions, err := r.ByFilter(ctx, models.UserSubscriptionFilter{
		UserID:   &userID,
		Channel:  &channel,
		IsActive: &active,
	}, "created_at DESC", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find active subscription: %w", err)
	}

	if len(subscriptions) == 0 {
		return nil, nil
	}

	return subscriptions[0], nil
}

// ListByUser returns all subscriptions of a user newest first
func (r *UserSubscriptionRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserSubscription, error) {
	subscriptions, err := r.ByFilter(ctx, models.UserSubscriptionFilter{UserID: &userID}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for user %s: %w", userID, err)
	}

	return subscriptions, nil
}

// Deactivate marks a subscription inactive. Used when a channel endpoint
// reports the subscription gone.
func (r *UserSubscriptionRepositoryImpl) Deactivate(ctx context.Context, subscriptionID uuid.UUID) error {
	db := r.getDB(ctx)

	err := db.Model(&models.UserSubscription{}).
		Where("id = ?", subscriptionID).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate subscription: %w", err)
	}

	return nil
}
