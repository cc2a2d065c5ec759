// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/models"
	"gorm.io/gorm"
)

// UserNotificationRepositoryImpl implements UserNotificationRepository interface
type UserNotificationRepositoryImpl struct {
	*BaseRepository[models.UserNotification, models.UserNotificationFilter]
}

// NewUserNotificationRepository creates a new in-app notification repository
func NewUserNotificationRepository(db *gorm.DB) UserNotificationRepository {
	return &UserNotificationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.UserNotification, models.UserNotificationFilter](db),
	}
}

func applyUserNotificationFilter(filter models.UserNotificationFilter) func(*gorm.DB) *gorm.DB {
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
		if filter.Read != nil {
			db = db.Where("read = ?", *filter.Read)
		}
		return db
	}
}

// ByFilter retrieves in-app notifications matching the filter criteria
func (r *UserNotificationRepositoryImpl) ByFilter(ctx context.Context, filter models.UserNotificationFilter, orderBy string, limit, offset int) ([]*models.UserNotification, error) {
	return r.list(ctx, applyUserNotificationFilter(filter), orderBy, limit, offset)
}

// Count returns the number of in-app notifications matching the filter
func (r *UserNotificationRepositoryImpl) Count(ctx context.Context, filter models.UserNotificationFilter) (int64, error) {
	return r.count(ctx, applyUserNotificationFilter(filter))
}

// Exists checks if any in-app notification matching the filter exists
func (r *UserNotificationRepositoryImpl) Exists(ctx context.Context, filter models.UserNotificationFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ListByUser returns a user's in-app notifications newest first
func (r *UserNotificationRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*models.UserNotification, error) {
	filter := models.UserNotificationFilter{UserID: &userID}
	if unreadOnly {
		read := false
		filter.Read = &read
	}

	notifications, err := r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %s: %w", userID, err)
	}

	return notifications, nil
}

// MarkRead marks a single notification as read
func (r *UserNotificationRepositoryImpl) MarkRead(ctx context.Context, notificationID uuid.UUID, readAt time.Time) error {
	db := r.getDB(ctx)

	err := db.Model(&models.UserNotification{}).
		Where("id = ? AND read = ?", notificationID, false).
		Updates(map[string]any{
			"read":    true,
			"read_at": readAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return nil
}

// MarkAllRead marks every unread notification of a user as read
func (r *UserNotificationRepositoryImpl) MarkAllRead(ctx context.Context, userID uuid.UUID, readAt time.Time) error {
	db := r.getDB(ctx)

	err := db.Model(&models.UserNotification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]any{
			"read":    true,
			"read_at": readAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}

// StatsByType returns per-type notification counts for a user
func (r *UserNotificationRepositoryImpl) StatsByType(ctx context.Context, userID uuid.UUID) ([]models.NotificationTypeStat, error) {
	db := r.getDB(ctx)

	var stats []models.NotificationTypeStat
	err := db.Model(&models.UserNotification{}).
		Select("type, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("type").
		Order("count DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate notification stats: %w", err)
	}

	return stats, nil
}
