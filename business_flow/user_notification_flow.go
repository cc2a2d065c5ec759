package businessflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// UserNotificationFlow manages the in-app notification inbox
type UserNotificationFlow interface {
	Create(ctx context.Context, userID uuid.UUID, title, message, notificationType string, relatedID *uuid.UUID) (*dto.UserNotificationView, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) (*dto.ListNotificationsResponse, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*dto.NotificationStatsResponse, error)
}

// UserNotificationFlowImpl implements the in-app notification business flow
type UserNotificationFlowImpl struct {
	notificationRepo repository.UserNotificationRepository
	db               *gorm.DB
}

// NewUserNotificationFlow creates a new user notification flow instance
func NewUserNotificationFlow(notificationRepo repository.UserNotificationRepository, db *gorm.DB) UserNotificationFlow {
	return &UserNotificationFlowImpl{
		notificationRepo: notificationRepo,
		db:               db,
	}
}

// Create stores one in-app notification
func (nf *UserNotificationFlowImpl) Create(ctx context.Context, userID uuid.UUID, title, message, notificationType string, relatedID *uuid.UUID) (*dto.UserNotificationView, error) {
	notification := &models.UserNotification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notificationType,
		RelatedID: relatedID,
	}
	if err := nf.notificationRepo.Save(ctx, notification); err != nil {
		return nil, NewBusinessError("NOTIFICATION_CREATE_FAILED", "Failed to create notification", err)
	}

	view := userNotificationView(notification)
	return &view, nil
}

// List pages through the inbox, newest first, with the unread total
func (nf *UserNotificationFlowImpl) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) (*dto.ListNotificationsResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	notifications, err := nf.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, NewBusinessError("NOTIFICATION_LIST_FAILED", "Failed to list notifications", err)
	}

	unread, err := nf.notificationRepo.Count(ctx, models.UserNotificationFilter{
		UserID: &userID,
		Read:   utils.ToPtr(false),
	})
	if err != nil {
		return nil, NewBusinessError("NOTIFICATION_LIST_FAILED", "Failed to count unread notifications", err)
	}

	views := make([]dto.UserNotificationView, 0, len(notifications))
	for _, notification := range notifications {
		views = append(views, userNotificationView(notification))
	}

	return &dto.ListNotificationsResponse{
		Notifications: views,
		UnreadCount:   unread,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

// MarkRead marks one of the caller's notifications as read
func (nf *UserNotificationFlowImpl) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	notification, err := nf.notificationRepo.ByID(ctx, notificationID)
	if err != nil {
		return NewBusinessError("NOTIFICATION_LOOKUP_FAILED", "Failed to load notification", err)
	}
	if notification == nil || notification.UserID != userID {
		return NewBusinessError("NOTIFICATION_NOT_FOUND", "Notification not found", ErrNotificationNotFound)
	}
	if notification.Read {
		return nil
	}

	if err := nf.notificationRepo.MarkRead(ctx, notificationID, utils.UTCNow()); err != nil {
		return NewBusinessError("NOTIFICATION_UPDATE_FAILED", "Failed to mark notification read", err)
	}

	return nil
}

// MarkAllRead marks the caller's entire inbox as read
func (nf *UserNotificationFlowImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := nf.notificationRepo.MarkAllRead(ctx, userID, utils.UTCNow()); err != nil {
		return NewBusinessError("NOTIFICATION_UPDATE_FAILED", "Failed to mark notifications read", err)
	}

	return nil
}

// Stats groups the caller's notifications by type
func (nf *UserNotificationFlowImpl) Stats(ctx context.Context, userID uuid.UUID) (*dto.NotificationStatsResponse, error) {
	stats, err := nf.notificationRepo.StatsByType(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("NOTIFICATION_STATS_FAILED", "Failed to aggregate notifications", err)
	}

	response := &dto.NotificationStatsResponse{ByType: stats}
	for _, stat := range stats {
		response.Total += stat.Count
	}

	return response, nil
}

func userNotificationView(notification *models.UserNotification) dto.UserNotificationView {
	return dto.UserNotificationView{
		ID:        notification.ID,
		Title:     notification.Title,
		Message:   notification.Message,
		Type:      notification.Type,
		RelatedID: notification.RelatedID,
		Read:      notification.Read,
		ReadAt:    notification.ReadAt,
		CreatedAt: notification.CreatedAt,
	}
}
