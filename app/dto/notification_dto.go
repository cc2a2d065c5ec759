package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercat-labs/loyalty-platform/models"
)

// UserNotificationView is the public projection of an in-app notification
type UserNotificationView struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	RelatedID *uuid.UUID `json:"related_id,omitempty"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ListNotificationsResponse pages through a user's in-app notifications
type ListNotificationsResponse struct {
	Notifications []UserNotificationView `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
}

// NotificationStatsResponse groups a user's notifications by type
type NotificationStatsResponse struct {
	Total  int64                         `json:"total"`
	ByType []models.NotificationTypeStat `json:"by_type"`
}
