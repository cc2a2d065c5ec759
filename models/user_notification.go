package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-app notification types
const (
	NotificationTypeBadge         = "badge"
	NotificationTypeLevelUp       = "level_up"
	NotificationTypeReward        = "reward"
	NotificationTypeSpecialReward = "special_reward"
	NotificationTypeSystem        = "system"
)

// UserNotification is an in-app message shown to the user.
type UserNotification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_notifications_user_id" json:"user_id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	Type      string     `gorm:"size:50;not null;index:idx_user_notifications_type" json:"type"`
	RelatedID *uuid.UUID `gorm:"type:uuid" json:"related_id,omitempty"`
	Read      bool       `gorm:"not null;default:false;index:idx_user_notifications_read" json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_user_notifications_created_at" json:"created_at"`
}

func (UserNotification) TableName() string {
	return "user_notifications"
}

// BeforeCreate is called before creating a new record
func (n *UserNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// UserNotificationFilter represents filter criteria for in-app notification queries
type UserNotificationFilter struct {
	ID     *uuid.UUID
	UserID *uuid.UUID
	Type   *string
	Read   *bool
}

// NotificationTypeStat is one per-type count in the notification stats view.
type NotificationTypeStat struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}
