package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Delivery channels
const (
	ChannelWebpush = "webpush"
	ChannelAndroid = "android"
	ChannelIOS     = "ios"
)

// ValidChannel reports whether the given delivery channel is supported.
func ValidChannel(channel string) bool {
	switch channel {
	case ChannelWebpush, ChannelAndroid, ChannelIOS:
		return true
	default:
		return false
	}
}

// UserSubscription is a per-channel delivery endpoint registration.
type UserSubscription struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index:idx_user_subscriptions_user_id" json:"user_id"`
	Channel          string    `gorm:"size:20;not null;index:idx_user_subscriptions_channel" json:"channel"`
	SubscriptionData JSONMap   `gorm:"type:jsonb;not null;default:'{}'" json:"subscription_data"`
	IsActive         *bool     `gorm:"default:true;index:idx_user_subscriptions_is_active" json:"is_active"`
	CreatedAt        time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt        time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

// BeforeCreate is called before creating a new record
func (s *UserSubscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.SubscriptionData == nil {
		s.SubscriptionData = JSONMap{}
	}
	return nil
}

// UserSubscriptionFilter represents filter criteria for subscription queries
type UserSubscriptionFilter struct {
	ID       *uuid.UUID
	UserID   *uuid.UUID
	Channel  *string
	IsActive *bool
}
