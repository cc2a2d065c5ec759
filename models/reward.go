package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reward is a points-priced item in the catalog.
type Reward struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name               string    `gorm:"size:255;not null" json:"name"`
	Description        string    `gorm:"type:text" json:"description"`
	PointsCost         int       `gorm:"not null;default:0" json:"points_cost"`
	Type               string    `gorm:"size:50;not null" json:"type"`
	Value              string    `gorm:"size:255" json:"value"`
	IsActive           *bool     `gorm:"default:true;index:idx_rewards_is_active" json:"is_active"`
	MaxRedemptions     *int      `json:"max_redemptions,omitempty"`
	CurrentRedemptions int       `gorm:"not null;default:0" json:"current_redemptions"`
	CreatedAt          time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt          time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Reward) TableName() string {
	return "rewards"
}

// BeforeCreate is called before creating a new record
func (r *Reward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// HasCapacity reports whether the reward can still be redeemed globally.
func (r *Reward) HasCapacity() bool {
	if r.MaxRedemptions == nil {
		return true
	}
	return r.CurrentRedemptions < *r.MaxRedemptions
}

// RewardFilter represents filter criteria for reward queries
type RewardFilter struct {
	ID       *uuid.UUID
	Type     *string
	IsActive *bool
}

// RewardRedemption is a minted redemption of a catalog reward.
type RewardRedemption struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_reward_redemptions_user_id" json:"user_id"`
	RewardID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_reward_redemptions_reward_id" json:"reward_id"`
	PointsSpent int        `gorm:"not null;default:0" json:"points_spent"`
	Code        string     `gorm:"size:20;not null;uniqueIndex:uk_reward_redemptions_code" json:"code"`
	Used        bool       `gorm:"not null;default:false" json:"used"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	Reward *Reward `gorm:"foreignKey:RewardID;references:ID" json:"reward,omitempty"`
}

func (RewardRedemption) TableName() string {
	return "reward_redemptions"
}

// BeforeCreate is called before creating a new record
func (r *RewardRedemption) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the redemption has passed its expiry.
func (r *RewardRedemption) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// RewardRedemptionFilter represents filter criteria for redemption queries
type RewardRedemptionFilter struct {
	ID       *uuid.UUID
	UserID   *uuid.UUID
	RewardID *uuid.UUID
	Code     *string
	Used     *bool
}
