package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// SpecialReward is a points-free reward distributed to selected users.
// Targeting is by explicit user ids, by segment names, or globally.
type SpecialReward struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Description    string         `gorm:"type:text" json:"description"`
	Type           string         `gorm:"size:50;not null" json:"type"`
	Value          string         `gorm:"size:255" json:"value"`
	IsGlobal       bool           `gorm:"not null;default:false" json:"is_global"`
	TargetUsers    pq.StringArray `gorm:"type:text[]" json:"target_users"`
	TargetSegments pq.StringArray `gorm:"type:text[]" json:"target_segments"`
	MaxRedemptions *int           `json:"max_redemptions,omitempty"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	IsActive       *bool          `gorm:"default:true;index:idx_special_rewards_is_active" json:"is_active"`
	CreatedAt      time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (SpecialReward) TableName() string {
	return "special_rewards"
}

// BeforeCreate is called before creating a new record
func (s *SpecialReward) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TargetsUser reports whether the user id appears in the explicit target list.
func (s *SpecialReward) TargetsUser(userID uuid.UUID) bool {
	id := userID.String()
	for _, t := range s.TargetUsers {
		if t == id {
			return true
		}
	}
	return false
}

// IsExpired reports whether the special reward has passed its expiry.
func (s *SpecialReward) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// SpecialRewardFilter represents filter criteria for special reward queries
type SpecialRewardFilter struct {
	ID       *uuid.UUID
	Type     *string
	IsGlobal *bool
	IsActive *bool
}

// SpecialRewardRedemption is one distributed (and possibly claimed) row of a
// special reward. Distribution creates it unused; the user's claim marks it
// used in a single step.
type SpecialRewardRedemption struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_special_reward_redemptions_user_id" json:"user_id"`
	SpecialRewardID uuid.UUID  `gorm:"type:uuid;not null;index:idx_special_reward_redemptions_reward_id" json:"special_reward_id"`
	Code            string     `gorm:"size:20;not null;uniqueIndex:uk_special_reward_redemptions_code" json:"code"`
	Used            bool       `gorm:"not null;default:false" json:"used"`
	UsedAt          *time.Time `json:"used_at,omitempty"`
	CreatedAt       time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	SpecialReward *SpecialReward `gorm:"foreignKey:SpecialRewardID;references:ID" json:"special_reward,omitempty"`
}

func (SpecialRewardRedemption) TableName() string {
	return "special_reward_redemptions"
}

// BeforeCreate is called before creating a new record
func (r *SpecialRewardRedemption) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SpecialRewardRedemptionFilter represents filter criteria for special reward redemption queries
type SpecialRewardRedemptionFilter struct {
	ID              *uuid.UUID
	UserID          *uuid.UUID
	SpecialRewardID *uuid.UUID
	Code            *string
	Used            *bool
}
