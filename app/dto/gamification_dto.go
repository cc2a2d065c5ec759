package dto

import (
	"time"

	"github.com/google/uuid"
)

// TicketProcessedEvent reports one processed ticket to the gamification engine
type TicketProcessedEvent struct {
	UserID         uuid.UUID  `json:"user_id" validate:"required"`
	TicketID       uuid.UUID  `json:"ticket_id" validate:"required"`
	IsValid        bool       `json:"is_valid"`
	TotalAmount    *float64   `json:"total_amount,omitempty" validate:"omitempty,gte=0"`
	StoreName      *string    `json:"store_name,omitempty" validate:"omitempty,max=255"`
	ProcessingDate *time.Time `json:"processing_date,omitempty" validate:"omitempty"`
}

// TicketProcessedResult summarizes the progression effects of one ticket
type TicketProcessedResult struct {
	ExperienceGained int         `json:"experience_gained"`
	LevelBefore      int         `json:"level_before"`
	LevelAfter       int         `json:"level_after"`
	StreakDays       int         `json:"streak_days"`
	NewBadges        []BadgeView `json:"new_badges"`
}

// AddExperienceRequest grants or removes XP manually
type AddExperienceRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,max=255"`
}

// ProfileView is the public projection of a gamification profile
type ProfileView struct {
	UserID             uuid.UUID  `json:"user_id"`
	Level              int        `json:"level"`
	Experience         int        `json:"experience"`
	NextLevelAt        int        `json:"next_level_at"`
	ProgressPercentage float64    `json:"progress_percentage"`
	TotalTickets       int        `json:"total_tickets"`
	ValidTickets       int        `json:"valid_tickets"`
	TotalSpent         float64    `json:"total_spent"`
	StreakDays         int        `json:"streak_days"`
	LastScanDate       *time.Time `json:"last_scan_date,omitempty"`
	BadgesEarned       int        `json:"badges_earned"`
}

// BadgeView is the public projection of a badge
type BadgeView struct {
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
}

// StatsResponse combines profile and badges
type StatsResponse struct {
	Profile ProfileView `json:"profile"`
	Badges  []BadgeView `json:"badges"`
}

// ExperienceEntryView is one XP log row
type ExperienceEntryView struct {
	Delta     int        `json:"delta"`
	Reason    string     `json:"reason"`
	TicketID  *uuid.UUID `json:"ticket_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// LeaderboardEntry is one leaderboard row
type LeaderboardEntry struct {
	UserID     uuid.UUID `json:"user_id"`
	Level      int       `json:"level"`
	Experience int       `json:"experience"`
	StreakDays int       `json:"streak_days"`
}

// RewardView is the public projection of a catalog reward
type RewardView struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	PointsCost         int       `json:"points_cost"`
	Type               string    `json:"type"`
	Value              string    `json:"value"`
	MaxRedemptions     *int      `json:"max_redemptions,omitempty"`
	CurrentRedemptions int       `json:"current_redemptions"`
}

// CreateRewardRequest adds a reward to the catalog
type CreateRewardRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Description    string `json:"description,omitempty" validate:"omitempty,max=2000"`
	PointsCost     int    `json:"points_cost" validate:"gte=0"`
	Type           string `json:"type" validate:"required,max=50"`
	Value          string `json:"value,omitempty" validate:"omitempty,max=255"`
	MaxRedemptions *int   `json:"max_redemptions,omitempty" validate:"omitempty,gt=0"`
}

// RedemptionView is the public projection of a redemption
type RedemptionView struct {
	Code        string     `json:"code"`
	RewardName  string     `json:"reward_name"`
	PointsSpent int        `json:"points_spent"`
	Used        bool       `json:"used"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ValidateCodeResponse reports the state of a redemption code
type ValidateCodeResponse struct {
	Valid   bool        `json:"valid"`
	Used    bool        `json:"used"`
	Expired bool        `json:"expired"`
	Reward  *RewardView `json:"reward,omitempty"`
}

// CreateSpecialRewardRequest defines a special reward distribution target
type CreateSpecialRewardRequest struct {
	Name           string     `json:"name" validate:"required,max=255"`
	Description    string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Type           string     `json:"type" validate:"required,max=50"`
	Value          string     `json:"value,omitempty" validate:"omitempty,max=255"`
	IsGlobal       bool       `json:"is_global"`
	TargetUsers    []string   `json:"target_users,omitempty" validate:"omitempty,dive,uuid"`
	TargetSegments []string   `json:"target_segments,omitempty" validate:"omitempty,dive,max=255"`
	MaxRedemptions *int       `json:"max_redemptions,omitempty" validate:"omitempty,gt=0"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty" validate:"omitempty"`
}

// SpecialRewardView is the public projection of a special reward
type SpecialRewardView struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Value       string     `json:"value"`
	IsGlobal    bool       `json:"is_global"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsRedeemed  bool       `json:"is_redeemed"`
	Code        string     `json:"code,omitempty"`
}

// DistributeResponse summarizes a special reward distribution
type DistributeResponse struct {
	SpecialRewardID uuid.UUID `json:"special_reward_id"`
	Distributed     int       `json:"distributed"`
	Notified        int       `json:"notified"`
}
