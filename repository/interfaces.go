// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uuid.UUID) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences models.JSONMap) error
	UpdateRole(ctx context.Context, userID uuid.UUID, role string) error
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// MarketStoreRepository defines operations for the merchant roster
type MarketStoreRepository interface {
	Repository[models.MarketStore, models.MarketStoreFilter]
	ListActiveNames(ctx context.Context) ([]string, error)
}

// TicketRepository defines operations for tickets
type TicketRepository interface {
	Repository[models.Ticket, models.TicketFilter]
	ListPending(ctx context.Context, limit int) ([]*models.Ticket, error)
	ListTerminalByUser(ctx context.Context, userID uuid.UUID, statuses []string) ([]*models.Ticket, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Ticket, error)
}

// PurchaseRecordRepository defines operations for purchase history
type PurchaseRecordRepository interface {
	Repository[models.PurchaseRecord, models.PurchaseRecordFilter]
	ByTicketID(ctx context.Context, ticketID uuid.UUID) (*models.PurchaseRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.PurchaseRecord, error)
	Summary(ctx context.Context, userID uuid.UUID, topProducts int) (*models.PurchaseSummary, error)
	SpendingWindow(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.SpendingPeriodEntry, error)
	AggregateByUser(ctx context.Context, since *time.Time) ([]models.UserSpendingAggregate, error)
	DistinctUserIDs(ctx context.Context) ([]uuid.UUID, error)
	TotalSpent(ctx context.Context) (float64, error)
}

// GamificationProfileRepository defines operations for progression profiles
type GamificationProfileRepository interface {
	Repository[models.GamificationProfile, models.GamificationProfileFilter]
	ByUserID(ctx context.Context, userID uuid.UUID) (*models.GamificationProfile, error)
	Leaderboard(ctx context.Context, limit int) ([]*models.GamificationProfile, error)
}

// BadgeRepository defines operations for badges
type BadgeRepository interface {
	Repository[models.Badge, models.BadgeFilter]
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.Badge, error)
	HasActiveBadge(ctx context.Context, userID uuid.UUID, badgeType string) (bool, error)
}

// ExperienceEntryRepository defines operations for the XP log
type ExperienceEntryRepository interface {
	Repository[models.ExperienceEntry, models.ExperienceEntryFilter]
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ExperienceEntry, error)
}

// RewardRepository defines operations for the reward catalog
type RewardRepository interface {
	Repository[models.Reward, models.RewardFilter]
	ListActive(ctx context.Context) ([]*models.Reward, error)
}

// RewardRedemptionRepository defines operations for reward redemptions
type RewardRedemptionRepository interface {
	Repository[models.RewardRedemption, models.RewardRedemptionFilter]
	ByCode(ctx context.Context, code string) (*models.RewardRedemption, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.RewardRedemption, error)
}

// SpecialRewardRepository defines operations for special rewards
type SpecialRewardRepository interface {
	Repository[models.SpecialReward, models.SpecialRewardFilter]
	ListActive(ctx context.Context) ([]*models.SpecialReward, error)
}

// SpecialRewardRedemptionRepository defines operations for special reward redemptions
type SpecialRewardRedemptionRepository interface {
	Repository[models.SpecialRewardRedemption, models.SpecialRewardRedemptionFilter]
	ByCode(ctx context.Context, code string) (*models.SpecialRewardRedemption, error)
	ByUserAndReward(ctx context.Context, userID, specialRewardID uuid.UUID) (*models.SpecialRewardRedemption, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.SpecialRewardRedemption, error)
	CountByReward(ctx context.Context, specialRewardID uuid.UUID) (int64, error)
}

// UserNotificationRepository defines operations for in-app notifications
type UserNotificationRepository interface {
	Repository[models.UserNotification, models.UserNotificationFilter]
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*models.UserNotification, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID, readAt time.Time) error
	MarkAllRead(ctx context.Context, userID uuid.UUID, readAt time.Time) error
	StatsByType(ctx context.Context, userID uuid.UUID) ([]models.NotificationTypeStat, error)
}

// SegmentRepository defines operations for audience segments
type SegmentRepository interface {
	Repository[models.Segment, models.SegmentFilter]
	ByName(ctx context.Context, name string) (*models.Segment, error)
	ListActive(ctx context.Context) ([]*models.Segment, error)
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByIDWithSegments(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	LinkSegments(ctx context.Context, campaignID uuid.UUID, segmentIDs []uuid.UUID) error
}

// CampaignNotificationRepository defines operations for outbound notifications
type CampaignNotificationRepository interface {
	Repository[models.CampaignNotification, models.CampaignNotificationFilter]
	Stats(ctx context.Context) (*models.CampaignNotificationStats, error)
}

// UserSubscriptionRepository defines operations for delivery subscriptions
type UserSubscriptionRepository interface {
	Repository[models.UserSubscription, models.UserSubscriptionFilter]
	ActiveByUserAndChannel(ctx context.Context, userID uuid.UUID, channel string) (*models.UserSubscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserSubscription, error)
	Deactivate(ctx context.Context, subscriptionID uuid.UUID) error
}
