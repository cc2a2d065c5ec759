package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// GamificationFlow drives levels, experience, streaks and badges
type GamificationFlow interface {
	ProcessTicketEvent(ctx context.Context, event *dto.TicketProcessedEvent) (*dto.TicketProcessedResult, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*dto.StatsResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*dto.ProfileView, error)
	GetBadges(ctx context.Context, userID uuid.UUID) ([]dto.BadgeView, error)
	GetExperienceLog(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.ExperienceEntryView, error)
	AddExperience(ctx context.Context, userID uuid.UUID, request *dto.AddExperienceRequest) (*dto.ProfileView, error)
	ResetProfile(ctx context.Context, userID uuid.UUID) error
	Leaderboard(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error)
}

// GamificationFlowImpl implements the gamification business flow
type GamificationFlowImpl struct {
	profileRepo      repository.GamificationProfileRepository
	badgeRepo        repository.BadgeRepository
	experienceRepo   repository.ExperienceEntryRepository
	notificationRepo repository.UserNotificationRepository
	db               *gorm.DB
}

// NewGamificationFlow creates a new gamification flow instance
func NewGamificationFlow(
	profileRepo repository.GamificationProfileRepository,
	badgeRepo repository.BadgeRepository,
	experienceRepo repository.ExperienceEntryRepository,
	notificationRepo repository.UserNotificationRepository,
	db *gorm.DB,
) GamificationFlow {
	return &GamificationFlowImpl{
		profileRepo:      profileRepo,
		badgeRepo:        badgeRepo,
		experienceRepo:   experienceRepo,
		notificationRepo: notificationRepo,
		db:               db,
	}
}

// ProcessTicketEvent applies one processed ticket to the user's progression.
// Counters, streak, XP, level and badges all move inside one transaction.
func (gf *GamificationFlowImpl) ProcessTicketEvent(ctx context.Context, event *dto.TicketProcessedEvent) (*dto.TicketProcessedResult, error) {
	result := &dto.TicketProcessedResult{NewBadges: []dto.BadgeView{}}

	err := repository.WithTransaction(ctx, gf.db, func(ctx context.Context) error {
		profile, err := gf.loadOrCreateProfile(ctx, event.UserID)
		if err != nil {
			return err
		}
		result.LevelBefore = profile.Level

		profile.TotalTickets++
		if event.IsValid {
			profile.ValidTickets++
			if event.TotalAmount != nil {
				profile.TotalSpent += *event.TotalAmount
			}
		}

		processingDate := utils.UTCNow()
		if event.ProcessingDate != nil {
			processingDate = event.ProcessingDate.UTC()
		}
		gf.updateStreak(profile, processingDate)

		totalAmount := 0.0
		if event.TotalAmount != nil {
			totalAmount = *event.TotalAmount
		}
		gained := TicketXP(event.IsValid, totalAmount)
		result.ExperienceGained = gained

		if gained > 0 {
			profile.Experience += gained
			entry := &models.ExperienceEntry{
				UserID:   event.UserID,
				TicketID: &event.TicketID,
				Delta:    gained,
				Reason:   "valid ticket",
			}
			if err := gf.experienceRepo.Save(ctx, entry); err != nil {
				return err
			}
		}

		profile.Level = LevelForXP(profile.Experience)
		if profile.Level > result.LevelBefore {
			if err := gf.notifyLevelUp(ctx, event.UserID, profile.Level); err != nil {
				return err
			}
		}

		newBadges, err := gf.awardBadges(ctx, profile)
		if err != nil {
			return err
		}
		result.NewBadges = newBadges
		result.LevelAfter = profile.Level
		result.StreakDays = profile.StreakDays

		profile.UpdatedAt = utils.UTCNow()
		return gf.profileRepo.Update(ctx, profile)
	})
	if err != nil {
		return nil, NewBusinessError("TICKET_EVENT_FAILED", "Failed to process ticket event", err)
	}

	return result, nil
}

func (gf *GamificationFlowImpl) loadOrCreateProfile(ctx context.Context, userID uuid.UUID) (*models.GamificationProfile, error) {
	profile, err := gf.profileRepo.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	profile = &models.GamificationProfile{
		UserID: userID,
		Level:  1,
	}
	if err := gf.profileRepo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create gamification profile: %w", err)
	}

	return profile, nil
}

// updateStreak advances the consecutive-day counter against the scan date.
// Same-day scans leave the streak untouched; a gap of two or more days
// resets it to one.
func (gf *GamificationFlowImpl) updateStreak(profile *models.GamificationProfile, processingDate time.Time) {
	today := utils.DateOf(processingDate)

	switch {
	case profile.LastScanDate == nil:
		profile.StreakDays = 1
	case utils.DateOf(*profile.LastScanDate).Equal(today):
		return
	case utils.DateOf(*profile.LastScanDate).AddDate(0, 0, 1).Equal(today):
		profile.StreakDays++
	default:
		profile.StreakDays = 1
	}

	profile.LastScanDate = &today
}

func (gf *GamificationFlowImpl) awardBadges(ctx context.Context, profile *models.GamificationProfile) ([]dto.BadgeView, error) {
	var earned []dto.BadgeView

	for _, definition := range badgeDefinitions {
		if !definition.Qualifies(profile) {
			continue
		}

		has, err := gf.badgeRepo.HasActiveBadge(ctx, profile.UserID, definition.Type)
		if err != nil {
			return nil, err
		}
		if has {
			continue
		}

		badge := &models.Badge{
			UserID:      profile.UserID,
			Type:        definition.Type,
			Name:        definition.Name,
			Description: definition.Description,
			EarnedAt:    utils.UTCNow(),
			IsActive:    utils.ToPtr(true),
		}
		if err := gf.badgeRepo.Save(ctx, badge); err != nil {
			return nil, err
		}
		profile.BadgesEarned++

		notification := &models.UserNotification{
			UserID:    profile.UserID,
			Title:     "Nova insígnia!",
			Message:   fmt.Sprintf("Has aconseguit la insígnia %s", definition.Name),
			Type:      models.NotificationTypeBadge,
			RelatedID: &badge.ID,
		}
		if err := gf.notificationRepo.Save(ctx, notification); err != nil {
			return nil, err
		}

		earned = append(earned, dto.BadgeView{
			Type:        badge.Type,
			Name:        badge.Name,
			Description: badge.Description,
			EarnedAt:    badge.EarnedAt,
		})
	}

	if earned == nil {
		earned = []dto.BadgeView{}
	}
	return earned, nil
}

func (gf *GamificationFlowImpl) notifyLevelUp(ctx context.Context, userID uuid.UUID, level int) error {
	notification := &models.UserNotification{
		UserID:  userID,
		Title:   "Has pujat de nivell!",
		Message: fmt.Sprintf("Felicitats, has arribat al nivell %d", level),
		Type:    models.NotificationTypeLevelUp,
	}
	return gf.notificationRepo.Save(ctx, notification)
}

// GetStats returns the profile plus active badges
func (gf *GamificationFlowImpl) GetStats(ctx context.Context, userID uuid.UUID) (*dto.StatsResponse, error) {
	profile, err := gf.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	badges, err := gf.GetBadges(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.StatsResponse{
		Profile: *profile,
		Badges:  badges,
	}, nil
}

// GetProfile returns the progression profile, creating it lazily
func (gf *GamificationFlowImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*dto.ProfileView, error) {
	profile, err := gf.profileRepo.ByUserID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("PROFILE_LOOKUP_FAILED", "Failed to load gamification profile", err)
	}
	if profile == nil {
		profile = &models.GamificationProfile{UserID: userID, Level: 1}
		if err := gf.profileRepo.Save(ctx, profile); err != nil {
			return nil, NewBusinessError("PROFILE_CREATE_FAILED", "Failed to create gamification profile", err)
		}
	}

	view := profileView(profile)
	return &view, nil
}

func profileView(profile *models.GamificationProfile) dto.ProfileView {
	return dto.ProfileView{
		UserID:             profile.UserID,
		Level:              profile.Level,
		Experience:         profile.Experience,
		NextLevelAt:        NextLevelThreshold(profile.Level),
		ProgressPercentage: ProgressPercentage(profile.Experience),
		TotalTickets:       profile.TotalTickets,
		ValidTickets:       profile.ValidTickets,
		TotalSpent:         profile.TotalSpent,
		StreakDays:         profile.StreakDays,
		LastScanDate:       profile.LastScanDate,
		BadgesEarned:       profile.BadgesEarned,
	}
}

// GetBadges returns a user's active badges
func (gf *GamificationFlowImpl) GetBadges(ctx context.Context, userID uuid.UUID) ([]dto.BadgeView, error) {
	badges, err := gf.badgeRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("BADGE_LOOKUP_FAILED", "Failed to load badges", err)
	}

	views := make([]dto.BadgeView, 0, len(badges))
	for _, badge := range badges {
		views = append(views, dto.BadgeView{
			Type:        badge.Type,
			Name:        badge.Name,
			Description: badge.Description,
			EarnedAt:    badge.EarnedAt,
		})
	}

	return views, nil
}

// GetExperienceLog returns a page of the XP log
func (gf *GamificationFlowImpl) GetExperienceLog(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.ExperienceEntryView, error) {
	if limit <= 0 {
		limit = 50
	}

	entries, err := gf.experienceRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("EXPERIENCE_LOG_FAILED", "Failed to load experience log", err)
	}

	views := make([]dto.ExperienceEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, dto.ExperienceEntryView{
			Delta:     entry.Delta,
			Reason:    entry.Reason,
			TicketID:  entry.TicketID,
			CreatedAt: entry.CreatedAt,
		})
	}

	return views, nil
}

// AddExperience grants or removes XP manually and recomputes the level
func (gf *GamificationFlowImpl) AddExperience(ctx context.Context, userID uuid.UUID, request *dto.AddExperienceRequest) (*dto.ProfileView, error) {
	var view dto.ProfileView

	err := repository.WithTransaction(ctx, gf.db, func(ctx context.Context) error {
		profile, err := gf.loadOrCreateProfile(ctx, userID)
		if err != nil {
			return err
		}

		profile.Experience += request.Delta
		if profile.Experience < 0 {
			profile.Experience = 0
		}
		profile.Level = LevelForXP(profile.Experience)
		profile.UpdatedAt = utils.UTCNow()

		entry := &models.ExperienceEntry{
			UserID: userID,
			Delta:  request.Delta,
			Reason: request.Reason,
		}
		if err := gf.experienceRepo.Save(ctx, entry); err != nil {
			return err
		}

		if err := gf.profileRepo.Update(ctx, profile); err != nil {
			return err
		}

		view = profileView(profile)
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("ADD_EXPERIENCE_FAILED", "Failed to add experience", err)
	}

	return &view, nil
}

// ResetProfile zeroes a user's progression
func (gf *GamificationFlowImpl) ResetProfile(ctx context.Context, userID uuid.UUID) error {
	err := repository.WithTransaction(ctx, gf.db, func(ctx context.Context) error {
		profile, err := gf.profileRepo.ByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrProfileNotFound
		}

		profile.Level = 1
		profile.Experience = 0
		profile.TotalTickets = 0
		profile.ValidTickets = 0
		profile.TotalSpent = 0
		profile.StreakDays = 0
		profile.LastScanDate = nil
		profile.BadgesEarned = 0
		profile.UpdatedAt = utils.UTCNow()

		return gf.profileRepo.Update(ctx, profile)
	})
	if err != nil {
		return NewBusinessError("RESET_PROFILE_FAILED", "Failed to reset gamification profile", err)
	}

	return nil
}

// Leaderboard returns the top profiles by experience
func (gf *GamificationFlowImpl) Leaderboard(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	profiles, err := gf.profileRepo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, NewBusinessError("LEADERBOARD_FAILED", "Failed to load leaderboard", err)
	}

	entries := make([]dto.LeaderboardEntry, 0, len(profiles))
	for _, profile := range profiles {
		entries = append(entries, dto.LeaderboardEntry{
			UserID:     profile.UserID,
			Level:      profile.Level,
			Experience: profile.Experience,
			StreakDays: profile.StreakDays,
		})
	}

	return entries, nil
}
