package businessflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// SpecialRewardFlow manages targeted reward distributions. A special reward
// costs no points: eligible users receive a pre-minted code and claim it in
// one step.
type SpecialRewardFlow interface {
	Create(ctx context.Context, request *dto.CreateSpecialRewardRequest) (*dto.SpecialRewardView, error)
	Distribute(ctx context.Context, specialRewardID uuid.UUID) (*dto.DistributeResponse, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]dto.SpecialRewardView, error)
	Redeem(ctx context.Context, userID, specialRewardID uuid.UUID) (*dto.SpecialRewardView, error)
}

// SpecialRewardFlowImpl implements the special reward business flow
type SpecialRewardFlowImpl struct {
	specialRepo      repository.SpecialRewardRepository
	redemptionRepo   repository.SpecialRewardRedemptionRepository
	userRepo         repository.UserRepository
	notificationRepo repository.UserNotificationRepository
	segmentFlow      SegmentFlow
	db               *gorm.DB
}

// NewSpecialRewardFlow creates a new special reward flow instance
func NewSpecialRewardFlow(
	specialRepo repository.SpecialRewardRepository,
	redemptionRepo repository.SpecialRewardRedemptionRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.UserNotificationRepository,
	segmentFlow SegmentFlow,
	db *gorm.DB,
) SpecialRewardFlow {
	return &SpecialRewardFlowImpl{
		specialRepo:      specialRepo,
		redemptionRepo:   redemptionRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		segmentFlow:      segmentFlow,
		db:               db,
	}
}

// Create defines a special reward and its targeting
func (sf *SpecialRewardFlowImpl) Create(ctx context.Context, request *dto.CreateSpecialRewardRequest) (*dto.SpecialRewardView, error) {
	reward := &models.SpecialReward{
		Name:           request.Name,
		Description:    request.Description,
		Type:           request.Type,
		Value:          request.Value,
		IsGlobal:       request.IsGlobal,
		TargetUsers:    pq.StringArray(request.TargetUsers),
		TargetSegments: pq.StringArray(request.TargetSegments),
		MaxRedemptions: request.MaxRedemptions,
		ExpiresAt:      request.ExpiresAt,
		IsActive:       utils.ToPtr(true),
	}
	if err := sf.specialRepo.Save(ctx, reward); err != nil {
		return nil, NewBusinessError("SPECIAL_REWARD_CREATE_FAILED", "Failed to create special reward", err)
	}

	view := specialRewardView(reward, nil)
	return &view, nil
}

// Distribute mints one unused redemption per eligible user, up to the
// remaining capacity, and notifies each recipient
func (sf *SpecialRewardFlowImpl) Distribute(ctx context.Context, specialRewardID uuid.UUID) (*dto.DistributeResponse, error) {
	reward, err := sf.specialRepo.ByID(ctx, specialRewardID)
	if err != nil {
		return nil, NewBusinessError("SPECIAL_REWARD_LOOKUP_FAILED", "Failed to load special reward", err)
	}
	if reward == nil {
		return nil, NewBusinessError("SPECIAL_REWARD_NOT_FOUND", "Special reward not found", ErrSpecialRewardNotFound)
	}
	if reward.IsExpired(utils.UTCNow()) {
		return nil, NewBusinessError("SPECIAL_REWARD_EXPIRED", "Special reward has expired", ErrSpecialRewardNoAccess)
	}

	targets, err := sf.resolveTargets(ctx, reward)
	if err != nil {
		return nil, NewBusinessError("DISTRIBUTION_FAILED", "Failed to resolve distribution targets", err)
	}

	remaining := len(targets)
	if reward.MaxRedemptions != nil {
		distributed, err := sf.redemptionRepo.CountByReward(ctx, reward.ID)
		if err != nil {
			return nil, NewBusinessError("DISTRIBUTION_FAILED", "Failed to count existing distributions", err)
		}
		remaining = *reward.MaxRedemptions - int(distributed)
		if remaining < 0 {
			remaining = 0
		}
	}

	response := &dto.DistributeResponse{SpecialRewardID: reward.ID}
	err = repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		for _, userID := range targets {
			if response.Distributed >= remaining {
				break
			}

			existing, err := sf.redemptionRepo.ByUserAndReward(ctx, userID, reward.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}

			code, err := utils.NewSpecialRewardCode()
			if err != nil {
				return err
			}
			redemption := &models.SpecialRewardRedemption{
				UserID:          userID,
				SpecialRewardID: reward.ID,
				Code:            code,
			}
			if err := sf.redemptionRepo.Save(ctx, redemption); err != nil {
				return err
			}
			response.Distributed++

			notification := &models.UserNotification{
				UserID:    userID,
				Title:     "Has rebut una recompensa!",
				Message:   fmt.Sprintf("Tens disponible la recompensa %s", reward.Name),
				Type:      models.NotificationTypeSpecialReward,
				RelatedID: &reward.ID,
			}
			if err := sf.notificationRepo.Save(ctx, notification); err != nil {
				return err
			}
			response.Notified++
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("DISTRIBUTION_FAILED", "Failed to distribute special reward", err)
	}

	return response, nil
}

// resolveTargets expands the reward's targeting into concrete user ids
func (sf *SpecialRewardFlowImpl) resolveTargets(ctx context.Context, reward *models.SpecialReward) ([]uuid.UUID, error) {
	if reward.IsGlobal {
		role := models.RoleUser
		users, err := sf.userRepo.ByFilter(ctx, models.UserFilter{Role: &role, IsActive: utils.ToPtr(true)}, "", 0, 0)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(users))
		for _, user := range users {
			ids = append(ids, user.ID)
		}
		return ids, nil
	}

	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID

	for _, raw := range reward.TargetUsers {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, segmentName := range reward.TargetSegments {
		members, err := sf.segmentFlow.MembersByName(ctx, segmentName)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		for _, id := range members {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	return ids, nil
}

// ListForUser returns the special rewards the user can see, with their claim
// state and code when one was distributed
func (sf *SpecialRewardFlowImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]dto.SpecialRewardView, error) {
	rewards, err := sf.specialRepo.ListActive(ctx)
	if err != nil {
		return nil, NewBusinessError("SPECIAL_REWARD_LIST_FAILED", "Failed to list special rewards", err)
	}

	now := utils.UTCNow()
	views := make([]dto.SpecialRewardView, 0, len(rewards))
	for _, reward := range rewards {
		if reward.IsExpired(now) {
			continue
		}

		redemption, err := sf.redemptionRepo.ByUserAndReward(ctx, userID, reward.ID)
		if err != nil {
			return nil, NewBusinessError("SPECIAL_REWARD_LIST_FAILED", "Failed to list special rewards", err)
		}

		eligible := reward.IsGlobal || reward.TargetsUser(userID) || redemption != nil
		if !eligible && len(reward.TargetSegments) > 0 {
			for _, segmentName := range reward.TargetSegments {
				member, err := sf.segmentFlow.IsMemberByName(ctx, segmentName, userID)
				if err != nil {
					if IsNotFound(err) {
						continue
					}
					return nil, NewBusinessError("SPECIAL_REWARD_LIST_FAILED", "Failed to list special rewards", err)
				}
				if member {
					eligible = true
					break
				}
			}
		}
		if !eligible {
			continue
		}

		views = append(views, specialRewardView(reward, redemption))
	}

	return views, nil
}

// Redeem claims a distributed special reward. The claim marks the redemption
// used immediately; there is no separate code-presentation step.
func (sf *SpecialRewardFlowImpl) Redeem(ctx context.Context, userID, specialRewardID uuid.UUID) (*dto.SpecialRewardView, error) {
	var reward *models.SpecialReward
	var redemption *models.SpecialRewardRedemption

	err := repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		var err error
		reward, err = sf.specialRepo.ByID(ctx, specialRewardID)
		if err != nil {
			return err
		}
		if reward == nil {
			return ErrSpecialRewardNotFound
		}
		if !utils.IsTrue(reward.IsActive) || reward.IsExpired(utils.UTCNow()) {
			return ErrSpecialRewardNoAccess
		}

		redemption, err = sf.redemptionRepo.ByUserAndReward(ctx, userID, specialRewardID)
		if err != nil {
			return err
		}
		if redemption == nil {
			return ErrSpecialRewardNoAccess
		}
		if redemption.Used {
			return ErrCodeAlreadyUsed
		}

		now := utils.UTCNow()
		redemption.Used = true
		redemption.UsedAt = &now
		return sf.redemptionRepo.Update(ctx, redemption)
	})
	if err != nil {
		return nil, NewBusinessError("SPECIAL_REDEEM_FAILED", "Failed to redeem special reward", err)
	}

	view := specialRewardView(reward, redemption)
	return &view, nil
}

func specialRewardView(reward *models.SpecialReward, redemption *models.SpecialRewardRedemption) dto.SpecialRewardView {
	view := dto.SpecialRewardView{
		ID:          reward.ID,
		Name:        reward.Name,
		Description: reward.Description,
		Type:        reward.Type,
		Value:       reward.Value,
		IsGlobal:    reward.IsGlobal,
		ExpiresAt:   reward.ExpiresAt,
	}
	if redemption != nil {
		view.IsRedeemed = redemption.Used
		view.Code = redemption.Code
	}
	return view
}
