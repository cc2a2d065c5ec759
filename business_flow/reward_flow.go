package businessflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// Redemption codes stay claimable for thirty days
const redemptionValidityDays = 30

// Minting retries when a freshly generated code collides with an existing one
const codeMintAttempts = 5

// RewardFlow manages the catalog and the redemption code lifecycle
type RewardFlow interface {
	CreateReward(ctx context.Context, request *dto.CreateRewardRequest) (*dto.RewardView, error)
	ListActive(ctx context.Context) ([]dto.RewardView, error)
	DeactivateReward(ctx context.Context, rewardID uuid.UUID) error
	Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*dto.RedemptionView, error)
	ValidateCode(ctx context.Context, code string) (*dto.ValidateCodeResponse, error)
	UseCode(ctx context.Context, code string) (*dto.RedemptionView, error)
	ExpireCode(ctx context.Context, code string) (*dto.RedemptionView, error)
	ListRedemptions(ctx context.Context, userID uuid.UUID, status string) ([]dto.RedemptionView, error)
}

// RewardFlowImpl implements the reward business flow
type RewardFlowImpl struct {
	rewardRepo     repository.RewardRepository
	redemptionRepo repository.RewardRedemptionRepository
	profileRepo    repository.GamificationProfileRepository
	experienceRepo repository.ExperienceEntryRepository
	db             *gorm.DB
}

// NewRewardFlow creates a new reward flow instance
func NewRewardFlow(
	rewardRepo repository.RewardRepository,
	redemptionRepo repository.RewardRedemptionRepository,
	profileRepo repository.GamificationProfileRepository,
	experienceRepo repository.ExperienceEntryRepository,
	db *gorm.DB,
) RewardFlow {
	return &RewardFlowImpl{
		rewardRepo:     rewardRepo,
		redemptionRepo: redemptionRepo,
		profileRepo:    profileRepo,
		experienceRepo: experienceRepo,
		db:             db,
	}
}

// CreateReward adds a reward to the catalog
func (rf *RewardFlowImpl) CreateReward(ctx context.Context, request *dto.CreateRewardRequest) (*dto.RewardView, error) {
	reward := &models.Reward{
		Name:           request.Name,
		Description:    request.Description,
		PointsCost:     request.PointsCost,
		Type:           request.Type,
		Value:          request.Value,
		MaxRedemptions: request.MaxRedemptions,
		IsActive:       utils.ToPtr(true),
	}
	if err := rf.rewardRepo.Save(ctx, reward); err != nil {
		return nil, NewBusinessError("REWARD_CREATE_FAILED", "Failed to create reward", err)
	}

	view := rewardView(reward)
	return &view, nil
}

// ListActive returns the redeemable catalog
func (rf *RewardFlowImpl) ListActive(ctx context.Context) ([]dto.RewardView, error) {
	rewards, err := rf.rewardRepo.ListActive(ctx)
	if err != nil {
		return nil, NewBusinessError("REWARD_LIST_FAILED", "Failed to list rewards", err)
	}

	views := make([]dto.RewardView, 0, len(rewards))
	for _, reward := range rewards {
		views = append(views, rewardView(reward))
	}

	return views, nil
}

// DeactivateReward removes a reward from the redeemable catalog
func (rf *RewardFlowImpl) DeactivateReward(ctx context.Context, rewardID uuid.UUID) error {
	reward, err := rf.rewardRepo.ByID(ctx, rewardID)
	if err != nil {
		return NewBusinessError("REWARD_LOOKUP_FAILED", "Failed to load reward", err)
	}
	if reward == nil {
		return NewBusinessError("REWARD_NOT_FOUND", "Reward not found", ErrRewardNotFound)
	}

	reward.IsActive = utils.ToPtr(false)
	reward.UpdatedAt = utils.UTCNow()
	if err := rf.rewardRepo.Update(ctx, reward); err != nil {
		return NewBusinessError("REWARD_UPDATE_FAILED", "Failed to deactivate reward", err)
	}

	return nil
}

// Redeem exchanges experience points for a redemption code. The deduction,
// the code mint and the capacity bump commit together.
func (rf *RewardFlowImpl) Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*dto.RedemptionView, error) {
	var redemption *models.RewardRedemption
	var reward *models.Reward

	err := repository.WithTransaction(ctx, rf.db, func(ctx context.Context) error {
		var err error
		reward, err = rf.rewardRepo.ByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if reward == nil {
			return ErrRewardNotFound
		}
		if !utils.IsTrue(reward.IsActive) {
			return ErrRewardInactive
		}
		if !reward.HasCapacity() {
			return ErrRewardOutOfStock
		}

		profile, err := rf.profileRepo.ByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if profile == nil || profile.Experience < reward.PointsCost {
			return ErrInsufficientExperience
		}

		code, err := rf.mintCode(ctx)
		if err != nil {
			return err
		}

		expiresAt := utils.UTCNow().AddDate(0, 0, redemptionValidityDays)
		redemption = &models.RewardRedemption{
			UserID:      userID,
			RewardID:    reward.ID,
			PointsSpent: reward.PointsCost,
			Code:        code,
			ExpiresAt:   &expiresAt,
		}
		if err := rf.redemptionRepo.Save(ctx, redemption); err != nil {
			return err
		}

		if reward.PointsCost > 0 {
			profile.Experience -= reward.PointsCost
			profile.Level = LevelForXP(profile.Experience)
			profile.UpdatedAt = utils.UTCNow()
			if err := rf.profileRepo.Update(ctx, profile); err != nil {
				return err
			}

			entry := &models.ExperienceEntry{
				UserID: userID,
				Delta:  -reward.PointsCost,
				Reason: "reward redemption",
			}
			if err := rf.experienceRepo.Save(ctx, entry); err != nil {
				return err
			}
		}

		reward.CurrentRedemptions++
		reward.UpdatedAt = utils.UTCNow()
		return rf.rewardRepo.Update(ctx, reward)
	})
	if err != nil {
		return nil, NewBusinessError("REDEEM_FAILED", "Failed to redeem reward", err)
	}

	redemption.Reward = reward
	view := redemptionView(redemption)
	return &view, nil
}

// mintCode generates a code not yet present in the redemption table
func (rf *RewardFlowImpl) mintCode(ctx context.Context) (string, error) {
	for i := 0; i < codeMintAttempts; i++ {
		code, err := utils.NewRedemptionCode()
		if err != nil {
			return "", err
		}

		existing, err := rf.redemptionRepo.ByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}

	return "", fmt.Errorf("could not mint a unique redemption code after %d attempts", codeMintAttempts)
}

// ValidateCode reports the state of a code without changing it
func (rf *RewardFlowImpl) ValidateCode(ctx context.Context, code string) (*dto.ValidateCodeResponse, error) {
	redemption, err := rf.redemptionRepo.ByCode(ctx, code)
	if err != nil {
		return nil, NewBusinessError("CODE_LOOKUP_FAILED", "Failed to look up code", err)
	}
	if redemption == nil {
		return nil, NewBusinessError("CODE_NOT_FOUND", "Redemption code not found", ErrCodeNotFound)
	}

	expired := redemption.IsExpired(utils.UTCNow())
	response := &dto.ValidateCodeResponse{
		Valid:   !redemption.Used && !expired,
		Used:    redemption.Used,
		Expired: expired,
	}
	if redemption.Reward != nil {
		view := rewardView(redemption.Reward)
		response.Reward = &view
	}

	return response, nil
}

// UseCode marks a code as claimed. Used and expired codes are rejected.
func (rf *RewardFlowImpl) UseCode(ctx context.Context, code string) (*dto.RedemptionView, error) {
	var redemption *models.RewardRedemption

	err := repository.WithTransaction(ctx, rf.db, func(ctx context.Context) error {
		var err error
		redemption, err = rf.redemptionRepo.ByCode(ctx, code)
		if err != nil {
			return err
		}
		if redemption == nil {
			return ErrCodeNotFound
		}
		if redemption.Used {
			return ErrCodeAlreadyUsed
		}
		if redemption.IsExpired(utils.UTCNow()) {
			return ErrCodeExpired
		}

		now := utils.UTCNow()
		redemption.Used = true
		redemption.UsedAt = &now
		return rf.redemptionRepo.Update(ctx, redemption)
	})
	if err != nil {
		return nil, NewBusinessError("USE_CODE_FAILED", "Failed to use redemption code", err)
	}

	view := redemptionView(redemption)
	return &view, nil
}

// ExpireCode invalidates an unused code immediately. Expiring an already
// expired code is a no-op.
func (rf *RewardFlowImpl) ExpireCode(ctx context.Context, code string) (*dto.RedemptionView, error) {
	var redemption *models.RewardRedemption

	err := repository.WithTransaction(ctx, rf.db, func(ctx context.Context) error {
		var err error
		redemption, err = rf.redemptionRepo.ByCode(ctx, code)
		if err != nil {
			return err
		}
		if redemption == nil {
			return ErrCodeNotFound
		}
		if redemption.Used {
			return ErrCodeAlreadyUsed
		}
		if redemption.IsExpired(utils.UTCNow()) {
			return nil
		}

		now := utils.UTCNow()
		redemption.ExpiresAt = &now
		return rf.redemptionRepo.Update(ctx, redemption)
	})
	if err != nil {
		return nil, NewBusinessError("EXPIRE_CODE_FAILED", "Failed to expire redemption code", err)
	}

	view := redemptionView(redemption)
	return &view, nil
}

// ListRedemptions returns a user's redemptions, optionally narrowed to
// available, used or expired ones
func (rf *RewardFlowImpl) ListRedemptions(ctx context.Context, userID uuid.UUID, status string) ([]dto.RedemptionView, error) {
	redemptions, err := rf.redemptionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("REDEMPTION_LIST_FAILED", "Failed to list redemptions", err)
	}

	now := utils.UTCNow()
	views := make([]dto.RedemptionView, 0, len(redemptions))
	for _, redemption := range redemptions {
		expired := redemption.IsExpired(now)
		switch status {
		case "available":
			if redemption.Used || expired {
				continue
			}
		case "used":
			if !redemption.Used {
				continue
			}
		case "expired":
			if !expired || redemption.Used {
				continue
			}
		}
		views = append(views, redemptionView(redemption))
	}

	return views, nil
}

func rewardView(reward *models.Reward) dto.RewardView {
	return dto.RewardView{
		ID:                 reward.ID,
		Name:               reward.Name,
		Description:        reward.Description,
		PointsCost:         reward.PointsCost,
		Type:               reward.Type,
		Value:              reward.Value,
		MaxRedemptions:     reward.MaxRedemptions,
		CurrentRedemptions: reward.CurrentRedemptions,
	}
}

func redemptionView(redemption *models.RewardRedemption) dto.RedemptionView {
	view := dto.RedemptionView{
		Code:        redemption.Code,
		PointsSpent: redemption.PointsSpent,
		Used:        redemption.Used,
		UsedAt:      redemption.UsedAt,
		ExpiresAt:   redemption.ExpiresAt,
		CreatedAt:   redemption.CreatedAt,
	}
	if redemption.Reward != nil {
		view.RewardName = redemption.Reward.Name
	}
	return view
}
