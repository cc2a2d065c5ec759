package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
)

// RewardHandlerInterface defines the contract for reward handlers
type RewardHandlerInterface interface {
	CreateReward(c fiber.Ctx) error
	ListRewards(c fiber.Ctx) error
	DeactivateReward(c fiber.Ctx) error
	Redeem(c fiber.Ctx) error
	ListRedemptions(c fiber.Ctx) error
	ValidateCode(c fiber.Ctx) error
	UseCode(c fiber.Ctx) error
	ExpireCode(c fiber.Ctx) error
	CreateSpecialReward(c fiber.Ctx) error
	DistributeSpecialReward(c fiber.Ctx) error
	ListSpecialRewards(c fiber.Ctx) error
	RedeemSpecialReward(c fiber.Ctx) error
}

// RewardHandler handles reward catalog, redemption and special reward HTTP requests
type RewardHandler struct {
	rewardFlow  businessflow.RewardFlow
	specialFlow businessflow.SpecialRewardFlow
	validator   *validator.Validate
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(rewardFlow businessflow.RewardFlow, specialFlow businessflow.SpecialRewardFlow) *RewardHandler {
	return &RewardHandler{
		rewardFlow:  rewardFlow,
		specialFlow: specialFlow,
		validator:   validator.New(),
	}
}

// CreateReward adds a reward to the catalog
// @Summary Create Reward
// @Tags Rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateRewardRequest true "Reward data"
// @Success 201 {object} dto.APIResponse{data=dto.RewardView} "Reward created"
// @Router /api/v1/gamification/rewards [post]
func (h *RewardHandler) CreateReward(c fiber.Ctx) error {
	var req dto.CreateRewardRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.rewardFlow.CreateReward(createRequestContext(c, "/api/v1/gamification/rewards"), &req)
	if err != nil {
		log.Printf("reward creation failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to create reward", "REWARD_CREATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusCreated, "Reward created", result)
}

// ListRewards returns the active catalog
// @Summary List Rewards
// @Tags Rewards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RewardView} "Rewards"
// @Router /api/v1/gamification/rewards [get]
func (h *RewardHandler) ListRewards(c fiber.Ctx) error {
	result, err := h.rewardFlow.ListActive(createRequestContext(c, "/api/v1/gamification/rewards"))
	if err != nil {
		log.Printf("reward listing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list rewards", "REWARD_LIST_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Rewards loaded", result)
}

// DeactivateReward removes a reward from the active catalog
// @Summary Deactivate Reward
// @Tags Rewards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reward ID"
// @Success 200 {object} dto.APIResponse "Reward deactivated"
// @Router /api/v1/gamification/rewards/{id} [delete]
func (h *RewardHandler) DeactivateReward(c fiber.Ctx) error {
	rewardID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid reward id", "INVALID_REWARD_ID", nil)
	}

	if err := h.rewardFlow.DeactivateReward(createRequestContext(c, "/api/v1/gamification/rewards/:id"), rewardID); err != nil {
		log.Printf("reward deactivation failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to deactivate reward", "REWARD_DEACTIVATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Reward deactivated", nil)
}

// Redeem exchanges the caller's experience points for a reward code
// @Summary Redeem Reward
// @Tags Rewards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reward ID"
// @Success 200 {object} dto.APIResponse{data=dto.RedemptionView} "Redemption code"
// @Failure 400 {object} dto.APIResponse "Insufficient points or reward unavailable"
// @Router /api/v1/gamification/rewards/{id}/redeem [post]
func (h *RewardHandler) Redeem(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	rewardID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid reward id", "INVALID_REWARD_ID", nil)
	}

	result, err := h.rewardFlow.Redeem(createRequestContext(c, "/api/v1/gamification/rewards/:id/redeem"), userID, rewardID)
	if err != nil {
		log.Printf("reward redemption failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to redeem reward", "REDEEM_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Reward redeemed", result)
}

// ListRedemptions pages through the caller's redemption codes
// @Summary List Redemptions
// @Tags Rewards
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter: available, used or expired"
// @Success 200 {object} dto.APIResponse{data=[]dto.RedemptionView} "Redemptions"
// @Router /api/v1/gamification/redemptions [get]
func (h *RewardHandler) ListRedemptions(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.rewardFlow.ListRedemptions(createRequestContext(c, "/api/v1/gamification/redemptions"), userID, c.Query("status"))
	if err != nil {
		log.Printf("redemption listing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list redemptions", "REDEMPTION_LIST_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Redemptions loaded", result)
}

// ValidateCode reports the state of a redemption code without consuming it
// @Summary Validate Code
// @Tags Rewards
// @Produce json
// @Security BearerAuth
// @Param code path string true "Redemption code"
// @Success 200 {object} dto.APIResponse{data=dto.ValidateCodeResponse} "Code state"
// @Failure 404 {object} dto.APIResponse "Code not found"
// @Router /api/v1/gamification/codes/{code} [get]
func (h *RewardHandler) ValidateCode(c fiber.Ctx) error {
	result, err := h.rewardFlow.ValidateCode(createRequestContext(c, "/api/v1/gamification/codes/:code"), c.Params("code"))
	if err != nil {
		return BusinessErrorResponse(c, err, "Failed to validate code", "CODE_VALIDATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Code validated", result)
}

// UseCode consumes a redemption code at the counter
// @Summary Use Code
// @Tags Rewards
// @Produce json
// @Security BearerAuth
// @Param code path string true "Redemption code"
// @Success 200 {object} dto.APIResponse{data=dto.RedemptionView} "Code consumed"
// @Failure 409 {object} dto.APIResponse "Code already used"
// @Router /api/v1/gamification/codes/{code}/use [post]
func (h *RewardHandler) UseCode(c fiber.Ctx) error {
	result, err := h.rewardFlow.UseCode(createRequestContext(c, "/api/v1/gamification/codes/:code/use"), c.Params("code"))
	if err != nil {
		log.Printf("code use failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to use code", "CODE_USE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Code used", result)
}

// ExpireCode invalidates an unused redemption code
// @Summary Expire Code
// @Tags Rewards
// @Produce json
// @Security BearerAuth
// @Param code path string true "Redemption code"
// @Success 200 {object} dto.APIResponse{data=dto.RedemptionView} "Code expired"
// @Router /api/v1/gamification/codes/{code}/expire [post]
func (h *RewardHandler) ExpireCode(c fiber.Ctx) error {
	result, err := h.rewardFlow.ExpireCode(createRequestContext(c, "/api/v1/gamification/codes/:code/expire"), c.Params("code"))
	if err != nil {
		log.Printf("code expiry failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to expire code", "CODE_EXPIRE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Code expired", result)
}

// CreateSpecialReward defines a targeted reward
// @Summary Create Special Reward
// @Tags SpecialRewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSpecialRewardRequest true "Special reward data"
// @Success 201 {object} dto.APIResponse{data=dto.SpecialRewardView} "Special reward created"
// @Router /api/v1/gamification/special-rewards [post]
func (h *RewardHandler) CreateSpecialReward(c fiber.Ctx) error {
	var req dto.CreateSpecialRewardRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.specialFlow.Create(createRequestContext(c, "/api/v1/gamification/special-rewards"), &req)
	if err != nil {
		log.Printf("special reward creation failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to create special reward", "SPECIAL_CREATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusCreated, "Special reward created", result)
}

// DistributeSpecialReward mints codes for every target user
// @Summary Distribute Special Reward
// @Tags SpecialRewards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Special reward ID"
// @Success 200 {object} dto.APIResponse{data=dto.DistributeResponse} "Distribution summary"
// @Router /api/v1/gamification/special-rewards/{id}/distribute [post]
func (h *RewardHandler) DistributeSpecialReward(c fiber.Ctx) error {
	rewardID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid special reward id", "INVALID_REWARD_ID", nil)
	}

	result, err := h.specialFlow.Distribute(createRequestContext(c, "/api/v1/gamification/special-rewards/:id/distribute"), rewardID)
	if err != nil {
		log.Printf("special reward distribution failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to distribute special reward", "DISTRIBUTE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Special reward distributed", result)
}

// ListSpecialRewards lists the special rewards available to the caller
// @Summary List Special Rewards
// @Tags SpecialRewards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.SpecialRewardView} "Special rewards"
// @Router /api/v1/gamification/special-rewards [get]
func (h *RewardHandler) ListSpecialRewards(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.specialFlow.ListForUser(createRequestContext(c, "/api/v1/gamification/special-rewards"), userID)
	if err != nil {
		log.Printf("special reward listing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list special rewards", "SPECIAL_LIST_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Special rewards loaded", result)
}

// RedeemSpecialReward consumes the caller's distributed code
// @Summary Redeem Special Reward
// @Tags SpecialRewards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Special reward ID"
// @Success 200 {object} dto.APIResponse{data=dto.SpecialRewardView} "Special reward redeemed"
// @Failure 403 {object} dto.APIResponse "Reward not distributed to caller"
// @Router /api/v1/gamification/special-rewards/{id}/redeem [post]
func (h *RewardHandler) RedeemSpecialReward(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	rewardID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid special reward id", "INVALID_REWARD_ID", nil)
	}

	result, err := h.specialFlow.Redeem(createRequestContext(c, "/api/v1/gamification/special-rewards/:id/redeem"), userID, rewardID)
	if err != nil {
		log.Printf("special reward redemption failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to redeem special reward", "SPECIAL_REDEEM_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Special reward redeemed", result)
}
