package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
)

// GamificationHandlerInterface defines the contract for gamification handlers
type GamificationHandlerInterface interface {
	Profile(c fiber.Ctx) error
	Stats(c fiber.Ctx) error
	Badges(c fiber.Ctx) error
	ExperienceLog(c fiber.Ctx) error
	AddExperience(c fiber.Ctx) error
	ResetProfile(c fiber.Ctx) error
	Leaderboard(c fiber.Ctx) error
}

// GamificationHandler handles gamification HTTP requests
type GamificationHandler struct {
	gamificationFlow businessflow.GamificationFlow
	validator        *validator.Validate
}

// NewGamificationHandler creates a new gamification handler
func NewGamificationHandler(gamificationFlow businessflow.GamificationFlow) *GamificationHandler {
	return &GamificationHandler{
		gamificationFlow: gamificationFlow,
		validator:        validator.New(),
	}
}

// Profile returns the caller's progression profile
// @Summary Gamification Profile
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ProfileView} "Profile"
// @Router /api/v1/gamification/profile [get]
func (h *GamificationHandler) Profile(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.gamificationFlow.GetProfile(createRequestContext(c, "/api/v1/gamification/profile"), userID)
	if err != nil {
		log.Printf("profile load failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load profile", "PROFILE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Profile loaded", result)
}

// Stats returns the caller's profile together with earned badges
// @Summary Gamification Stats
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StatsResponse} "Stats"
// @Router /api/v1/gamification/stats [get]
func (h *GamificationHandler) Stats(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.gamificationFlow.GetStats(createRequestContext(c, "/api/v1/gamification/stats"), userID)
	if err != nil {
		log.Printf("stats load failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load stats", "STATS_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Stats loaded", result)
}

// Badges lists the caller's earned badges
// @Summary Earned Badges
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.BadgeView} "Badges"
// @Router /api/v1/gamification/badges [get]
func (h *GamificationHandler) Badges(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.gamificationFlow.GetBadges(createRequestContext(c, "/api/v1/gamification/badges"), userID)
	if err != nil {
		log.Printf("badge load failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load badges", "BADGES_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Badges loaded", result)
}

// ExperienceLog pages through the caller's XP history
// @Summary Experience Log
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=[]dto.ExperienceEntryView} "Log entries"
// @Router /api/v1/gamification/experience [get]
func (h *GamificationHandler) ExperienceLog(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	result, err := h.gamificationFlow.GetExperienceLog(createRequestContext(c, "/api/v1/gamification/experience"), userID, limit, offset)
	if err != nil {
		log.Printf("experience log failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load experience log", "EXPERIENCE_LOG_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Experience log loaded", result)
}

// AddExperience grants or removes XP for a user
// @Summary Add Experience
// @Tags Gamification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body dto.AddExperienceRequest true "XP delta"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileView} "Profile after adjustment"
// @Router /api/v1/gamification/users/{id}/experience [post]
func (h *GamificationHandler) AddExperience(c fiber.Ctx) error {
	userID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", "INVALID_USER_ID", nil)
	}

	var req dto.AddExperienceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.gamificationFlow.AddExperience(createRequestContext(c, "/api/v1/gamification/users/:id/experience"), userID, &req)
	if err != nil {
		log.Printf("experience adjustment failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to adjust experience", "ADD_EXPERIENCE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Experience adjusted", result)
}

// ResetProfile clears a user's progression
// @Summary Reset Profile
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} dto.APIResponse "Profile reset"
// @Router /api/v1/gamification/users/{id}/reset [post]
func (h *GamificationHandler) ResetProfile(c fiber.Ctx) error {
	userID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", "INVALID_USER_ID", nil)
	}

	if err := h.gamificationFlow.ResetProfile(createRequestContext(c, "/api/v1/gamification/users/:id/reset"), userID); err != nil {
		log.Printf("profile reset failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to reset profile", "RESET_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Profile reset", nil)
}

// Leaderboard returns the top profiles by experience
// @Summary Leaderboard
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of entries (default 10)"
// @Success 200 {object} dto.APIResponse{data=[]dto.LeaderboardEntry} "Top profiles"
// @Router /api/v1/gamification/leaderboard [get]
func (h *GamificationHandler) Leaderboard(c fiber.Ctx) error {
	limit := queryInt(c, "limit", 10)

	result, err := h.gamificationFlow.Leaderboard(createRequestContext(c, "/api/v1/gamification/leaderboard"), limit)
	if err != nil {
		log.Printf("leaderboard load failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load leaderboard", "LEADERBOARD_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Leaderboard loaded", result)
}
