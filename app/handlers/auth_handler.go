package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Register(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Verify(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Me(c fiber.Ctx) error
	UpdatePreferences(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authFlow  businessflow.AuthFlow
	validator *validator.Validate
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authFlow businessflow.AuthFlow) *AuthHandler {
	return &AuthHandler{
		authFlow:  authFlow,
		validator: validator.New(),
	}
}

// Register handles account creation
// @Summary User Registration
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration data"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "Account created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Email already registered"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.authFlow.Register(createRequestContext(c, "/api/v1/auth/register"), &req)
	if err != nil {
		log.Printf("registration failed: %v", err)
		return BusinessErrorResponse(c, err, "Registration failed", "REGISTRATION_FAILED")
	}

	return SuccessResponse(c, fiber.StatusCreated, "Account created successfully", result)
}

// Login handles account authentication
// @Summary User Login
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Authenticated"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.authFlow.Login(createRequestContext(c, "/api/v1/auth/login"), &req)
	if err != nil {
		if businessflow.IsNotFound(err) || businessflow.IsUnauthorized(err) {
			return ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS", nil)
		}
		log.Printf("login failed: %v", err)
		return BusinessErrorResponse(c, err, "Login failed", "LOGIN_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Verify checks a bearer token without side effects
// @Summary Verify Token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.VerifyRequest true "Token to verify"
// @Success 200 {object} dto.APIResponse{data=dto.VerifyResponse} "Token valid"
// @Failure 401 {object} dto.APIResponse "Token invalid or expired"
// @Router /api/v1/auth/verify [post]
func (h *AuthHandler) Verify(c fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.authFlow.Verify(createRequestContext(c, "/api/v1/auth/verify"), req.Token)
	if err != nil {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Token is invalid or expired", "TOKEN_INVALID", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Token is valid", result)
}

// Refresh mints a new token from a still-valid one
// @Summary Refresh Token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshRequest true "Token to refresh"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Token refreshed"
// @Failure 401 {object} dto.APIResponse "Token invalid or expired"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.authFlow.Refresh(createRequestContext(c, "/api/v1/auth/refresh"), req.Token)
	if err != nil {
		if businessflow.IsUnauthorized(err) || businessflow.IsNotFound(err) {
			return ErrorResponse(c, fiber.StatusUnauthorized, "Token is invalid or expired", "TOKEN_INVALID", nil)
		}
		log.Printf("token refresh failed: %v", err)
		return BusinessErrorResponse(c, err, "Token refresh failed", "REFRESH_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Token refreshed", result)
}

// Me returns the caller's profile
// @Summary Current User
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserView} "Profile"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/users/me [get]
func (h *AuthHandler) Me(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.authFlow.GetUser(createRequestContext(c, "/api/v1/users/me"), userID)
	if err != nil {
		log.Printf("get user failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load user", "GET_USER_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "User loaded", result)
}

// UpdatePreferences replaces the caller's preference map
// @Summary Update Preferences
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdatePreferencesRequest true "Preference map"
// @Success 200 {object} dto.APIResponse{data=dto.UserView} "Preferences updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/users/me [put]
func (h *AuthHandler) UpdatePreferences(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.UpdatePreferencesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.authFlow.UpdatePreferences(createRequestContext(c, "/api/v1/users/me"), userID, req.Preferences)
	if err != nil {
		log.Printf("update preferences failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to update preferences", "UPDATE_PREFERENCES_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Preferences updated", result)
}
