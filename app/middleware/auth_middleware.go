// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/app/services"
	"github.com/mercat-labs/loyalty-platform/models"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate validates the bearer token and stores the caller's identity
// in the request locals
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required", "MISSING_AUTHORIZATION_HEADER")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Expected 'Bearer <token>'", "INVALID_AUTHORIZATION_FORMAT")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return unauthorized(c, "Access token is required", "MISSING_ACCESS_TOKEN")
		}

		claims, err := m.tokenService.ValidateToken(token)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				return unauthorized(c, "Access token has expired", "TOKEN_EXPIRED")
			}
			if errors.Is(err, services.ErrTokenInvalid) {
				return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
			}
			return unauthorized(c, "Token validation failed", "TOKEN_VALIDATION_FAILED")
		}

		// Store identity for downstream handlers
		c.Locals("user_id", claims.UserID)
		c.Locals("role", claims.Role)
		c.Locals("token_id", claims.TokenID)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// RequireVendor allows vendor and admin callers only
func (m *AuthMiddleware) RequireVendor() fiber.Handler {
	return requireRoles(models.RoleVendor, models.RoleAdmin)
}

// RequireAdmin allows admin callers only
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return requireRoles(models.RoleAdmin)
}

func requireRoles(roles ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
			Success: false,
			Message: "Insufficient permissions for this operation",
			Error: dto.ErrorDetail{
				Code: "FORBIDDEN",
			},
		})
	}
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: code,
		},
	})
}
