package dto

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest creates a new account
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=100"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=user"`
}

// LoginRequest authenticates an existing account
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyRequest checks a bearer token
type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

// RefreshRequest mints a new token from a valid one
type RefreshRequest struct {
	Token string `json:"token" validate:"required"`
}

// UserView is the public projection of a user
type UserView struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	Preferences map[string]any `json:"preferences"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
}

// AuthResponse carries a token and the authenticated user
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// VerifyResponse confirms token validity
type VerifyResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// UpdatePreferencesRequest replaces the caller's preference map
type UpdatePreferencesRequest struct {
	Preferences map[string]any `json:"preferences" validate:"required"`
}

// ListUsersRequest pages through users
type ListUsersRequest struct {
	Role   string `query:"role" validate:"omitempty,oneof=user vendor admin"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// AdminOverviewResponse aggregates platform totals
type AdminOverviewResponse struct {
	TotalUsers     int64   `json:"total_users"`
	TotalVendors   int64   `json:"total_vendors"`
	TotalAdmins    int64   `json:"total_admins"`
	TotalPurchases int64   `json:"total_purchases"`
	TotalSpent     float64 `json:"total_spent"`
	TotalTickets   int64   `json:"total_tickets"`
	PendingTickets int64   `json:"pending_tickets"`
}
