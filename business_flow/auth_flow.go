package businessflow

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/app/services"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthFlow handles registration, authentication and account operations
type AuthFlow interface {
	Register(ctx context.Context, request *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, request *dto.LoginRequest) (*dto.AuthResponse, error)
	Verify(ctx context.Context, token string) (*dto.VerifyResponse, error)
	Refresh(ctx context.Context, token string) (*dto.AuthResponse, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*dto.UserView, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences map[string]any) (*dto.UserView, error)
	ListUsers(ctx context.Context, request *dto.ListUsersRequest) ([]dto.UserView, error)
	PromoteUser(ctx context.Context, userID uuid.UUID, role string) (*dto.UserView, error)
}

// AuthFlowImpl implements the authentication business flow
type AuthFlowImpl struct {
	userRepo     repository.UserRepository
	tokenService services.TokenService
	bcryptCost   int
	db           *gorm.DB
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	userRepo repository.UserRepository,
	tokenService services.TokenService,
	bcryptCost int,
	db *gorm.DB,
) AuthFlow {
	return &AuthFlowImpl{
		userRepo:     userRepo,
		tokenService: tokenService,
		bcryptCost:   bcryptCost,
		db:           db,
	}
}

// registrationRole resolves the role a public signup may take. Privileged
// roles are never granted at registration; vendors and admins are created
// through the admin role-change operation.
func registrationRole(requested string) (string, error) {
	switch requested {
	case "", models.RoleUser:
		return models.RoleUser, nil
	default:
		return "", ErrInvalidRole
	}
}

// Register creates an account and returns a signed token for it
func (af *AuthFlowImpl) Register(ctx context.Context, request *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(request.Email))

	role, err := registrationRole(request.Role)
	if err != nil {
		return nil, NewBusinessError("INVALID_ROLE", "Role cannot be chosen at registration", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), af.bcryptCost)
	if err != nil {
		return nil, NewBusinessError("PASSWORD_HASH_FAILED", "Failed to hash password", err)
	}

	var user *models.User
	err = repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		existing, err := af.userRepo.ByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailAlreadyExists
		}

		user = &models.User{
			Email:        email,
			PasswordHash: string(hash),
			Role:         role,
			Preferences:  models.JSONMap{},
			IsActive:     utils.ToPtr(true),
		}
		return af.userRepo.Save(ctx, user)
	})
	if err != nil {
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	token, err := af.tokenService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate token", err)
	}

	return &dto.AuthResponse{
		Token: token,
		User:  userView(user),
	}, nil
}

// Login authenticates a user by email and password
func (af *AuthFlowImpl) Login(ctx context.Context, request *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(request.Email))

	user, err := af.userRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}
	if user == nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", ErrUserNotFound)
	}
	if !utils.IsTrue(user.IsActive) {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", ErrAccountInactive)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", ErrIncorrectPassword)
	}

	token, err := af.tokenService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate token", err)
	}

	return &dto.AuthResponse{
		Token: token,
		User:  userView(user),
	}, nil
}

// Verify resolves a token to its user
func (af *AuthFlowImpl) Verify(ctx context.Context, token string) (*dto.VerifyResponse, error) {
	claims, err := af.tokenService.ValidateToken(token)
	if err != nil {
		return nil, NewBusinessError("TOKEN_INVALID", "Token verification failed", err)
	}

	user, err := af.userRepo.ByID(ctx, claims.UserID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_INVALID", "Token verification failed", err)
	}
	if user == nil {
		return nil, NewBusinessError("TOKEN_INVALID", "Token verification failed", ErrUserNotFound)
	}
	if !utils.IsTrue(user.IsActive) {
		return nil, NewBusinessError("TOKEN_INVALID", "Token verification failed", ErrAccountInactive)
	}

	return &dto.VerifyResponse{
		UserID: user.ID,
		Role:   user.Role,
	}, nil
}

// Refresh mints a fresh token from a still-valid one
func (af *AuthFlowImpl) Refresh(ctx context.Context, token string) (*dto.AuthResponse, error) {
	verified, err := af.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := af.userRepo.ByID(ctx, verified.UserID)
	if err != nil || user == nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Failed to refresh token", ErrUserNotFound)
	}

	fresh, err := af.tokenService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Failed to refresh token", err)
	}

	return &dto.AuthResponse{
		Token: fresh,
		User:  userView(user),
	}, nil
}

// GetUser returns the public projection of a user
func (af *AuthFlowImpl) GetUser(ctx context.Context, userID uuid.UUID) (*dto.UserView, error) {
	user, err := af.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to load user", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	view := userView(user)
	return &view, nil
}

// UpdatePreferences replaces the caller's preference map
func (af *AuthFlowImpl) UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences map[string]any) (*dto.UserView, error) {
	user, err := af.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to load user", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	if preferences == nil {
		preferences = map[string]any{}
	}
	if err := af.userRepo.UpdatePreferences(ctx, userID, models.JSONMap(preferences)); err != nil {
		return nil, NewBusinessError("PREFERENCES_UPDATE_FAILED", "Failed to update preferences", err)
	}

	user.Preferences = models.JSONMap(preferences)
	view := userView(user)
	return &view, nil
}

// ListUsers pages through users, optionally filtered by role
func (af *AuthFlowImpl) ListUsers(ctx context.Context, request *dto.ListUsersRequest) ([]dto.UserView, error) {
	limit := request.Limit
	if limit <= 0 {
		limit = 50
	}

	filter := models.UserFilter{}
	if request.Role != "" {
		filter.Role = &request.Role
	}

	users, err := af.userRepo.ByFilter(ctx, filter, "created_at DESC", limit, request.Offset)
	if err != nil {
		return nil, NewBusinessError("USER_LIST_FAILED", "Failed to list users", err)
	}

	views := make([]dto.UserView, 0, len(users))
	for _, user := range users {
		views = append(views, userView(user))
	}

	return views, nil
}

// PromoteUser raises a user's role to vendor or admin
func (af *AuthFlowImpl) PromoteUser(ctx context.Context, userID uuid.UUID, role string) (*dto.UserView, error) {
	if role != models.RoleVendor && role != models.RoleAdmin {
		return nil, NewBusinessError("INVALID_ROLE", "Unknown role", ErrInvalidRole)
	}

	user, err := af.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to load user", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	if err := af.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, NewBusinessError("PROMOTE_FAILED", "Failed to promote user", err)
	}

	user.Role = role
	view := userView(user)
	return &view, nil
}

func userView(user *models.User) dto.UserView {
	return dto.UserView{
		ID:          user.ID,
		Email:       user.Email,
		Role:        user.Role,
		Preferences: user.Preferences,
		IsActive:    utils.IsTrue(user.IsActive),
		CreatedAt:   user.CreatedAt,
	}
}
