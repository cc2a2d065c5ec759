// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements UserRepository interface
type UserRepositoryImpl struct {
	*BaseRepository[models.User, models.UserFilter]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User, models.UserFilter](db),
	}
}

func applyUserFilter(filter models.UserFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.Email != nil {
			db = db.Where("email = ?", *filter.Email)
		}
		if filter.Role != nil {
			db = db.Where("role = ?", *filter.Role)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		if filter.CreatedAfter != nil {
			db = db.Where("created_at >= ?", *filter.CreatedAfter)
		}
		if filter.CreatedBefore != nil {
			db = db.Where("created_at <= ?", *filter.CreatedBefore)
		}
		return db
	}
}

// ByFilter retrieves users matching the filter criteria
func (r *UserRepositoryImpl) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	return r.list(ctx, applyUserFilter(filter), orderBy, limit, offset)
}

// Count returns the number of users matching the filter
func (r *UserRepositoryImpl) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	return r.count(ctx, applyUserFilter(filter))
}

// Exists checks if any user matching the filter exists
func (r *UserRepositoryImpl) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ByEmail retrieves a user by email address
func (r *UserRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := r.ByFilter(ctx, models.UserFilter{Email: &email}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if len(users) == 0 {
		return nil, nil
	}

	return users[0], nil
}

// UpdatePreferences replaces the stored preference map of a user
func (r *UserRepositoryImpl) UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences models.JSONMap) error {
	db := r.getDB(ctx)

	err := db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"preferences": preferences,
			"updated_at":  utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update user preferences: %w", err)
	}

	return nil
}

// UpdateRole changes a user's role
func (r *UserRepositoryImpl) UpdateRole(ctx context.Context, userID uuid.UUID, role string) error {
	db := r.getDB(ctx)

	err := db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"role":       role,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	return nil
}

// CountByRole returns user counts grouped by role
func (r *UserRepositoryImpl) CountByRole(ctx context.Context) (map[string]int64, error) {
	db := r.getDB(ctx)

	var rows []struct {
		Role  string
		Total int64
	}
	err := db.Model(&models.User{}).
		Select("role, COUNT(*) AS total").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Total
	}

	return counts, nil
}
