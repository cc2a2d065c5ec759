package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser   = "user"
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

// ValidRole reports whether the given role is one the platform recognizes.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleVendor, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:uk_users_email" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // Never serialize password hash
	Role         string    `gorm:"size:20;not null;default:'user';index:idx_users_role" json:"role"`
	Preferences  JSONMap   `gorm:"type:jsonb;not null;default:'{}'" json:"preferences"`
	IsActive     *bool     `gorm:"default:true;index:idx_users_is_active" json:"is_active"`
	CreatedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_users_created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate is called before creating a new record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Preferences == nil {
		u.Preferences = JSONMap{}
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsVendor() bool {
	return u.Role == RoleVendor
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID            *uuid.UUID
	Email         *string
	Role          *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
