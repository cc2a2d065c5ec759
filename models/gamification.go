package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GamificationProfile is the per-user progression state. Level is always
// recomputed from Experience, never stored independently of it.
type GamificationProfile struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_gamification_profiles_user_id" json:"user_id"`
	Level        int        `gorm:"not null;default:1" json:"level"`
	Experience   int        `gorm:"not null;default:0" json:"experience"`
	TotalTickets int        `gorm:"not null;default:0" json:"total_tickets"`
	ValidTickets int        `gorm:"not null;default:0" json:"valid_tickets"`
	TotalSpent   float64    `gorm:"not null;default:0" json:"total_spent"`
	StreakDays   int        `gorm:"not null;default:0" json:"streak_days"`
	LastScanDate *time.Time `json:"last_scan_date"`
	BadgesEarned int        `gorm:"not null;default:0" json:"badges_earned"`
	CreatedAt    time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (GamificationProfile) TableName() string {
	return "gamification_profiles"
}

// BeforeCreate is called before creating a new record
func (p *GamificationProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Level < 1 {
		p.Level = 1
	}
	return nil
}

// GamificationProfileFilter represents filter criteria for profile queries
type GamificationProfileFilter struct {
	ID       *uuid.UUID
	UserID   *uuid.UUID
	MinLevel *int
}

// Badge types
const (
	BadgeFirstScan       = "first_scan"
	BadgeFirstValid      = "first_valid"
	BadgeTicketCollector = "ticket_collector"
	BadgeValidCollector  = "valid_collector"
	BadgeBigSpender      = "big_spender"
	BadgeStreak3         = "streak_3"
	BadgeStreak7         = "streak_7"
	BadgeLevel5          = "level_5"
	BadgeLevel10         = "level_10"
)

// Badge is an earned achievement. At most one active badge of a given type
// per user.
type Badge struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_badges_user_id" json:"user_id"`
	Type        string    `gorm:"size:50;not null;index:idx_badges_type" json:"type"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	EarnedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"earned_at"`
	IsActive    *bool     `gorm:"default:true" json:"is_active"`
}

func (Badge) TableName() string {
	return "badges"
}

// BeforeCreate is called before creating a new record
func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BadgeFilter represents filter criteria for badge queries
type BadgeFilter struct {
	ID       *uuid.UUID
	UserID   *uuid.UUID
	Type     *string
	IsActive *bool
}

// ExperienceEntry is one append-only XP log row.
type ExperienceEntry struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_experience_entries_user_id" json:"user_id"`
	TicketID  *uuid.UUID `gorm:"type:uuid" json:"ticket_id,omitempty"`
	Delta     int        `gorm:"not null" json:"delta"`
	Reason    string     `gorm:"size:255;not null" json:"reason"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_experience_entries_created_at" json:"created_at"`
}

func (ExperienceEntry) TableName() string {
	return "experience_entries"
}

// BeforeCreate is called before creating a new record
func (e *ExperienceEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ExperienceEntryFilter represents filter criteria for experience log queries
type ExperienceEntryFilter struct {
	ID     *uuid.UUID
	UserID *uuid.UUID
	Reason *string
}
