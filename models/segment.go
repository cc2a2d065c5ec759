package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recognized segment filter keys. Unknown keys are ignored by the compiler.
const (
	SegmentFilterLastDays            = "last_days"
	SegmentFilterMinTotalSpent       = "min_total_spent"
	SegmentFilterMinNumPurchases     = "min_num_purchases"
	SegmentFilterPreferencesContains = "preferences_contains"
)

// Segment is a declarative user-set specification over purchase history
// and preferences. Filters stay schema-less at the edge and are normalized
// by the compiler.
type Segment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Filters     JSONMap   `gorm:"type:jsonb;not null;default:'{}'" json:"filters"`
	IsActive    *bool     `gorm:"default:true;index:idx_segments_is_active" json:"is_active"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Segment) TableName() string {
	return "segments"
}

// BeforeCreate is called before creating a new record
func (s *Segment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Filters == nil {
		s.Filters = JSONMap{}
	}
	return nil
}

// SegmentFilter represents filter criteria for segment queries
type SegmentFilter struct {
	ID       *uuid.UUID
	Name     *string
	IsActive *bool
}
