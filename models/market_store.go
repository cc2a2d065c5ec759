package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MarketStore is an entry in the curated roster of valid merchants.
// Membership decides whether a ticket counts as a valid market purchase.
type MarketStore struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;index:idx_market_stores_name" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	IsActive    *bool     `gorm:"default:true;index:idx_market_stores_is_active" json:"is_active"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (MarketStore) TableName() string {
	return "market_stores"
}

// BeforeCreate is called before creating a new record
func (s *MarketStore) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// MarketStoreFilter represents filter criteria for market store queries
type MarketStoreFilter struct {
	ID       *uuid.UUID
	Name     *string
	IsActive *bool
}
