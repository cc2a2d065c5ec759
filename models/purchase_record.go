package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PurchaseRecord is an append-only row of a user's purchase history.
// TicketID uniqueness makes history writes idempotent per ticket.
type PurchaseRecord struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID   `gorm:"type:uuid;not null;index:idx_purchase_records_user_id" json:"user_id"`
	TicketID      uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_purchase_records_ticket_id" json:"ticket_id"`
	PurchaseDate  time.Time   `gorm:"not null;index:idx_purchase_records_purchase_date" json:"purchase_date"`
	StoreName     string      `gorm:"size:255;not null" json:"store_name"`
	TotalAmount   float64     `gorm:"not null;default:0" json:"total_amount"`
	Products      ProductList `gorm:"type:jsonb;not null;default:'[]'" json:"products"`
	NumProducts   int         `gorm:"not null;default:0" json:"num_products"`
	TicketType    string      `gorm:"size:50" json:"ticket_type"`
	IsMarketStore bool        `gorm:"not null;default:false" json:"is_market_store"`
	CreatedAt     time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}

func (PurchaseRecord) TableName() string {
	return "purchase_records"
}

// BeforeCreate is called before creating a new record
func (p *PurchaseRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Products == nil {
		p.Products = ProductList{}
	}
	return nil
}

// PurchaseRecordFilter represents filter criteria for purchase record queries
type PurchaseRecordFilter struct {
	ID             *uuid.UUID
	UserID         *uuid.UUID
	TicketID       *uuid.UUID
	StoreName      *string
	IsMarketStore  *bool
	PurchasedAfter *time.Time
}

// PurchaseSummary aggregates a user's purchase history.
type PurchaseSummary struct {
	UserID           uuid.UUID        `json:"user_id"`
	TotalPurchases   int64            `json:"total_purchases"`
	TotalSpent       float64          `json:"total_spent"`
	AverageAmount    float64          `json:"average_amount"`
	FavoriteStore    string           `json:"favorite_store"`
	TopProducts      []ProductSummary `json:"top_products"`
	LastPurchaseDate *time.Time       `json:"last_purchase_date"`
}

// ProductSummary is one aggregated product row inside a purchase summary.
type ProductSummary struct {
	Name          string  `json:"name"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalSpent    float64 `json:"total_spent"`
}

// SpendingPeriodEntry is one purchase inside a trailing spending window.
type SpendingPeriodEntry struct {
	PurchaseDate time.Time `json:"purchase_date"`
	StoreName    string    `json:"store_name"`
	TotalAmount  float64   `json:"total_amount"`
	NumProducts  int       `json:"num_products"`
}

// UserSpendingAggregate is a per-user rollup used by the segment compiler.
type UserSpendingAggregate struct {
	UserID        uuid.UUID `json:"user_id"`
	TotalSpent    float64   `json:"total_spent"`
	PurchaseCount int64     `json:"purchase_count"`
}
