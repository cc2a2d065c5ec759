package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercat-labs/loyalty-platform/models"
)

// CreatePurchaseRequest appends one purchase record
type CreatePurchaseRequest struct {
	UserID        uuid.UUID          `json:"user_id" validate:"required"`
	TicketID      uuid.UUID          `json:"ticket_id" validate:"required"`
	PurchaseDate  *time.Time         `json:"purchase_date,omitempty" validate:"omitempty"`
	StoreName     string             `json:"store_name" validate:"required,max=255"`
	TotalAmount   float64            `json:"total_amount" validate:"gte=0"`
	Products      []ProductLineInput `json:"products,omitempty" validate:"omitempty,dive"`
	TicketType    string             `json:"ticket_type,omitempty" validate:"omitempty,max=50"`
	IsMarketStore bool               `json:"is_market_store"`
}

// PurchaseRecordView is the public projection of a purchase record
type PurchaseRecordView struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	TicketID      uuid.UUID          `json:"ticket_id"`
	PurchaseDate  time.Time          `json:"purchase_date"`
	StoreName     string             `json:"store_name"`
	TotalAmount   float64            `json:"total_amount"`
	Products      models.ProductList `json:"products"`
	NumProducts   int                `json:"num_products"`
	TicketType    string             `json:"ticket_type"`
	IsMarketStore bool               `json:"is_market_store"`
	CreatedAt     time.Time          `json:"created_at"`
}

// PurchaseHistoryResponse pages through a user's history
type PurchaseHistoryResponse struct {
	UserID  uuid.UUID            `json:"user_id"`
	Records []PurchaseRecordView `json:"records"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// SpendingPeriodResponse is the trailing-window rollup
type SpendingPeriodResponse struct {
	UserID     uuid.UUID                    `json:"user_id"`
	Days       int                          `json:"days"`
	TotalSpent float64                      `json:"total_spent"`
	Purchases  []models.SpendingPeriodEntry `json:"purchases"`
}
