package dto

import (
	"time"

	"github.com/google/uuid"
)

// ProductLineInput is one product row supplied by a client
type ProductLineInput struct {
	Name     string `json:"nombre" validate:"required,max=255"`
	Quantity string `json:"cantidad,omitempty" validate:"omitempty,max=20"`
	Price    string `json:"precio,omitempty" validate:"omitempty,max=20"`
}

// DigitalTicketRequest creates a vendor-issued ticket that skips processing
type DigitalTicketRequest struct {
	UserID       uuid.UUID          `json:"user_id" validate:"required"`
	StoreName    string             `json:"store_name" validate:"required,max=255"`
	TotalAmount  float64            `json:"total_amount" validate:"required,gt=0"`
	Products     []ProductLineInput `json:"products" validate:"required,min=1,dive"`
	PurchaseDate *time.Time         `json:"purchase_date,omitempty" validate:"omitempty"`
}

// TicketView is the public projection of a ticket
type TicketView struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"user_id"`
	OriginalFilename string         `json:"original_filename"`
	Size             int64          `json:"size"`
	Status           string         `json:"status"`
	Metadata         map[string]any `json:"metadata"`
	ProcessingResult map[string]any `json:"processing_result,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// PendingTicketView carries the stored image for workers
type PendingTicketView struct {
	TicketView
	ImageBase64 string `json:"image_base64"`
	Mime        string `json:"mime"`
}

// ProcessTicketResponse reports one processed ticket
type ProcessTicketResponse struct {
	TicketID uuid.UUID      `json:"ticket_id"`
	Status   string         `json:"status"`
	Result   map[string]any `json:"result,omitempty"`
}

// CheckDuplicateRequest probes whether an extraction would be flagged as a
// duplicate without creating a ticket
type CheckDuplicateRequest struct {
	Fecha    string             `json:"fecha" validate:"required,max=20"`
	Hora     *string            `json:"hora,omitempty" validate:"omitempty,max=10"`
	Products []ProductLineInput `json:"productos" validate:"required,min=1,dive"`
}

// CheckDuplicateResponse reports the probe outcome
type CheckDuplicateResponse struct {
	Duplicate       bool       `json:"duplicate"`
	MatchedTicketID *uuid.UUID `json:"matched_ticket_id,omitempty"`
	ComparedTickets int        `json:"compared_tickets"`
}

// ProcessPendingResponse summarizes a drain of the pending queue
type ProcessPendingResponse struct {
	Processed int                     `json:"processed"`
	Results   []ProcessTicketResponse `json:"results"`
}
