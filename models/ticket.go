package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket lifecycle statuses
const (
	TicketStatusPending      = "pending"
	TicketStatusDoneApproved = "done_approved"
	TicketStatusDoneRejected = "done_rejected"
	TicketStatusDuplicate    = "duplicate"
	TicketStatusFailed       = "failed"
)

// TerminalTicketStatuses are the statuses a processed ticket can end in.
var TerminalTicketStatuses = []string{
	TicketStatusDoneApproved,
	TicketStatusDoneRejected,
	TicketStatusDuplicate,
	TicketStatusFailed,
}

// DuplicateComparableStatuses are the prior-ticket statuses the duplicate
// detector compares a candidate against.
var DuplicateComparableStatuses = []string{
	TicketStatusDoneApproved,
	TicketStatusDoneRejected,
	TicketStatusDuplicate,
}

type Ticket struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index:idx_tickets_user_id" json:"user_id"`
	Filename         string    `gorm:"size:255;not null" json:"filename"`
	OriginalFilename string    `gorm:"size:255;not null" json:"original_filename"`
	FileRef          string    `gorm:"size:512;not null" json:"file_ref"`
	Size             int64     `gorm:"not null;default:0" json:"size"`
	Mime             string    `gorm:"size:100" json:"mime"`
	Status           string    `gorm:"size:20;not null;default:'pending';index:idx_tickets_status" json:"status"`
	Metadata         JSONMap   `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	ProcessingResult JSONMap   `gorm:"type:jsonb" json:"processing_result"`
	CreatedAt        time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_tickets_created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// BeforeCreate is called before creating a new record
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TicketStatusPending
	}
	if t.Metadata == nil {
		t.Metadata = JSONMap{}
	}
	return nil
}

// IsTerminal reports whether the ticket has reached a final status.
func (t *Ticket) IsTerminal() bool {
	for _, s := range TerminalTicketStatuses {
		if t.Status == s {
			return true
		}
	}
	return false
}

// IsDigital reports whether the ticket was created through the vendor
// digital flow and therefore never enters the processing queue.
func (t *Ticket) IsDigital() bool {
	v, ok := t.Metadata["type"]
	return ok && v == "digital"
}

// TicketFilter represents filter criteria for ticket queries
type TicketFilter struct {
	ID            *uuid.UUID
	UserID        *uuid.UUID
	Status        *string
	Statuses      []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
