package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Campaign is a message addressed to the union of its linked segments.
type Campaign struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	IsActive    *bool     `gorm:"default:true;index:idx_campaigns_is_active" json:"is_active"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Segments []Segment `gorm:"many2many:campaign_segments;joinForeignKey:CampaignID;joinReferences:SegmentID" json:"segments,omitempty"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CampaignFilter represents filter criteria for campaign queries
type CampaignFilter struct {
	ID       *uuid.UUID
	Name     *string
	IsActive *bool
}

// CampaignSegment links a campaign to one of its audience segments.
type CampaignSegment struct {
	CampaignID uuid.UUID `gorm:"type:uuid;primaryKey" json:"campaign_id"`
	SegmentID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"segment_id"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (CampaignSegment) TableName() string {
	return "campaign_segments"
}

// Campaign notification delivery statuses
const (
	CampaignNotificationQueued = "queued"
	CampaignNotificationSent   = "sent"
	CampaignNotificationFailed = "failed"
)

// ValidNotificationStatus reports whether the status names a known delivery state
func ValidNotificationStatus(status string) bool {
	switch status {
	case CampaignNotificationQueued, CampaignNotificationSent, CampaignNotificationFailed:
		return true
	}
	return false
}

// CampaignNotification is one queued-then-delivered outbound message.
// Meta carries channel and delivery diagnostics.
type CampaignNotification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_campaign_notifications_user_id" json:"user_id"`
	CampaignID *uuid.UUID `gorm:"type:uuid;index:idx_campaign_notifications_campaign_id" json:"campaign_id,omitempty"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	Status     string     `gorm:"size:20;not null;default:'queued';index:idx_campaign_notifications_status" json:"status"`
	Meta       JSONMap    `gorm:"type:jsonb;not null;default:'{}'" json:"meta"`
	CreatedAt  time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaign_notifications_created_at" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CampaignNotification) TableName() string {
	return "campaign_notifications"
}

// BeforeCreate is called before creating a new record
func (n *CampaignNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = CampaignNotificationQueued
	}
	if n.Meta == nil {
		n.Meta = JSONMap{}
	}
	return nil
}

// CampaignNotificationFilter represents filter criteria for campaign notification queries
type CampaignNotificationFilter struct {
	ID         *uuid.UUID
	UserID     *uuid.UUID
	CampaignID *uuid.UUID
	Status     *string
}

// CampaignNotificationStats is the aggregate view over outbound notifications.
type CampaignNotificationStats struct {
	Total     int64            `json:"total"`
	Queued    int64            `json:"queued"`
	Sent      int64            `json:"sent"`
	Failed    int64            `json:"failed"`
	ByChannel map[string]int64 `json:"by_channel"`
}
