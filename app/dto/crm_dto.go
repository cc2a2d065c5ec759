package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateSegmentRequest defines a new audience segment. When Prompt is set and
// Filters is empty, the filters are drafted by the LLM from the prompt.
type CreateSegmentRequest struct {
	Name        string         `json:"name" validate:"required,max=255"`
	Description string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Filters     map[string]any `json:"filters,omitempty" validate:"omitempty"`
	Prompt      string         `json:"prompt,omitempty" validate:"omitempty,max=2000"`
}

// SegmentView is the public projection of a segment
type SegmentView struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Filters     map[string]any `json:"filters"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PreviewUsersResponse lists the users a segment or campaign resolves to
type PreviewUsersResponse struct {
	UserIDs []uuid.UUID `json:"user_ids"`
	Count   int         `json:"count"`
}

// CreateCampaignRequest defines a new campaign. When Message is empty a
// promotional copy is drafted from the linked segments' preferences.
type CreateCampaignRequest struct {
	Name        string      `json:"name" validate:"required,max=255"`
	Description string      `json:"description,omitempty" validate:"omitempty,max=2000"`
	Message     string      `json:"message,omitempty" validate:"omitempty,max=4000"`
	SegmentIDs  []uuid.UUID `json:"segment_ids" validate:"required,min=1"`
}

// CampaignView is the public projection of a campaign
type CampaignView struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Message     string        `json:"message"`
	IsActive    bool          `json:"is_active"`
	Segments    []SegmentView `json:"segments,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// DispatchResponse lists the notification records created by a dispatch
type DispatchResponse struct {
	CampaignID      uuid.UUID   `json:"campaign_id"`
	NotificationIDs []uuid.UUID `json:"notification_ids"`
	Count           int         `json:"count"`
}

// SendCampaignResponse summarizes a channel send of a campaign
type SendCampaignResponse struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Channel    string    `json:"channel"`
	Requested  int       `json:"requested"`
	Warning    string    `json:"warning,omitempty"`
}

// CampaignNotificationView is the public projection of an outbound notification
type CampaignNotificationView struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	CampaignID *uuid.UUID     `json:"campaign_id,omitempty"`
	Message    string         `json:"message"`
	Status     string         `json:"status"`
	Meta       map[string]any `json:"meta"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PreferencesResponse returns a user's preference map
type PreferencesResponse struct {
	UserID      uuid.UUID      `json:"user_id"`
	Preferences map[string]any `json:"preferences"`
	Inferred    bool           `json:"inferred"`
}

// InferAllResponse summarizes a bulk preference inference run
type InferAllResponse struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
}

// PreferencesSummaryResponse aggregates stored preference keys and values
type PreferencesSummaryResponse struct {
	UsersWithPreferences int64                       `json:"users_with_preferences"`
	ValueCounts          map[string]map[string]int64 `json:"value_counts"`
}
