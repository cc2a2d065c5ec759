package dto

import (
	"github.com/google/uuid"

	"github.com/mercat-labs/loyalty-platform/models"
)

// SendRequest delivers one message to one user over a channel
type SendRequest struct {
	UserID  uuid.UUID      `json:"user_id" validate:"required"`
	Title   string         `json:"title" validate:"required,max=255"`
	Message string         `json:"message" validate:"required,max=4000"`
	Channel string         `json:"channel" validate:"required,oneof=webpush android ios"`
	Data    map[string]any `json:"data,omitempty" validate:"omitempty"`
}

// SendBatchRequest delivers several messages independently
type SendBatchRequest struct {
	Notifications []SendRequest `json:"notifications" validate:"required,min=1,dive"`
}

// SendResult reports the outcome of one delivery request
type SendResult struct {
	NotificationID uuid.UUID      `json:"notification_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Status         string         `json:"status"`
	Error          string         `json:"error,omitempty"`
	DeliveryInfo   map[string]any `json:"delivery_info,omitempty"`
}

// SendBatchResponse lists per-item outcomes
type SendBatchResponse struct {
	Results []SendResult `json:"results"`
}

// SenderStatsResponse is the aggregate delivery view
type SenderStatsResponse struct {
	Stats *models.CampaignNotificationStats `json:"stats"`
}

// SubscribeRequest registers a delivery endpoint for the caller
type SubscribeRequest struct {
	Channel          string         `json:"channel" validate:"required,oneof=webpush android ios"`
	SubscriptionData map[string]any `json:"subscription_data" validate:"required"`
}

// SubscriptionView is the public projection of a subscription
type SubscriptionView struct {
	ID       uuid.UUID `json:"id"`
	Channel  string    `json:"channel"`
	IsActive bool      `json:"is_active"`
}
