// Package services provides external service integrations and technical concerns like tokens and delivery channels
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/mercat-labs/loyalty-platform/config"
	"github.com/mercat-labs/loyalty-platform/models"
)

// PushPayload is the channel-agnostic message handed to an adapter
type PushPayload struct {
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// DeliveryResult is the outcome of one delivery attempt.
// ShouldRemoveSubscription marks a terminally gone endpoint; ShouldRetry
// marks a transient rejection.
type DeliveryResult struct {
	Delivered                bool   `json:"delivered"`
	StatusCode               int    `json:"status_code"`
	Response                 string `json:"response"`
	Channel                  string `json:"channel"`
	Error                    string `json:"error,omitempty"`
	ShouldRemoveSubscription bool   `json:"should_remove_subscription,omitempty"`
	ShouldRetry              bool   `json:"should_retry,omitempty"`
}

// ChannelAdapter delivers one payload to one subscription
type ChannelAdapter interface {
	Deliver(ctx context.Context, subscription *models.UserSubscription, payload PushPayload) *DeliveryResult
}

// ChannelRouter resolves a delivery channel to its adapter
type ChannelRouter struct {
	adapters map[string]ChannelAdapter
}

// NewChannelRouter creates a router over the default adapter set
func NewChannelRouter(cfg *config.WebpushConfig) *ChannelRouter {
	return &ChannelRouter{
		adapters: map[string]ChannelAdapter{
			models.ChannelWebpush: NewWebpushAdapter(cfg),
			models.ChannelAndroid: NewStubAdapter(models.ChannelAndroid),
			models.ChannelIOS:     NewStubAdapter(models.ChannelIOS),
		},
	}
}

// Adapter returns the adapter registered for a channel
func (r *ChannelRouter) Adapter(channel string) (ChannelAdapter, error) {
	adapter, ok := r.adapters[channel]
	if !ok {
		return nil, fmt.Errorf("unsupported delivery channel: %s", channel)
	}
	return adapter, nil
}

// WebpushAdapter delivers payloads over the Web Push protocol with VAPID keys
type WebpushAdapter struct {
	config *config.WebpushConfig
	client *http.Client
}

// NewWebpushAdapter creates a new webpush adapter
func NewWebpushAdapter(cfg *config.WebpushConfig) *WebpushAdapter {
	return &WebpushAdapter{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Deliver signs the payload with the configured VAPID keys and posts it to
// the subscription endpoint
func (a *WebpushAdapter) Deliver(ctx context.Context, subscription *models.UserSubscription, payload PushPayload) *DeliveryResult {
	result := &DeliveryResult{Channel: models.ChannelWebpush}

	sub, err := webpushSubscription(subscription.SubscriptionData)
	if err != nil {
		result.Error = err.Error()
		result.ShouldRemoveSubscription = true
		return result
	}

	body, err := json.Marshal(payload)
	if err != nil {
		result.Error = fmt.Sprintf("failed to encode push payload: %v", err)
		return result
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, sub, &webpush.Options{
		HTTPClient:      a.client,
		Subscriber:      a.config.Subscriber,
		VAPIDPublicKey:  a.config.VAPIDPublicKey,
		VAPIDPrivateKey: a.config.VAPIDPrivateKey,
		TTL:             a.config.TTL,
	})
	if err != nil {
		result.Error = fmt.Sprintf("webpush delivery failed: %v", err)
		return result
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	result.StatusCode = resp.StatusCode
	result.Response = string(raw)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result.Delivered = true
	case resp.StatusCode == http.StatusGone:
		result.Error = "subscription gone"
		result.ShouldRemoveSubscription = true
	case resp.StatusCode == http.StatusTooManyRequests:
		result.Error = "push endpoint rate limited"
		result.ShouldRetry = true
	default:
		result.Error = fmt.Sprintf("push endpoint returned status %d", resp.StatusCode)
	}

	return result
}

func webpushSubscription(data models.JSONMap) (*webpush.Subscription, error) {
	endpoint, _ := data["endpoint"].(string)
	if endpoint == "" {
		return nil, fmt.Errorf("subscription has no endpoint")
	}

	sub := &webpush.Subscription{Endpoint: endpoint}
	if keys, ok := data["keys"].(map[string]any); ok {
		if auth, ok := keys["auth"].(string); ok {
			sub.Keys.Auth = auth
		}
		if p256dh, ok := keys["p256dh"].(string); ok {
			sub.Keys.P256dh = p256dh
		}
	}
	if sub.Keys.Auth == "" || sub.Keys.P256dh == "" {
		return nil, fmt.Errorf("subscription is missing encryption keys")
	}

	return sub, nil
}

// StubAdapter is a placeholder for channels without a concrete integration
// yet. It reports success without contacting anything.
type StubAdapter struct {
	channel string
}

// NewStubAdapter creates a stub adapter for a channel
func NewStubAdapter(channel string) *StubAdapter {
	return &StubAdapter{channel: channel}
}

// Deliver reports a simulated successful delivery
func (a *StubAdapter) Deliver(_ context.Context, _ *models.UserSubscription, _ PushPayload) *DeliveryResult {
	return &DeliveryResult{
		Delivered:  true,
		StatusCode: http.StatusOK,
		Response:   fmt.Sprintf("%s delivery stub", a.channel),
		Channel:    a.channel,
	}
}
