package businessflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/app/services"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// SenderFlow delivers outbound messages over pluggable channels. Every send
// leaves a notification record, first queued and then stamped with the
// delivery outcome.
type SenderFlow interface {
	Send(ctx context.Context, request *dto.SendRequest) (*dto.SendResult, error)
	SendBatch(ctx context.Context, request *dto.SendBatchRequest) (*dto.SendBatchResponse, error)
	DeliverQueued(ctx context.Context, notification *models.CampaignNotification, title, channel string) (*dto.SendResult, error)
	Status(ctx context.Context, notificationID uuid.UUID) (*dto.CampaignNotificationView, error)
	Stats(ctx context.Context) (*dto.SenderStatsResponse, error)
	Subscribe(ctx context.Context, userID uuid.UUID, request *dto.SubscribeRequest) (*dto.SubscriptionView, error)
	ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]dto.SubscriptionView, error)
	Unsubscribe(ctx context.Context, userID, subscriptionID uuid.UUID) error
}

// SenderFlowImpl implements the sender business flow
type SenderFlowImpl struct {
	notificationRepo repository.CampaignNotificationRepository
	subscriptionRepo repository.UserSubscriptionRepository
	router           *services.ChannelRouter
	db               *gorm.DB
}

// NewSenderFlow creates a new sender flow instance
func NewSenderFlow(
	notificationRepo repository.CampaignNotificationRepository,
	subscriptionRepo repository.UserSubscriptionRepository,
	router *services.ChannelRouter,
	db *gorm.DB,
) SenderFlow {
	return &SenderFlowImpl{
		notificationRepo: notificationRepo,
		subscriptionRepo: subscriptionRepo,
		router:           router,
		db:               db,
	}
}

// Send records the message and attempts delivery. Delivery failures mark the
// record failed; they are reported in the result, not as errors.
func (sf *SenderFlowImpl) Send(ctx context.Context, request *dto.SendRequest) (*dto.SendResult, error) {
	if !models.ValidChannel(request.Channel) {
		return nil, NewBusinessError("INVALID_CHANNEL", "Unknown delivery channel", ErrInvalidChannel)
	}

	notification := &models.CampaignNotification{
		UserID:  request.UserID,
		Message: request.Message,
		Status:  models.CampaignNotificationQueued,
		Meta:    models.JSONMap{"channel": request.Channel, "title": request.Title},
	}
	if err := sf.notificationRepo.Save(ctx, notification); err != nil {
		return nil, NewBusinessError("SEND_FAILED", "Failed to record notification", err)
	}

	return sf.deliver(ctx, notification, request.Title, request.Channel, request.Data)
}

// DeliverQueued attempts delivery of an already recorded notification
func (sf *SenderFlowImpl) DeliverQueued(ctx context.Context, notification *models.CampaignNotification, title, channel string) (*dto.SendResult, error) {
	if !models.ValidChannel(channel) {
		return nil, NewBusinessError("INVALID_CHANNEL", "Unknown delivery channel", ErrInvalidChannel)
	}

	return sf.deliver(ctx, notification, title, channel, nil)
}

func (sf *SenderFlowImpl) deliver(ctx context.Context, notification *models.CampaignNotification, title, channel string, data map[string]any) (*dto.SendResult, error) {
	result := &dto.SendResult{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
	}

	subscription, err := sf.subscriptionRepo.ActiveByUserAndChannel(ctx, notification.UserID, channel)
	if err != nil {
		return nil, NewBusinessError("SEND_FAILED", "Failed to look up subscription", err)
	}
	if subscription == nil {
		result.Status = models.CampaignNotificationFailed
		result.Error = "no active subscription for channel"
		sf.stampOutcome(ctx, notification, result.Status, models.JSONMap{"error": result.Error})
		return result, nil
	}

	adapter, err := sf.router.Adapter(channel)
	if err != nil {
		result.Status = models.CampaignNotificationFailed
		result.Error = err.Error()
		sf.stampOutcome(ctx, notification, result.Status, models.JSONMap{"error": result.Error})
		return result, nil
	}

	delivery := adapter.Deliver(ctx, subscription, services.PushPayload{
		Title:   title,
		Message: notification.Message,
		Data:    data,
	})

	if delivery.ShouldRemoveSubscription {
		if err := sf.subscriptionRepo.Deactivate(ctx, subscription.ID); err != nil {
			return nil, NewBusinessError("SEND_FAILED", "Failed to deactivate dead subscription", err)
		}
	}

	info := models.JSONMap{
		"status_code": delivery.StatusCode,
		"response":    delivery.Response,
		"channel":     delivery.Channel,
		"sent_at":     utils.UTCNow(),
	}
	if delivery.Delivered {
		result.Status = models.CampaignNotificationSent
	} else {
		result.Status = models.CampaignNotificationFailed
		result.Error = delivery.Error
		info["error"] = delivery.Error
	}
	result.DeliveryInfo = info

	sf.stampOutcome(ctx, notification, result.Status, models.JSONMap{"delivery_info": map[string]any(info)})
	return result, nil
}

// stampOutcome persists the terminal status and merges diagnostics into meta
func (sf *SenderFlowImpl) stampOutcome(ctx context.Context, notification *models.CampaignNotification, status string, extra models.JSONMap) {
	notification.Status = status
	for key, value := range extra {
		notification.Meta[key] = value
	}
	notification.UpdatedAt = utils.UTCNow()
	_ = sf.notificationRepo.Update(ctx, notification)
}

// SendBatch delivers each item independently and reports per-item outcomes
func (sf *SenderFlowImpl) SendBatch(ctx context.Context, request *dto.SendBatchRequest) (*dto.SendBatchResponse, error) {
	response := &dto.SendBatchResponse{Results: make([]dto.SendResult, 0, len(request.Notifications))}

	for i := range request.Notifications {
		result, err := sf.Send(ctx, &request.Notifications[i])
		if err != nil {
			response.Results = append(response.Results, dto.SendResult{
				UserID: request.Notifications[i].UserID,
				Status: models.CampaignNotificationFailed,
				Error:  err.Error(),
			})
			continue
		}
		response.Results = append(response.Results, *result)
	}

	return response, nil
}

// Status returns one outbound notification record
func (sf *SenderFlowImpl) Status(ctx context.Context, notificationID uuid.UUID) (*dto.CampaignNotificationView, error) {
	notification, err := sf.notificationRepo.ByID(ctx, notificationID)
	if err != nil {
		return nil, NewBusinessError("NOTIFICATION_LOOKUP_FAILED", "Failed to load notification", err)
	}
	if notification == nil {
		return nil, NewBusinessError("NOTIFICATION_NOT_FOUND", "Notification not found", ErrNotificationNotFound)
	}

	view := campaignNotificationView(notification)
	return &view, nil
}

// Stats aggregates delivery outcomes across all outbound notifications
func (sf *SenderFlowImpl) Stats(ctx context.Context) (*dto.SenderStatsResponse, error) {
	stats, err := sf.notificationRepo.Stats(ctx)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to aggregate delivery stats", err)
	}

	return &dto.SenderStatsResponse{Stats: stats}, nil
}

// Subscribe registers a delivery endpoint. An existing active subscription on
// the same channel is replaced.
func (sf *SenderFlowImpl) Subscribe(ctx context.Context, userID uuid.UUID, request *dto.SubscribeRequest) (*dto.SubscriptionView, error) {
	if !models.ValidChannel(request.Channel) {
		return nil, NewBusinessError("INVALID_CHANNEL", "Unknown delivery channel", ErrInvalidChannel)
	}

	var subscription *models.UserSubscription
	err := repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		existing, err := sf.subscriptionRepo.ActiveByUserAndChannel(ctx, userID, request.Channel)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := sf.subscriptionRepo.Deactivate(ctx, existing.ID); err != nil {
				return err
			}
		}

		subscription = &models.UserSubscription{
			UserID:           userID,
			Channel:          request.Channel,
			SubscriptionData: models.JSONMap(request.SubscriptionData),
			IsActive:         utils.ToPtr(true),
		}
		return sf.subscriptionRepo.Save(ctx, subscription)
	})
	if err != nil {
		return nil, NewBusinessError("SUBSCRIBE_FAILED", "Failed to register subscription", err)
	}

	view := subscriptionView(subscription)
	return &view, nil
}

// ListSubscriptions returns the caller's subscriptions
func (sf *SenderFlowImpl) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]dto.SubscriptionView, error) {
	subscriptions, err := sf.subscriptionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("SUBSCRIPTION_LIST_FAILED", "Failed to list subscriptions", err)
	}

	views := make([]dto.SubscriptionView, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		views = append(views, subscriptionView(subscription))
	}

	return views, nil
}

// Unsubscribe deactivates one of the caller's subscriptions
func (sf *SenderFlowImpl) Unsubscribe(ctx context.Context, userID, subscriptionID uuid.UUID) error {
	subscription, err := sf.subscriptionRepo.ByID(ctx, subscriptionID)
	if err != nil {
		return NewBusinessError("SUBSCRIPTION_LOOKUP_FAILED", "Failed to load subscription", err)
	}
	if subscription == nil || subscription.UserID != userID {
		return NewBusinessError("SUBSCRIPTION_NOT_FOUND", "Subscription not found", ErrSubscriberNotFound)
	}

	if err := sf.subscriptionRepo.Deactivate(ctx, subscription.ID); err != nil {
		return NewBusinessError("UNSUBSCRIBE_FAILED", "Failed to deactivate subscription", err)
	}

	return nil
}

func campaignNotificationView(notification *models.CampaignNotification) dto.CampaignNotificationView {
	return dto.CampaignNotificationView{
		ID:         notification.ID,
		UserID:     notification.UserID,
		CampaignID: notification.CampaignID,
		Message:    notification.Message,
		Status:     notification.Status,
		Meta:       notification.Meta,
		CreatedAt:  notification.CreatedAt,
	}
}

func subscriptionView(subscription *models.UserSubscription) dto.SubscriptionView {
	return dto.SubscriptionView{
		ID:       subscription.ID,
		Channel:  subscription.Channel,
		IsActive: utils.IsTrue(subscription.IsActive),
	}
}
