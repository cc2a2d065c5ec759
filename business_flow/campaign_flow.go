package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/app/services"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// fallbackCampaignMessage is used when the model cannot draft a copy
const fallbackCampaignMessage = "Descubre nuestras ofertas especiales esta semana en el mercat!"

// CampaignFlow addresses messages to the union of segment audiences
type CampaignFlow interface {
	Create(ctx context.Context, request *dto.CreateCampaignRequest) (*dto.CampaignView, error)
	List(ctx context.Context) ([]dto.CampaignView, error)
	Get(ctx context.Context, campaignID uuid.UUID) (*dto.CampaignView, error)
	Deactivate(ctx context.Context, campaignID uuid.UUID) error
	PreviewUsers(ctx context.Context, campaignID uuid.UUID) (*dto.PreviewUsersResponse, error)
	Dispatch(ctx context.Context, campaignID uuid.UUID) (*dto.DispatchResponse, error)
	SendNotifications(ctx context.Context, campaignID uuid.UUID, channel string) (*dto.SendCampaignResponse, error)
	ListNotifications(ctx context.Context, status string, limit, offset int) ([]dto.CampaignNotificationView, error)
	MarkNotificationSent(ctx context.Context, notificationID uuid.UUID) (*dto.CampaignNotificationView, error)
}

// CampaignFlowImpl implements the campaign business flow
type CampaignFlowImpl struct {
	campaignRepo     repository.CampaignRepository
	notificationRepo repository.CampaignNotificationRepository
	segmentFlow      SegmentFlow
	senderFlow       SenderFlow
	llm              services.LLMService
	db               *gorm.DB
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	campaignRepo repository.CampaignRepository,
	notificationRepo repository.CampaignNotificationRepository,
	segmentFlow SegmentFlow,
	senderFlow SenderFlow,
	llm services.LLMService,
	db *gorm.DB,
) CampaignFlow {
	return &CampaignFlowImpl{
		campaignRepo:     campaignRepo,
		notificationRepo: notificationRepo,
		segmentFlow:      segmentFlow,
		senderFlow:       senderFlow,
		llm:              llm,
		db:               db,
	}
}

// Create stores a campaign and links its segments. An empty message is
// drafted from the segment descriptions, falling back to a stock copy when
// the model is unavailable.
func (cf *CampaignFlowImpl) Create(ctx context.Context, request *dto.CreateCampaignRequest) (*dto.CampaignView, error) {
	segments := make([]*dto.SegmentView, 0, len(request.SegmentIDs))
	for _, segmentID := range request.SegmentIDs {
		segment, err := cf.segmentFlow.Get(ctx, segmentID)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment)
	}

	message := strings.TrimSpace(request.Message)
	if message == "" {
		message = cf.draftMessage(ctx, request.Name, segments)
	}

	var campaign *models.Campaign
	err := repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		campaign = &models.Campaign{
			Name:        request.Name,
			Description: request.Description,
			Message:     message,
			IsActive:    utils.ToPtr(true),
		}
		if err := cf.campaignRepo.Save(ctx, campaign); err != nil {
			return err
		}
		return cf.campaignRepo.LinkSegments(ctx, campaign.ID, request.SegmentIDs)
	})
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_CREATE_FAILED", "Failed to create campaign", err)
	}

	view := campaignView(campaign)
	for _, segment := range segments {
		view.Segments = append(view.Segments, *segment)
	}
	return &view, nil
}

// draftMessage asks the model for a short promotional copy
func (cf *CampaignFlowImpl) draftMessage(ctx context.Context, name string, segments []*dto.SegmentView) string {
	descriptions := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment.Description != "" {
			descriptions = append(descriptions, segment.Description)
		} else {
			descriptions = append(descriptions, segment.Name)
		}
	}

	prompt := fmt.Sprintf(`Escribe un mensaje promocional corto para la campana "%s" de un mercado local.
Audiencia: %s
Maximo dos frases, tono cercano, sin emojis. Responde solo con el mensaje.`,
		name, strings.Join(descriptions, "; "))

	message, err := cf.llm.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(message) == "" {
		return fallbackCampaignMessage
	}

	return strings.TrimSpace(message)
}

// List returns the active campaigns
func (cf *CampaignFlowImpl) List(ctx context.Context) ([]dto.CampaignView, error) {
	campaigns, err := cf.campaignRepo.ByFilter(ctx, models.CampaignFilter{IsActive: utils.ToPtr(true)}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to list campaigns", err)
	}

	views := make([]dto.CampaignView, 0, len(campaigns))
	for _, campaign := range campaigns {
		views = append(views, campaignView(campaign))
	}

	return views, nil
}

// Get returns one campaign with its linked segments
func (cf *CampaignFlowImpl) Get(ctx context.Context, campaignID uuid.UUID) (*dto.CampaignView, error) {
	campaign, err := cf.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	view := campaignView(campaign)
	for i := range campaign.Segments {
		view.Segments = append(view.Segments, segmentView(&campaign.Segments[i]))
	}
	return &view, nil
}

// Deactivate stops a campaign from dispatching
func (cf *CampaignFlowImpl) Deactivate(ctx context.Context, campaignID uuid.UUID) error {
	campaign, err := cf.loadCampaign(ctx, campaignID)
	if err != nil {
		return err
	}

	campaign.IsActive = utils.ToPtr(false)
	campaign.UpdatedAt = utils.UTCNow()
	if err := cf.campaignRepo.Update(ctx, campaign); err != nil {
		return NewBusinessError("CAMPAIGN_UPDATE_FAILED", "Failed to deactivate campaign", err)
	}

	return nil
}

// PreviewUsers resolves the campaign's audience without writing anything
func (cf *CampaignFlowImpl) PreviewUsers(ctx context.Context, campaignID uuid.UUID) (*dto.PreviewUsersResponse, error) {
	audience, err := cf.audience(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	return &dto.PreviewUsersResponse{
		UserIDs: audience,
		Count:   len(audience),
	}, nil
}

// Dispatch queues one notification record per audience member
func (cf *CampaignFlowImpl) Dispatch(ctx context.Context, campaignID uuid.UUID) (*dto.DispatchResponse, error) {
	campaign, err := cf.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !utils.IsTrue(campaign.IsActive) {
		return nil, NewBusinessError("CAMPAIGN_INACTIVE", "Campaign is not active", ErrCampaignInactive)
	}

	audience, err := cf.audienceOf(ctx, campaign)
	if err != nil {
		return nil, err
	}

	response := &dto.DispatchResponse{CampaignID: campaign.ID, NotificationIDs: []uuid.UUID{}}
	err = repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		for _, userID := range audience {
			notification := &models.CampaignNotification{
				UserID:     userID,
				CampaignID: &campaign.ID,
				Message:    campaign.Message,
				Status:     models.CampaignNotificationQueued,
			}
			if err := cf.notificationRepo.Save(ctx, notification); err != nil {
				return err
			}
			response.NotificationIDs = append(response.NotificationIDs, notification.ID)
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("DISPATCH_FAILED", "Failed to dispatch campaign", err)
	}

	response.Count = len(response.NotificationIDs)
	return response, nil
}

// SendNotifications delivers the campaign's queued notifications over one
// channel. Users without a subscription fail individually; a sender outage
// surfaces as a warning, not an error.
func (cf *CampaignFlowImpl) SendNotifications(ctx context.Context, campaignID uuid.UUID, channel string) (*dto.SendCampaignResponse, error) {
	campaign, err := cf.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !models.ValidChannel(channel) {
		return nil, NewBusinessError("INVALID_CHANNEL", "Unknown delivery channel", ErrInvalidChannel)
	}

	status := models.CampaignNotificationQueued
	queued, err := cf.notificationRepo.ByFilter(ctx, models.CampaignNotificationFilter{
		CampaignID: &campaign.ID,
		Status:     &status,
	}, "created_at ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("SEND_CAMPAIGN_FAILED", "Failed to list queued notifications", err)
	}

	response := &dto.SendCampaignResponse{
		CampaignID: campaign.ID,
		Channel:    channel,
		Requested:  len(queued),
	}

	failures := 0
	for _, notification := range queued {
		result, err := cf.senderFlow.DeliverQueued(ctx, notification, campaign.Name, channel)
		if err != nil {
			return nil, err
		}
		if result.Status != models.CampaignNotificationSent {
			failures++
		}
	}
	if failures > 0 {
		response.Warning = fmt.Sprintf("%d of %d notifications could not be delivered", failures, len(queued))
	}

	return response, nil
}

// ListNotifications pages through outbound notification records, newest
// first, optionally filtered by delivery status
func (cf *CampaignFlowImpl) ListNotifications(ctx context.Context, status string, limit, offset int) ([]dto.CampaignNotificationView, error) {
	filter := models.CampaignNotificationFilter{}
	if status != "" {
		if !models.ValidNotificationStatus(status) {
			return nil, NewBusinessError("INVALID_STATUS", "Unknown notification status", ErrInvalidStatus)
		}
		filter.Status = &status
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	notifications, err := cf.notificationRepo.ByFilter(ctx, filter, "created_at DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("NOTIFICATION_LIST_FAILED", "Failed to list notifications", err)
	}

	views := make([]dto.CampaignNotificationView, 0, len(notifications))
	for _, notification := range notifications {
		views = append(views, campaignNotificationView(notification))
	}

	return views, nil
}

// MarkNotificationSent stamps a queued notification as delivered out of band.
// Marking an already sent record is an idempotent no-op.
func (cf *CampaignFlowImpl) MarkNotificationSent(ctx context.Context, notificationID uuid.UUID) (*dto.CampaignNotificationView, error) {
	notification, err := cf.notificationRepo.ByID(ctx, notificationID)
	if err != nil {
		return nil, NewBusinessError("NOTIFICATION_LOOKUP_FAILED", "Failed to load notification", err)
	}
	if notification == nil {
		return nil, NewBusinessError("NOTIFICATION_NOT_FOUND", "Notification not found", ErrNotificationNotFound)
	}

	if notification.Status != models.CampaignNotificationSent {
		notification.Status = models.CampaignNotificationSent
		if notification.Meta == nil {
			notification.Meta = models.JSONMap{}
		}
		notification.Meta["sent_at"] = utils.UTCNow()
		notification.UpdatedAt = utils.UTCNow()
		if err := cf.notificationRepo.Update(ctx, notification); err != nil {
			return nil, NewBusinessError("NOTIFICATION_UPDATE_FAILED", "Failed to mark notification sent", err)
		}
	}

	view := campaignNotificationView(notification)
	return &view, nil
}

func (cf *CampaignFlowImpl) loadCampaign(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error) {
	campaign, err := cf.campaignRepo.ByIDWithSegments(ctx, campaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to load campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	return campaign, nil
}

// audience resolves the union of the campaign's active segment audiences
func (cf *CampaignFlowImpl) audience(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	campaign, err := cf.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	return cf.audienceOf(ctx, campaign)
}

func (cf *CampaignFlowImpl) audienceOf(ctx context.Context, campaign *models.Campaign) ([]uuid.UUID, error) {
	active := 0
	seen := map[uuid.UUID]bool{}
	audience := []uuid.UUID{}

	for i := range campaign.Segments {
		segment := &campaign.Segments[i]
		if !utils.IsTrue(segment.IsActive) {
			continue
		}
		active++

		members, err := cf.segmentFlow.Members(ctx, segment.ID)
		if err != nil {
			return nil, err
		}
		for _, userID := range members {
			if !seen[userID] {
				seen[userID] = true
				audience = append(audience, userID)
			}
		}
	}

	if active == 0 {
		return nil, NewBusinessError("NO_SEGMENTS", "Campaign has no active segments", ErrNoSegmentsLinked)
	}

	return audience, nil
}

func campaignView(campaign *models.Campaign) dto.CampaignView {
	return dto.CampaignView{
		ID:          campaign.ID,
		Name:        campaign.Name,
		Description: campaign.Description,
		Message:     campaign.Message,
		IsActive:    utils.IsTrue(campaign.IsActive),
		CreatedAt:   campaign.CreatedAt,
	}
}
