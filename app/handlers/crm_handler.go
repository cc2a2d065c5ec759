package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
)

// CRMHandlerInterface defines the contract for segment, campaign and preference handlers
type CRMHandlerInterface interface {
	CreateSegment(c fiber.Ctx) error
	ListSegments(c fiber.Ctx) error
	GetSegment(c fiber.Ctx) error
	DeactivateSegment(c fiber.Ctx) error
	PreviewSegment(c fiber.Ctx) error
	CreateCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	DeactivateCampaign(c fiber.Ctx) error
	PreviewCampaign(c fiber.Ctx) error
	DispatchCampaign(c fiber.Ctx) error
	SendCampaign(c fiber.Ctx) error
	ListCampaignNotifications(c fiber.Ctx) error
	MarkNotificationSent(c fiber.Ctx) error
	GetPreferences(c fiber.Ctx) error
	InferAllPreferences(c fiber.Ctx) error
	InferRecentPreferences(c fiber.Ctx) error
	PreferencesSummary(c fiber.Ctx) error
}

// CRMHandler handles segment, campaign and preference HTTP requests
type CRMHandler struct {
	segmentFlow    businessflow.SegmentFlow
	campaignFlow   businessflow.CampaignFlow
	preferenceFlow businessflow.PreferenceFlow
	validator      *validator.Validate
}

// NewCRMHandler creates a new CRM handler
func NewCRMHandler(
	segmentFlow businessflow.SegmentFlow,
	campaignFlow businessflow.CampaignFlow,
	preferenceFlow businessflow.PreferenceFlow,
) *CRMHandler {
	return &CRMHandler{
		segmentFlow:    segmentFlow,
		campaignFlow:   campaignFlow,
		preferenceFlow: preferenceFlow,
		validator:      validator.New(),
	}
}

// CreateSegment defines a new audience segment
// @Summary Create Segment
// @Tags CRM
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSegmentRequest true "Segment definition"
// @Success 201 {object} dto.APIResponse{data=dto.SegmentView} "Segment created"
// @Router /api/v1/crm/segments [post]
func (h *CRMHandler) CreateSegment(c fiber.Ctx) error {
	var req dto.CreateSegmentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.segmentFlow.Create(createRequestContext(c, "/api/v1/crm/segments"), &req)
	if err != nil {
		log.Printf("segment creation failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to create segment", "SEGMENT_CREATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusCreated, "Segment created", result)
}

// ListSegments returns the defined segments
// @Summary List Segments
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.SegmentView} "Segments"
// @Router /api/v1/crm/segments [get]
func (h *CRMHandler) ListSegments(c fiber.Ctx) error {
	result, err := h.segmentFlow.List(createRequestContext(c, "/api/v1/crm/segments"))
	if err != nil {
		log.Printf("segment listing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list segments", "SEGMENT_LIST_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Segments loaded", result)
}

// GetSegment loads one segment
// @Summary Get Segment
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param id path string true "Segment ID"
// @Success 200 {object} dto.APIResponse{data=dto.SegmentView} "Segment"
// @Failure 404 {object} dto.APIResponse "Segment not found"
// @Router /api/v1/crm/segments/{id} [get]
func (h *CRMHandler) GetSegment(c fiber.Ctx) error {
	segmentID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid segment id", "INVALID_SEGMENT_ID", nil)
	}

	result, err := h.segmentFlow.Get(createRequestContext(c, "/api/v1/crm/segments/:id"), segmentID)
	if err != nil {
		return BusinessErrorResponse(c, err, "Failed to load segment", "SEGMENT_GET_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Segment loaded", result)
}

// DeactivateSegment retires a segment
// @Summary Deactivate Segment
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param id path string true "Segment ID"
// @Success 200 {object} dto.APIResponse "Segment deactivated"
// @Router /api/v1/crm/segments/{id} [delete]
func (h *CRMHandler) DeactivateSegment(c fiber.Ctx) error {
	segmentID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid segment id", "INVALID_SEGMENT_ID", nil)
	}

	if err := h.segmentFlow.Deactivate(createRequestContext(c, "/api/v1/crm/segments/:id"), segmentID); err != nil {
		log.Printf("segment deactivation failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to deactivate segment", "SEGMENT_DEACTIVATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Segment deactivated", nil)
}

// PreviewSegment resolves the segment to its current members
// @Summary Preview Segment
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param id path string true "Segment ID"
// @Success 200 {object} dto.APIResponse{data=dto.PreviewUsersResponse} "Members"
// @Router /api/v1/crm/segments/{id}/preview [get]
func (h *CRMHandler) PreviewSegment(c fiber.Ctx) error {
	segmentID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid segment id", "INVALID_SEGMENT_ID", nil)
	}

	result, err := h.segmentFlow.PreviewUsers(createRequestContext(c, "/api/v1/crm/segments/:id/preview"), segmentID)
	if err != nil {
		log.Printf("segment preview failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to preview segment", "SEGMENT_PREVIEW_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Segment previewed", result)
}

// CreateCampaign defines a new campaign over one or more segments
// @Summary Create Campaign
// @Tags CRM
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCampaignRequest true "Campaign definition"
// @Success 201 {object} dto.APIResponse{data=dto.CampaignView} "Campaign created"
// @Router /api/v1/crm/campaigns [post]
func (h *CRMHandler) CreateCampaign(c fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.campaignFlow.Create(createRequestContext(c, "/api/v1/crm/campaigns"), &req)
	if err != nil {
		log.Printf("campaign creation failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to create campaign", "CAMPAIGN_CREATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusCreated, "Campaign created", result)
}

// ListCampaigns returns the defined campaigns
// @Summary List Campaigns
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.CampaignView} "Campaigns"
// @Router /api/v1/crm/campaigns [get]
func (h *CRMHandler) ListCampaigns(c fiber.Ctx) error {
	result, err := h.campaignFlow.List(createRequestContext(c, "/api/v1/crm/campaigns"))
	if err != nil {
		log.Printf("campaign listing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list campaigns", "CAMPAIGN_LIST_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Campaigns loaded", result)
}

// GetCampaign loads one campaign with its segments
// @Summary Get Campaign
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignView} "Campaign"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/crm/campaigns/{id} [get]
func (h *CRMHandler) GetCampaign(c fiber.Ctx) error {
	campaignID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	result, err := h.campaignFlow.Get(createRequestContext(c, "/api/v1/crm/campaigns/:id"), campaignID)
	if err != nil {
		return BusinessErrorResponse(c, err, "Failed to load campaign", "CAMPAIGN_GET_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Campaign loaded", result)
}

// DeactivateCampaign retires a campaign
// @Summary Deactivate Campaign
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} dto.APIResponse "Campaign deactivated"
// @Router /api/v1/crm/campaigns/{id} [delete]
func (h *CRMHandler) DeactivateCampaign(c fiber.Ctx) error {
	campaignID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	if err := h.campaignFlow.Deactivate(createRequestContext(c, "/api/v1/crm/campaigns/:id"), campaignID); err != nil {
		log.Printf("campaign deactivation failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to deactivate campaign", "CAMPAIGN_DEACTIVATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Campaign deactivated", nil)
}

// PreviewCampaign resolves the campaign audience
// @Summary Preview Campaign
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.PreviewUsersResponse} "Audience"
// @Router /api/v1/crm/campaigns/{id}/preview [get]
func (h *CRMHandler) PreviewCampaign(c fiber.Ctx) error {
	campaignID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	result, err := h.campaignFlow.PreviewUsers(createRequestContext(c, "/api/v1/crm/campaigns/:id/preview"), campaignID)
	if err != nil {
		log.Printf("campaign preview failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to preview campaign", "CAMPAIGN_PREVIEW_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Campaign previewed", result)
}

// DispatchCampaign creates queued notification records for the audience
// @Summary Dispatch Campaign
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.DispatchResponse} "Dispatch summary"
// @Failure 400 {object} dto.APIResponse "Campaign inactive or without segments"
// @Router /api/v1/crm/campaigns/{id}/dispatch [post]
func (h *CRMHandler) DispatchCampaign(c fiber.Ctx) error {
	campaignID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	result, err := h.campaignFlow.Dispatch(createRequestContext(c, "/api/v1/crm/campaigns/:id/dispatch"), campaignID)
	if err != nil {
		log.Printf("campaign dispatch failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to dispatch campaign", "DISPATCH_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Campaign dispatched", result)
}

// SendCampaign delivers the queued notifications over a channel
// @Summary Send Campaign
// @Tags CRM
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.SendCampaignResponse} "Send summary"
// @Router /api/v1/crm/campaigns/{id}/send [post]
func (h *CRMHandler) SendCampaign(c fiber.Ctx) error {
	campaignID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	var req struct {
		Channel string `json:"channel" validate:"required,oneof=webpush android ios"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.campaignFlow.SendNotifications(createRequestContext(c, "/api/v1/crm/campaigns/:id/send"), campaignID, req.Channel)
	if err != nil {
		log.Printf("campaign send failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to send campaign", "CAMPAIGN_SEND_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Campaign sent", result)
}

// ListCampaignNotifications pages through outbound notification records
// @Summary List Campaign Notifications
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (queued, sent, failed)"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=[]dto.CampaignNotificationView} "Notifications"
// @Router /api/v1/crm/notifications [get]
func (h *CRMHandler) ListCampaignNotifications(c fiber.Ctx) error {
	status := c.Query("status")
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	result, err := h.campaignFlow.ListNotifications(createRequestContext(c, "/api/v1/crm/notifications"), status, limit, offset)
	if err != nil {
		log.Printf("notification listing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list notifications", "NOTIFICATION_LIST_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Notifications loaded", result)
}

// MarkNotificationSent records an out-of-band delivery for a queued notification
// @Summary Mark Notification Sent
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignNotificationView} "Notification"
// @Failure 404 {object} dto.APIResponse "Notification not found"
// @Router /api/v1/crm/notifications/{id}/mark-sent [post]
func (h *CRMHandler) MarkNotificationSent(c fiber.Ctx) error {
	notificationID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid notification id", "INVALID_NOTIFICATION_ID", nil)
	}

	result, err := h.campaignFlow.MarkNotificationSent(createRequestContext(c, "/api/v1/crm/notifications/:id/mark-sent"), notificationID)
	if err != nil {
		log.Printf("notification mark-sent failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to mark notification sent", "NOTIFICATION_MARK_SENT_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Notification marked sent", result)
}

// GetPreferences returns a user's preference map, optionally inferring it
// @Summary Get User Preferences
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param infer query bool false "Infer when empty"
// @Success 200 {object} dto.APIResponse{data=dto.PreferencesResponse} "Preferences"
// @Router /api/v1/crm/preferences/{id} [get]
func (h *CRMHandler) GetPreferences(c fiber.Ctx) error {
	userID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", "INVALID_USER_ID", nil)
	}

	infer := c.Query("infer") == "true"

	result, err := h.preferenceFlow.GetPreferences(createRequestContext(c, "/api/v1/crm/preferences/:id"), userID, infer)
	if err != nil {
		log.Printf("preference load failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load preferences", "PREFERENCES_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Preferences loaded", result)
}

// InferAllPreferences runs inference over every user with purchases
// @Summary Infer All Preferences
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.InferAllResponse} "Run summary"
// @Router /api/v1/crm/preferences/infer-all [post]
func (h *CRMHandler) InferAllPreferences(c fiber.Ctx) error {
	result, err := h.preferenceFlow.InferAll(createRequestContext(c, "/api/v1/crm/preferences/infer-all"))
	if err != nil {
		log.Printf("bulk preference inference failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to infer preferences", "INFER_ALL_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Preference inference completed", result)
}

// InferRecentPreferences runs inference over users with recent purchases
// @Summary Infer Recent Preferences
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Param days query int false "Lookback window in days (default 7)"
// @Success 200 {object} dto.APIResponse{data=dto.InferAllResponse} "Run summary"
// @Router /api/v1/crm/preferences/infer-recent [post]
func (h *CRMHandler) InferRecentPreferences(c fiber.Ctx) error {
	days := queryInt(c, "days", 7)

	result, err := h.preferenceFlow.InferRecent(createRequestContext(c, "/api/v1/crm/preferences/infer-recent"), days)
	if err != nil {
		log.Printf("recent preference inference failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to infer preferences", "INFER_RECENT_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Preference inference completed", result)
}

// PreferencesSummary aggregates stored preference values across users
// @Summary Preferences Summary
// @Tags CRM
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.PreferencesSummaryResponse} "Aggregates"
// @Router /api/v1/crm/preferences/summary [get]
func (h *CRMHandler) PreferencesSummary(c fiber.Ctx) error {
	result, err := h.preferenceFlow.Summary(createRequestContext(c, "/api/v1/crm/preferences/summary"))
	if err != nil {
		log.Printf("preference summary failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to build preference summary", "PREFERENCES_SUMMARY_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Preference summary loaded", result)
}
