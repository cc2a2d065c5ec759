package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
)

// SenderHandlerInterface defines the contract for delivery handlers
type SenderHandlerInterface interface {
	Send(c fiber.Ctx) error
	SendBatch(c fiber.Ctx) error
	Status(c fiber.Ctx) error
	Stats(c fiber.Ctx) error
	Subscribe(c fiber.Ctx) error
	ListSubscriptions(c fiber.Ctx) error
	Unsubscribe(c fiber.Ctx) error
}

// SenderHandler handles outbound delivery HTTP requests
type SenderHandler struct {
	senderFlow businessflow.SenderFlow
	validator  *validator.Validate
}

// NewSenderHandler creates a new sender handler
func NewSenderHandler(senderFlow businessflow.SenderFlow) *SenderHandler {
	return &SenderHandler{
		senderFlow: senderFlow,
		validator:  validator.New(),
	}
}

// Send delivers one message to one user over a channel
// @Summary Send Notification
// @Tags Sender
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendRequest true "Delivery request"
// @Success 200 {object} dto.APIResponse{data=dto.SendResult} "Delivery outcome"
// @Router /api/v1/sender/send [post]
func (h *SenderHandler) Send(c fiber.Ctx) error {
	var req dto.SendRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.senderFlow.Send(createRequestContext(c, "/api/v1/sender/send"), &req)
	if err != nil {
		log.Printf("notification send failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to send notification", "SEND_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Notification processed", result)
}

// SendBatch delivers several messages independently
// @Summary Send Batch
// @Tags Sender
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendBatchRequest true "Batch of delivery requests"
// @Success 200 {object} dto.APIResponse{data=dto.SendBatchResponse} "Per-item outcomes"
// @Router /api/v1/sender/send-batch [post]
func (h *SenderHandler) SendBatch(c fiber.Ctx) error {
	var req dto.SendBatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.senderFlow.SendBatch(createRequestContext(c, "/api/v1/sender/send-batch"), &req)
	if err != nil {
		log.Printf("batch send failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to send batch", "SEND_BATCH_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Batch processed", result)
}

// Status loads one delivery record
// @Summary Delivery Status
// @Tags Sender
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignNotificationView} "Delivery record"
// @Failure 404 {object} dto.APIResponse "Notification not found"
// @Router /api/v1/sender/notifications/{id} [get]
func (h *SenderHandler) Status(c fiber.Ctx) error {
	notificationID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid notification id", "INVALID_NOTIFICATION_ID", nil)
	}

	result, err := h.senderFlow.Status(createRequestContext(c, "/api/v1/sender/notifications/:id"), notificationID)
	if err != nil {
		return BusinessErrorResponse(c, err, "Failed to load delivery status", "STATUS_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Delivery status loaded", result)
}

// Stats returns the aggregate delivery counters
// @Summary Delivery Stats
// @Tags Sender
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SenderStatsResponse} "Counters"
// @Router /api/v1/sender/stats [get]
func (h *SenderHandler) Stats(c fiber.Ctx) error {
	result, err := h.senderFlow.Stats(createRequestContext(c, "/api/v1/sender/stats"))
	if err != nil {
		log.Printf("sender stats failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load sender stats", "SENDER_STATS_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Sender stats loaded", result)
}

// Subscribe registers a delivery endpoint for the caller
// @Summary Subscribe
// @Tags Sender
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubscribeRequest true "Subscription data"
// @Success 201 {object} dto.APIResponse{data=dto.SubscriptionView} "Subscription created"
// @Router /api/v1/sender/subscriptions [post]
func (h *SenderHandler) Subscribe(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.SubscribeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.senderFlow.Subscribe(createRequestContext(c, "/api/v1/sender/subscriptions"), userID, &req)
	if err != nil {
		log.Printf("subscription failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to subscribe", "SUBSCRIBE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusCreated, "Subscribed", result)
}

// ListSubscriptions lists the caller's delivery endpoints
// @Summary List Subscriptions
// @Tags Sender
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.SubscriptionView} "Subscriptions"
// @Router /api/v1/sender/subscriptions [get]
func (h *SenderHandler) ListSubscriptions(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.senderFlow.ListSubscriptions(createRequestContext(c, "/api/v1/sender/subscriptions"), userID)
	if err != nil {
		log.Printf("subscription listing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list subscriptions", "SUBSCRIPTION_LIST_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Subscriptions loaded", result)
}

// Unsubscribe removes one of the caller's delivery endpoints
// @Summary Unsubscribe
// @Tags Sender
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.APIResponse "Subscription removed"
// @Failure 404 {object} dto.APIResponse "Subscription not found"
// @Router /api/v1/sender/subscriptions/{id} [delete]
func (h *SenderHandler) Unsubscribe(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	subscriptionID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid subscription id", "INVALID_SUBSCRIPTION_ID", nil)
	}

	if err := h.senderFlow.Unsubscribe(createRequestContext(c, "/api/v1/sender/subscriptions/:id"), userID, subscriptionID); err != nil {
		return BusinessErrorResponse(c, err, "Failed to unsubscribe", "UNSUBSCRIBE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Unsubscribed", nil)
}
