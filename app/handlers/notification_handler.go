package handlers

import (
	"log"

	"github.com/gofiber/fiber/v3"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
)

// NotificationHandlerInterface defines the contract for in-app notification handlers
type NotificationHandlerInterface interface {
	List(c fiber.Ctx) error
	MarkRead(c fiber.Ctx) error
	MarkAllRead(c fiber.Ctx) error
	Stats(c fiber.Ctx) error
}

// NotificationHandler handles in-app notification HTTP requests
type NotificationHandler struct {
	notificationFlow businessflow.UserNotificationFlow
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationFlow businessflow.UserNotificationFlow) *NotificationHandler {
	return &NotificationHandler{notificationFlow: notificationFlow}
}

// List pages through the caller's inbox
// @Summary List Notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param unread_only query bool false "Only unread entries"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=dto.ListNotificationsResponse} "Inbox"
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	unreadOnly := c.Query("unread_only") == "true"
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	result, err := h.notificationFlow.List(createRequestContext(c, "/api/v1/notifications"), userID, unreadOnly, limit, offset)
	if err != nil {
		log.Printf("notification listing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list notifications", "NOTIFICATION_LIST_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Notifications loaded", result)
}

// MarkRead marks one notification as read
// @Summary Mark Notification Read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} dto.APIResponse "Notification marked read"
// @Failure 404 {object} dto.APIResponse "Notification not found"
// @Router /api/v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	notificationID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid notification id", "INVALID_NOTIFICATION_ID", nil)
	}

	if err := h.notificationFlow.MarkRead(createRequestContext(c, "/api/v1/notifications/:id/read"), userID, notificationID); err != nil {
		return BusinessErrorResponse(c, err, "Failed to mark notification read", "MARK_READ_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Notification marked read", nil)
}

// MarkAllRead marks the caller's whole inbox as read
// @Summary Mark All Read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Inbox marked read"
// @Router /api/v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	if err := h.notificationFlow.MarkAllRead(createRequestContext(c, "/api/v1/notifications/read-all"), userID); err != nil {
		log.Printf("mark all read failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to mark notifications read", "MARK_ALL_READ_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "All notifications marked read", nil)
}

// Stats groups the caller's notifications by type
// @Summary Notification Stats
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.NotificationStatsResponse} "Counts"
// @Router /api/v1/notifications/stats [get]
func (h *NotificationHandler) Stats(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.notificationFlow.Stats(createRequestContext(c, "/api/v1/notifications/stats"), userID)
	if err != nil {
		log.Printf("notification stats failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load notification stats", "NOTIFICATION_STATS_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Notification stats loaded", result)
}
