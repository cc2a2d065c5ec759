package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
)

// AdminHandlerInterface defines the contract for administration handlers
type AdminHandlerInterface interface {
	ListUsers(c fiber.Ctx) error
	PromoteUser(c fiber.Ctx) error
	Overview(c fiber.Ctx) error
	ExportOverview(c fiber.Ctx) error
}

// AdminHandler handles administration HTTP requests
type AdminHandler struct {
	authFlow  businessflow.AuthFlow
	adminFlow businessflow.AdminFlow
	validator *validator.Validate
}

// NewAdminHandler creates a new administration handler
func NewAdminHandler(authFlow businessflow.AuthFlow, adminFlow businessflow.AdminFlow) *AdminHandler {
	return &AdminHandler{
		authFlow:  authFlow,
		adminFlow: adminFlow,
		validator: validator.New(),
	}
}

// ListUsers pages through registered users
// @Summary List Users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=[]dto.UserView} "Users"
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(c fiber.Ctx) error {
	req := dto.ListUsersRequest{Role: c.Query("role")}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Offset = n
		}
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.authFlow.ListUsers(createRequestContext(c, "/api/v1/admin/users"), &req)
	if err != nil {
		log.Printf("list users failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list users", "LIST_USERS_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Users loaded", result)
}

// PromoteUser changes a user's role
// @Summary Promote User
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserView} "Role changed"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/admin/users/{id}/role [put]
func (h *AdminHandler) PromoteUser(c fiber.Ctx) error {
	userID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", "INVALID_USER_ID", nil)
	}

	var req struct {
		Role string `json:"role" validate:"required,oneof=user vendor admin"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.authFlow.PromoteUser(createRequestContext(c, "/api/v1/admin/users/:id/role"), userID, req.Role)
	if err != nil {
		log.Printf("promote user failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to change role", "PROMOTE_USER_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Role updated", result)
}

// Overview aggregates platform totals
// @Summary Platform Overview
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AdminOverviewResponse} "Totals"
// @Router /api/v1/admin/overview [get]
func (h *AdminHandler) Overview(c fiber.Ctx) error {
	result, err := h.adminFlow.Overview(createRequestContext(c, "/api/v1/admin/overview"))
	if err != nil {
		log.Printf("admin overview failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to build overview", "OVERVIEW_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Overview loaded", result)
}

// ExportOverview streams the platform report as an XLSX workbook
// @Summary Export Overview
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary "Workbook"
// @Router /api/v1/admin/overview/export [get]
func (h *AdminHandler) ExportOverview(c fiber.Ctx) error {
	data, filename, err := h.adminFlow.ExportOverview(createRequestContext(c, "/api/v1/admin/overview/export"))
	if err != nil {
		log.Printf("overview export failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to export overview", "EXPORT_FAILED")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
