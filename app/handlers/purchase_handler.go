package handlers

import (
	"log"

	"github.com/gofiber/fiber/v3"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
)

// PurchaseHandlerInterface defines the contract for purchase history handlers
type PurchaseHandlerInterface interface {
	History(c fiber.Ctx) error
	Summary(c fiber.Ctx) error
	Spending(c fiber.Ctx) error
}

// PurchaseHandler handles purchase history HTTP requests
type PurchaseHandler struct {
	purchaseFlow businessflow.PurchaseHistoryFlow
}

// NewPurchaseHandler creates a new purchase history handler
func NewPurchaseHandler(purchaseFlow businessflow.PurchaseHistoryFlow) *PurchaseHandler {
	return &PurchaseHandler{purchaseFlow: purchaseFlow}
}

// History pages through the caller's purchase records
// @Summary Purchase History
// @Tags Purchases
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=dto.PurchaseHistoryResponse} "Records"
// @Router /api/v1/purchase-history [get]
func (h *PurchaseHandler) History(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	result, err := h.purchaseFlow.List(createRequestContext(c, "/api/v1/purchase-history"), userID, limit, offset)
	if err != nil {
		log.Printf("purchase history failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load purchase history", "PURCHASE_HISTORY_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Purchase history loaded", result)
}

// Summary aggregates the caller's purchase totals
// @Summary Purchase Summary
// @Tags Purchases
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.PurchaseSummary} "Totals"
// @Router /api/v1/purchase-history/summary [get]
func (h *PurchaseHandler) Summary(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.purchaseFlow.Summary(createRequestContext(c, "/api/v1/purchase-history/summary"), userID)
	if err != nil {
		log.Printf("purchase summary failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to build purchase summary", "PURCHASE_SUMMARY_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Purchase summary loaded", result)
}

// Spending returns the caller's trailing-window spending rollup
// @Summary Spending Period
// @Tags Purchases
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window size in days (default 30)"
// @Success 200 {object} dto.APIResponse{data=dto.SpendingPeriodResponse} "Rollup"
// @Router /api/v1/purchase-history/spending [get]
func (h *PurchaseHandler) Spending(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	days := queryInt(c, "days", 30)

	result, err := h.purchaseFlow.SpendingPeriod(createRequestContext(c, "/api/v1/purchase-history/spending"), userID, days)
	if err != nil {
		log.Printf("spending rollup failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to build spending rollup", "SPENDING_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Spending rollup loaded", result)
}
