package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
)

// MarketStoreHandlerInterface defines the contract for market store handlers
type MarketStoreHandlerInterface interface {
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Deactivate(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	List(c fiber.Ctx) error
	VerifyName(c fiber.Ctx) error
}

// MarketStoreHandler handles merchant roster HTTP requests
type MarketStoreHandler struct {
	storeFlow businessflow.MarketStoreFlow
	validator *validator.Validate
}

// NewMarketStoreHandler creates a new market store handler
func NewMarketStoreHandler(storeFlow businessflow.MarketStoreFlow) *MarketStoreHandler {
	return &MarketStoreHandler{
		storeFlow: storeFlow,
		validator: validator.New(),
	}
}

// Create adds a merchant to the roster
// @Summary Create Market Store
// @Tags MarketStores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateMarketStoreRequest true "Store data"
// @Success 201 {object} dto.APIResponse "Store created"
// @Router /api/v1/market-stores [post]
func (h *MarketStoreHandler) Create(c fiber.Ctx) error {
	var req dto.CreateMarketStoreRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	store, err := h.storeFlow.Create(createRequestContext(c, "/api/v1/market-stores"), &req)
	if err != nil {
		log.Printf("market store creation failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to create market store", "STORE_CREATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusCreated, "Market store created", store)
}

// Update edits a roster entry
// @Summary Update Market Store
// @Tags MarketStores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param request body dto.UpdateMarketStoreRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse "Store updated"
// @Failure 404 {object} dto.APIResponse "Store not found"
// @Router /api/v1/market-stores/{id} [put]
func (h *MarketStoreHandler) Update(c fiber.Ctx) error {
	storeID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid store id", "INVALID_STORE_ID", nil)
	}

	var req dto.UpdateMarketStoreRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	store, err := h.storeFlow.Update(createRequestContext(c, "/api/v1/market-stores/:id"), storeID, &req)
	if err != nil {
		log.Printf("market store update failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to update market store", "STORE_UPDATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Market store updated", store)
}

// Deactivate removes a merchant from the active roster
// @Summary Deactivate Market Store
// @Tags MarketStores
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Success 200 {object} dto.APIResponse "Store deactivated"
// @Failure 404 {object} dto.APIResponse "Store not found"
// @Router /api/v1/market-stores/{id} [delete]
func (h *MarketStoreHandler) Deactivate(c fiber.Ctx) error {
	storeID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid store id", "INVALID_STORE_ID", nil)
	}

	if err := h.storeFlow.Deactivate(createRequestContext(c, "/api/v1/market-stores/:id"), storeID); err != nil {
		log.Printf("market store deactivation failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to deactivate market store", "STORE_DEACTIVATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Market store deactivated", nil)
}

// Get loads one roster entry
// @Summary Get Market Store
// @Tags MarketStores
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Success 200 {object} dto.APIResponse "Store"
// @Failure 404 {object} dto.APIResponse "Store not found"
// @Router /api/v1/market-stores/{id} [get]
func (h *MarketStoreHandler) Get(c fiber.Ctx) error {
	storeID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid store id", "INVALID_STORE_ID", nil)
	}

	store, err := h.storeFlow.Get(createRequestContext(c, "/api/v1/market-stores/:id"), storeID)
	if err != nil {
		return BusinessErrorResponse(c, err, "Failed to load market store", "STORE_GET_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Market store loaded", store)
}

// List returns the roster
// @Summary List Market Stores
// @Tags MarketStores
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "Include deactivated entries"
// @Success 200 {object} dto.APIResponse "Stores"
// @Router /api/v1/market-stores [get]
func (h *MarketStoreHandler) List(c fiber.Ctx) error {
	includeInactive := c.Query("include_inactive") == "true"

	stores, err := h.storeFlow.List(createRequestContext(c, "/api/v1/market-stores"), includeInactive)
	if err != nil {
		log.Printf("market store listing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list market stores", "STORE_LIST_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Market stores loaded", stores)
}

// VerifyName checks whether a free-text store name belongs to the market
// @Summary Verify Store Name
// @Tags MarketStores
// @Produce json
// @Security BearerAuth
// @Param name query string true "Store name as printed on a ticket"
// @Success 200 {object} dto.APIResponse{data=dto.VerifyStoreResponse} "Membership result"
// @Router /api/v1/market-stores/verify [get]
func (h *MarketStoreHandler) VerifyName(c fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "name is required", "MISSING_NAME", nil)
	}

	isMember, err := h.storeFlow.IsMarketStore(createRequestContext(c, "/api/v1/market-stores/verify"), name)
	if err != nil {
		log.Printf("store name verification failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to verify store name", "STORE_VERIFY_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Store name checked", dto.VerifyStoreResponse{
		Name:          name,
		IsMarketStore: isMember,
	})
}
