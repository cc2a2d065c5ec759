package handlers

import (
	"io"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
	"github.com/mercat-labs/loyalty-platform/models"
)

// TicketHandlerInterface defines the contract for ticket handlers
type TicketHandlerInterface interface {
	Upload(c fiber.Ctx) error
	CreateDigital(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	History(c fiber.Ctx) error
	ListPending(c fiber.Ctx) error
	Process(c fiber.Ctx) error
	ProcessPending(c fiber.Ctx) error
	CheckDuplicate(c fiber.Ctx) error
}

// TicketHandler handles ticket HTTP requests
type TicketHandler struct {
	ticketFlow businessflow.TicketFlow
	validator  *validator.Validate
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ticketFlow businessflow.TicketFlow) *TicketHandler {
	return &TicketHandler{
		ticketFlow: ticketFlow,
		validator:  validator.New(),
	}
}

// Upload stores a ticket image and queues it for processing
// @Summary Upload Ticket
// @Tags Tickets
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Ticket image (jpg, jpeg, png, webp)"
// @Success 201 {object} dto.APIResponse{data=dto.TicketView} "Ticket queued"
// @Failure 400 {object} dto.APIResponse "Invalid file"
// @Router /api/v1/tickets/upload [post]
func (h *TicketHandler) Upload(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "file is required", "INVALID_FILE", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_FILE", err.Error())
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "could not read file", "INVALID_FILE", err.Error())
	}

	mime := fileHeader.Header.Get("Content-Type")
	ticket, err := h.ticketFlow.Upload(createRequestContext(c, "/api/v1/tickets/upload"), userID, fileHeader.Filename, mime, data)
	if err != nil {
		log.Printf("ticket upload failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to upload ticket", "UPLOAD_FAILED")
	}

	return SuccessResponse(c, fiber.StatusCreated, "Ticket uploaded and queued for processing", ticket)
}

// CreateDigital registers a vendor-issued ticket that skips image processing
// @Summary Create Digital Ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.DigitalTicketRequest true "Digital ticket data"
// @Success 201 {object} dto.APIResponse{data=dto.TicketView} "Ticket created"
// @Failure 403 {object} dto.APIResponse "Vendor role required"
// @Router /api/v1/tickets/digital [post]
func (h *TicketHandler) CreateDigital(c fiber.Ctx) error {
	issuerID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.DigitalTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	ticket, err := h.ticketFlow.CreateDigital(createRequestContext(c, "/api/v1/tickets/digital"), issuerID, &req)
	if err != nil {
		log.Printf("digital ticket creation failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to create digital ticket", "DIGITAL_TICKET_FAILED")
	}

	return SuccessResponse(c, fiber.StatusCreated, "Digital ticket created", ticket)
}

// Get loads one ticket. Users can only read their own tickets.
// @Summary Get Ticket
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} dto.APIResponse{data=dto.TicketView} "Ticket"
// @Failure 404 {object} dto.APIResponse "Ticket not found"
// @Router /api/v1/tickets/{id} [get]
func (h *TicketHandler) Get(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	ticketID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket id", "INVALID_TICKET_ID", nil)
	}

	ticket, err := h.ticketFlow.Get(createRequestContext(c, "/api/v1/tickets/:id"), ticketID)
	if err != nil {
		return BusinessErrorResponse(c, err, "Failed to load ticket", "TICKET_GET_FAILED")
	}

	// Owners and staff only
	if ticket.UserID != userID && callerRole(c) == models.RoleUser {
		return ErrorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Ticket loaded", ticket)
}

// History pages through the caller's tickets
// @Summary Ticket History
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=[]dto.TicketView} "Tickets"
// @Router /api/v1/tickets [get]
func (h *TicketHandler) History(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	tickets, err := h.ticketFlow.History(createRequestContext(c, "/api/v1/tickets"), userID, limit, offset)
	if err != nil {
		log.Printf("ticket history failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to load ticket history", "TICKET_HISTORY_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Ticket history loaded", tickets)
}

// ListPending returns queued tickets with their stored images
// @Summary List Pending Tickets
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Batch size"
// @Success 200 {object} dto.APIResponse{data=[]dto.PendingTicketView} "Pending tickets"
// @Router /api/v1/tickets/pending [get]
func (h *TicketHandler) ListPending(c fiber.Ctx) error {
	limit := queryInt(c, "limit", 20)

	tickets, err := h.ticketFlow.ListPending(createRequestContext(c, "/api/v1/tickets/pending"), limit)
	if err != nil {
		log.Printf("pending ticket listing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to list pending tickets", "PENDING_LIST_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Pending tickets loaded", tickets)
}

// Process runs extraction and scoring for one pending ticket
// @Summary Process Ticket
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} dto.APIResponse{data=dto.ProcessTicketResponse} "Processing outcome"
// @Failure 400 {object} dto.APIResponse "Ticket is not pending"
// @Router /api/v1/tickets/{id}/process [post]
func (h *TicketHandler) Process(c fiber.Ctx) error {
	ticketID, err := pathUUID(c, "id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket id", "INVALID_TICKET_ID", nil)
	}

	result, err := h.ticketFlow.ProcessTicket(createRequestContext(c, "/api/v1/tickets/:id/process"), ticketID)
	if err != nil {
		log.Printf("ticket processing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to process ticket", "PROCESS_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Ticket processed", result)
}

// ProcessPending drains a batch of the pending queue
// @Summary Process Pending Tickets
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Batch size"
// @Success 200 {object} dto.APIResponse{data=dto.ProcessPendingResponse} "Batch outcome"
// @Router /api/v1/tickets/process-pending [post]
func (h *TicketHandler) ProcessPending(c fiber.Ctx) error {
	limit := queryInt(c, "limit", 20)

	result, err := h.ticketFlow.ProcessPending(createRequestContext(c, "/api/v1/tickets/process-pending"), limit)
	if err != nil {
		log.Printf("pending batch processing failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to process pending tickets", "PROCESS_PENDING_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Pending tickets processed", result)
}

// CheckDuplicate probes whether an extraction would be flagged as a duplicate
// @Summary Check Duplicate
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckDuplicateRequest true "Extraction to probe"
// @Success 200 {object} dto.APIResponse{data=dto.CheckDuplicateResponse} "Probe result"
// @Router /api/v1/tickets/check-duplicate [post]
func (h *TicketHandler) CheckDuplicate(c fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.CheckDuplicateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ValidationErrorResponse(c, err)
	}

	result, err := h.ticketFlow.CheckDuplicate(createRequestContext(c, "/api/v1/tickets/check-duplicate"), userID, &req)
	if err != nil {
		log.Printf("duplicate check failed: %v", err)
		return BusinessErrorResponse(c, err, "Failed to check for duplicates", "DUPLICATE_CHECK_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Duplicate check completed", result)
}

func queryInt(c fiber.Ctx, name string, fallback int) int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
