package businessflow

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/app/services"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// TicketFlow runs the ticket lifecycle from upload through extraction to the
// terminal status, fanning out to purchase history and gamification
type TicketFlow interface {
	Upload(ctx context.Context, userID uuid.UUID, originalFilename string, mime string, data []byte) (*dto.TicketView, error)
	CreateDigital(ctx context.Context, issuedBy uuid.UUID, request *dto.DigitalTicketRequest) (*dto.TicketView, error)
	Get(ctx context.Context, ticketID uuid.UUID) (*dto.TicketView, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.TicketView, error)
	ListPending(ctx context.Context, limit int) ([]dto.PendingTicketView, error)
	ProcessTicket(ctx context.Context, ticketID uuid.UUID) (*dto.ProcessTicketResponse, error)
	ProcessPending(ctx context.Context, limit int) (*dto.ProcessPendingResponse, error)
	CheckDuplicate(ctx context.Context, userID uuid.UUID, request *dto.CheckDuplicateRequest) (*dto.CheckDuplicateResponse, error)
}

// TicketFlowImpl implements the ticket business flow
type TicketFlowImpl struct {
	ticketRepo       repository.TicketRepository
	storage          services.StorageService
	vision           services.VisionService
	marketStoreFlow  MarketStoreFlow
	purchaseFlow     PurchaseHistoryFlow
	gamificationFlow GamificationFlow
	duplicateCheck   bool
	db               *gorm.DB
}

// NewTicketFlow creates a new ticket flow instance
func NewTicketFlow(
	ticketRepo repository.TicketRepository,
	storage services.StorageService,
	vision services.VisionService,
	marketStoreFlow MarketStoreFlow,
	purchaseFlow PurchaseHistoryFlow,
	gamificationFlow GamificationFlow,
	duplicateCheck bool,
	db *gorm.DB,
) TicketFlow {
	return &TicketFlowImpl{
		ticketRepo:       ticketRepo,
		storage:          storage,
		vision:           vision,
		marketStoreFlow:  marketStoreFlow,
		purchaseFlow:     purchaseFlow,
		gamificationFlow: gamificationFlow,
		duplicateCheck:   duplicateCheck,
		db:               db,
	}
}

// Upload validates and stores a ticket image and queues it for processing
func (tf *TicketFlowImpl) Upload(ctx context.Context, userID uuid.UUID, originalFilename string, mime string, data []byte) (*dto.TicketView, error) {
	if err := tf.storage.Validate(originalFilename, int64(len(data))); err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedExtension):
			return nil, NewBusinessError("UPLOAD_REJECTED", "Unsupported file extension", ErrUnsupportedExtension)
		case errors.Is(err, services.ErrFileTooLarge):
			return nil, NewBusinessError("UPLOAD_REJECTED", "File exceeds the size limit", ErrFileTooLarge)
		case errors.Is(err, services.ErrEmptyFile):
			return nil, NewBusinessError("UPLOAD_REJECTED", "Uploaded file is empty", ErrEmptyFile)
		}
		return nil, NewBusinessError("UPLOAD_REJECTED", "Upload validation failed", err)
	}

	ref, storedName, err := tf.storage.Store(originalFilename, data)
	if err != nil {
		return nil, NewBusinessError("UPLOAD_FAILED", "Failed to store uploaded file", err)
	}

	ticket := &models.Ticket{
		UserID:           userID,
		Filename:         storedName,
		OriginalFilename: originalFilename,
		FileRef:          ref,
		Size:             int64(len(data)),
		Mime:             mime,
		Status:           models.TicketStatusPending,
		Metadata:         models.JSONMap{"type": "scan"},
	}
	if err := tf.ticketRepo.Save(ctx, ticket); err != nil {
		return nil, NewBusinessError("UPLOAD_FAILED", "Failed to create ticket", err)
	}

	view := ticketView(ticket)
	return &view, nil
}

// CreateDigital records a vendor-issued purchase. Digital tickets skip the
// processing queue: they land approved and feed history and gamification
// immediately.
func (tf *TicketFlowImpl) CreateDigital(ctx context.Context, issuedBy uuid.UUID, request *dto.DigitalTicketRequest) (*dto.TicketView, error) {
	purchaseDate := utils.UTCNow()
	if request.PurchaseDate != nil {
		purchaseDate = request.PurchaseDate.UTC()
	}

	products := make(models.ProductList, 0, len(request.Products))
	for _, line := range request.Products {
		products = append(products, models.ProductLine{
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}

	productViews := make([]any, 0, len(products))
	for _, line := range products {
		productViews = append(productViews, map[string]any{
			"nombre":   line.Name,
			"cantidad": line.Quantity,
			"precio":   line.Price,
		})
	}

	result := models.JSONMap{
		"fecha":                   purchaseDate.Format("02/01/2006"),
		"hora":                    purchaseDate.Format("15:04"),
		"tienda":                  request.StoreName,
		"total":                   strconv.FormatFloat(request.TotalAmount, 'f', 2, 64),
		"tipo_ticket":             "digital",
		"productos":               productViews,
		"num_productos":           len(products),
		"procesado_correctamente": true,
		"es_tienda_mercado":       true,
		"ticket_status":           models.TicketStatusDoneApproved,
		"status_message":          "Tiquet digital emès pel venedor",
	}

	ticket := &models.Ticket{
		UserID:           request.UserID,
		Filename:         "digital",
		OriginalFilename: "digital",
		FileRef:          "",
		Status:           models.TicketStatusDoneApproved,
		Metadata: models.JSONMap{
			"type":      "digital",
			"issued_by": issuedBy.String(),
		},
		ProcessingResult: result,
	}
	if err := tf.ticketRepo.Save(ctx, ticket); err != nil {
		return nil, NewBusinessError("DIGITAL_TICKET_FAILED", "Failed to create digital ticket", err)
	}

	tf.recordPurchase(ctx, ticket, &dto.CreatePurchaseRequest{
		UserID:        request.UserID,
		TicketID:      ticket.ID,
		PurchaseDate:  &purchaseDate,
		StoreName:     request.StoreName,
		TotalAmount:   request.TotalAmount,
		Products:      request.Products,
		TicketType:    "digital",
		IsMarketStore: true,
	})

	event := &dto.TicketProcessedEvent{
		UserID:         request.UserID,
		TicketID:       ticket.ID,
		IsValid:        true,
		TotalAmount:    &request.TotalAmount,
		StoreName:      &request.StoreName,
		ProcessingDate: &purchaseDate,
	}
	if _, err := tf.gamificationFlow.ProcessTicketEvent(ctx, event); err != nil {
		return nil, NewBusinessError("DIGITAL_TICKET_FAILED", "Failed to apply digital ticket to progression", err)
	}

	view := ticketView(ticket)
	return &view, nil
}

// Get returns one ticket
func (tf *TicketFlowImpl) Get(ctx context.Context, ticketID uuid.UUID) (*dto.TicketView, error) {
	ticket, err := tf.ticketRepo.ByID(ctx, ticketID)
	if err != nil {
		return nil, NewBusinessError("TICKET_LOOKUP_FAILED", "Failed to load ticket", err)
	}
	if ticket == nil {
		return nil, NewBusinessError("TICKET_NOT_FOUND", "Ticket not found", ErrTicketNotFound)
	}

	view := ticketView(ticket)
	return &view, nil
}

// History pages through a user's tickets, newest first
func (tf *TicketFlowImpl) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.TicketView, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	tickets, err := tf.ticketRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("TICKET_LIST_FAILED", "Failed to list tickets", err)
	}

	views := make([]dto.TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		views = append(views, ticketView(ticket))
	}

	return views, nil
}

// ListPending returns queued tickets oldest first, carrying their image bytes
// for out-of-process workers
func (tf *TicketFlowImpl) ListPending(ctx context.Context, limit int) ([]dto.PendingTicketView, error) {
	tickets, err := tf.ticketRepo.ListPending(ctx, limit)
	if err != nil {
		return nil, NewBusinessError("TICKET_LIST_FAILED", "Failed to list pending tickets", err)
	}

	views := make([]dto.PendingTicketView, 0, len(tickets))
	for _, ticket := range tickets {
		view := dto.PendingTicketView{
			TicketView: ticketView(ticket),
			Mime:       ticket.Mime,
		}
		if data, err := tf.storage.Read(ticket.FileRef); err == nil {
			view.ImageBase64 = base64.StdEncoding.EncodeToString(data)
		}
		views = append(views, view)
	}

	return views, nil
}

// ProcessTicket runs one pending ticket through extraction, validation and
// duplicate detection, then fans the outcome out to history and progression
func (tf *TicketFlowImpl) ProcessTicket(ctx context.Context, ticketID uuid.UUID) (*dto.ProcessTicketResponse, error) {
	ticket, err := tf.ticketRepo.ByID(ctx, ticketID)
	if err != nil {
		return nil, NewBusinessError("TICKET_LOOKUP_FAILED", "Failed to load ticket", err)
	}
	if ticket == nil {
		return nil, NewBusinessError("TICKET_NOT_FOUND", "Ticket not found", ErrTicketNotFound)
	}
	if ticket.Status != models.TicketStatusPending {
		return nil, NewBusinessError("TICKET_NOT_PENDING", "Ticket has already been processed", ErrTicketNotPending)
	}

	image, err := tf.storage.Read(ticket.FileRef)
	if err != nil {
		return tf.finishFailed(ctx, ticket, fmt.Sprintf("stored image unreadable: %v", err))
	}

	extraction := tf.vision.Extract(ctx, image, ticket.Mime)
	if !extraction.Success {
		return tf.finishFailed(ctx, ticket, extraction.Error)
	}

	result := extractionResultMap(extraction)

	tienda := ""
	if extraction.Tienda != nil {
		tienda = *extraction.Tienda
	}
	isMarketStore, err := tf.marketStoreFlow.IsMarketStore(ctx, tienda)
	if err != nil {
		return tf.finishFailed(ctx, ticket, fmt.Sprintf("store roster unavailable: %v", err))
	}
	result["es_tienda_mercado"] = isMarketStore

	if tf.duplicateCheck && extraction.HasStructuralFields() {
		priors, err := tf.loadPriors(ctx, ticket.UserID)
		if err != nil {
			return nil, NewBusinessError("DUPLICATE_CHECK_FAILED", "Failed to load prior tickets", err)
		}
		if match := FirstDuplicate(*extraction.Fecha, extraction.Hora, extraction.Productos, priors); match != nil {
			result["duplicate_detected"] = true
			result["duplicate_of"] = match.TicketID
			result["ticket_status"] = models.TicketStatusDuplicate
			result["status_message"] = "Tiquet duplicat"
			return tf.finishTicket(ctx, ticket, models.TicketStatusDuplicate, result, nil)
		}
	}

	status := models.TicketStatusDoneRejected
	message := "El tiquet no pertany a una parada del mercat"
	if isMarketStore {
		status = models.TicketStatusDoneApproved
		message = "Tiquet aprovat"
	}
	result["ticket_status"] = status
	result["status_message"] = message

	return tf.finishTicket(ctx, ticket, status, result, extraction)
}

// ProcessPending drains up to limit queued tickets sequentially
func (tf *TicketFlowImpl) ProcessPending(ctx context.Context, limit int) (*dto.ProcessPendingResponse, error) {
	tickets, err := tf.ticketRepo.ListPending(ctx, limit)
	if err != nil {
		return nil, NewBusinessError("TICKET_LIST_FAILED", "Failed to list pending tickets", err)
	}

	response := &dto.ProcessPendingResponse{Results: []dto.ProcessTicketResponse{}}
	for _, ticket := range tickets {
		processed, err := tf.ProcessTicket(ctx, ticket.ID)
		if err != nil {
			response.Results = append(response.Results, dto.ProcessTicketResponse{
				TicketID: ticket.ID,
				Status:   models.TicketStatusFailed,
			})
			continue
		}
		response.Processed++
		response.Results = append(response.Results, *processed)
	}

	return response, nil
}

// CheckDuplicate probes an extraction against a user's prior tickets without
// creating anything
func (tf *TicketFlowImpl) CheckDuplicate(ctx context.Context, userID uuid.UUID, request *dto.CheckDuplicateRequest) (*dto.CheckDuplicateResponse, error) {
	priors, err := tf.loadPriors(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("DUPLICATE_CHECK_FAILED", "Failed to load prior tickets", err)
	}

	products := make(models.ProductList, 0, len(request.Products))
	for _, line := range request.Products {
		products = append(products, models.ProductLine{
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}

	response := &dto.CheckDuplicateResponse{ComparedTickets: len(priors)}
	if match := FirstDuplicate(request.Fecha, request.Hora, products, priors); match != nil {
		response.Duplicate = true
		if id, err := uuid.Parse(match.TicketID); err == nil {
			response.MatchedTicketID = &id
		}
	}

	return response, nil
}

// loadPriors projects a user's comparable processed tickets for duplicate
// detection
func (tf *TicketFlowImpl) loadPriors(ctx context.Context, userID uuid.UUID) ([]PriorTicket, error) {
	tickets, err := tf.ticketRepo.ListTerminalByUser(ctx, userID, models.DuplicateComparableStatuses)
	if err != nil {
		return nil, err
	}

	priors := make([]PriorTicket, 0, len(tickets))
	for _, ticket := range tickets {
		if prior, ok := PriorTicketFromResult(ticket.ID.String(), ticket.ProcessingResult); ok {
			priors = append(priors, prior)
		}
	}

	return priors, nil
}

// finishFailed stamps a ticket as failed with a reason. Failed tickets never
// reach history or progression.
func (tf *TicketFlowImpl) finishFailed(ctx context.Context, ticket *models.Ticket, reason string) (*dto.ProcessTicketResponse, error) {
	result := models.JSONMap{
		"procesado_correctamente": false,
		"ticket_status":           models.TicketStatusFailed,
		"status_message":          "No s'ha pogut processar el tiquet",
		"error":                   reason,
	}
	return tf.finishTicket(ctx, ticket, models.TicketStatusFailed, result, nil)
}

// finishTicket persists the terminal status, then fans out. Approved and
// rejected tickets both write history and feed progression; duplicates and
// failures touch neither.
func (tf *TicketFlowImpl) finishTicket(ctx context.Context, ticket *models.Ticket, status string, result models.JSONMap, extraction *services.ExtractionResult) (*dto.ProcessTicketResponse, error) {
	ticket.Status = status
	ticket.ProcessingResult = result
	ticket.UpdatedAt = utils.UTCNow()
	if err := tf.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, NewBusinessError("TICKET_UPDATE_FAILED", "Failed to persist processing outcome", err)
	}

	response := &dto.ProcessTicketResponse{
		TicketID: ticket.ID,
		Status:   status,
		Result:   result,
	}

	if status != models.TicketStatusDoneApproved && status != models.TicketStatusDoneRejected {
		return response, nil
	}

	approved := status == models.TicketStatusDoneApproved
	isMarketStore, _ := result["es_tienda_mercado"].(bool)

	var totalAmount *float64
	var storeName *string
	if extraction != nil {
		if extraction.Total != nil {
			if amount, err := ParseAmount(*extraction.Total); err == nil {
				totalAmount = &amount
			}
		}
		storeName = extraction.Tienda
	}

	if extraction != nil {
		purchaseDate := utils.UTCNow()
		if extraction.Fecha != nil {
			if parsed, err := ParseTicketDate(*extraction.Fecha, extraction.Hora); err == nil {
				purchaseDate = parsed
			}
		}

		amount := 0.0
		if totalAmount != nil {
			amount = *totalAmount
		}
		ticketType := ""
		if extraction.TipoTicket != nil {
			ticketType = *extraction.TipoTicket
		}

		products := make([]dto.ProductLineInput, 0, len(extraction.Productos))
		for _, line := range extraction.Productos {
			products = append(products, dto.ProductLineInput{
				Name:     line.Name,
				Quantity: line.Quantity,
				Price:    line.Price,
			})
		}

		tf.recordPurchase(ctx, ticket, &dto.CreatePurchaseRequest{
			UserID:        ticket.UserID,
			TicketID:      ticket.ID,
			PurchaseDate:  &purchaseDate,
			StoreName:     derefOr(storeName, "desconeguda"),
			TotalAmount:   amount,
			Products:      products,
			TicketType:    ticketType,
			IsMarketStore: isMarketStore,
		})
	}

	processingDate := utils.UTCNow()
	event := &dto.TicketProcessedEvent{
		UserID:         ticket.UserID,
		TicketID:       ticket.ID,
		IsValid:        approved,
		TotalAmount:    totalAmount,
		StoreName:      storeName,
		ProcessingDate: &processingDate,
	}
	if _, err := tf.gamificationFlow.ProcessTicketEvent(ctx, event); err != nil {
		return nil, NewBusinessError("TICKET_EVENT_FAILED", "Failed to apply ticket to progression", err)
	}

	return response, nil
}

// recordPurchase appends the history row. A conflict means the ticket was
// already recorded, which is not an error for the caller.
func (tf *TicketFlowImpl) recordPurchase(ctx context.Context, ticket *models.Ticket, request *dto.CreatePurchaseRequest) {
	if _, err := tf.purchaseFlow.Create(ctx, request); err != nil && !IsConflict(err) {
		log.Printf("ticket %s: failed to record purchase history: %v", ticket.ID, err)
	}
}

// ParseAmount normalizes an extracted money string to a float. Comma decimal
// separators and currency suffixes are tolerated.
func ParseAmount(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimSuffix(cleaned, "€")
	cleaned = strings.TrimSuffix(cleaned, "EUR")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	// "1.234.56" style thousand separators collapse to a single decimal point
	if parts := strings.Split(cleaned, "."); len(parts) > 2 {
		cleaned = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}

	return strconv.ParseFloat(cleaned, 64)
}

func extractionResultMap(extraction *services.ExtractionResult) models.JSONMap {
	products := make([]any, 0, len(extraction.Productos))
	for _, line := range extraction.Productos {
		products = append(products, map[string]any{
			"nombre":   line.Name,
			"cantidad": line.Quantity,
			"precio":   line.Price,
		})
	}

	result := models.JSONMap{
		"productos":               products,
		"num_productos":           len(extraction.Productos),
		"procesado_correctamente": true,
	}
	setIfPresent(result, "fecha", extraction.Fecha)
	setIfPresent(result, "hora", extraction.Hora)
	setIfPresent(result, "tienda", extraction.Tienda)
	setIfPresent(result, "total", extraction.Total)
	setIfPresent(result, "tipo_ticket", extraction.TipoTicket)

	return result
}

func setIfPresent(result models.JSONMap, key string, value *string) {
	if value != nil {
		result[key] = *value
	}
}

func derefOr(value *string, fallback string) string {
	if value != nil && strings.TrimSpace(*value) != "" {
		return *value
	}
	return fallback
}

func ticketView(ticket *models.Ticket) dto.TicketView {
	return dto.TicketView{
		ID:               ticket.ID,
		UserID:           ticket.UserID,
		OriginalFilename: ticket.OriginalFilename,
		Size:             ticket.Size,
		Status:           ticket.Status,
		Metadata:         ticket.Metadata,
		ProcessingResult: ticket.ProcessingResult,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
	}
}
