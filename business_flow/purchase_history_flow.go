package businessflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// PurchaseHistoryFlow maintains the append-only purchase ledger
type PurchaseHistoryFlow interface {
	Create(ctx context.Context, request *dto.CreatePurchaseRequest) (*dto.PurchaseRecordView, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) (*dto.PurchaseHistoryResponse, error)
	Summary(ctx context.Context, userID uuid.UUID) (*models.PurchaseSummary, error)
	SpendingPeriod(ctx context.Context, userID uuid.UUID, days int) (*dto.SpendingPeriodResponse, error)
}

// PurchaseHistoryFlowImpl implements the purchase history business flow
type PurchaseHistoryFlowImpl struct {
	purchaseRepo repository.PurchaseRecordRepository
	db           *gorm.DB
}

// NewPurchaseHistoryFlow creates a new purchase history flow instance
func NewPurchaseHistoryFlow(purchaseRepo repository.PurchaseRecordRepository, db *gorm.DB) PurchaseHistoryFlow {
	return &PurchaseHistoryFlowImpl{
		purchaseRepo: purchaseRepo,
		db:           db,
	}
}

// Create appends one record. A second record for the same ticket is rejected.
func (pf *PurchaseHistoryFlowImpl) Create(ctx context.Context, request *dto.CreatePurchaseRequest) (*dto.PurchaseRecordView, error) {
	var record *models.PurchaseRecord
	err := repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		existing, err := pf.purchaseRepo.ByTicketID(ctx, request.TicketID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrPurchaseConflict
		}

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

		record = &models.PurchaseRecord{
			UserID:        request.UserID,
			TicketID:      request.TicketID,
			PurchaseDate:  purchaseDate,
			StoreName:     request.StoreName,
			TotalAmount:   request.TotalAmount,
			Products:      products,
			NumProducts:   len(products),
			TicketType:    request.TicketType,
			IsMarketStore: request.IsMarketStore,
		}
		return pf.purchaseRepo.Save(ctx, record)
	})
	if err != nil {
		if errors.Is(err, ErrPurchaseConflict) {
			return nil, NewBusinessError("PURCHASE_CONFLICT", "A purchase record already exists for this ticket", err)
		}
		return nil, NewBusinessError("PURCHASE_CREATE_FAILED", "Failed to create purchase record", err)
	}

	view := purchaseView(record)
	return &view, nil
}

// List pages through a user's history, newest first
func (pf *PurchaseHistoryFlowImpl) List(ctx context.Context, userID uuid.UUID, limit, offset int) (*dto.PurchaseHistoryResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	records, err := pf.purchaseRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("PURCHASE_LIST_FAILED", "Failed to list purchase history", err)
	}

	views := make([]dto.PurchaseRecordView, 0, len(records))
	for _, record := range records {
		views = append(views, purchaseView(record))
	}

	return &dto.PurchaseHistoryResponse{
		UserID:  userID,
		Records: views,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// Summary aggregates a user's history. Empty histories return zeroed totals.
func (pf *PurchaseHistoryFlowImpl) Summary(ctx context.Context, userID uuid.UUID) (*models.PurchaseSummary, error) {
	summary, err := pf.purchaseRepo.Summary(ctx, userID, 5)
	if err != nil {
		return nil, NewBusinessError("PURCHASE_SUMMARY_FAILED", "Failed to summarize purchase history", err)
	}

	return summary, nil
}

// SpendingPeriod rolls up spending over a trailing window of days
func (pf *PurchaseHistoryFlowImpl) SpendingPeriod(ctx context.Context, userID uuid.UUID, days int) (*dto.SpendingPeriodResponse, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}

	since := utils.UTCNow().Add(-time.Duration(days) * 24 * time.Hour)
	entries, err := pf.purchaseRepo.SpendingWindow(ctx, userID, since)
	if err != nil {
		return nil, NewBusinessError("SPENDING_PERIOD_FAILED", "Failed to compute spending period", err)
	}

	total := 0.0
	for _, entry := range entries {
		total += entry.TotalAmount
	}

	return &dto.SpendingPeriodResponse{
		UserID:     userID,
		Days:       days,
		TotalSpent: total,
		Purchases:  entries,
	}, nil
}

func purchaseView(record *models.PurchaseRecord) dto.PurchaseRecordView {
	return dto.PurchaseRecordView{
		ID:            record.ID,
		UserID:        record.UserID,
		TicketID:      record.TicketID,
		PurchaseDate:  record.PurchaseDate,
		StoreName:     record.StoreName,
		TotalAmount:   record.TotalAmount,
		Products:      record.Products,
		NumProducts:   record.NumProducts,
		TicketType:    record.TicketType,
		IsMarketStore: record.IsMarketStore,
		CreatedAt:     record.CreatedAt,
	}
}
