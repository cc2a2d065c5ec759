package businessflow

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// AdminFlow aggregates platform-wide numbers for the back office
type AdminFlow interface {
	Overview(ctx context.Context) (*dto.AdminOverviewResponse, error)
	ExportOverview(ctx context.Context) (data []byte, filename string, err error)
}

// AdminFlowImpl implements the admin business flow
type AdminFlowImpl struct {
	userRepo     repository.UserRepository
	purchaseRepo repository.PurchaseRecordRepository
	ticketRepo   repository.TicketRepository
	db           *gorm.DB
}

// NewAdminFlow creates a new admin flow instance
func NewAdminFlow(
	userRepo repository.UserRepository,
	purchaseRepo repository.PurchaseRecordRepository,
	ticketRepo repository.TicketRepository,
	db *gorm.DB,
) AdminFlow {
	return &AdminFlowImpl{
		userRepo:     userRepo,
		purchaseRepo: purchaseRepo,
		ticketRepo:   ticketRepo,
		db:           db,
	}
}

// Overview returns totals across users, purchases and tickets
func (af *AdminFlowImpl) Overview(ctx context.Context) (*dto.AdminOverviewResponse, error) {
	roleCounts, err := af.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, NewBusinessError("OVERVIEW_FAILED", "Failed to build overview", err)
	}

	totalPurchases, err := af.purchaseRepo.Count(ctx, models.PurchaseRecordFilter{})
	if err != nil {
		return nil, NewBusinessError("OVERVIEW_FAILED", "Failed to build overview", err)
	}

	totalSpent, err := af.purchaseRepo.TotalSpent(ctx)
	if err != nil {
		return nil, NewBusinessError("OVERVIEW_FAILED", "Failed to build overview", err)
	}

	totalTickets, err := af.ticketRepo.Count(ctx, models.TicketFilter{})
	if err != nil {
		return nil, NewBusinessError("OVERVIEW_FAILED", "Failed to build overview", err)
	}

	pendingStatus := models.TicketStatusPending
	pendingTickets, err := af.ticketRepo.Count(ctx, models.TicketFilter{Status: &pendingStatus})
	if err != nil {
		return nil, NewBusinessError("OVERVIEW_FAILED", "Failed to build overview", err)
	}

	return &dto.AdminOverviewResponse{
		TotalUsers:     roleCounts[models.RoleUser],
		TotalVendors:   roleCounts[models.RoleVendor],
		TotalAdmins:    roleCounts[models.RoleAdmin],
		TotalPurchases: totalPurchases,
		TotalSpent:     totalSpent,
		TotalTickets:   totalTickets,
		PendingTickets: pendingTickets,
	}, nil
}

// ExportOverview renders the overview plus per-user spending into a workbook
func (af *AdminFlowImpl) ExportOverview(ctx context.Context) ([]byte, string, error) {
	overview, err := af.Overview(ctx)
	if err != nil {
		return nil, "", err
	}

	aggregates, err := af.purchaseRepo.AggregateByUser(ctx, nil)
	if err != nil {
		return nil, "", NewBusinessError("OVERVIEW_EXPORT_FAILED", "Failed to export overview", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Overview"
	f.SetSheetName("Sheet1", summarySheet)

	summaryRows := [][]any{
		{"Metric", "Value"},
		{"Total users", overview.TotalUsers},
		{"Total vendors", overview.TotalVendors},
		{"Total admins", overview.TotalAdmins},
		{"Total purchases", overview.TotalPurchases},
		{"Total spent", overview.TotalSpent},
		{"Total tickets", overview.TotalTickets},
		{"Pending tickets", overview.PendingTickets},
	}
	for i, row := range summaryRows {
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			f.SetCellValue(summarySheet, cell, value)
		}
	}

	const spendingSheet = "Spending"
	if _, err := f.NewSheet(spendingSheet); err != nil {
		return nil, "", NewBusinessError("OVERVIEW_EXPORT_FAILED", "Failed to export overview", err)
	}
	headers := []string{"User ID", "Total spent", "Purchases"}
	for j, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(j+1, 1)
		f.SetCellValue(spendingSheet, cell, header)
	}
	for i, aggregate := range aggregates {
		values := []any{aggregate.UserID.String(), aggregate.TotalSpent, aggregate.PurchaseCount}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(spendingSheet, cell, value)
		}
	}

	var buffer bytes.Buffer
	if err := f.Write(&buffer); err != nil {
		return nil, "", NewBusinessError("OVERVIEW_EXPORT_FAILED", "Failed to export overview", err)
	}

	filename := fmt.Sprintf("overview_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return buffer.Bytes(), filename, nil
}
