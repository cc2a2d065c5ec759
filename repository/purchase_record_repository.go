// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/models"
	"gorm.io/gorm"
)

// PurchaseRecordRepositoryImpl implements PurchaseRecordRepository interface
type PurchaseRecordRepositoryImpl struct {
	*BaseRepository[models.PurchaseRecord, models.PurchaseRecordFilter]
}

// NewPurchaseRecordRepository creates a new purchase record repository
func NewPurchaseRecordRepository(db *gorm.DB) PurchaseRecordRepository {
	return &PurchaseRecordRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PurchaseRecord, models.PurchaseRecordFilter](db),
	}
}

func applyPurchaseRecordFilter(filter models.PurchaseRecordFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.TicketID != nil {
			db = db.Where("ticket_id = ?", *filter.TicketID)
		}
		if filter.StoreName != nil {
			db = db.Where("store_name = ?", *filter.StoreName)
		}
		if filter.IsMarketStore != nil {
			db = db.Where("is_market_store = ?", *filter.IsMarketStore)
		}
		if filter.PurchasedAfter != nil {
			db = db.Where("purchase_date >= ?", *filter.PurchasedAfter)
		}
		return db
	}
}

// ByFilter retrieves purchase records matching the filter criteria
func (r *PurchaseRecordRepositoryImpl) ByFilter(ctx context.Context, filter models.PurchaseRecordFilter, orderBy string, limit, offset int) ([]*models.PurchaseRecord, error) {
	return r.list(ctx, applyPurchaseRecordFilter(filter), orderBy, limit, offset)
}

// Count returns the number of purchase records matching the filter
func (r *PurchaseRecordRepositoryImpl) Count(ctx context.Context, filter models.PurchaseRecordFilter) (int64, error) {
	return r.count(ctx, applyPurchaseRecordFilter(filter))
}

// Exists checks if any purchase record matching the filter exists
func (r *PurchaseRecordRepositoryImpl) Exists(ctx context.Context, filter models.PurchaseRecordFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ByTicketID retrieves the purchase record created for a ticket, if any
func (r *PurchaseRecordRepositoryImpl) ByTicketID(ctx context.Context, ticketID uuid.UUID) (*models.PurchaseRecord, error) {
	records, err := r.ByFilter(ctx, models.PurchaseRecordFilter{TicketID: &ticketID}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find purchase record by ticket: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	return records[0], nil
}

// ListByUser returns a user's purchase history newest first with pagination
func (r *PurchaseRecordRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.PurchaseRecord, error) {
	records, err := r.ByFilter(ctx, models.PurchaseRecordFilter{UserID: &userID}, "purchase_date DESC", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase records for user %s: %w", userID, err)
	}

	return records, nil
}

// Summary aggregates a user's purchase history: totals, favorite store and
// top purchased products. Product aggregation happens in memory because the
// product lines live inside a jsonb column.
func (r *PurchaseRecordRepositoryImpl) Summary(ctx context.Context, userID uuid.UUID, topProducts int) (*models.PurchaseSummary, error) {
	db := r.getDB(ctx)

	var totals struct {
		TotalPurchases int64
		TotalSpent     float64
	}
	err := db.Model(&models.PurchaseRecord{}).
		Select("COUNT(*) AS total_purchases, COALESCE(SUM(total_amount), 0) AS total_spent").
		Where("user_id = ?", userID).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate purchase totals: %w", err)
	}

	summary := &models.PurchaseSummary{
		UserID:         userID,
		TotalPurchases: totals.TotalPurchases,
		TotalSpent:     totals.TotalSpent,
	}
	if totals.TotalPurchases == 0 {
		summary.TopProducts = []models.ProductSummary{}
		return summary, nil
	}
	summary.AverageAmount = totals.TotalSpent / float64(totals.TotalPurchases)

	var favorite struct {
		StoreName string
	}
	err = db.Model(&models.PurchaseRecord{}).
		Select("store_name").
		Where("user_id = ?", userID).
		Group("store_name").
		Order("COUNT(*) DESC").
		Limit(1).
		Scan(&favorite).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find favorite store: %w", err)
	}
	summary.FavoriteStore = favorite.StoreName

	var lastDate struct {
		PurchaseDate *time.Time
	}
	err = db.Model(&models.PurchaseRecord{}).
		Select("MAX(purchase_date) AS purchase_date").
		Where("user_id = ?", userID).
		Scan(&lastDate).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find last purchase date: %w", err)
	}
	summary.LastPurchaseDate = lastDate.PurchaseDate

	records, err := r.ListByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}
	summary.TopProducts = aggregateTopProducts(records, topProducts)

	return summary, nil
}

func aggregateTopProducts(records []*models.PurchaseRecord, topN int) []models.ProductSummary {
	type acc struct {
		quantity float64
		spent    float64
	}
	byName := make(map[string]*acc)
	for _, record := range records {
		for _, line := range record.Products {
			name := strings.TrimSpace(line.Name)
			if name == "" {
				continue
			}
			entry, ok := byName[name]
			if !ok {
				entry = &acc{}
				byName[name] = entry
			}
			quantity, err := strconv.ParseFloat(strings.TrimSpace(line.Quantity), 64)
			if err != nil || quantity <= 0 {
				quantity = 1
			}
			price, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(line.Price), ",", "."), 64)
			if err != nil {
				price = 0
			}
			entry.quantity += quantity
			entry.spent += price
		}
	}

	summaries := make([]models.ProductSummary, 0, len(byName))
	for name, entry := range byName {
		summaries = append(summaries, models.ProductSummary{
			Name:          name,
			TotalQuantity: entry.quantity,
			TotalSpent:    entry.spent,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalQuantity != summaries[j].TotalQuantity {
			return summaries[i].TotalQuantity > summaries[j].TotalQuantity
		}
		return summaries[i].TotalSpent > summaries[j].TotalSpent
	})
	if topN > 0 && len(summaries) > topN {
		summaries = summaries[:topN]
	}

	return summaries
}

// SpendingWindow returns per-purchase rollups within a trailing window
func (r *PurchaseRecordRepositoryImpl) SpendingWindow(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.SpendingPeriodEntry, error) {
	db := r.getDB(ctx)

	var entries []models.SpendingPeriodEntry
	err := db.Model(&models.PurchaseRecord{}).
		Select("purchase_date, store_name, total_amount, num_products").
		Where("user_id = ? AND purchase_date >= ?", userID, since).
		Order("purchase_date DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load spending window: %w", err)
	}

	return entries, nil
}

// AggregateByUser returns per-user spend and count, optionally windowed.
// The segment compiler intersects these aggregates against its thresholds.
func (r *PurchaseRecordRepositoryImpl) AggregateByUser(ctx context.Context, since *time.Time) ([]models.UserSpendingAggregate, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.PurchaseRecord{}).
		Select("user_id, COALESCE(SUM(total_amount), 0) AS total_spent, COUNT(*) AS purchase_count").
		Group("user_id")
	if since != nil {
		query = query.Where("purchase_date >= ?", *since)
	}

	var aggregates []models.UserSpendingAggregate
	if err := query.Scan(&aggregates).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate purchases by user: %w", err)
	}

	return aggregates, nil
}

// DistinctUserIDs returns every user with at least one purchase record
func (r *PurchaseRecordRepositoryImpl) DistinctUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	db := r.getDB(ctx)

	var ids []uuid.UUID
	err := db.Model(&models.PurchaseRecord{}).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase history users: %w", err)
	}

	return ids, nil
}

// TotalSpent returns the platform-wide purchase total
func (r *PurchaseRecordRepositoryImpl) TotalSpent(ctx context.Context) (float64, error) {
	db := r.getDB(ctx)

	var total float64
	err := db.Model(&models.PurchaseRecord{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum purchase totals: %w", err)
	}

	return total, nil
}
