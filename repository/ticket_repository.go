// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/models"
	"gorm.io/gorm"
)

// TicketRepositoryImpl implements TicketRepository interface
type TicketRepositoryImpl struct {
	*BaseRepository[models.Ticket, models.TicketFilter]
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &TicketRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Ticket, models.TicketFilter](db),
	}
}

func applyTicketFilter(filter models.TicketFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		if len(filter.Statuses) > 0 {
			db = db.Where("status IN ?", filter.Statuses)
		}
		if filter.CreatedAfter != nil {
			db = db.Where("created_at >= ?", *filter.CreatedAfter)
		}
		if filter.CreatedBefore != nil {
			db = db.Where("created_at <= ?", *filter.CreatedBefore)
		}
		return db
	}
}

// ByFilter retrieves tickets matching the filter criteria
func (r *TicketRepositoryImpl) ByFilter(ctx context.Context, filter models.TicketFilter, orderBy string, limit, offset int) ([]*models.Ticket, error) {
	return r.list(ctx, applyTicketFilter(filter), orderBy, limit, offset)
}

// Count returns the number of tickets matching the filter
func (r *TicketRepositoryImpl) Count(ctx context.Context, filter models.TicketFilter) (int64, error) {
	return r.count(ctx, applyTicketFilter(filter))
}

// Exists checks if any ticket matching the filter exists
func (r *TicketRepositoryImpl) Exists(ctx context.Context, filter models.TicketFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ListPending returns pending tickets oldest first. FIFO order keeps
// per-user streak and duplicate semantics correct.
func (r *TicketRepositoryImpl) ListPending(ctx context.Context, limit int) ([]*models.Ticket, error) {
	status := models.TicketStatusPending
	tickets, err := r.ByFilter(ctx, models.TicketFilter{Status: &status}, "created_at ASC", limit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending tickets: %w", err)
	}

	return tickets, nil
}

// ListTerminalByUser returns a user's tickets in the given terminal statuses
func (r *TicketRepositoryImpl) ListTerminalByUser(ctx context.Context, userID uuid.UUID, statuses []string) ([]*models.Ticket, error) {
	tickets, err := r.ByFilter(ctx, models.TicketFilter{UserID: &userID, Statuses: statuses}, "created_at ASC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminal tickets for user %s: %w", userID, err)
	}

	return tickets, nil
}

// ListByUser returns a user's tickets newest first with pagination
func (r *TicketRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Ticket, error) {
	tickets, err := r.ByFilter(ctx, models.TicketFilter{UserID: &userID}, "created_at DESC", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets for user %s: %w", userID, err)
	}

	return tickets, nil
}
