// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/models"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements CampaignRepository interface
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

func applyCampaignFilter(filter models.CampaignFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.Name != nil {
			db = db.Where("name = ?", *filter.Name)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		return db
	}
}

// ByFilter retrieves campaigns matching the filter criteria
func (r *CampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	return r.list(ctx, applyCampaignFilter(filter), orderBy, limit, offset)
}

// Count returns the number of campaigns matching the filter
func (r *CampaignRepositoryImpl) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	return r.count(ctx, applyCampaignFilter(filter))
}

// Exists checks if any campaign matching the filter exists
func (r *CampaignRepositoryImpl) Exists(ctx context.Context, filter models.CampaignFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ByIDWithSegments retrieves a campaign with its linked segments preloaded
func (r *CampaignRepositoryImpl) ByIDWithSegments(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaign models.Campaign
	err := db.Preload("Segments").
		Where("id = ?", id).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find campaign with segments: %w", err)
	}

	return &campaign, nil
}

// LinkSegments creates the campaign-segment link rows
func (r *CampaignRepositoryImpl) LinkSegments(ctx context.Context, campaignID uuid.UUID, segmentIDs []uuid.UUID) error {
	if len(segmentIDs) == 0 {
		return nil
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	links := make([]models.CampaignSegment, 0, len(segmentIDs))
	for _, segmentID := range segmentIDs {
		links = append(links, models.CampaignSegment{
			CampaignID: campaignID,
			SegmentID:  segmentID,
		})
	}

	err = db.Create(&links).Error
	if err != nil {
		return fmt.Errorf("failed to link campaign segments: %w", err)
	}

	return nil
}

// CampaignNotificationRepositoryImpl implements CampaignNotificationRepository interface
type CampaignNotificationRepositoryImpl struct {
	*BaseRepository[models.CampaignNotification, models.CampaignNotificationFilter]
}

// NewCampaignNotificationRepository creates a new outbound notification repository
func NewCampaignNotificationRepository(db *gorm.DB) CampaignNotificationRepository {
	return &CampaignNotificationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignNotification, models.CampaignNotificationFilter](db),
	}
}

func applyCampaignNotificationFilter(filter models.CampaignNotificationFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ID != nil {
			db = db.Where("id = ?", *filter.ID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.CampaignID != nil {
			db = db.Where("campaign_id = ?", *filter.CampaignID)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		return db
	}
}

// ByFilter retrieves outbound notifications matching the filter criteria
func (r *CampaignNotificationRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignNotificationFilter, orderBy string, limit, offset int) ([]*models.CampaignNotification, error) {
	return r.list(ctx, applyCampaignNotificationFilter(filter), orderBy, limit, offset)
}

// Count returns the number of outbound notifications matching the filter
func (r *CampaignNotificationRepositoryImpl) Count(ctx context.Context, filter models.CampaignNotificationFilter) (int64, error) {
	return r.count(ctx, applyCampaignNotificationFilter(filter))
}

// Exists checks if any outbound notification matching the filter exists
func (r *CampaignNotificationRepositoryImpl) Exists(ctx context.Context, filter models.CampaignNotificationFilter) (bool, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// Stats aggregates outbound notifications by status and channel
func (r *CampaignNotificationRepositoryImpl) Stats(ctx context.Context) (*models.CampaignNotificationStats, error) {
	db := r.getDB(ctx)

	var statusRows []struct {
		Status string
		Total  int64
	}
	err := db.Model(&models.CampaignNotification{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&statusRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate notification statuses: %w", err)
	}

	stats := &models.CampaignNotificationStats{ByChannel: map[string]int64{}}
	for _, row := range statusRows {
		stats.Total += row.Total
		switch row.Status {
		case models.CampaignNotificationQueued:
			stats.Queued = row.Total
		case models.CampaignNotificationSent:
			stats.Sent = row.Total
		case models.CampaignNotificationFailed:
			stats.Failed = row.Total
		}
	}

	var channelRows []struct {
		Channel string
		Total   int64
	}
	err = db.Model(&models.CampaignNotification{}).
		Select("meta->>'channel' AS channel, COUNT(*) AS total").
		Where("meta->>'channel' IS NOT NULL").
		Group("meta->>'channel'").
		Scan(&channelRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate notification channels: %w", err)
	}
	for _, row := range channelRows {
		stats.ByChannel[row.Channel] = row.Total
	}

	return stats, nil
}
