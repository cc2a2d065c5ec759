package businessflow

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/app/services"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// MarketStoreFlow manages the merchant roster and the membership test used
// by the ingestion pipeline
type MarketStoreFlow interface {
	Create(ctx context.Context, request *dto.CreateMarketStoreRequest) (*models.MarketStore, error)
	Update(ctx context.Context, storeID uuid.UUID, request *dto.UpdateMarketStoreRequest) (*models.MarketStore, error)
	Deactivate(ctx context.Context, storeID uuid.UUID) error
	Get(ctx context.Context, storeID uuid.UUID) (*models.MarketStore, error)
	List(ctx context.Context, includeInactive bool) ([]*models.MarketStore, error)
	ListNames(ctx context.Context) ([]string, error)
	IsMarketStore(ctx context.Context, candidate string) (bool, error)
}

// MarketStoreFlowImpl implements the market store business flow
type MarketStoreFlowImpl struct {
	storeRepo repository.MarketStoreRepository
	cache     services.StoreNameCache
	db        *gorm.DB
}

// NewMarketStoreFlow creates a new market store flow instance
func NewMarketStoreFlow(
	storeRepo repository.MarketStoreRepository,
	cache services.StoreNameCache,
	db *gorm.DB,
) MarketStoreFlow {
	return &MarketStoreFlowImpl{
		storeRepo: storeRepo,
		cache:     cache,
		db:        db,
	}
}

// Create adds a merchant to the roster
func (mf *MarketStoreFlowImpl) Create(ctx context.Context, request *dto.CreateMarketStoreRequest) (*models.MarketStore, error) {
	store := &models.MarketStore{
		Name:        strings.TrimSpace(request.Name),
		Description: request.Description,
		IsActive:    utils.ToPtr(true),
	}

	if err := mf.storeRepo.Save(ctx, store); err != nil {
		return nil, NewBusinessError("STORE_CREATE_FAILED", "Failed to create market store", err)
	}
	mf.cache.Invalidate(ctx)

	return store, nil
}

// Update edits a roster entry
func (mf *MarketStoreFlowImpl) Update(ctx context.Context, storeID uuid.UUID, request *dto.UpdateMarketStoreRequest) (*models.MarketStore, error) {
	store, err := mf.storeRepo.ByID(ctx, storeID)
	if err != nil {
		return nil, NewBusinessError("STORE_LOOKUP_FAILED", "Failed to load market store", err)
	}
	if store == nil {
		return nil, NewBusinessError("STORE_NOT_FOUND", "Market store not found", ErrMarketStoreNotFound)
	}

	if request.Name != nil {
		store.Name = strings.TrimSpace(*request.Name)
	}
	if request.Description != nil {
		store.Description = request.Description
	}
	if request.IsActive != nil {
		store.IsActive = request.IsActive
	}
	store.UpdatedAt = utils.UTCNow()

	if err := mf.storeRepo.Update(ctx, store); err != nil {
		return nil, NewBusinessError("STORE_UPDATE_FAILED", "Failed to update market store", err)
	}
	mf.cache.Invalidate(ctx)

	return store, nil
}

// Deactivate soft-deletes a roster entry
func (mf *MarketStoreFlowImpl) Deactivate(ctx context.Context, storeID uuid.UUID) error {
	inactive := false
	_, err := mf.Update(ctx, storeID, &dto.UpdateMarketStoreRequest{IsActive: &inactive})
	return err
}

// Get returns one roster entry
func (mf *MarketStoreFlowImpl) Get(ctx context.Context, storeID uuid.UUID) (*models.MarketStore, error) {
	store, err := mf.storeRepo.ByID(ctx, storeID)
	if err != nil {
		return nil, NewBusinessError("STORE_LOOKUP_FAILED", "Failed to load market store", err)
	}
	if store == nil {
		return nil, NewBusinessError("STORE_NOT_FOUND", "Market store not found", ErrMarketStoreNotFound)
	}

	return store, nil
}

// List returns the roster, optionally including deactivated entries
func (mf *MarketStoreFlowImpl) List(ctx context.Context, includeInactive bool) ([]*models.MarketStore, error) {
	filter := models.MarketStoreFilter{}
	if !includeInactive {
		filter.IsActive = utils.ToPtr(true)
	}

	stores, err := mf.storeRepo.ByFilter(ctx, filter, "name ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("STORE_LIST_FAILED", "Failed to list market stores", err)
	}

	return stores, nil
}

// ListNames returns the active roster names, served from cache when warm
func (mf *MarketStoreFlowImpl) ListNames(ctx context.Context) ([]string, error) {
	if names, ok := mf.cache.Get(ctx); ok {
		return names, nil
	}

	names, err := mf.storeRepo.ListActiveNames(ctx)
	if err != nil {
		return nil, NewBusinessError("STORE_LIST_FAILED", "Failed to list market store names", err)
	}
	mf.cache.Set(ctx, names)

	return names, nil
}

// IsMarketStore reports whether any active store name is a case-insensitive
// substring of the candidate merchant name
func (mf *MarketStoreFlowImpl) IsMarketStore(ctx context.Context, candidate string) (bool, error) {
	names, err := mf.ListNames(ctx)
	if err != nil {
		return false, err
	}

	return MatchesStoreName(candidate, names), nil
}

// MatchesStoreName applies the membership rule to a candidate against a roster
func MatchesStoreName(candidate string, activeNames []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(candidate))
	if normalized == "" {
		return false
	}

	for _, name := range activeNames {
		store := strings.ToLower(strings.TrimSpace(name))
		if store != "" && strings.Contains(normalized, store) {
			return true
		}
	}

	return false
}
