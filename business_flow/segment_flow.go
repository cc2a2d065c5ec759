package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/app/services"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// SegmentCriteria is the normalized form of a segment's schema-less filters.
// Unknown keys and unparseable values are dropped.
type SegmentCriteria struct {
	LastDays            *int
	MinTotalSpent       *float64
	MinNumPurchases     *int
	PreferencesContains map[string]string
}

// HasPurchaseCriteria reports whether the criteria constrain purchase history
func (c SegmentCriteria) HasPurchaseCriteria() bool {
	return c.LastDays != nil || c.MinTotalSpent != nil || c.MinNumPurchases != nil
}

// SegmentFlow compiles declarative audience segments into user sets
type SegmentFlow interface {
	Create(ctx context.Context, request *dto.CreateSegmentRequest) (*dto.SegmentView, error)
	List(ctx context.Context) ([]dto.SegmentView, error)
	Get(ctx context.Context, segmentID uuid.UUID) (*dto.SegmentView, error)
	Deactivate(ctx context.Context, segmentID uuid.UUID) error
	PreviewUsers(ctx context.Context, segmentID uuid.UUID) (*dto.PreviewUsersResponse, error)
	Members(ctx context.Context, segmentID uuid.UUID) ([]uuid.UUID, error)
	MembersByName(ctx context.Context, name string) ([]uuid.UUID, error)
	IsMemberByName(ctx context.Context, name string, userID uuid.UUID) (bool, error)
}

// SegmentFlowImpl implements the segment business flow
type SegmentFlowImpl struct {
	segmentRepo  repository.SegmentRepository
	purchaseRepo repository.PurchaseRecordRepository
	preferences  PreferenceFlow
	llm          services.LLMService
	db           *gorm.DB
}

// NewSegmentFlow creates a new segment flow instance
func NewSegmentFlow(
	segmentRepo repository.SegmentRepository,
	purchaseRepo repository.PurchaseRecordRepository,
	preferences PreferenceFlow,
	llm services.LLMService,
	db *gorm.DB,
) SegmentFlow {
	return &SegmentFlowImpl{
		segmentRepo:  segmentRepo,
		purchaseRepo: purchaseRepo,
		preferences:  preferences,
		llm:          llm,
		db:           db,
	}
}

// Create stores a segment. With a prompt and no filters, the filters are
// drafted by the model; a drafting failure leaves them empty rather than
// failing the create.
func (sf *SegmentFlowImpl) Create(ctx context.Context, request *dto.CreateSegmentRequest) (*dto.SegmentView, error) {
	filters := models.JSONMap(request.Filters)
	if filters.IsEmpty() && strings.TrimSpace(request.Prompt) != "" {
		filters = sf.draftFilters(ctx, request.Prompt)
	}
	if filters == nil {
		filters = models.JSONMap{}
	}

	segment := &models.Segment{
		Name:        request.Name,
		Description: request.Description,
		Filters:     filters,
		IsActive:    utils.ToPtr(true),
	}
	if err := sf.segmentRepo.Save(ctx, segment); err != nil {
		return nil, NewBusinessError("SEGMENT_CREATE_FAILED", "Failed to create segment", err)
	}

	view := segmentView(segment)
	return &view, nil
}

// draftFilters asks the model to translate a natural-language audience
// description into the recognized filter keys
func (sf *SegmentFlowImpl) draftFilters(ctx context.Context, prompt string) models.JSONMap {
	llmPrompt := fmt.Sprintf(`Traduce esta descripcion de audiencia a filtros JSON.
Descripcion: %s
Claves permitidas:
  "last_days": numero de dias hacia atras,
  "min_total_spent": gasto minimo en euros,
  "min_num_purchases": numero minimo de compras,
  "preferences_contains": objeto clave-valor de preferencias.
Responde unicamente con el objeto JSON. Usa solo las claves necesarias.`, prompt)

	fields, err := sf.llm.GenerateJSON(ctx, llmPrompt)
	if err != nil {
		return models.JSONMap{}
	}

	drafted := models.JSONMap{}
	for _, key := range []string{
		models.SegmentFilterLastDays,
		models.SegmentFilterMinTotalSpent,
		models.SegmentFilterMinNumPurchases,
		models.SegmentFilterPreferencesContains,
	} {
		if value, ok := fields[key]; ok && value != nil {
			drafted[key] = value
		}
	}

	return drafted
}

// List returns the active segments
func (sf *SegmentFlowImpl) List(ctx context.Context) ([]dto.SegmentView, error) {
	segments, err := sf.segmentRepo.ListActive(ctx)
	if err != nil {
		return nil, NewBusinessError("SEGMENT_LIST_FAILED", "Failed to list segments", err)
	}

	views := make([]dto.SegmentView, 0, len(segments))
	for _, segment := range segments {
		views = append(views, segmentView(segment))
	}

	return views, nil
}

// Get returns one segment
func (sf *SegmentFlowImpl) Get(ctx context.Context, segmentID uuid.UUID) (*dto.SegmentView, error) {
	segment, err := sf.loadSegment(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	view := segmentView(segment)
	return &view, nil
}

// Deactivate removes a segment from campaign resolution
func (sf *SegmentFlowImpl) Deactivate(ctx context.Context, segmentID uuid.UUID) error {
	segment, err := sf.loadSegment(ctx, segmentID)
	if err != nil {
		return err
	}

	segment.IsActive = utils.ToPtr(false)
	segment.UpdatedAt = utils.UTCNow()
	if err := sf.segmentRepo.Update(ctx, segment); err != nil {
		return NewBusinessError("SEGMENT_UPDATE_FAILED", "Failed to deactivate segment", err)
	}

	return nil
}

// PreviewUsers resolves the segment to its current member list
func (sf *SegmentFlowImpl) PreviewUsers(ctx context.Context, segmentID uuid.UUID) (*dto.PreviewUsersResponse, error) {
	members, err := sf.Members(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	return &dto.PreviewUsersResponse{
		UserIDs: members,
		Count:   len(members),
	}, nil
}

// Members compiles the segment's filters into a set of user ids
func (sf *SegmentFlowImpl) Members(ctx context.Context, segmentID uuid.UUID) ([]uuid.UUID, error) {
	segment, err := sf.loadSegment(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	return sf.compile(ctx, segment)
}

// MembersByName compiles a segment located by its name
func (sf *SegmentFlowImpl) MembersByName(ctx context.Context, name string) ([]uuid.UUID, error) {
	segment, err := sf.segmentRepo.ByName(ctx, name)
	if err != nil {
		return nil, NewBusinessError("SEGMENT_LOOKUP_FAILED", "Failed to load segment", err)
	}
	if segment == nil {
		return nil, NewBusinessError("SEGMENT_NOT_FOUND", "Segment not found", ErrSegmentNotFound)
	}

	return sf.compile(ctx, segment)
}

// IsMemberByName reports whether a user belongs to a named segment
func (sf *SegmentFlowImpl) IsMemberByName(ctx context.Context, name string, userID uuid.UUID) (bool, error) {
	members, err := sf.MembersByName(ctx, name)
	if err != nil {
		return false, err
	}

	for _, member := range members {
		if member == userID {
			return true, nil
		}
	}

	return false, nil
}

func (sf *SegmentFlowImpl) loadSegment(ctx context.Context, segmentID uuid.UUID) (*models.Segment, error) {
	segment, err := sf.segmentRepo.ByID(ctx, segmentID)
	if err != nil {
		return nil, NewBusinessError("SEGMENT_LOOKUP_FAILED", "Failed to load segment", err)
	}
	if segment == nil {
		return nil, NewBusinessError("SEGMENT_NOT_FOUND", "Segment not found", ErrSegmentNotFound)
	}

	return segment, nil
}

// compile resolves the segment criteria against purchase aggregates and
// preferences. Preference criteria run each candidate through lazy inference,
// so a user without stored preferences can still qualify; a candidate whose
// preferences cannot be resolved is skipped, never an error.
func (sf *SegmentFlowImpl) compile(ctx context.Context, segment *models.Segment) ([]uuid.UUID, error) {
	criteria := NormalizeSegmentFilters(segment.Filters)

	var candidates []uuid.UUID
	if criteria.HasPurchaseCriteria() {
		var since *time.Time
		if criteria.LastDays != nil {
			s := utils.UTCNow().AddDate(0, 0, -*criteria.LastDays)
			since = &s
		}

		aggregates, err := sf.purchaseRepo.AggregateByUser(ctx, since)
		if err != nil {
			return nil, NewBusinessError("SEGMENT_COMPILE_FAILED", "Failed to aggregate purchases", err)
		}
		for _, aggregate := range aggregates {
			if criteria.MinTotalSpent != nil && aggregate.TotalSpent < *criteria.MinTotalSpent {
				continue
			}
			if criteria.MinNumPurchases != nil && aggregate.PurchaseCount < int64(*criteria.MinNumPurchases) {
				continue
			}
			candidates = append(candidates, aggregate.UserID)
		}
	} else {
		// Preference-only segments fall back to every user with any
		// purchase history
		userIDs, err := sf.purchaseRepo.DistinctUserIDs(ctx)
		if err != nil {
			return nil, NewBusinessError("SEGMENT_COMPILE_FAILED", "Failed to list purchasers", err)
		}
		candidates = userIDs
	}

	if len(criteria.PreferencesContains) == 0 {
		if candidates == nil {
			candidates = []uuid.UUID{}
		}
		return candidates, nil
	}

	members := []uuid.UUID{}
	for _, userID := range candidates {
		preferences, err := sf.preferences.GetPreferences(ctx, userID, true)
		if err != nil {
			continue
		}
		if MatchesPreferences(models.JSONMap(preferences.Preferences), criteria.PreferencesContains) {
			members = append(members, userID)
		}
	}

	return members, nil
}

// MatchesPreferences reports whether the stored preferences carry every
// required key with the required value, compared case-insensitively
func MatchesPreferences(preferences models.JSONMap, required map[string]string) bool {
	if preferences.IsEmpty() {
		return false
	}

	for key, want := range required {
		value, ok := preferences[key]
		if !ok {
			return false
		}
		text, ok := value.(string)
		if !ok || !strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(want)) {
			return false
		}
	}

	return true
}

// NormalizeSegmentFilters coerces the schema-less filter map into typed
// criteria. Numbers arrive as JSON floats or strings; both are accepted.
func NormalizeSegmentFilters(filters models.JSONMap) SegmentCriteria {
	criteria := SegmentCriteria{}
	if filters == nil {
		return criteria
	}

	if days, ok := intValue(filters[models.SegmentFilterLastDays]); ok && days > 0 {
		criteria.LastDays = &days
	}
	if spent, ok := floatValue(filters[models.SegmentFilterMinTotalSpent]); ok && spent > 0 {
		criteria.MinTotalSpent = &spent
	}
	if purchases, ok := intValue(filters[models.SegmentFilterMinNumPurchases]); ok && purchases > 0 {
		criteria.MinNumPurchases = &purchases
	}

	if raw, ok := filters[models.SegmentFilterPreferencesContains].(map[string]any); ok {
		required := map[string]string{}
		for key, value := range raw {
			if text, ok := value.(string); ok && strings.TrimSpace(text) != "" {
				required[key] = text
			}
		}
		if len(required) > 0 {
			criteria.PreferencesContains = required
		}
	}

	return criteria
}

func intValue(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func floatValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func segmentView(segment *models.Segment) dto.SegmentView {
	return dto.SegmentView{
		ID:          segment.ID,
		Name:        segment.Name,
		Description: segment.Description,
		Filters:     segment.Filters,
		IsActive:    utils.IsTrue(segment.IsActive),
		CreatedAt:   segment.CreatedAt,
	}
}
