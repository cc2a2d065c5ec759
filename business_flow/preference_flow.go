package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/app/services"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/repository"
	"github.com/mercat-labs/loyalty-platform/utils"
	"gorm.io/gorm"
)

// Inference looks at a user's most recent purchases only
const inferencePurchaseWindow = 20

// preferenceKeys is the closed vocabulary the model is asked to fill.
// Keys outside it are dropped from the inferred map.
var preferenceKeys = []string{
	"diet",
	"organic",
	"wine_preference",
	"language",
	"budget_level",
	"store_preference",
	"product_category",
}

// PreferenceFlow infers shopping preferences from purchase history. Inference
// never overwrites preferences a user has set themselves.
type PreferenceFlow interface {
	GetPreferences(ctx context.Context, userID uuid.UUID, infer bool) (*dto.PreferencesResponse, error)
	InferAll(ctx context.Context) (*dto.InferAllResponse, error)
	InferRecent(ctx context.Context, daysBack int) (*dto.InferAllResponse, error)
	Summary(ctx context.Context) (*dto.PreferencesSummaryResponse, error)
}

// PreferenceFlowImpl implements the preference inference business flow
type PreferenceFlowImpl struct {
	userRepo     repository.UserRepository
	purchaseRepo repository.PurchaseRecordRepository
	llm          services.LLMService
	db           *gorm.DB
}

// NewPreferenceFlow creates a new preference flow instance
func NewPreferenceFlow(
	userRepo repository.UserRepository,
	purchaseRepo repository.PurchaseRecordRepository,
	llm services.LLMService,
	db *gorm.DB,
) PreferenceFlow {
	return &PreferenceFlowImpl{
		userRepo:     userRepo,
		purchaseRepo: purchaseRepo,
		llm:          llm,
		db:           db,
	}
}

// GetPreferences returns the stored preference map. With infer set, an empty
// map is filled from purchase history first.
func (pf *PreferenceFlowImpl) GetPreferences(ctx context.Context, userID uuid.UUID, infer bool) (*dto.PreferencesResponse, error) {
	user, err := pf.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to load user", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	response := &dto.PreferencesResponse{
		UserID:      userID,
		Preferences: user.Preferences,
	}
	if !infer || !user.Preferences.IsEmpty() {
		return response, nil
	}

	inferred, err := pf.inferForUser(ctx, userID)
	if err != nil || len(inferred) == 0 {
		// Inference is best-effort; an empty map is a valid answer
		return response, nil
	}

	if err := pf.userRepo.UpdatePreferences(ctx, userID, models.JSONMap(inferred)); err != nil {
		return nil, NewBusinessError("PREFERENCES_UPDATE_FAILED", "Failed to store inferred preferences", err)
	}

	response.Preferences = inferred
	response.Inferred = true
	return response, nil
}

// InferAll runs inference for every user that has purchase history and no
// stored preferences
func (pf *PreferenceFlowImpl) InferAll(ctx context.Context) (*dto.InferAllResponse, error) {
	userIDs, err := pf.purchaseRepo.DistinctUserIDs(ctx)
	if err != nil {
		return nil, NewBusinessError("INFERENCE_FAILED", "Failed to list users with purchases", err)
	}

	return pf.inferBatch(ctx, userIDs)
}

// InferRecent runs inference for users that purchased within the trailing
// window of days
func (pf *PreferenceFlowImpl) InferRecent(ctx context.Context, daysBack int) (*dto.InferAllResponse, error) {
	if daysBack <= 0 {
		daysBack = 7
	}

	since := utils.UTCNow().AddDate(0, 0, -daysBack)
	aggregates, err := pf.purchaseRepo.AggregateByUser(ctx, &since)
	if err != nil {
		return nil, NewBusinessError("INFERENCE_FAILED", "Failed to list recent purchasers", err)
	}

	userIDs := make([]uuid.UUID, 0, len(aggregates))
	for _, aggregate := range aggregates {
		userIDs = append(userIDs, aggregate.UserID)
	}

	return pf.inferBatch(ctx, userIDs)
}

func (pf *PreferenceFlowImpl) inferBatch(ctx context.Context, userIDs []uuid.UUID) (*dto.InferAllResponse, error) {
	response := &dto.InferAllResponse{}

	for _, userID := range userIDs {
		response.Processed++

		user, err := pf.userRepo.ByID(ctx, userID)
		if err != nil {
			return nil, NewBusinessError("INFERENCE_FAILED", "Failed to load user", err)
		}
		if user == nil || !user.Preferences.IsEmpty() {
			response.Skipped++
			continue
		}

		inferred, err := pf.inferForUser(ctx, userID)
		if err != nil || len(inferred) == 0 {
			response.Skipped++
			continue
		}

		if err := pf.userRepo.UpdatePreferences(ctx, userID, models.JSONMap(inferred)); err != nil {
			return nil, NewBusinessError("INFERENCE_FAILED", "Failed to store inferred preferences", err)
		}
		response.Updated++
	}

	return response, nil
}

// inferForUser builds a compact purchase digest and asks the model to map it
// onto the closed preference vocabulary
func (pf *PreferenceFlowImpl) inferForUser(ctx context.Context, userID uuid.UUID) (map[string]any, error) {
	purchases, err := pf.purchaseRepo.ListByUser(ctx, userID, inferencePurchaseWindow, 0)
	if err != nil {
		return nil, err
	}
	if len(purchases) == 0 {
		return nil, nil
	}

	digest := make([]map[string]any, 0, len(purchases))
	for _, purchase := range purchases {
		names := make([]string, 0, len(purchase.Products))
		for _, line := range purchase.Products {
			names = append(names, line.Name)
		}
		digest = append(digest, map[string]any{
			"tienda":    purchase.StoreName,
			"total":     purchase.TotalAmount,
			"productos": names,
		})
	}

	encoded, err := json.Marshal(digest)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Analiza estas compras de un usuario y deduce sus preferencias.
Compras: %s
Responde unicamente con un objeto JSON usando solo estas claves cuando haya evidencia:
%s
Los valores deben ser cadenas cortas. Si no hay evidencia para una clave, omitela.
Si no se puede deducir nada, responde {}.`, string(encoded), strings.Join(preferenceKeys, ", "))

	fields, err := pf.llm.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	inferred := map[string]any{}
	for _, key := range preferenceKeys {
		if value, ok := fields[key]; ok && value != nil {
			if text, ok := value.(string); ok && strings.TrimSpace(text) != "" {
				inferred[key] = strings.TrimSpace(text)
			}
		}
	}

	return inferred, nil
}

// Summary counts stored preference values across all users
func (pf *PreferenceFlowImpl) Summary(ctx context.Context) (*dto.PreferencesSummaryResponse, error) {
	users, err := pf.userRepo.ByFilter(ctx, models.UserFilter{IsActive: utils.ToPtr(true)}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("SUMMARY_FAILED", "Failed to list users", err)
	}

	response := &dto.PreferencesSummaryResponse{
		ValueCounts: map[string]map[string]int64{},
	}
	for _, user := range users {
		if user.Preferences.IsEmpty() {
			continue
		}
		response.UsersWithPreferences++

		for key, value := range user.Preferences {
			text, ok := value.(string)
			if !ok {
				continue
			}
			if response.ValueCounts[key] == nil {
				response.ValueCounts[key] = map[string]int64{}
			}
			response.ValueCounts[key][text]++
		}
	}

	return response, nil
}
