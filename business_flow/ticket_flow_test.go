package businessflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/app/services"
	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/utils"
)

type fakeTicketRepo struct {
	tickets  map[uuid.UUID]*models.Ticket
	terminal []*models.Ticket
	updated  *models.Ticket
}

func (f *fakeTicketRepo) ByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	return f.tickets[id], nil
}

func (f *fakeTicketRepo) ByFilter(ctx context.Context, filter models.TicketFilter, orderBy string, limit, offset int) ([]*models.Ticket, error) {
	return nil, nil
}

func (f *fakeTicketRepo) Save(ctx context.Context, ticket *models.Ticket) error { return nil }

func (f *fakeTicketRepo) SaveBatch(ctx context.Context, tickets []*models.Ticket) error { return nil }

func (f *fakeTicketRepo) Update(ctx context.Context, ticket *models.Ticket) error {
	f.updated = ticket
	return nil
}

func (f *fakeTicketRepo) Count(ctx context.Context, filter models.TicketFilter) (int64, error) {
	return 0, nil
}

func (f *fakeTicketRepo) Exists(ctx context.Context, filter models.TicketFilter) (bool, error) {
	return false, nil
}

func (f *fakeTicketRepo) ListPending(ctx context.Context, limit int) ([]*models.Ticket, error) {
	return nil, nil
}

func (f *fakeTicketRepo) ListTerminalByUser(ctx context.Context, userID uuid.UUID, statuses []string) ([]*models.Ticket, error) {
	return f.terminal, nil
}

func (f *fakeTicketRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Ticket, error) {
	return nil, nil
}

type fakeTicketStorage struct{}

func (fakeTicketStorage) Validate(filename string, size int64) error { return nil }

func (fakeTicketStorage) Store(filename string, data []byte) (string, string, error) {
	return "ref", filename, nil
}

func (fakeTicketStorage) Read(ref string) ([]byte, error) { return []byte("image"), nil }

type fakeVisionService struct {
	result *services.ExtractionResult
}

func (f *fakeVisionService) Extract(ctx context.Context, image []byte, mime string) *services.ExtractionResult {
	return f.result
}

type fakeMarketStoreFlow struct {
	isMarket bool
}

func (f *fakeMarketStoreFlow) Create(ctx context.Context, request *dto.CreateMarketStoreRequest) (*models.MarketStore, error) {
	return nil, nil
}

func (f *fakeMarketStoreFlow) Update(ctx context.Context, storeID uuid.UUID, request *dto.UpdateMarketStoreRequest) (*models.MarketStore, error) {
	return nil, nil
}

func (f *fakeMarketStoreFlow) Deactivate(ctx context.Context, storeID uuid.UUID) error { return nil }

func (f *fakeMarketStoreFlow) Get(ctx context.Context, storeID uuid.UUID) (*models.MarketStore, error) {
	return nil, nil
}

func (f *fakeMarketStoreFlow) List(ctx context.Context, includeInactive bool) ([]*models.MarketStore, error) {
	return nil, nil
}

func (f *fakeMarketStoreFlow) ListNames(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeMarketStoreFlow) IsMarketStore(ctx context.Context, candidate string) (bool, error) {
	return f.isMarket, nil
}

type fakePurchaseHistoryFlow struct {
	created []*dto.CreatePurchaseRequest
}

func (f *fakePurchaseHistoryFlow) Create(ctx context.Context, request *dto.CreatePurchaseRequest) (*dto.PurchaseRecordView, error) {
	f.created = append(f.created, request)
	return &dto.PurchaseRecordView{}, nil
}

func (f *fakePurchaseHistoryFlow) List(ctx context.Context, userID uuid.UUID, limit, offset int) (*dto.PurchaseHistoryResponse, error) {
	return nil, nil
}

func (f *fakePurchaseHistoryFlow) Summary(ctx context.Context, userID uuid.UUID) (*models.PurchaseSummary, error) {
	return nil, nil
}

func (f *fakePurchaseHistoryFlow) SpendingPeriod(ctx context.Context, userID uuid.UUID, days int) (*dto.SpendingPeriodResponse, error) {
	return nil, nil
}

type fakeGamificationFlow struct {
	events []*dto.TicketProcessedEvent
}

func (f *fakeGamificationFlow) ProcessTicketEvent(ctx context.Context, event *dto.TicketProcessedEvent) (*dto.TicketProcessedResult, error) {
	f.events = append(f.events, event)
	return &dto.TicketProcessedResult{NewBadges: []dto.BadgeView{}}, nil
}

func (f *fakeGamificationFlow) GetStats(ctx context.Context, userID uuid.UUID) (*dto.StatsResponse, error) {
	return nil, nil
}

func (f *fakeGamificationFlow) GetProfile(ctx context.Context, userID uuid.UUID) (*dto.ProfileView, error) {
	return nil, nil
}

func (f *fakeGamificationFlow) GetBadges(ctx context.Context, userID uuid.UUID) ([]dto.BadgeView, error) {
	return nil, nil
}

func (f *fakeGamificationFlow) GetExperienceLog(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.ExperienceEntryView, error) {
	return nil, nil
}

func (f *fakeGamificationFlow) AddExperience(ctx context.Context, userID uuid.UUID, request *dto.AddExperienceRequest) (*dto.ProfileView, error) {
	return nil, nil
}

func (f *fakeGamificationFlow) ResetProfile(ctx context.Context, userID uuid.UUID) error { return nil }

func (f *fakeGamificationFlow) Leaderboard(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	return nil, nil
}

func marketExtraction() *services.ExtractionResult {
	return &services.ExtractionResult{
		Fecha:      utils.ToPtr("15/03/2025"),
		Hora:       utils.ToPtr("10:30"),
		Tienda:     utils.ToPtr("Peixateria Marina"),
		Total:      utils.ToPtr("61,50"),
		TipoTicket: utils.ToPtr("compra"),
		Productos: models.ProductList{
			{Name: "Lluç", Quantity: "1", Price: "61.50"},
		},
		Success: true,
	}
}

func TestProcessTicketFanOut(t *testing.T) {
	priorResult := models.JSONMap{
		"fecha": "15/03/2025",
		"hora":  "10:30",
		"productos": []any{
			map[string]any{"nombre": "Lluç", "cantidad": "1", "precio": "61.50"},
		},
	}

	tests := []struct {
		name           string
		isMarket       bool
		extraction     *services.ExtractionResult
		priors         []*models.Ticket
		wantStatus     string
		wantPurchases  int
		wantEvents     int
		wantEventValid bool
		wantMarketFlag bool
	}{
		{
			name:           "approved ticket feeds history and progression",
			isMarket:       true,
			extraction:     marketExtraction(),
			wantStatus:     models.TicketStatusDoneApproved,
			wantPurchases:  1,
			wantEvents:     1,
			wantEventValid: true,
			wantMarketFlag: true,
		},
		{
			name:           "rejected ticket still feeds history with the market flag down",
			isMarket:       false,
			extraction:     marketExtraction(),
			wantStatus:     models.TicketStatusDoneRejected,
			wantPurchases:  1,
			wantEvents:     1,
			wantEventValid: false,
			wantMarketFlag: false,
		},
		{
			name:       "duplicate ticket skips history and progression",
			isMarket:   true,
			extraction: marketExtraction(),
			priors: []*models.Ticket{{
				ID:               uuid.New(),
				Status:           models.TicketStatusDoneApproved,
				ProcessingResult: priorResult,
			}},
			wantStatus:    models.TicketStatusDuplicate,
			wantPurchases: 0,
			wantEvents:    0,
		},
		{
			name:          "unreadable extraction skips history and progression",
			isMarket:      true,
			extraction:    &services.ExtractionResult{Success: false, Error: "vision model unreachable"},
			wantStatus:    models.TicketStatusFailed,
			wantPurchases: 0,
			wantEvents:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &models.Ticket{
				ID:      uuid.New(),
				UserID:  uuid.New(),
				FileRef: "ref",
				Mime:    "image/jpeg",
				Status:  models.TicketStatusPending,
			}

			repo := &fakeTicketRepo{
				tickets:  map[uuid.UUID]*models.Ticket{ticket.ID: ticket},
				terminal: tt.priors,
			}
			purchases := &fakePurchaseHistoryFlow{}
			gamification := &fakeGamificationFlow{}

			flow := &TicketFlowImpl{
				ticketRepo:       repo,
				storage:          fakeTicketStorage{},
				vision:           &fakeVisionService{result: tt.extraction},
				marketStoreFlow:  &fakeMarketStoreFlow{isMarket: tt.isMarket},
				purchaseFlow:     purchases,
				gamificationFlow: gamification,
				duplicateCheck:   true,
			}

			response, err := flow.ProcessTicket(context.Background(), ticket.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, response.Status)
			require.NotNil(t, repo.updated)
			assert.Equal(t, tt.wantStatus, repo.updated.Status)

			require.Len(t, purchases.created, tt.wantPurchases)
			if tt.wantPurchases > 0 {
				request := purchases.created[0]
				assert.Equal(t, ticket.UserID, request.UserID)
				assert.Equal(t, ticket.ID, request.TicketID)
				assert.Equal(t, "Peixateria Marina", request.StoreName)
				assert.InDelta(t, 61.50, request.TotalAmount, 0.001)
				assert.Equal(t, tt.wantMarketFlag, request.IsMarketStore)
			}

			require.Len(t, gamification.events, tt.wantEvents)
			if tt.wantEvents > 0 {
				event := gamification.events[0]
				assert.Equal(t, ticket.UserID, event.UserID)
				assert.Equal(t, tt.wantEventValid, event.IsValid)
				require.NotNil(t, event.TotalAmount)
				assert.InDelta(t, 61.50, *event.TotalAmount, 0.001)
			}

			if tt.wantStatus == models.TicketStatusDuplicate {
				assert.Equal(t, true, response.Result["duplicate_detected"])
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		expected  float64
		expectErr bool
	}{
		{name: "plain decimal", raw: "12.34", expected: 12.34},
		{name: "comma decimal separator", raw: "12,34", expected: 12.34},
		{name: "euro suffix", raw: "12.34€", expected: 12.34},
		{name: "EUR suffix with space", raw: "12.34 EUR", expected: 12.34},
		{name: "surrounding whitespace", raw: "  7,50  ", expected: 7.5},
		{name: "thousand separator collapses", raw: "1.234,56", expected: 1234.56},
		{name: "dotted thousands", raw: "1.234.56", expected: 1234.56},
		{name: "integer", raw: "40", expected: 40},
		{name: "empty string", raw: "", expectErr: true},
		{name: "not a number", raw: "total", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := ParseAmount(tt.raw)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, amount, 0.001)
		})
	}
}
