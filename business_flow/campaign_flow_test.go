package businessflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercat-labs/loyalty-platform/models"
)

type fakeCampaignNotificationRepo struct {
	notifications map[uuid.UUID]*models.CampaignNotification
	listed        []*models.CampaignNotification
	lastFilter    models.CampaignNotificationFilter
	lastLimit     int
	updated       *models.CampaignNotification
}

func (f *fakeCampaignNotificationRepo) ByID(ctx context.Context, id uuid.UUID) (*models.CampaignNotification, error) {
	return f.notifications[id], nil
}

func (f *fakeCampaignNotificationRepo) ByFilter(ctx context.Context, filter models.CampaignNotificationFilter, orderBy string, limit, offset int) ([]*models.CampaignNotification, error) {
	f.lastFilter = filter
	f.lastLimit = limit
	return f.listed, nil
}

func (f *fakeCampaignNotificationRepo) Save(ctx context.Context, notification *models.CampaignNotification) error {
	return nil
}

func (f *fakeCampaignNotificationRepo) SaveBatch(ctx context.Context, notifications []*models.CampaignNotification) error {
	return nil
}

func (f *fakeCampaignNotificationRepo) Update(ctx context.Context, notification *models.CampaignNotification) error {
	f.updated = notification
	return nil
}

func (f *fakeCampaignNotificationRepo) Count(ctx context.Context, filter models.CampaignNotificationFilter) (int64, error) {
	return 0, nil
}

func (f *fakeCampaignNotificationRepo) Exists(ctx context.Context, filter models.CampaignNotificationFilter) (bool, error) {
	return false, nil
}

func (f *fakeCampaignNotificationRepo) Stats(ctx context.Context) (*models.CampaignNotificationStats, error) {
	return nil, nil
}

func TestListNotifications(t *testing.T) {
	t.Run("unknown status rejected", func(t *testing.T) {
		cf := &CampaignFlowImpl{notificationRepo: &fakeCampaignNotificationRepo{}}

		_, err := cf.ListNotifications(context.Background(), "delivered", 0, 0)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("status filter and paging defaults applied", func(t *testing.T) {
		repo := &fakeCampaignNotificationRepo{listed: []*models.CampaignNotification{
			{ID: uuid.New(), UserID: uuid.New(), Message: "hola", Status: models.CampaignNotificationQueued, Meta: models.JSONMap{}},
			{ID: uuid.New(), UserID: uuid.New(), Message: "adeu", Status: models.CampaignNotificationQueued, Meta: models.JSONMap{}},
		}}
		cf := &CampaignFlowImpl{notificationRepo: repo}

		views, err := cf.ListNotifications(context.Background(), models.CampaignNotificationQueued, 0, 0)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, models.CampaignNotificationQueued, views[0].Status)

		require.NotNil(t, repo.lastFilter.Status)
		assert.Equal(t, models.CampaignNotificationQueued, *repo.lastFilter.Status)
		assert.Equal(t, 50, repo.lastLimit)
	})

	t.Run("no status lists everything", func(t *testing.T) {
		repo := &fakeCampaignNotificationRepo{}
		cf := &CampaignFlowImpl{notificationRepo: repo}

		views, err := cf.ListNotifications(context.Background(), "", 20, 0)
		require.NoError(t, err)
		assert.Empty(t, views)
		assert.Nil(t, repo.lastFilter.Status)
		assert.Equal(t, 20, repo.lastLimit)
	})
}

func TestMarkNotificationSent(t *testing.T) {
	t.Run("unknown notification", func(t *testing.T) {
		cf := &CampaignFlowImpl{notificationRepo: &fakeCampaignNotificationRepo{
			notifications: map[uuid.UUID]*models.CampaignNotification{},
		}}

		_, err := cf.MarkNotificationSent(context.Background(), uuid.New())
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("queued notification becomes sent", func(t *testing.T) {
		notification := &models.CampaignNotification{
			ID:     uuid.New(),
			UserID: uuid.New(),
			Status: models.CampaignNotificationQueued,
			Meta:   models.JSONMap{},
		}
		repo := &fakeCampaignNotificationRepo{
			notifications: map[uuid.UUID]*models.CampaignNotification{notification.ID: notification},
		}
		cf := &CampaignFlowImpl{notificationRepo: repo}

		view, err := cf.MarkNotificationSent(context.Background(), notification.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CampaignNotificationSent, view.Status)
		require.NotNil(t, repo.updated)
		assert.Equal(t, models.CampaignNotificationSent, repo.updated.Status)
		assert.Contains(t, repo.updated.Meta, "sent_at")
	})

	t.Run("already sent is idempotent", func(t *testing.T) {
		notification := &models.CampaignNotification{
			ID:     uuid.New(),
			UserID: uuid.New(),
			Status: models.CampaignNotificationSent,
			Meta:   models.JSONMap{"sent_at": "2025-03-15T10:30:00Z"},
		}
		repo := &fakeCampaignNotificationRepo{
			notifications: map[uuid.UUID]*models.CampaignNotification{notification.ID: notification},
		}
		cf := &CampaignFlowImpl{notificationRepo: repo}

		view, err := cf.MarkNotificationSent(context.Background(), notification.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CampaignNotificationSent, view.Status)
		assert.Nil(t, repo.updated)
		assert.Equal(t, "2025-03-15T10:30:00Z", view.Meta["sent_at"])
	})
}
