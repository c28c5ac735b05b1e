package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "giveaway-bot-backend/internal/common/errors"
	audiencemodels "giveaway-bot-backend/internal/features/audience/models"
	audiencerepo "giveaway-bot-backend/internal/features/audience/repository"
	audiencesvc "giveaway-bot-backend/internal/features/audience/service"
	"giveaway-bot-backend/internal/features/mailing/models"
	"giveaway-bot-backend/internal/features/mailing/repository"
	"giveaway-bot-backend/internal/platform/telegram"
)

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*models.Campaign
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[string]*models.Campaign)}
}

func (r *fakeCampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.campaigns[c.ID] = &copied
	return nil
}

func (r *fakeCampaignRepo) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, repository.ErrCampaignNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[c.ID]; !ok {
		return repository.ErrCampaignNotFound
	}
	copied := *c
	r.campaigns[c.ID] = &copied
	return nil
}

func (r *fakeCampaignRepo) List(ctx context.Context) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeCampaignRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.campaigns)), nil
}

// memorySubscribers is a minimal in-memory audience backing for campaign
// tests: everyone counts as active.
type memorySubscribers struct {
	ids []int64
}

func (m *memorySubscribers) Upsert(ctx context.Context, s *audiencemodels.Subscriber) error {
	m.ids = append(m.ids, s.UserID)
	return nil
}

func (m *memorySubscribers) GetByID(ctx context.Context, channelID, userID int64) (*audiencemodels.Subscriber, error) {
	return nil, audiencerepo.ErrSubscriberNotFound
}

func (m *memorySubscribers) MarkLeft(ctx context.Context, channelID, userID int64, leftAt time.Time) error {
	return audiencerepo.ErrSubscriberNotFound
}

func (m *memorySubscribers) Touch(ctx context.Context, channelID, userID int64, activityAt time.Time) error {
	return nil
}

func (m *memorySubscribers) Count(ctx context.Context, channelID int64) (int64, error) {
	return int64(len(m.ids)), nil
}

func (m *memorySubscribers) CountActiveSince(ctx context.Context, channelID int64, since time.Time) (int64, error) {
	return int64(len(m.ids)), nil
}

func (m *memorySubscribers) Recipients(ctx context.Context, channelID int64, since time.Time) ([]int64, error) {
	return append([]int64(nil), m.ids...), nil
}

type campaignFixture struct {
	repo *fakeCampaignRepo
	tg   *fakeDirect
	svc  *CampaignService
}

func newCampaignFixture(subscriberIDs ...int64) *campaignFixture {
	repo := newFakeCampaignRepo()
	tg := &fakeDirect{results: map[int64][]telegram.SendResult{}}
	audience := audiencesvc.NewAudienceService(&memorySubscribers{ids: subscriberIDs})
	sender := newTestSender(tg)

	opts := DefaultOptions()
	opts.RandomizeOrder = false
	svc := NewCampaignService(repo, audience, sender, opts)
	return &campaignFixture{repo: repo, tg: tg, svc: svc}
}

func TestCreateCampaignResolvesRecipients(t *testing.T) {
	f := newCampaignFixture(1, 2, 3)

	campaign, err := f.svc.Create(context.Background(), -100200, 777, "Новости канала", models.AudienceAll)
	require.NoError(t, err)

	assert.NotEmpty(t, campaign.ID)
	assert.Equal(t, models.CampaignStatusPending, campaign.Status)
	assert.Equal(t, 3, campaign.Recipients)

	stored, err := f.repo.GetByID(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "Новости канала", stored.Text)
}

func TestCreateCampaignRejectsEmptyText(t *testing.T) {
	f := newCampaignFixture(1)

	_, err := f.svc.Create(context.Background(), -100200, 777, "", models.AudienceAll)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestStartRunsCampaignToCompletion(t *testing.T) {
	f := newCampaignFixture(1, 2, 3)
	ctx := context.Background()

	campaign, err := f.svc.Create(ctx, -100200, 777, "привет", models.AudienceAll)
	require.NoError(t, err)
	require.NoError(t, f.svc.Start(ctx, campaign.ID))

	require.Eventually(t, func() bool {
		stored, err := f.repo.GetByID(ctx, campaign.ID)
		return err == nil && stored.Status == models.CampaignStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	stored, err := f.repo.GetByID(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Stats)
	assert.Equal(t, 3, stored.Stats.TotalSent)
	assert.Equal(t, 3, stored.Stats.Successful)
	assert.False(t, stored.FinishedAt.IsZero())
}

func TestStartRejectsNonPendingCampaign(t *testing.T) {
	f := newCampaignFixture(1)
	ctx := context.Background()

	campaign, err := f.svc.Create(ctx, -100200, 777, "привет", models.AudienceAll)
	require.NoError(t, err)
	require.NoError(t, f.svc.Start(ctx, campaign.ID))

	require.Eventually(t, func() bool {
		stored, err := f.repo.GetByID(ctx, campaign.ID)
		return err == nil && stored.Status == models.CampaignStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	err = f.svc.Start(ctx, campaign.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeConflict, appErr.Code)
}

func TestStartUnknownCampaign(t *testing.T) {
	f := newCampaignFixture(1)

	err := f.svc.Start(context.Background(), "missing")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeCampaignNotFound, appErr.Code)
}

func TestStopCancelsRunningCampaign(t *testing.T) {
	f := newCampaignFixture(1, 2, 3, 4, 5)
	ctx := context.Background()

	started := make(chan struct{})
	var once sync.Once
	f.svc.sender = NewSender(f.tg, rand.New(rand.NewSource(1))).WithSleep(func(ctx context.Context, d time.Duration) bool {
		once.Do(func() { close(started) })
		// Рассылка зависает между отправками, пока ее не остановят
		<-ctx.Done()
		return false
	})

	campaign, err := f.svc.Create(ctx, -100200, 777, "привет", models.AudienceAll)
	require.NoError(t, err)
	require.NoError(t, f.svc.Start(ctx, campaign.ID))

	<-started
	require.NoError(t, f.svc.Stop(campaign.ID))

	require.Eventually(t, func() bool {
		stored, err := f.repo.GetByID(ctx, campaign.ID)
		return err == nil && stored.Status == models.CampaignStatusCancelled
	}, 2*time.Second, 10*time.Millisecond)

	stored, err := f.repo.GetByID(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Stats)
	assert.Less(t, stored.Stats.TotalSent, 5)
}

func TestStopNotRunningCampaign(t *testing.T) {
	f := newCampaignFixture(1)

	err := f.svc.Stop("idle")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeCampaignNotRunning, appErr.Code)
}

func TestEstimateUsesConfiguredOptions(t *testing.T) {
	f := newCampaignFixture()
	campaign := &models.Campaign{Recipients: 100}

	// 100 отправок по 2с в среднем + две паузы по 15с
	assert.Equal(t, 230*time.Second, f.svc.Estimate(campaign))
}
