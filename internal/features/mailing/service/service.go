package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apperrors "giveaway-bot-backend/internal/common/errors"
	audiencesvc "giveaway-bot-backend/internal/features/audience/service"
	"giveaway-bot-backend/internal/features/mailing/models"
	"giveaway-bot-backend/internal/features/mailing/repository"
)

// CampaignService creates campaigns and runs them as cancellable
// background tasks on top of the delivery engine. Running campaigns are
// registered process-locally so they can be stopped cooperatively.
type CampaignService struct {
	repo     repository.CampaignRepository
	audience *audiencesvc.AudienceService
	sender   *Sender
	opts     Options

	mu      sync.Mutex
	running map[string]context.CancelFunc

	logger zerolog.Logger
}

func NewCampaignService(
	repo repository.CampaignRepository,
	audience *audiencesvc.AudienceService,
	sender *Sender,
	opts Options,
) *CampaignService {
	return &CampaignService{
		repo:     repo,
		audience: audience,
		sender:   sender,
		opts:     opts,
		running:  make(map[string]context.CancelFunc),
		logger:   log.With().Str("component", "mailing").Logger(),
	}
}

// Create persists a pending campaign with its recipient count resolved,
// so the admin sees the audience size and a delivery estimate before
// committing to a send.
func (s *CampaignService) Create(ctx context.Context, channelID, createdBy int64, text string, audience models.Audience) (*models.Campaign, error) {
	if text == "" {
		return nil, apperrors.NewValidationError("text", "must not be empty")
	}

	recipients, err := s.audience.Recipients(ctx, channelID, string(audience))
	if err != nil {
		return nil, err
	}

	campaign := &models.Campaign{
		ID:         uuid.New().String(),
		ChannelID:  channelID,
		CreatedBy:  createdBy,
		Text:       text,
		Audience:   audience,
		Status:     models.CampaignStatusPending,
		Recipients: len(recipients),
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, apperrors.NewDatabaseError("create campaign", err)
	}
	return campaign, nil
}

// Estimate returns the pre-flight delivery duration for a campaign.
func (s *CampaignService) Estimate(campaign *models.Campaign) time.Duration {
	return EstimateDeliveryTime(campaign.Recipients, s.opts)
}

// Start launches a pending campaign in the background. The campaign
// transitions to sending immediately; progress snapshots are persisted
// while the send runs.
func (s *CampaignService) Start(ctx context.Context, id string) error {
	campaign, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrCampaignNotFound {
		return apperrors.NewCampaignNotFoundError(id)
	}
	if err != nil {
		return apperrors.NewDatabaseError("get campaign", err)
	}
	if campaign.Status != models.CampaignStatusPending {
		return apperrors.New(apperrors.ErrCodeConflict, "campaign already started").
			WithDetail("campaign_id", id).
			WithDetail("status", campaign.Status)
	}

	recipients, err := s.audience.Recipients(ctx, campaign.ChannelID, string(campaign.Audience))
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[id] = cancel
	s.mu.Unlock()

	campaign.Status = models.CampaignStatusSending
	campaign.StartedAt = time.Now()
	campaign.Recipients = len(recipients)
	if err := s.repo.Update(ctx, campaign); err != nil {
		s.unregister(id)
		return apperrors.NewDatabaseError("update campaign", err)
	}

	go s.run(runCtx, campaign, recipients)
	return nil
}

// Stop cancels a running campaign cooperatively. The send loop exits
// before its next send; stats accumulated so far are kept.
func (s *CampaignService) Stop(id string) error {
	s.mu.Lock()
	cancel, ok := s.running[id]
	s.mu.Unlock()

	if !ok {
		return apperrors.New(apperrors.ErrCodeCampaignNotRunning, "campaign is not running").
			WithDetail("campaign_id", id)
	}
	cancel()
	return nil
}

// Get returns one campaign record.
func (s *CampaignService) Get(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrCampaignNotFound {
		return nil, apperrors.NewCampaignNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get campaign", err)
	}
	return campaign, nil
}

// List returns all campaigns, newest first.
func (s *CampaignService) List(ctx context.Context) ([]*models.Campaign, error) {
	campaigns, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list campaigns", err)
	}
	return campaigns, nil
}

func (s *CampaignService) run(ctx context.Context, campaign *models.Campaign, recipients []int64) {
	defer s.unregister(campaign.ID)

	opts := s.opts
	opts.Progress = func(done, total int, stats DeliveryStats) {
		snapshot := *campaign
		snapshot.Stats = statsSnapshot(&stats)
		if err := s.repo.Update(context.Background(), &snapshot); err != nil {
			s.logger.Warn().Str("campaign_id", campaign.ID).Err(err).Msg("Не удалось сохранить прогресс рассылки")
		}
	}

	stats := s.sender.SendBulk(ctx, recipients, campaign.Text, opts)

	campaign.Stats = statsSnapshot(stats)
	campaign.FinishedAt = time.Now()
	if ctx.Err() != nil {
		campaign.Status = models.CampaignStatusCancelled
	} else {
		campaign.Status = models.CampaignStatusDone
	}

	if err := s.repo.Update(context.Background(), campaign); err != nil {
		s.logger.Error().Str("campaign_id", campaign.ID).Err(err).Msg("Не удалось сохранить итоги рассылки")
		return
	}

	s.logger.Info().
		Str("campaign_id", campaign.ID).
		Str("status", string(campaign.Status)).
		Int("successful", stats.Successful).
		Int("total", stats.TotalSent).
		Msg("Рассылка завершена")
}

func (s *CampaignService) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

func statsSnapshot(stats *DeliveryStats) *models.StatsSnapshot {
	return &models.StatsSnapshot{
		TotalSent:   stats.TotalSent,
		Successful:  stats.Successful,
		Failed:      stats.Failed,
		Blocked:     stats.Blocked,
		Throttled:   stats.Throttled,
		OtherErrors: stats.OtherErrors,
		SuccessRate: stats.SuccessRate(),
	}
}
