package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "giveaway-bot-backend/internal/common/errors"
	audiencesvc "giveaway-bot-backend/internal/features/audience/service"
	giveawayrepo "giveaway-bot-backend/internal/features/giveaway/repository"
	mailingrepo "giveaway-bot-backend/internal/features/mailing/repository"
)

// Report aggregates the numbers an administrator cares about.
type Report struct {
	ChannelID         int64 `json:"channel_id"`
	ActiveGiveaways   int64 `json:"active_giveaways"`
	FinishedGiveaways int64 `json:"finished_giveaways"`
	Subscribers       int64 `json:"subscribers"`
	ActiveSubscribers int64 `json:"active_subscribers"`
	Campaigns         int64 `json:"campaigns"`
}

// StatsService builds aggregated giveaway/audience/campaign reports.
type StatsService struct {
	giveaways giveawayrepo.GiveawayRepository
	audience  *audiencesvc.AudienceService
	campaigns mailingrepo.CampaignRepository
}

func NewStatsService(
	giveaways giveawayrepo.GiveawayRepository,
	audience *audiencesvc.AudienceService,
	campaigns mailingrepo.CampaignRepository,
) *StatsService {
	return &StatsService{giveaways: giveaways, audience: audience, campaigns: campaigns}
}

// Report collects the aggregate numbers for one channel.
func (s *StatsService) Report(ctx context.Context, channelID int64) (*Report, error) {
	active, err := s.giveaways.CountActive(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("count active giveaways", err)
	}
	finished, err := s.giveaways.CountFinished(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("count finished giveaways", err)
	}
	subscribers, activeSubscribers, err := s.audience.Counts(ctx, channelID)
	if err != nil {
		return nil, err
	}
	campaignCount, err := s.campaigns.Count(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("count campaigns", err)
	}

	return &Report{
		ChannelID:         channelID,
		ActiveGiveaways:   active,
		FinishedGiveaways: finished,
		Subscribers:       subscribers,
		ActiveSubscribers: activeSubscribers,
		Campaigns:         campaignCount,
	}, nil
}

// Render formats the report as the Russian-language admin text.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("📊 <b>Статистика</b>\n\n")
	fmt.Fprintf(&b, "🎁 Активных розыгрышей: %d\n", r.ActiveGiveaways)
	fmt.Fprintf(&b, "🏁 Завершенных розыгрышей: %d\n\n", r.FinishedGiveaways)
	fmt.Fprintf(&b, "👥 Подписчиков: %d\n", r.Subscribers)
	fmt.Fprintf(&b, "🔥 Активных за 30 дней: %d\n\n", r.ActiveSubscribers)
	fmt.Fprintf(&b, "📨 Рассылок: %d", r.Campaigns)
	return b.String()
}
