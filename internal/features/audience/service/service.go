package service

import (
	"context"
	"time"

	apperrors "giveaway-bot-backend/internal/common/errors"
	"giveaway-bot-backend/internal/features/audience/models"
	"giveaway-bot-backend/internal/features/audience/repository"
)

const activeWindow = 30 * 24 * time.Hour

// AudienceService maintains the per-channel subscriber registry and
// resolves recipient selections for bulk campaigns.
type AudienceService struct {
	repo repository.SubscriberRepository
	now  func() time.Time
}

func NewAudienceService(repo repository.SubscriberRepository) *AudienceService {
	return &AudienceService{repo: repo, now: time.Now}
}

// RecordJoin upserts a subscriber on join, clearing any previous leave
// mark so re-joins look like fresh memberships.
func (s *AudienceService) RecordJoin(ctx context.Context, channelID, userID int64, username, firstName string) error {
	now := s.now()
	subscriber := &models.Subscriber{
		ChannelID:      channelID,
		UserID:         userID,
		Username:       username,
		FirstName:      firstName,
		JoinedAt:       now,
		LastActivityAt: now,
	}

	// Для уже числящегося подписчика сохраняем исходную дату вступления;
	// повторное вступление после выхода считается новым членством
	if existing, err := s.repo.GetByID(ctx, channelID, userID); err == nil && existing.IsSubscribed() {
		subscriber.JoinedAt = existing.JoinedAt
	}

	if err := s.repo.Upsert(ctx, subscriber); err != nil {
		return apperrors.NewDatabaseError("upsert subscriber", err)
	}
	return nil
}

// RecordLeave marks a subscriber as having left the channel.
func (s *AudienceService) RecordLeave(ctx context.Context, channelID, userID int64) error {
	err := s.repo.MarkLeft(ctx, channelID, userID, s.now())
	if err == repository.ErrSubscriberNotFound {
		return nil // выход незнакомого пользователя не ошибка
	}
	if err != nil {
		return apperrors.NewDatabaseError("mark subscriber left", err)
	}
	return nil
}

// RecordActivity refreshes the last-activity timestamp, feeding the
// active_30d audience selection.
func (s *AudienceService) RecordActivity(ctx context.Context, channelID, userID int64) error {
	err := s.repo.Touch(ctx, channelID, userID, s.now())
	if err == repository.ErrSubscriberNotFound {
		return nil
	}
	if err != nil {
		return apperrors.NewDatabaseError("touch subscriber", err)
	}
	return nil
}

// Counts returns the total and 30-day-active subscriber counts.
func (s *AudienceService) Counts(ctx context.Context, channelID int64) (total, active int64, err error) {
	total, err = s.repo.Count(ctx, channelID)
	if err != nil {
		return 0, 0, apperrors.NewDatabaseError("count subscribers", err)
	}
	active, err = s.repo.CountActiveSince(ctx, channelID, s.now().Add(-activeWindow))
	if err != nil {
		return 0, 0, apperrors.NewDatabaseError("count active subscribers", err)
	}
	return total, active, nil
}

// Recipients resolves an audience selector into concrete user ids.
func (s *AudienceService) Recipients(ctx context.Context, channelID int64, audience string) ([]int64, error) {
	var since time.Time
	switch audience {
	case "active_30d":
		since = s.now().Add(-activeWindow)
	case "all", "":
	default:
		return nil, apperrors.NewValidationError("audience", "unknown audience selector")
	}

	ids, err := s.repo.Recipients(ctx, channelID, since)
	if err != nil {
		return nil, apperrors.NewDatabaseError("resolve recipients", err)
	}
	return ids, nil
}
