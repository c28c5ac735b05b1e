package repository

import (
	"context"
	"errors"
	"time"

	"giveaway-bot-backend/internal/features/audience/models"
)

var ErrSubscriberNotFound = errors.New("subscriber not found")

// SubscriberRepository keeps per-channel subscriber bookkeeping: joins,
// leaves and last activity. Records are never hard-deleted by the core.
type SubscriberRepository interface {
	Upsert(ctx context.Context, subscriber *models.Subscriber) error
	GetByID(ctx context.Context, channelID, userID int64) (*models.Subscriber, error)
	MarkLeft(ctx context.Context, channelID, userID int64, leftAt time.Time) error
	Touch(ctx context.Context, channelID, userID int64, activityAt time.Time) error

	Count(ctx context.Context, channelID int64) (int64, error)
	CountActiveSince(ctx context.Context, channelID int64, since time.Time) (int64, error)

	// Recipients returns the user ids of current subscribers; when since
	// is non-zero, only those active at or after it.
	Recipients(ctx context.Context, channelID int64, since time.Time) ([]int64, error)
}
