package repository

import (
	"context"
	"errors"
	"time"

	"giveaway-bot-backend/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrChannelNotFound  = errors.New("channel not found")
	ErrNotActive        = errors.New("giveaway is not active")
	ErrAlreadyJoined    = errors.New("user already joined")
)

// GiveawayRepository is the persistence boundary of the lifecycle core.
// FinishGiveaway is the only compound write: status change and winner list
// are applied as a single atomic unit or not at all.
type GiveawayRepository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)
	Update(ctx context.Context, giveaway *models.Giveaway) error

	GetActiveGiveaways(ctx context.Context) ([]*models.Giveaway, error)
	CountActive(ctx context.Context) (int64, error)
	CountFinished(ctx context.Context) (int64, error)

	AddParticipant(ctx context.Context, p *models.Participant) error
	GetParticipants(ctx context.Context, giveawayID string) ([]*models.Participant, error)
	GetParticipantsCount(ctx context.Context, giveawayID string) (int64, error)
	IsParticipant(ctx context.Context, giveawayID string, userID int64) (bool, error)

	// FinishGiveaway marks the giveaway finished and stores its winners
	// atomically. Winners may be empty (a draw with no eligible pool).
	// Returns ErrNotActive when the giveaway is not active anymore.
	FinishGiveaway(ctx context.Context, id string, winners []models.Winner, finishedAt time.Time) error
	GetWinners(ctx context.Context, giveawayID string) ([]models.Winner, error)

	// Cancel marks an active giveaway cancelled. Returns ErrNotActive for
	// giveaways already finished or cancelled.
	Cancel(ctx context.Context, id string) error

	// DeleteFinishedOlderThan removes finished giveaways older than the
	// cutoff together with their participants and winners, returning the
	// number of giveaways deleted.
	DeleteFinishedOlderThan(ctx context.Context, olderThan time.Time) (int, error)

	SaveChannel(ctx context.Context, channel *models.Channel) error
	GetChannel(ctx context.Context, chatID int64) (*models.Channel, error)
}
