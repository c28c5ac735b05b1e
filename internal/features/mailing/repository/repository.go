package repository

import (
	"context"
	"errors"

	"giveaway-bot-backend/internal/features/mailing/models"
)

var ErrCampaignNotFound = errors.New("campaign not found")

// CampaignRepository persists bulk-send records.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	List(ctx context.Context) ([]*models.Campaign, error)
	Count(ctx context.Context) (int64, error)
}
