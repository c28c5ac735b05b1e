package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"giveaway-bot-backend/internal/features/mailing/models"
	"giveaway-bot-backend/internal/features/mailing/repository"
)

const (
	keyPrefixCampaign = "campaign:"
	keyCampaignIndex  = "campaigns:all" // zset scored by created-at unix
)

type redisRepository struct {
	client *redis.Client
}

func NewCampaignRepository(client *redis.Client) repository.CampaignRepository {
	return &redisRepository{client: client}
}

func makeCampaignKey(id string) string {
	return keyPrefixCampaign + id
}

func (r *redisRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	data, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, makeCampaignKey(campaign.ID), data, 0)
	pipe.ZAdd(ctx, keyCampaignIndex, redis.Z{
		Score:  float64(campaign.CreatedAt.Unix()),
		Member: campaign.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	data, err := r.client.Get(ctx, makeCampaignKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}

	var campaign models.Campaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *redisRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	data, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}
	return r.client.Set(ctx, makeCampaignKey(campaign.ID), data, 0).Err()
}

func (r *redisRepository) List(ctx context.Context) ([]*models.Campaign, error) {
	// Новые рассылки первыми
	ids, err := r.client.ZRevRange(ctx, keyCampaignIndex, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	campaigns := make([]*models.Campaign, 0, len(ids))
	for _, id := range ids {
		campaign, err := r.GetByID(ctx, id)
		if err == repository.ErrCampaignNotFound {
			r.client.ZRem(ctx, keyCampaignIndex, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, nil
}

func (r *redisRepository) Count(ctx context.Context) (int64, error) {
	return r.client.ZCard(ctx, keyCampaignIndex).Result()
}
