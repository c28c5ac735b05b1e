package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"giveaway-bot-backend/internal/features/audience/models"
	"giveaway-bot-backend/internal/features/audience/repository"
)

const keyPrefixAudience = "audience:"

type redisRepository struct {
	client *redis.Client
}

func NewSubscriberRepository(client *redis.Client) repository.SubscriberRepository {
	return &redisRepository{client: client}
}

func makeAudienceKey(channelID int64) string {
	return keyPrefixAudience + strconv.FormatInt(channelID, 10)
}

func (r *redisRepository) Upsert(ctx context.Context, subscriber *models.Subscriber) error {
	data, err := json.Marshal(subscriber)
	if err != nil {
		return fmt.Errorf("failed to marshal subscriber: %w", err)
	}
	return r.client.HSet(ctx, makeAudienceKey(subscriber.ChannelID),
		strconv.FormatInt(subscriber.UserID, 10), data).Err()
}

func (r *redisRepository) GetByID(ctx context.Context, channelID, userID int64) (*models.Subscriber, error) {
	data, err := r.client.HGet(ctx, makeAudienceKey(channelID), strconv.FormatInt(userID, 10)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrSubscriberNotFound
	}
	if err != nil {
		return nil, err
	}

	var subscriber models.Subscriber
	if err := json.Unmarshal(data, &subscriber); err != nil {
		return nil, err
	}
	return &subscriber, nil
}

func (r *redisRepository) MarkLeft(ctx context.Context, channelID, userID int64, leftAt time.Time) error {
	subscriber, err := r.GetByID(ctx, channelID, userID)
	if err != nil {
		return err
	}
	subscriber.LeftAt = leftAt
	return r.Upsert(ctx, subscriber)
}

func (r *redisRepository) Touch(ctx context.Context, channelID, userID int64, activityAt time.Time) error {
	subscriber, err := r.GetByID(ctx, channelID, userID)
	if err != nil {
		return err
	}
	subscriber.LastActivityAt = activityAt
	return r.Upsert(ctx, subscriber)
}

func (r *redisRepository) Count(ctx context.Context, channelID int64) (int64, error) {
	subscribers, err := r.all(ctx, channelID)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, s := range subscribers {
		if s.IsSubscribed() {
			count++
		}
	}
	return count, nil
}

func (r *redisRepository) CountActiveSince(ctx context.Context, channelID int64, since time.Time) (int64, error) {
	ids, err := r.Recipients(ctx, channelID, since)
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (r *redisRepository) Recipients(ctx context.Context, channelID int64, since time.Time) ([]int64, error) {
	subscribers, err := r.all(ctx, channelID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(subscribers))
	for _, s := range subscribers {
		if !s.IsSubscribed() {
			continue
		}
		if !since.IsZero() && s.LastActivityAt.Before(since) {
			continue
		}
		ids = append(ids, s.UserID)
	}
	return ids, nil
}

func (r *redisRepository) all(ctx context.Context, channelID int64) ([]*models.Subscriber, error) {
	entries, err := r.client.HGetAll(ctx, makeAudienceKey(channelID)).Result()
	if err != nil {
		return nil, err
	}

	subscribers := make([]*models.Subscriber, 0, len(entries))
	for _, raw := range entries {
		var s models.Subscriber
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subscriber: %w", err)
		}
		subscribers = append(subscribers, &s)
	}
	return subscribers, nil
}
