package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"giveaway-bot-backend/internal/features/giveaway/models"
	"giveaway-bot-backend/internal/features/giveaway/repository"
)

const (
	keyPrefixGiveaway     = "giveaway:"
	keyPrefixParticipants = "giveaway:participants:"
	keyPrefixWinners      = "giveaway:winners:"
	keyPrefixChannel      = "channel:"
	keyActiveGiveaways    = "giveaways:active"
	keyFinishedGiveaways  = "giveaways:finished" // zset scored by finished-at unix
)

type redisRepository struct {
	client *redis.Client
}

func NewGiveawayRepository(client *redis.Client) repository.GiveawayRepository {
	return &redisRepository{client: client}
}

func makeGiveawayKey(id string) string {
	return keyPrefixGiveaway + id
}

func makeParticipantsKey(id string) string {
	return keyPrefixParticipants + id
}

func makeWinnersKey(id string) string {
	return keyPrefixWinners + id
}

func makeChannelKey(chatID int64) string {
	return keyPrefixChannel + strconv.FormatInt(chatID, 10)
}

func (r *redisRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0)
	pipe.SAdd(ctx, keyActiveGiveaways, giveaway.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	var giveaway models.Giveaway
	if err := json.Unmarshal(data, &giveaway); err != nil {
		return nil, err
	}
	return &giveaway, nil
}

func (r *redisRepository) Update(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}
	return r.client.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0).Err()
}

func (r *redisRepository) GetActiveGiveaways(ctx context.Context) ([]*models.Giveaway, error) {
	ids, err := r.client.SMembers(ctx, keyActiveGiveaways).Result()
	if err != nil {
		return nil, err
	}

	giveaways := make([]*models.Giveaway, 0, len(ids))
	for _, id := range ids {
		giveaway, err := r.GetByID(ctx, id)
		if err == repository.ErrGiveawayNotFound {
			// Запись удалена, а индекс остался - чистим на лету
			r.client.SRem(ctx, keyActiveGiveaways, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, giveaway)
	}
	return giveaways, nil
}

func (r *redisRepository) CountActive(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, keyActiveGiveaways).Result()
}

func (r *redisRepository) CountFinished(ctx context.Context) (int64, error) {
	return r.client.ZCard(ctx, keyFinishedGiveaways).Result()
}

func (r *redisRepository) AddParticipant(ctx context.Context, p *models.Participant) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal participant: %w", err)
	}

	added, err := r.client.HSetNX(ctx, makeParticipantsKey(p.GiveawayID), strconv.FormatInt(p.UserID, 10), data).Result()
	if err != nil {
		return err
	}
	if !added {
		return repository.ErrAlreadyJoined
	}
	return nil
}

func (r *redisRepository) GetParticipants(ctx context.Context, giveawayID string) ([]*models.Participant, error) {
	entries, err := r.client.HGetAll(ctx, makeParticipantsKey(giveawayID)).Result()
	if err != nil {
		return nil, err
	}

	participants := make([]*models.Participant, 0, len(entries))
	for _, raw := range entries {
		var p models.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal participant: %w", err)
		}
		participants = append(participants, &p)
	}
	return participants, nil
}

func (r *redisRepository) GetParticipantsCount(ctx context.Context, giveawayID string) (int64, error) {
	return r.client.HLen(ctx, makeParticipantsKey(giveawayID)).Result()
}

func (r *redisRepository) IsParticipant(ctx context.Context, giveawayID string, userID int64) (bool, error) {
	return r.client.HExists(ctx, makeParticipantsKey(giveawayID), strconv.FormatInt(userID, 10)).Result()
}

// FinishGiveaway applies the status change and the winner list in one
// transaction. The giveaway key is watched so a concurrent finish or
// cancellation aborts the write instead of producing duplicate winners.
func (r *redisRepository) FinishGiveaway(ctx context.Context, id string, winners []models.Winner, finishedAt time.Time) error {
	key := makeGiveawayKey(id)

	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return repository.ErrGiveawayNotFound
		}
		if err != nil {
			return err
		}

		var giveaway models.Giveaway
		if err := json.Unmarshal(data, &giveaway); err != nil {
			return err
		}
		if giveaway.Status != models.GiveawayStatusActive {
			return repository.ErrNotActive
		}

		giveaway.Status = models.GiveawayStatusFinished
		giveaway.FinishedAt = finishedAt

		updated, err := json.Marshal(&giveaway)
		if err != nil {
			return err
		}

		winnersData, err := json.Marshal(winners)
		if err != nil {
			return fmt.Errorf("failed to marshal winners: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			pipe.Set(ctx, makeWinnersKey(id), winnersData, 0)
			pipe.SRem(ctx, keyActiveGiveaways, id)
			pipe.ZAdd(ctx, keyFinishedGiveaways, redis.Z{
				Score:  float64(finishedAt.Unix()),
				Member: id,
			})
			return nil
		})
		return err
	}, key)
}

func (r *redisRepository) GetWinners(ctx context.Context, giveawayID string) ([]models.Winner, error) {
	data, err := r.client.Get(ctx, makeWinnersKey(giveawayID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var winners []models.Winner
	if err := json.Unmarshal(data, &winners); err != nil {
		return nil, err
	}
	return winners, nil
}

func (r *redisRepository) Cancel(ctx context.Context, id string) error {
	key := makeGiveawayKey(id)

	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return repository.ErrGiveawayNotFound
		}
		if err != nil {
			return err
		}

		var giveaway models.Giveaway
		if err := json.Unmarshal(data, &giveaway); err != nil {
			return err
		}
		if giveaway.Status != models.GiveawayStatusActive {
			return repository.ErrNotActive
		}

		giveaway.Status = models.GiveawayStatusCancelled

		updated, err := json.Marshal(&giveaway)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			pipe.SRem(ctx, keyActiveGiveaways, id)
			return nil
		})
		return err
	}, key)
}

func (r *redisRepository) DeleteFinishedOlderThan(ctx context.Context, olderThan time.Time) (int, error) {
	cutoff := strconv.FormatInt(olderThan.Unix(), 10)
	ids, err := r.client.ZRangeByScore(ctx, keyFinishedGiveaways, &redis.ZRangeBy{
		Min: "-inf",
		Max: cutoff,
	}).Result()
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, makeGiveawayKey(id))
		pipe.Del(ctx, makeParticipantsKey(id))
		pipe.Del(ctx, makeWinnersKey(id))
		pipe.ZRem(ctx, keyFinishedGiveaways, id)
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, fmt.Errorf("failed to delete giveaway %s: %w", id, err)
		}
	}
	return len(ids), nil
}

func (r *redisRepository) SaveChannel(ctx context.Context, channel *models.Channel) error {
	data, err := json.Marshal(channel)
	if err != nil {
		return fmt.Errorf("failed to marshal channel: %w", err)
	}
	return r.client.Set(ctx, makeChannelKey(channel.ID), data, 0).Err()
}

func (r *redisRepository) GetChannel(ctx context.Context, chatID int64) (*models.Channel, error) {
	data, err := r.client.Get(ctx, makeChannelKey(chatID)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrChannelNotFound
	}
	if err != nil {
		return nil, err
	}

	var channel models.Channel
	if err := json.Unmarshal(data, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}
