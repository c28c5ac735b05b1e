package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-bot-backend/internal/features/giveaway/models"
)

func makePool(n int) []*models.Participant {
	pool := make([]*models.Participant, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, &models.Participant{
			GiveawayID: "g1",
			UserID:     int64(100 + i),
			Username:   "user" + string(rune('a'+i)),
		})
	}
	return pool
}

func TestSelectDrawsRequestedPlaces(t *testing.T) {
	sel := NewWinnerSelector(rand.New(rand.NewSource(1)))
	wonAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	winners := sel.Select(makePool(10), 3, wonAt)
	require.Len(t, winners, 3)

	seen := make(map[int64]bool)
	for i, w := range winners {
		assert.Equal(t, i+1, w.Place)
		assert.Equal(t, "g1", w.GiveawayID)
		assert.Equal(t, wonAt, w.WonAt)
		assert.False(t, seen[w.UserID], "duplicate winner %d", w.UserID)
		seen[w.UserID] = true
	}
}

func TestSelectPoolSmallerThanPlaces(t *testing.T) {
	sel := NewWinnerSelector(rand.New(rand.NewSource(1)))

	winners := sel.Select(makePool(2), 5, time.Now())
	require.Len(t, winners, 2)
	assert.Equal(t, 1, winners[0].Place)
	assert.Equal(t, 2, winners[1].Place)
}

func TestSelectEmptyPool(t *testing.T) {
	sel := NewWinnerSelector(rand.New(rand.NewSource(1)))

	assert.Nil(t, sel.Select(nil, 3, time.Now()))
	assert.Nil(t, sel.Select(makePool(3), 0, time.Now()))
}

func TestSelectWinnersComeFromPool(t *testing.T) {
	sel := NewWinnerSelector(rand.New(rand.NewSource(42)))
	pool := makePool(5)

	members := make(map[int64]bool, len(pool))
	for _, p := range pool {
		members[p.UserID] = true
	}

	for i := 0; i < 20; i++ {
		for _, w := range sel.Select(pool, 3, time.Now()) {
			assert.True(t, members[w.UserID])
		}
	}
}

func TestSelectSeededDrawIsReproducible(t *testing.T) {
	pool := makePool(8)
	wonAt := time.Now()

	a := NewWinnerSelector(rand.New(rand.NewSource(7))).Select(pool, 4, wonAt)
	b := NewWinnerSelector(rand.New(rand.NewSource(7))).Select(pool, 4, wonAt)
	assert.Equal(t, a, b)
}
