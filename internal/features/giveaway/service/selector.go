package service

import (
	"math/rand"
	"sync"
	"time"

	"giveaway-bot-backend/internal/features/giveaway/models"
)

// WinnerSelector draws a ranked winner list from the eligible pool.
// The sample is uniform over all n-subsets with no bias from pool
// iteration order; places are assigned by sample production order and
// carry no further ranking meaning.
type WinnerSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewWinnerSelector builds a selector around the given random source.
// Passing a seeded source makes draws reproducible in tests.
func NewWinnerSelector(rng *rand.Rand) *WinnerSelector {
	return &WinnerSelector{rng: rng}
}

// Select samples min(places, len(pool)) distinct participants without
// replacement and assigns dense places starting at 1. An empty result
// means the caller must handle the "no winners" outcome.
func (s *WinnerSelector) Select(pool []*models.Participant, places int, wonAt time.Time) []models.Winner {
	n := places
	if len(pool) < n {
		n = len(pool)
	}
	if n <= 0 {
		return nil
	}

	// Частичный Fisher-Yates: первые n позиций перестановки
	s.mu.Lock()
	idx := s.rng.Perm(len(pool))
	s.mu.Unlock()

	winners := make([]models.Winner, 0, n)
	for place := 1; place <= n; place++ {
		p := pool[idx[place-1]]
		winners = append(winners, models.Winner{
			GiveawayID: p.GiveawayID,
			UserID:     p.UserID,
			Username:   p.Username,
			FirstName:  p.FirstName,
			Place:      place,
			WonAt:      wonAt,
		})
	}
	return winners
}
