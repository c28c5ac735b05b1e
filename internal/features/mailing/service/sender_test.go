package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-bot-backend/internal/platform/telegram"
)

// fakeDirect answers each user with a scripted result and records the
// order of attempts.
type fakeDirect struct {
	mu       sync.Mutex
	results  map[int64][]telegram.SendResult
	attempts []int64
}

func (f *fakeDirect) SendDirect(ctx context.Context, userID int64, text string) telegram.SendResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts = append(f.attempts, userID)
	queue := f.results[userID]
	if len(queue) == 0 {
		return telegram.SendResult{Outcome: telegram.OutcomeOK}
	}
	r := queue[0]
	f.results[userID] = queue[1:]
	return r
}

func (f *fakeDirect) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attempts)
}

func noSleep(ctx context.Context, d time.Duration) bool {
	return ctx.Err() == nil
}

func newTestSender(tg DirectSender) *Sender {
	return NewSender(tg, rand.New(rand.NewSource(1))).WithSleep(noSleep)
}

func instantOptions() Options {
	opts := DefaultOptions()
	opts.RandomizeOrder = false
	return opts
}

func TestSendBulkClassifiesOutcomes(t *testing.T) {
	tg := &fakeDirect{results: map[int64][]telegram.SendResult{
		2: {{Outcome: telegram.OutcomeBlocked}},
		3: {{Outcome: telegram.OutcomeFailed, Err: errors.New("bad request")}},
	}}
	s := newTestSender(tg)

	stats := s.SendBulk(context.Background(), []int64{1, 2, 3, 4}, "привет", instantOptions())

	assert.Equal(t, 4, stats.TotalSent)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 1, stats.Blocked)
	assert.Equal(t, 1, stats.OtherErrors)
	assert.Equal(t, 0, stats.Throttled)
	// Каждая попытка попадает ровно в одну терминальную корзину
	assert.Equal(t, stats.TotalSent, stats.Successful+stats.Failed)

	assert.Equal(t, telegram.OutcomeOK, stats.Outcomes[1])
	assert.Equal(t, telegram.OutcomeBlocked, stats.Outcomes[2])
	assert.Equal(t, telegram.OutcomeFailed, stats.Outcomes[3])
	assert.Equal(t, telegram.OutcomeOK, stats.Outcomes[4])
	assert.InDelta(t, 50.0, stats.SuccessRate(), 0.01)
}

func TestSendPersonalizedStopsOnCancel(t *testing.T) {
	tg := &fakeDirect{results: map[int64][]telegram.SendResult{}}
	ctx, cancel := context.WithCancel(context.Background())

	s := NewSender(tg, rand.New(rand.NewSource(1))).WithSleep(func(ctx context.Context, d time.Duration) bool {
		if tg.attemptCount() >= 2 {
			cancel()
		}
		return ctx.Err() == nil
	})

	messages := []Message{
		{UserID: 1, Text: "a"},
		{UserID: 2, Text: "b"},
		{UserID: 3, Text: "c"},
		{UserID: 4, Text: "d"},
	}
	stats := s.SendPersonalized(ctx, messages, instantOptions())

	// Уже начатые отправки завершаются, новые после остановки не стартуют
	assert.Equal(t, 2, stats.TotalSent)
	assert.Equal(t, 2, tg.attemptCount())
	assert.Len(t, stats.Outcomes, 2)
}

func TestRateLimitRetriesThenSucceeds(t *testing.T) {
	tg := &fakeDirect{results: map[int64][]telegram.SendResult{
		1: {
			{Outcome: telegram.OutcomeRateLimited, RetryAfter: time.Second},
			{Outcome: telegram.OutcomeRateLimited, RetryAfter: time.Second},
			{Outcome: telegram.OutcomeOK},
		},
	}}
	s := newTestSender(tg)

	stats := s.SendBulk(context.Background(), []int64{1}, "привет", instantOptions())

	assert.Equal(t, 1, stats.Successful)
	assert.Equal(t, 0, stats.Throttled)
	assert.Equal(t, 3, tg.attemptCount())
}

func TestRateLimitRetriesExhausted(t *testing.T) {
	tg := &fakeDirect{results: map[int64][]telegram.SendResult{
		1: {
			{Outcome: telegram.OutcomeRateLimited},
			{Outcome: telegram.OutcomeRateLimited},
			{Outcome: telegram.OutcomeRateLimited},
			{Outcome: telegram.OutcomeRateLimited},
		},
	}}
	s := newTestSender(tg)

	opts := instantOptions()
	opts.MaxRetries = 3
	stats := s.SendBulk(context.Background(), []int64{1}, "привет", opts)

	assert.Equal(t, 1, stats.TotalSent)
	assert.Equal(t, 1, stats.Throttled)
	assert.Equal(t, 0, stats.Successful)
	// Первая попытка плюс MaxRetries повторов
	assert.Equal(t, 4, tg.attemptCount())
}

func TestProgressCallback(t *testing.T) {
	tg := &fakeDirect{results: map[int64][]telegram.SendResult{}}
	s := newTestSender(tg)

	var reported []int
	opts := instantOptions()
	opts.ProgressEvery = 2
	opts.Progress = func(done, total int, stats DeliveryStats) {
		reported = append(reported, done)
		assert.Equal(t, 5, total)
	}

	s.SendBulk(context.Background(), []int64{1, 2, 3, 4, 5}, "привет", opts)
	assert.Equal(t, []int{2, 4}, reported)
}

func TestNotifyWinnersReturnsPerRecipientOutcomes(t *testing.T) {
	tg := &fakeDirect{results: map[int64][]telegram.SendResult{
		20: {{Outcome: telegram.OutcomeBlocked}},
	}}
	s := newTestSender(tg)

	outcomes := s.NotifyWinners(context.Background(), map[int64]string{
		10: "Вы заняли 1 место",
		20: "Вы заняли 2 место",
	})

	require.Len(t, outcomes, 2)
	assert.Equal(t, telegram.OutcomeOK, outcomes[10])
	assert.Equal(t, telegram.OutcomeBlocked, outcomes[20])
}

func TestEstimateDeliveryTime(t *testing.T) {
	opts := Options{
		DelayMin:   time.Second,
		DelayMax:   3 * time.Second,
		PauseEvery: 50,
		PauseMin:   10 * time.Second,
		PauseMax:   20 * time.Second,
	}

	// 100 отправок по 2с в среднем + две длинные паузы по 15с
	assert.Equal(t, 230*time.Second, EstimateDeliveryTime(100, opts))
	assert.Equal(t, 20*time.Second, EstimateDeliveryTime(10, opts))
	assert.Equal(t, time.Duration(0), EstimateDeliveryTime(0, opts))
}
