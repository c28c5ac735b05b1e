package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"giveaway-bot-backend/internal/platform/telegram"
)

// DirectSender is the user-direct messaging surface the engine consumes.
type DirectSender interface {
	SendDirect(ctx context.Context, userID int64, text string) telegram.SendResult
}

// DeliveryStats accumulates aggregate numbers during a bulk send.
// Every attempted send lands in exactly one terminal bucket, so
// Successful + Failed == TotalSent always holds.
type DeliveryStats struct {
	TotalSent   int
	Successful  int
	Failed      int
	Blocked     int
	Throttled   int
	OtherErrors int
	StartedAt   time.Time
	FinishedAt  time.Time
	// Outcomes holds the terminal classification per recipient.
	Outcomes map[int64]telegram.SendOutcome
}

// Duration returns the wall-clock time the send took.
func (s *DeliveryStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// SuccessRate returns the percentage of successful sends.
func (s *DeliveryStats) SuccessRate() float64 {
	if s.TotalSent == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.TotalSent) * 100
}

// Options tunes one bulk send.
type Options struct {
	// Случайная задержка между отправками
	DelayMin time.Duration
	DelayMax time.Duration
	// Каждые PauseEvery сообщений - дополнительная пауза PauseMin..PauseMax
	PauseEvery int
	PauseMin   time.Duration
	PauseMax   time.Duration
	// Сколько раз повторять отправку при rate limit
	MaxRetries int
	// Прогресс сообщается каждые ProgressEvery отправок
	ProgressEvery int
	Progress      func(done, total int, stats DeliveryStats)
	// Перемешивание получателей включено по умолчанию через DefaultOptions
	RandomizeOrder bool
}

// DefaultOptions mirrors the production tuning: 1-3s between sends, an
// extra 10-20s pause every 50 messages, 3 retries on rate limits.
func DefaultOptions() Options {
	return Options{
		DelayMin:       time.Second,
		DelayMax:       3 * time.Second,
		PauseEvery:     50,
		PauseMin:       10 * time.Second,
		PauseMax:       20 * time.Second,
		MaxRetries:     3,
		ProgressEvery:  10,
		RandomizeOrder: true,
	}
}

// Message is one personalized direct send.
type Message struct {
	UserID int64
	Text   string
}

// Sender is the bulk delivery engine: randomized inter-send delays,
// periodic extended pauses, bounded rate-limit backoff and per-recipient
// outcome classification. Cancellation is cooperative through the
// context and is checked before each send; a send already in flight
// completes before the stop is honored.
type Sender struct {
	tg     DirectSender
	mu     sync.Mutex
	rng    *rand.Rand
	sleep  func(ctx context.Context, d time.Duration) bool
	logger zerolog.Logger
}

func NewSender(tg DirectSender, rng *rand.Rand) *Sender {
	return &Sender{
		tg:     tg,
		rng:    rng,
		sleep:  sleepCtx,
		logger: log.With().Str("component", "delivery").Logger(),
	}
}

// WithSleep overrides the suspension seam, used by tests to run without
// real timers.
func (s *Sender) WithSleep(sleep func(ctx context.Context, d time.Duration) bool) *Sender {
	s.sleep = sleep
	return s
}

// SendBulk delivers the same text to every recipient.
func (s *Sender) SendBulk(ctx context.Context, userIDs []int64, text string, opts Options) *DeliveryStats {
	messages := make([]Message, 0, len(userIDs))
	for _, id := range userIDs {
		messages = append(messages, Message{UserID: id, Text: text})
	}
	return s.SendPersonalized(ctx, messages, opts)
}

// SendPersonalized delivers a per-recipient text to every recipient.
// It returns the statistics accumulated so far when the context is
// cancelled; already-attempted sends are never retried after a stop.
func (s *Sender) SendPersonalized(ctx context.Context, messages []Message, opts Options) *DeliveryStats {
	stats := &DeliveryStats{
		StartedAt: time.Now(),
		Outcomes:  make(map[int64]telegram.SendOutcome, len(messages)),
	}

	if opts.RandomizeOrder {
		messages = append([]Message(nil), messages...)
		s.mu.Lock()
		s.rng.Shuffle(len(messages), func(i, j int) {
			messages[i], messages[j] = messages[j], messages[i]
		})
		s.mu.Unlock()
	}

	s.logger.Info().Int("recipients", len(messages)).Msg("Начинаем массовую рассылку")

	for i, msg := range messages {
		if ctx.Err() != nil {
			s.logger.Info().
				Int("done", i).
				Int("total", len(messages)).
				Msg("Рассылка остановлена")
			break
		}

		stats.TotalSent++
		outcome := s.sendWithRetry(ctx, msg.UserID, msg.Text, opts)
		stats.Outcomes[msg.UserID] = outcome

		switch outcome {
		case telegram.OutcomeOK:
			stats.Successful++
		case telegram.OutcomeBlocked:
			stats.Failed++
			stats.Blocked++
		case telegram.OutcomeRateLimited:
			stats.Failed++
			stats.Throttled++
		default:
			stats.Failed++
			stats.OtherErrors++
		}

		if opts.Progress != nil && opts.ProgressEvery > 0 && (i+1)%opts.ProgressEvery == 0 {
			opts.Progress(i+1, len(messages), *stats)
		}

		if i+1 < len(messages) {
			if !s.sleep(ctx, s.randBetween(opts.DelayMin, opts.DelayMax)) {
				continue // контекст отменен, цикл завершится на следующей проверке
			}
			if opts.PauseEvery > 0 && (i+1)%opts.PauseEvery == 0 {
				extra := s.randBetween(opts.PauseMin, opts.PauseMax)
				s.logger.Debug().Dur("pause", extra).Int("sent", i+1).Msg("Дополнительная пауза")
				s.sleep(ctx, extra)
			}
		}
	}

	stats.FinishedAt = time.Now()
	s.logger.Info().
		Int("successful", stats.Successful).
		Int("total", stats.TotalSent).
		Msg("Рассылка завершена")
	return stats
}

// NotifyWinners adapts the engine to the lifecycle scheduler: one
// personalized message per winner, default tuning, typed outcome per
// recipient.
func (s *Sender) NotifyWinners(ctx context.Context, messages map[int64]string) map[int64]telegram.SendOutcome {
	list := make([]Message, 0, len(messages))
	for userID, text := range messages {
		list = append(list, Message{UserID: userID, Text: text})
	}
	stats := s.SendPersonalized(ctx, list, DefaultOptions())
	return stats.Outcomes
}

// EstimateDeliveryTime gives a pre-flight duration estimate: recipient
// count times the average delay plus the amortized extended pauses.
func EstimateDeliveryTime(count int, opts Options) time.Duration {
	avgDelay := (opts.DelayMin + opts.DelayMax) / 2
	estimate := time.Duration(count) * avgDelay
	if opts.PauseEvery > 0 {
		avgPause := (opts.PauseMin + opts.PauseMax) / 2
		estimate += time.Duration(count/opts.PauseEvery) * avgPause
	}
	return estimate
}

func (s *Sender) sendWithRetry(ctx context.Context, userID int64, text string, opts Options) telegram.SendOutcome {
	for attempt := 0; ; attempt++ {
		result := s.tg.SendDirect(ctx, userID, text)

		if result.Outcome != telegram.OutcomeRateLimited {
			if result.Outcome == telegram.OutcomeFailed {
				s.logger.Warn().Int64("user_id", userID).Err(result.Err).Msg("Не удалось отправить сообщение")
			}
			return result.Outcome
		}

		if attempt >= opts.MaxRetries {
			s.logger.Warn().
				Int64("user_id", userID).
				Int("retries", attempt).
				Msg("Лимит повторов при rate limit исчерпан")
			return telegram.OutcomeRateLimited
		}

		wait := result.RetryAfter
		if wait <= 0 {
			wait = 30 * time.Second
		}
		s.logger.Debug().Int64("user_id", userID).Dur("wait", wait).Msg("Rate limit, ждем повторную отправку")
		if !s.sleep(ctx, wait) {
			return telegram.OutcomeRateLimited
		}
	}
}

func (s *Sender) randBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + time.Duration(s.rng.Int63n(int64(max-min)))
}

// sleepCtx waits for the duration unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
