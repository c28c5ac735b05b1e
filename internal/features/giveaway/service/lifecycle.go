package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apperrors "giveaway-bot-backend/internal/common/errors"
	"giveaway-bot-backend/internal/features/giveaway/models"
	"giveaway-bot-backend/internal/features/giveaway/repository"
	"giveaway-bot-backend/internal/platform/scheduler"
	"giveaway-bot-backend/internal/platform/telegram"
)

const (
	finishJobPrefix = "finish_giveaway_"
	cleanupJobKey   = "cleanup_finished"

	cleanupInterval = 24 * time.Hour
	// Предел времени на одно срабатывание задания
	jobTimeout = 2 * time.Minute
)

// BotAPI is the bot-side messaging surface the lifecycle core consumes.
type BotAPI interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) (int, error)
	GetChatMember(ctx context.Context, chatID, userID int64) (string, error)
	GetChat(ctx context.Context, chatID int64) (*telegram.Chat, error)
}

// WinnerNotifier delivers personalized direct messages to winners and
// reports a typed outcome per recipient. Implemented by the bulk
// delivery engine.
type WinnerNotifier interface {
	NotifyWinners(ctx context.Context, messages map[int64]string) map[int64]telegram.SendOutcome
}

// Config holds the lifecycle tuning knobs.
type Config struct {
	RetentionDays    int
	RemindersEnabled bool
}

// LifecycleScheduler orchestrates the whole giveaway lifecycle: finish
// jobs, the reminder cascade, winner selection, result persistence,
// announcements and the daily retention cleanup. It is the sole owner of
// scheduled jobs and reminder state.
type LifecycleScheduler struct {
	repo        repository.GiveawayRepository
	timer       *scheduler.Service
	bot         BotAPI
	eligibility *EligibilityChecker
	selector    *WinnerSelector
	notifier    WinnerNotifier
	reminders   *ReminderStore
	cfg         Config
	now         func() time.Time
	logger      zerolog.Logger
}

func NewLifecycleScheduler(
	repo repository.GiveawayRepository,
	timer *scheduler.Service,
	bot BotAPI,
	selector *WinnerSelector,
	notifier WinnerNotifier,
	cfg Config,
) *LifecycleScheduler {
	return &LifecycleScheduler{
		repo:        repo,
		timer:       timer,
		bot:         bot,
		eligibility: NewEligibilityChecker(bot),
		selector:    selector,
		notifier:    notifier,
		reminders:   NewReminderStore(),
		cfg:         cfg,
		now:         time.Now,
		logger:      log.With().Str("component", "lifecycle").Logger(),
	}
}

// WithNow overrides the clock, used by tests.
func (s *LifecycleScheduler) WithNow(now func() time.Time) *LifecycleScheduler {
	s.now = now
	return s
}

// Start rebuilds the schedule from persisted active giveaways: future
// end times get a finish job plus the reminder cascade, overdue ones get
// an immediate catch-up finish pass so they are never left stuck active.
// It also registers the daily retention cleanup.
func (s *LifecycleScheduler) Start(ctx context.Context) error {
	giveaways, err := s.repo.GetActiveGiveaways(ctx)
	if err != nil {
		return apperrors.NewDatabaseError("get active giveaways", err)
	}

	overdue := 0
	for _, g := range giveaways {
		if g.EndsAt.After(s.now()) {
			s.ScheduleFinish(g)
			s.ScheduleReminders(g)
			continue
		}
		overdue++
		go func(id string) {
			jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if err := s.RunFinish(jobCtx, id); err != nil {
				s.logger.Error().Str("giveaway_id", id).Err(err).Msg("Не удалось завершить просроченный розыгрыш")
			}
		}(g.ID)
	}

	s.timer.ScheduleEvery(cleanupJobKey, "Очистка завершенных розыгрышей", cleanupInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.runCleanup(jobCtx)
	})

	s.logger.Info().
		Int("scheduled", len(giveaways)-overdue).
		Int("overdue", overdue).
		Msg("Запланированы активные розыгрыши")
	return nil
}

// CreateGiveaway validates and persists a new giveaway, posts the
// participation announcement to the channel and schedules its finish job
// and reminder cascade.
func (s *LifecycleScheduler) CreateGiveaway(ctx context.Context, g *models.Giveaway) error {
	if g.Title == "" {
		return apperrors.NewValidationError("title", "must not be empty")
	}
	if g.WinnerPlaces <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidWinners, "winner places must be positive").
			WithDetail("winner_places", g.WinnerPlaces)
	}
	if !g.EndsAt.After(s.now()) {
		return apperrors.NewValidationError("ends_at", "must be in the future")
	}

	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	g.Status = models.GiveawayStatusActive
	g.CreatedAt = s.now()

	if err := s.repo.Create(ctx, g); err != nil {
		return apperrors.NewDatabaseError("create giveaway", err)
	}

	messageID, err := s.bot.SendMessage(ctx, g.ChannelID, giveawayPostText(g), &telegram.SendOptions{
		Markup: telegram.ParticipateKeyboard(g.ID, 0),
	})
	if err != nil {
		// Розыгрыш уже сохранен и будет завершен по расписанию,
		// отсутствует только пост в канале
		s.logger.Error().Str("giveaway_id", g.ID).Err(err).Msg("Не удалось опубликовать пост розыгрыша")
	} else {
		g.MessageID = messageID
		if err := s.repo.Update(ctx, g); err != nil {
			s.logger.Error().Str("giveaway_id", g.ID).Err(err).Msg("Не удалось сохранить message_id поста")
		}
	}

	s.ScheduleFinish(g)
	s.ScheduleReminders(g)
	return nil
}

// Join opts a user into an active giveaway. Participants are read-only
// afterwards; duplicates are rejected.
func (s *LifecycleScheduler) Join(ctx context.Context, giveawayID string, userID int64, username, firstName string) error {
	g, err := s.repo.GetByID(ctx, giveawayID)
	if err == repository.ErrGiveawayNotFound {
		return apperrors.NewGiveawayNotFoundError(giveawayID)
	}
	if err != nil {
		return apperrors.NewDatabaseError("get giveaway", err)
	}
	if !g.IsActive() || !g.EndsAt.After(s.now()) {
		return apperrors.New(apperrors.ErrCodeGiveawayFinished, "giveaway is not open for participation").
			WithDetail("giveaway_id", giveawayID)
	}

	err = s.repo.AddParticipant(ctx, &models.Participant{
		GiveawayID: giveawayID,
		UserID:     userID,
		Username:   username,
		FirstName:  firstName,
		JoinedAt:   s.now(),
	})
	if err == repository.ErrAlreadyJoined {
		return apperrors.New(apperrors.ErrCodeAlreadyJoined, "user already joined").
			WithDetail("giveaway_id", giveawayID).
			WithDetail("user_id", userID)
	}
	if err != nil {
		return apperrors.NewDatabaseError("add participant", err)
	}
	return nil
}

// ScheduleFinish registers the one-shot finish job. Re-scheduling the
// same giveaway replaces the previous job.
func (s *LifecycleScheduler) ScheduleFinish(g *models.Giveaway) {
	id := g.ID
	s.timer.Schedule(finishJobPrefix+id, "Завершение розыгрыша "+id, g.EndsAt, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := s.RunFinish(jobCtx, id); err != nil {
			s.logger.Error().Str("giveaway_id", id).Err(err).Msg("Завершение розыгрыша не удалось")
		}
	})
}

// ScheduleReminders registers the reminder cascade for every tier whose
// firing time still lies in the future.
func (s *LifecycleScheduler) ScheduleReminders(g *models.Giveaway) {
	if !s.cfg.RemindersEnabled {
		return
	}

	s.reminders.Init(g.ID)
	if !s.reminders.Enabled(g.ID) {
		return
	}

	for _, tier := range reminderTiers {
		fireAt := g.EndsAt.Add(-tier.offset)
		if !fireAt.After(s.now()) {
			// Окно уже прошло - ярус пропускается, не отправляется задним числом
			continue
		}

		id, tierKey := g.ID, tier.key
		s.timer.Schedule(reminderJobKey(tierKey, id), "Напоминание "+tierKey+" для розыгрыша "+id, fireAt, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			s.runReminder(jobCtx, id, tierKey)
		})
	}
}

// DisableReminders turns the cascade off for one giveaway and cancels
// any reminder jobs already scheduled for it.
func (s *LifecycleScheduler) DisableReminders(giveawayID string) {
	s.reminders.Disable(giveawayID)
	for _, tier := range reminderTiers {
		s.timer.Cancel(reminderJobKey(tier.key, giveawayID))
	}
	s.logger.Info().Str("giveaway_id", giveawayID).Msg("Напоминания отключены")
}

// CancelGiveaway cancels an active giveaway: jobs and reminder state go
// first, then the record is marked cancelled, so the finish job can
// never fire against a removed schedule.
func (s *LifecycleScheduler) CancelGiveaway(ctx context.Context, id string) error {
	s.timer.Cancel(finishJobPrefix + id)
	for _, tier := range reminderTiers {
		s.timer.Cancel(reminderJobKey(tier.key, id))
	}
	s.reminders.Drop(id)

	switch err := s.repo.Cancel(ctx, id); err {
	case nil:
		s.logger.Info().Str("giveaway_id", id).Msg("Розыгрыш отменен")
		return nil
	case repository.ErrGiveawayNotFound:
		return apperrors.NewGiveawayNotFoundError(id)
	case repository.ErrNotActive:
		return apperrors.New(apperrors.ErrCodeGiveawayFinished, "giveaway is not active").
			WithDetail("giveaway_id", id)
	default:
		return apperrors.NewDatabaseError("cancel giveaway", err)
	}
}

// RunFinish executes one finish pass: eligibility filtering, winner
// selection, atomic persistence, then best-effort announcements and
// winner notifications. Running it against a non-active giveaway is a
// no-op, which makes double fires harmless.
func (s *LifecycleScheduler) RunFinish(ctx context.Context, id string) error {
	g, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrGiveawayNotFound {
		s.logger.Info().Str("giveaway_id", id).Msg("Розыгрыш удален до завершения")
		return nil
	}
	if err != nil {
		return apperrors.NewDatabaseError("get giveaway", err)
	}
	if !g.IsActive() {
		return nil
	}

	participants, err := s.repo.GetParticipants(ctx, id)
	if err != nil {
		return apperrors.NewDatabaseError("get participants", err)
	}

	eligible := make([]*models.Participant, 0, len(participants))
	for _, p := range participants {
		if s.eligibility.IsEligible(ctx, p.UserID, g.ChannelID) {
			eligible = append(eligible, p)
		}
	}

	finishedAt := s.now()
	winners := s.selector.Select(eligible, g.WinnerPlaces, finishedAt)

	// Статус и список победителей фиксируются одной транзакцией; при
	// ошибке розыгрыш остается активным до следующей попытки
	switch err := s.repo.FinishGiveaway(ctx, id, winners, finishedAt); err {
	case nil:
	case repository.ErrNotActive, repository.ErrGiveawayNotFound:
		s.logger.Info().Str("giveaway_id", id).Msg("Розыгрыш уже завершен параллельно")
		return nil
	default:
		s.logger.Error().Str("giveaway_id", id).Err(err).Msg("Не удалось сохранить итоги розыгрыша")
		return apperrors.NewDatabaseError("finish giveaway", err)
	}

	s.timer.Cancel(finishJobPrefix + id)
	for _, tier := range reminderTiers {
		s.timer.Cancel(reminderJobKey(tier.key, id))
	}
	s.reminders.Drop(id)

	s.logger.Info().
		Str("giveaway_id", id).
		Int("participants", len(participants)).
		Int("eligible", len(eligible)).
		Int("winners", len(winners)).
		Msg("Розыгрыш завершен")

	// Дальше только best-effort: итоги уже зафиксированы и не
	// откатываются из-за ошибок доставки
	s.announceResults(ctx, g, winners)
	return nil
}

func (s *LifecycleScheduler) announceResults(ctx context.Context, g *models.Giveaway, winners []models.Winner) {
	opts := &telegram.SendOptions{ReplyTo: g.MessageID}

	if len(winners) == 0 {
		if _, err := s.bot.SendMessage(ctx, g.ChannelID, noParticipantsText, opts); err != nil {
			s.logger.Error().Str("giveaway_id", g.ID).Err(err).Msg("Ошибка отправки сообщения о завершении без участников")
		}
		s.sendAdminSummary(ctx, g, winners, nil)
		return
	}

	if _, err := s.bot.SendMessage(ctx, g.ChannelID, winnerAnnouncementText(winners), opts); err != nil {
		s.logger.Error().Str("giveaway_id", g.ID).Err(err).Msg("Ошибка отправки сообщения о победителях")
	}

	messages := make(map[int64]string, len(winners))
	for _, w := range winners {
		messages[w.UserID] = winnerDirectText(g, w.Place)
	}
	outcomes := s.notifier.NotifyWinners(ctx, messages)

	delivered := make(map[int64]bool, len(outcomes))
	for userID, outcome := range outcomes {
		delivered[userID] = outcome == telegram.OutcomeOK
	}
	s.sendAdminSummary(ctx, g, winners, delivered)
}

func (s *LifecycleScheduler) sendAdminSummary(ctx context.Context, g *models.Giveaway, winners []models.Winner, delivered map[int64]bool) {
	adminID := g.CreatedBy
	if channel, err := s.repo.GetChannel(ctx, g.ChannelID); err == nil && channel.AdminID != 0 {
		adminID = channel.AdminID
	}
	if adminID == 0 {
		return
	}

	if _, err := s.bot.SendMessage(ctx, adminID, adminSummaryText(g, winners, delivered), nil); err != nil {
		s.logger.Error().Str("giveaway_id", g.ID).Int64("admin_id", adminID).Err(err).
			Msg("Не удалось отправить отчет администратору")
	}
}

func (s *LifecycleScheduler) runReminder(ctx context.Context, id, tier string) {
	if !s.reminders.Enabled(id) || s.reminders.Fired(id, tier) {
		return
	}

	g, err := s.repo.GetByID(ctx, id)
	if err != nil || !g.IsActive() || !g.EndsAt.After(s.now()) {
		return
	}

	count, err := s.repo.GetParticipantsCount(ctx, id)
	if err != nil {
		s.logger.Warn().Str("giveaway_id", id).Err(err).Msg("Не удалось получить число участников")
	}

	label := tier
	for _, t := range reminderTiers {
		if t.key == tier {
			label = t.label
			break
		}
	}

	_, err = s.bot.SendMessage(ctx, g.ChannelID, reminderText(g, label, count), &telegram.SendOptions{
		Markup: telegram.ParticipateKeyboard(g.ID, count),
	})
	if err != nil {
		s.logger.Error().Str("giveaway_id", id).Str("tier", tier).Err(err).Msg("Ошибка при отправке напоминания")
		return
	}

	s.reminders.MarkFired(id, tier)
	s.logger.Info().Str("giveaway_id", id).Str("tier", tier).Msg("Напоминание отправлено")
}

func (s *LifecycleScheduler) runCleanup(ctx context.Context) {
	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	deleted, err := s.repo.DeleteFinishedOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Ошибка очистки завершенных розыгрышей")
		return
	}
	if deleted > 0 {
		s.logger.Info().Int("deleted", deleted).Int("days", s.cfg.RetentionDays).
			Msg("Очищены завершенные розыгрыши")
	}
}

// RegisterChannel resolves chat metadata through the bot and stores the
// channel with its report recipient. Finish summaries go to adminID.
func (s *LifecycleScheduler) RegisterChannel(ctx context.Context, chatID, adminID int64) (*models.Channel, error) {
	chat, err := s.bot.GetChat(ctx, chatID)
	if err != nil {
		return nil, apperrors.NewTelegramAPIError("get chat", err)
	}

	channel := &models.Channel{
		ID:       chat.ID,
		Title:    chat.Title,
		Username: chat.Username,
		AdminID:  adminID,
	}
	if err := s.repo.SaveChannel(ctx, channel); err != nil {
		return nil, apperrors.NewDatabaseError("save channel", err)
	}

	s.logger.Info().Int64("channel_id", chat.ID).Str("title", chat.Title).Msg("Канал зарегистрирован")
	return channel, nil
}

// ActiveGiveaways lists the giveaways still running.
func (s *LifecycleScheduler) ActiveGiveaways(ctx context.Context) ([]*models.Giveaway, error) {
	giveaways, err := s.repo.GetActiveGiveaways(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get active giveaways", err)
	}
	return giveaways, nil
}

// Status exposes the pending job list for observability.
func (s *LifecycleScheduler) Status() scheduler.Status {
	return s.timer.Status()
}

func reminderJobKey(tier, giveawayID string) string {
	return "reminder_" + tier + "_" + giveawayID
}
