package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "giveaway-bot-backend/docs"
	"giveaway-bot-backend/internal/common/config"
	"giveaway-bot-backend/internal/common/logger"
	adminhttp "giveaway-bot-backend/internal/features/admin/delivery/http"
	audienceredis "giveaway-bot-backend/internal/features/audience/repository/redis"
	audiencesvc "giveaway-bot-backend/internal/features/audience/service"
	giveawayredis "giveaway-bot-backend/internal/features/giveaway/repository/redis"
	giveawaysvc "giveaway-bot-backend/internal/features/giveaway/service"
	mailingredis "giveaway-bot-backend/internal/features/mailing/repository/redis"
	mailingsvc "giveaway-bot-backend/internal/features/mailing/service"
	statssvc "giveaway-bot-backend/internal/features/stats/service"
	"giveaway-bot-backend/internal/platform/redis"
	"giveaway-bot-backend/internal/platform/scheduler"
	"giveaway-bot-backend/internal/platform/telegram"
	"giveaway-bot-backend/internal/utils/random"
)

// @title Giveaway Bot Backend API
// @version 1.0
// @description Ops API управления розыгрышами, напоминаниями и рассылками
// @BasePath /api/v1
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger.Init("giveaway-bot-backend", cfg.Debug)

	rdb, err := redis.Open(ctx, fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer rdb.Close()

	tgClient := telegram.NewClient(cfg.Telegram.BotToken)

	giveawayRepo := giveawayredis.NewGiveawayRepository(rdb.Client)
	audienceRepo := audienceredis.NewSubscriberRepository(rdb.Client)
	campaignRepo := mailingredis.NewCampaignRepository(rdb.Client)

	sender := mailingsvc.NewSender(tgClient, random.NewRand())
	deliveryOpts := mailingsvc.Options{
		DelayMin:       time.Duration(cfg.Delivery.DelayMinMs) * time.Millisecond,
		DelayMax:       time.Duration(cfg.Delivery.DelayMaxMs) * time.Millisecond,
		PauseEvery:     cfg.Delivery.PauseEvery,
		PauseMin:       time.Duration(cfg.Delivery.PauseMinMs) * time.Millisecond,
		PauseMax:       time.Duration(cfg.Delivery.PauseMaxMs) * time.Millisecond,
		MaxRetries:     cfg.Delivery.MaxRetries,
		ProgressEvery:  cfg.Delivery.ProgressEvery,
		RandomizeOrder: true,
	}

	timer := scheduler.New()
	lifecycle := giveawaysvc.NewLifecycleScheduler(
		giveawayRepo,
		timer,
		tgClient,
		giveawaysvc.NewWinnerSelector(random.NewRand()),
		sender,
		giveawaysvc.Config{
			RetentionDays:    cfg.Giveaway.RetentionDays,
			RemindersEnabled: cfg.Giveaway.RemindersEnabled,
		},
	)
	if err := lifecycle.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Lifecycle scheduler startup failed")
	}

	audienceService := audiencesvc.NewAudienceService(audienceRepo)
	campaignService := mailingsvc.NewCampaignService(campaignRepo, audienceService, sender, deliveryOpts)
	statsService := statssvc.NewStatsService(giveawayRepo, audienceService, campaignRepo)

	handler := adminhttp.NewAdminHandler(lifecycle, campaignService, audienceService, statsService)
	router := adminhttp.NewRouter(cfg, handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	timer.Shutdown()
	logger.Info().Msg("Server stopped")
}
