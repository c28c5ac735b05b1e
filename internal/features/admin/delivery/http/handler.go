package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "giveaway-bot-backend/internal/common/errors"
	"giveaway-bot-backend/internal/common/middleware"
	audiencesvc "giveaway-bot-backend/internal/features/audience/service"
	giveawaymodels "giveaway-bot-backend/internal/features/giveaway/models"
	giveawaysvc "giveaway-bot-backend/internal/features/giveaway/service"
	mailingmodels "giveaway-bot-backend/internal/features/mailing/models"
	mailingsvc "giveaway-bot-backend/internal/features/mailing/service"
	statssvc "giveaway-bot-backend/internal/features/stats/service"
)

type AdminHandler struct {
	lifecycle *giveawaysvc.LifecycleScheduler
	campaigns *mailingsvc.CampaignService
	audience  *audiencesvc.AudienceService
	stats     *statssvc.StatsService
}

func NewAdminHandler(
	lifecycle *giveawaysvc.LifecycleScheduler,
	campaigns *mailingsvc.CampaignService,
	audience *audiencesvc.AudienceService,
	stats *statssvc.StatsService,
) *AdminHandler {
	return &AdminHandler{
		lifecycle: lifecycle,
		campaigns: campaigns,
		audience:  audience,
		stats:     stats,
	}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.POST("", h.createGiveaway)
		giveaways.GET("", h.listActiveGiveaways)
		giveaways.DELETE("/:id", h.cancelGiveaway)
		giveaways.POST("/:id/join", h.joinGiveaway)
		giveaways.POST("/:id/reminders/disable", h.disableReminders)
	}

	campaigns := router.Group("/campaigns")
	{
		campaigns.POST("", h.createCampaign)
		campaigns.GET("", h.listCampaigns)
		campaigns.GET("/:id", h.getCampaign)
		campaigns.POST("/:id/start", h.startCampaign)
		campaigns.POST("/:id/stop", h.stopCampaign)
	}

	router.POST("/channels", h.registerChannel)
	router.POST("/audience/:channel_id/events", h.audienceEvent)
	router.GET("/scheduler/status", h.schedulerStatus)
	router.GET("/stats/:channel_id", h.channelStats)
}

type registerChannelRequest struct {
	ChatID int64 `json:"chat_id" binding:"required" example:"-1001234567890"`
}

// @Summary Зарегистрировать канал
// @Description Запрашивает метаданные чата у Telegram и сохраняет канал; отчеты о завершении уходят текущему администратору
// @Tags channels
// @Accept json
// @Produce json
// @Param request body registerChannelRequest true "Канал"
// @Success 201 {object} giveawaymodels.Channel
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/channels [post]
func (h *AdminHandler) registerChannel(c *gin.Context) {
	var req registerChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	channel, err := h.lifecycle.RegisterChannel(c.Request.Context(), req.ChatID, userID(c))
	if err != nil {
		middleware.SendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, channel)
}

type audienceEventRequest struct {
	UserID    int64  `json:"user_id" binding:"required"`
	Event     string `json:"event" binding:"required" enums:"join,leave,activity"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// @Summary Зафиксировать событие аудитории
// @Description Регистрирует вступление, выход или активность подписчика канала
// @Tags audience
// @Accept json
// @Param channel_id path int true "ID канала"
// @Param request body audienceEventRequest true "Событие"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/audience/{channel_id}/events [post]
func (h *AdminHandler) audienceEvent(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Param("channel_id"), 10, 64)
	if err != nil {
		middleware.SendError(c, apperrors.NewValidationError("channel_id", "must be an integer"))
		return
	}

	var req audienceEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	switch req.Event {
	case "join":
		err = h.audience.RecordJoin(ctx, channelID, req.UserID, req.Username, req.FirstName)
	case "leave":
		err = h.audience.RecordLeave(ctx, channelID, req.UserID)
	case "activity":
		err = h.audience.RecordActivity(ctx, channelID, req.UserID)
	default:
		err = apperrors.NewValidationError("event", "must be one of join, leave, activity")
	}
	if err != nil {
		middleware.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createGiveawayRequest struct {
	Title         string `json:"title" binding:"required" example:"iPhone 15 Pro"`
	Description   string `json:"description" example:"Разыгрываем новый iPhone 15 Pro!"`
	WinnerMessage string `json:"winner_message" example:"Свяжитесь с администратором для получения приза"`
	ChannelID     int64  `json:"channel_id" binding:"required" example:"-1001234567890"`
	EndsAt        int64  `json:"ends_at" binding:"required" example:"1735689600"`
	WinnerPlaces  int    `json:"winner_places" binding:"required" example:"3"`
}

// @Summary Создать новый розыгрыш
// @Description Сохраняет розыгрыш, публикует пост с кнопкой участия и планирует завершение и напоминания
// @Tags giveaways
// @Accept json
// @Produce json
// @Param request body createGiveawayRequest true "Параметры розыгрыша"
// @Success 201 {object} giveawaymodels.Giveaway
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/giveaways [post]
func (h *AdminHandler) createGiveaway(c *gin.Context) {
	var req createGiveawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	giveaway := &giveawaymodels.Giveaway{
		Title:         req.Title,
		Description:   req.Description,
		WinnerMessage: req.WinnerMessage,
		ChannelID:     req.ChannelID,
		EndsAt:        time.Unix(req.EndsAt, 0),
		WinnerPlaces:  req.WinnerPlaces,
		CreatedBy:     userID(c),
	}

	if err := h.lifecycle.CreateGiveaway(c.Request.Context(), giveaway); err != nil {
		middleware.SendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, giveaway)
}

// @Summary Список активных розыгрышей
// @Tags giveaways
// @Produce json
// @Success 200 {array} giveawaymodels.Giveaway
// @Router /admin/giveaways [get]
func (h *AdminHandler) listActiveGiveaways(c *gin.Context) {
	giveaways, err := h.lifecycle.ActiveGiveaways(c.Request.Context())
	if err != nil {
		middleware.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, giveaways)
}

// @Summary Отменить активный розыгрыш
// @Tags giveaways
// @Produce json
// @Param id path string true "ID розыгрыша"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/giveaways/{id} [delete]
func (h *AdminHandler) cancelGiveaway(c *gin.Context) {
	if err := h.lifecycle.CancelGiveaway(c.Request.Context(), c.Param("id")); err != nil {
		middleware.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type joinRequest struct {
	UserID    int64  `json:"user_id" binding:"required"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// @Summary Зарегистрировать участника розыгрыша
// @Tags giveaways
// @Accept json
// @Produce json
// @Param id path string true "ID розыгрыша"
// @Param request body joinRequest true "Данные участника"
// @Success 204
// @Failure 409 {object} middleware.ErrorResponse
// @Router /admin/giveaways/{id}/join [post]
func (h *AdminHandler) joinGiveaway(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	if err := h.lifecycle.Join(c.Request.Context(), c.Param("id"), req.UserID, req.Username, req.FirstName); err != nil {
		middleware.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Отключить напоминания розыгрыша
// @Tags giveaways
// @Param id path string true "ID розыгрыша"
// @Success 204
// @Router /admin/giveaways/{id}/reminders/disable [post]
func (h *AdminHandler) disableReminders(c *gin.Context) {
	h.lifecycle.DisableReminders(c.Param("id"))
	c.Status(http.StatusNoContent)
}

type createCampaignRequest struct {
	ChannelID int64  `json:"channel_id" binding:"required" example:"-1001234567890"`
	Text      string `json:"text" binding:"required" example:"Новый розыгрыш уже в канале!"`
	Audience  string `json:"audience" example:"active_30d" enums:"all,active_30d"`
}

type campaignResponse struct {
	*mailingmodels.Campaign
	EstimateSeconds float64 `json:"estimate_seconds"`
}

// @Summary Создать рассылку
// @Description Создает отложенную рассылку с подсчетом получателей и оценкой длительности
// @Tags campaigns
// @Accept json
// @Produce json
// @Param request body createCampaignRequest true "Параметры рассылки"
// @Success 201 {object} campaignResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/campaigns [post]
func (h *AdminHandler) createCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	audience := mailingmodels.Audience(req.Audience)
	if audience == "" {
		audience = mailingmodels.AudienceAll
	}

	campaign, err := h.campaigns.Create(c.Request.Context(), req.ChannelID, userID(c), req.Text, audience)
	if err != nil {
		middleware.SendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaignResponse{
		Campaign:        campaign,
		EstimateSeconds: h.campaigns.Estimate(campaign).Seconds(),
	})
}

// @Summary Список рассылок
// @Tags campaigns
// @Produce json
// @Success 200 {array} mailingmodels.Campaign
// @Router /admin/campaigns [get]
func (h *AdminHandler) listCampaigns(c *gin.Context) {
	campaigns, err := h.campaigns.List(c.Request.Context())
	if err != nil {
		middleware.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

// @Summary Получить рассылку
// @Tags campaigns
// @Produce json
// @Param id path string true "ID рассылки"
// @Success 200 {object} mailingmodels.Campaign
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/campaigns/{id} [get]
func (h *AdminHandler) getCampaign(c *gin.Context) {
	campaign, err := h.campaigns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// @Summary Запустить рассылку
// @Tags campaigns
// @Param id path string true "ID рассылки"
// @Success 202
// @Failure 409 {object} middleware.ErrorResponse
// @Router /admin/campaigns/{id}/start [post]
func (h *AdminHandler) startCampaign(c *gin.Context) {
	if err := h.campaigns.Start(c.Request.Context(), c.Param("id")); err != nil {
		middleware.SendError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// @Summary Остановить рассылку
// @Tags campaigns
// @Param id path string true "ID рассылки"
// @Success 202
// @Failure 409 {object} middleware.ErrorResponse
// @Router /admin/campaigns/{id}/stop [post]
func (h *AdminHandler) stopCampaign(c *gin.Context) {
	if err := h.campaigns.Stop(c.Param("id")); err != nil {
		middleware.SendError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// @Summary Статус планировщика
// @Description Возвращает количество и список ожидающих заданий
// @Tags scheduler
// @Produce json
// @Success 200 {object} scheduler.Status
// @Router /admin/scheduler/status [get]
func (h *AdminHandler) schedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.lifecycle.Status())
}

// @Summary Статистика по каналу
// @Tags stats
// @Produce json
// @Param channel_id path int true "ID канала"
// @Success 200 {object} statssvc.Report
// @Router /admin/stats/{channel_id} [get]
func (h *AdminHandler) channelStats(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Param("channel_id"), 10, 64)
	if err != nil {
		middleware.SendError(c, apperrors.NewValidationError("channel_id", "must be an integer"))
		return
	}

	report, err := h.stats.Report(c.Request.Context(), channelID)
	if err != nil {
		middleware.SendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": report,
		"text":   report.Render(),
	})
}

func userID(c *gin.Context) int64 {
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
