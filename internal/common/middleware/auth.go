package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"giveaway-bot-backend/internal/common/config"
	"giveaway-bot-backend/internal/common/errors"
)

const ContextUserID = "user_id"

// InitDataAuth validates the Telegram init data passed in the init_data
// header and stores the authenticated user id in the request context.
func InitDataAuth(cfg *config.Config) gin.HandlerFunc {
	expIn := time.Duration(cfg.Telegram.InitDataTTL) * time.Second

	return func(c *gin.Context) {
		initDataQuery := c.GetHeader("init_data")
		if initDataQuery == "" {
			SendError(c, errors.NewUnauthorizedError("missing init data"))
			return
		}

		if err := initdata.Validate(initDataQuery, cfg.Telegram.BotToken, expIn); err != nil {
			SendError(c, errors.NewUnauthorizedError("invalid init data"))
			return
		}

		parsedData, err := initdata.Parse(initDataQuery)
		if err != nil {
			SendError(c, errors.NewUnauthorizedError("malformed init data"))
			return
		}

		c.Set(ContextUserID, parsedData.User.ID)
		c.Next()
	}
}

// AdminOnly rejects authenticated users that are not on the allowlist.
// Must run after InitDataAuth.
func AdminOnly(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			SendError(c, errors.NewUnauthorizedError("not authenticated"))
			return
		}
		if !cfg.IsAdmin(userID.(int64)) {
			SendError(c, errors.NewForbiddenError("admin access required"))
			return
		}
		c.Next()
	}
}
