package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"

	"giveaway-bot-backend/internal/common/config"
	"giveaway-bot-backend/internal/common/middleware"
)

// NewRouter wires the ops API: health probes are public, everything
// under /api/v1/admin requires Telegram init-data auth plus the admin
// allowlist.
func NewRouter(cfg *config.Config, handler *AdminHandler) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.Server.Origin},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "init_data", "X-Request-ID"},
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))

	api := router.Group("/api/v1")
	admin := api.Group("/admin", middleware.InitDataAuth(cfg), middleware.AdminOnly(cfg))
	handler.RegisterRoutes(admin)

	return router
}
