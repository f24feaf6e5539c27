package route

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"

	"email-reminder/internal/api/http/handler"
	"email-reminder/internal/api/http/middleware"
	"email-reminder/internal/config"
)

const maxMultipartMemory = 1 << 20

func SetupRouter(
	log *zap.Logger,
	cfg *config.Config,
	renderer render.HTMLRender,
	healthHdl HealthHandler,
	pageHdl PageHandler,
	reminderHdl ReminderHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.HTMLRender = renderer

	// middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestTimeout(cfg.HTTPServer.Timeout.Request))
	router.Use(middleware.CORS(cfg.HTTPServer.CORS))

	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.NoMethod)
	router.NoRoute(handler.NoRoute)

	RegisterPages(&router.RouterGroup, pageHdl)
	RegisterReminders(&router.RouterGroup, reminderHdl)

	healthPath := router.Group("/health")
	RegisterHealth(healthPath, healthHdl)

	return router
}
