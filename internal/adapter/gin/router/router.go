package router

import (
	"tcp-user-service/internal/adapter/gin/handler"
	"tcp-user-service/internal/adapter/gin/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter configures the ops router with probe routes and middleware
func SetupRouter(health *handler.HealthHandler, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)

	return router
}
