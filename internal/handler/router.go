package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/COROTANjayson/readify/internal/middleware"
	"github.com/COROTANjayson/readify/internal/ratelimit"
)

const keepAliveKey = "cron-keep-alive"

type RouterDeps struct {
	Files         *FileHandler
	Tools         *ToolHandler
	Presentations *PresentationHandler
	Health        *HealthHandler
	Limiter       ratelimit.Limiter
	JWTSecret     []byte
	JWTIssuer     string
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/cron/keep-alive", middleware.RateLimit(deps.Limiter, middleware.FixedKey(keepAliveKey)), deps.Health.KeepAlive)
	api.GET("/metrics", deps.Health.Metrics)

	authGroup := api.Group("")
	authGroup.Use(
		middleware.JWTAuth(deps.JWTSecret, deps.JWTIssuer),
		middleware.RateLimit(deps.Limiter, middleware.KeyByUser),
	)

	authGroup.POST("/files/upload", deps.Files.Upload)
	authGroup.GET("/files", deps.Files.List)
	authGroup.GET("/files/:id", deps.Files.Get)
	authGroup.GET("/files/:id/status", deps.Files.Status)
	authGroup.DELETE("/files/:id", deps.Files.Delete)
	authGroup.GET("/files/:id/messages", deps.Files.Messages)
	authGroup.GET("/files/:id/summary", deps.Files.Summary)
	authGroup.GET("/files/:id/insight", deps.Files.Insight)
	authGroup.GET("/files/:id/presentation", deps.Files.Presentation)
	authGroup.GET("/files/:id/download/presentation", deps.Presentations.Download)

	authGroup.POST("/tools/summary", deps.Tools.Summary)
	authGroup.POST("/tools/insight", deps.Tools.Insight)
	authGroup.POST("/tools/presentation", deps.Tools.Presentation)
	authGroup.POST("/tools/message", deps.Tools.Message)

	authGroup.GET("/presentations", deps.Presentations.List)
	authGroup.DELETE("/presentations/:id", deps.Presentations.Delete)
}
