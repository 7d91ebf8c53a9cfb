package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/pkg/response"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Keys      *APIKeyHandler
	Documents *DocumentHandler
	Chat      *ChatHandler
	Files     *FileHandler
	JWTSecret []byte
	RateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/verify", deps.Auth.Verify)
	api.POST("/auth/login", deps.Auth.Login)

	// Management surface, authenticated by user JWT.
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/keys", deps.Keys.Create)
	authGroup.GET("/keys", deps.Keys.List)
	authGroup.PUT("/keys/:key/instructions", deps.Keys.UpdateInstructions)
	authGroup.PUT("/keys/:key/limit", deps.Keys.UpdateTokenLimit)
	authGroup.DELETE("/keys/:key", deps.Keys.Delete)
	authGroup.GET("/chats", deps.Chat.History)

	// Tenant surface, authenticated by the api key itself. The expensive
	// routes sit behind the rate limiter.
	limited := api.Group("")
	limited.Use(middleware.RateLimit(deps.RateLimit))
	limited.POST("/documents/upload", deps.Documents.Upload)
	limited.POST("/webhook/file-upload", deps.Documents.Webhook)
	limited.GET("/ask", deps.Chat.Ask)
	limited.POST("/chat", deps.Chat.Chat)

	api.GET("/documents", deps.Documents.List)
	api.DELETE("/documents/:id", deps.Documents.Delete)
	api.GET("/files/:key", deps.Files.Get)
}
