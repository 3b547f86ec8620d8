package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"lawconnect/internal/api/handlers"
	"lawconnect/internal/auth"
	"lawconnect/internal/middleware"
	"lawconnect/internal/service"
	"lawconnect/pkg/config"
)

// SetupRoutes 掛上所有路由；invalidator 可以是 nil（未啟用身分快取）
func SetupRoutes(r *gin.Engine, services *service.Services, provider auth.Provider, invalidator handlers.IdentityInvalidator, cfg config.ServerConfig, logger *slog.Logger) {
	// 初始化 handlers
	userHandler := handlers.NewUserHandler(services.User, invalidator, logger.With("handler", "user"))
	chatHandler := handlers.NewChatHandler(services.Chat, services.Presence, logger.With("handler", "chat"))
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket, cfg.AllowedOrigins, logger.With("handler", "websocket"))

	requireAuth := middleware.AuthMiddleware(provider)

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// WebSocket 連接點，驗證在升級之前完成
	r.GET("/ws", requireAuth, wsHandler.HandleWebSocket)

	// API 路由群組
	api := r.Group("/api")

	// 公開路由
	{
		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
				"online": services.Presence.Count(),
			})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(requireAuth)
	{
		authorized.GET("/me", userHandler.GetMe)
		authorized.PUT("/me", userHandler.UpdateMe)

		authorized.GET("/online-users", chatHandler.OnlineUsers)

		// 聊天室成員資格由上層的聊天室服務管理，這裡只要求呼叫者通過驗證
		chatRooms := authorized.Group("/chat-rooms")
		{
			chatRooms.GET("/:id/messages", chatHandler.GetMessages)
			chatRooms.DELETE("/:id/messages", chatHandler.ClearMessages)
		}
	}
}
