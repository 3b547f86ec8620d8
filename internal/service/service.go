package service

import (
	"log/slog"

	"lawconnect/internal/repository"
)

type Services struct {
	User      *UserService
	Chat      *ChatService
	Presence  *PresenceRegistry
	WebSocket *WebSocketManager
}

func NewServices(repos *repository.Repositories, wsConfig WebSocketConfig, logger *slog.Logger) *Services {
	presence := NewPresenceRegistry()
	wsManager := NewWebSocketManager(presence, wsConfig, logger.With("component", "websocket"))

	chatService := NewChatService(repos.Chat, repos.User, wsManager, logger.With("component", "chat"))
	chatService.RegisterHandlers(wsManager)

	return &Services{
		User:      NewUserService(repos.User),
		Chat:      chatService,
		Presence:  presence,
		WebSocket: wsManager,
	}
}
