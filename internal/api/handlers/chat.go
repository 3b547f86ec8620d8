package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"lawconnect/internal/service"
)

// ChatHandler 處理聊天紀錄與在線名單的請求
type ChatHandler struct {
	chatService *service.ChatService
	presence    *service.PresenceRegistry
	logger      *slog.Logger
}

func NewChatHandler(chatService *service.ChatService, presence *service.PresenceRegistry, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, presence: presence, logger: logger}
}

// GetMessages 依插入順序回傳房間的聊天紀錄
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatRoomID := c.Param("id")

	messages, err := h.chatService.History(c.Request.Context(), chatRoomID)
	if err != nil {
		h.logger.Error("load chat history failed", "chat_room_id", chatRoomID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法取得聊天紀錄"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// ClearMessages 清空房間的聊天紀錄
func (h *ChatHandler) ClearMessages(c *gin.Context) {
	chatRoomID := c.Param("id")

	removed, err := h.chatService.ClearHistory(c.Request.Context(), chatRoomID)
	if err != nil {
		h.logger.Error("clear chat history failed", "chat_room_id", chatRoomID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法清除聊天紀錄"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// OnlineUsers 回傳目前的在線名單
func (h *ChatHandler) OnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, service.ToOnlineUsersPayload(h.presence.List()))
}
