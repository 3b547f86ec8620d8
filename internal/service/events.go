package service

import (
	"encoding/json"
	"errors"
	"time"

	"lawconnect/internal/models"
)

// 客戶端送往伺服器的事件
const (
	EventChatMessage = "chat-message"
	EventTypingStart = "typing-start"
	EventTypingStop  = "typing-stop"
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
)

// 伺服器送往客戶端的事件（chat-message 兩個方向共用）
const (
	EventOnlineUsers   = "online-users"
	EventTypingIs      = "typing-is"
	EventTypingStopped = "typing-stopped"
	EventError         = "error"
)

// ErrInvalidPayload 表示事件內容缺欄位或格式錯誤，會以 error 事件回覆發送者
var ErrInvalidPayload = errors.New("invalid payload")

// Envelope 是每個 websocket frame 的外層格式
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ChatMessageInput struct {
	ChatRoomID string `json:"chatRoomId"`
	ToUserID   string `json:"toUserId"`
	Content    string `json:"content"`
	Type       string `json:"type,omitempty"`
}

type RoomInput struct {
	ChatRoomID string `json:"chatRoomId"`
}

type SenderPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type ChatMessagePayload struct {
	ID         string             `json:"id"`
	ChatRoomID string             `json:"chatRoomId"`
	Content    string             `json:"content"`
	Type       models.MessageType `json:"type"`
	CreatedAt  time.Time          `json:"createdAt"`
	From       SenderPayload      `json:"from"`
}

type TypingPayload struct {
	ChatRoomID string        `json:"chatRoomId"`
	User       SenderPayload `json:"user"`
}

type OnlineUserPayload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	ImageURL  string `json:"imageUrl"`
	SocketID  string `json:"socketId"`
}

type ErrorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}
