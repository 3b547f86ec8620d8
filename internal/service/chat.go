package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lawconnect/internal/models"
	"lawconnect/internal/repository"
)

// Emitter 是訊息轉送需要的即時層能力，WebSocketManager 實作它
type Emitter interface {
	EmitToUser(userID, event string, payload any)
	EmitToRoom(room, event string, payload any, exceptConnID string)
}

// ChatService 負責訊息轉送、輸入中提示與聊天紀錄。
// 轉送是「最多一次」：先寫入儲存層，成功後才送到收件者的私人房間；
// 寫入失敗時不送出任何事件，也不回報給發送者。
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	emitter  Emitter
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, emitter Emitter, logger *slog.Logger) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		emitter:  emitter,
		logger:   logger,
		now:      storedNow,
		newID:    uuid.NewString,
	}
}

// storedNow 截到毫秒，各儲存後端都能原樣保存這個精度
func storedNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// SendMessage 寫入訊息後轉送給收件者
func (s *ChatService) SendMessage(ctx context.Context, sender models.Identity, in ChatMessageInput) (*models.ChatMessage, error) {
	if strings.TrimSpace(in.ChatRoomID) == "" {
		return nil, fmt.Errorf("%w: chatRoomId is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(in.ToUserID) == "" {
		return nil, fmt.Errorf("%w: toUserId is required", ErrInvalidPayload)
	}
	if in.Content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidPayload)
	}
	kind, err := models.ParseMessageType(in.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	msg := &models.ChatMessage{
		ID:         s.newID(),
		ChatRoomID: in.ChatRoomID,
		UserID:     sender.ID,
		Content:    in.Content,
		Type:       kind,
		CreatedAt:  s.now(),
	}

	if err := s.chatRepo.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message to room %s: %w", in.ChatRoomID, err)
	}

	s.emitter.EmitToUser(in.ToUserID, EventChatMessage, ToMessagePayload(*msg, sender))
	return msg, nil
}

// Typing 把輸入中狀態轉送給房間內其他連線，不保留任何狀態
func (s *ChatService) Typing(sender models.Identity, connID string, in RoomInput, started bool) error {
	if strings.TrimSpace(in.ChatRoomID) == "" {
		return fmt.Errorf("%w: chatRoomId is required", ErrInvalidPayload)
	}

	event := EventTypingStopped
	if started {
		event = EventTypingIs
	}
	s.emitter.EmitToRoom(ChatRoom(in.ChatRoomID), event, TypingPayload{
		ChatRoomID: in.ChatRoomID,
		User:       ToSenderPayload(sender),
	}, connID)
	return nil
}

// History 依插入順序回傳聊天紀錄，並補上發送者資料
func (s *ChatService) History(ctx context.Context, chatRoomID string) ([]ChatMessagePayload, error) {
	messages, err := s.chatRepo.FindMessages(ctx, chatRoomID)
	if err != nil {
		return nil, fmt.Errorf("load messages of room %s: %w", chatRoomID, err)
	}

	senders := s.lookupSenders(ctx, messages)

	out := make([]ChatMessagePayload, 0, len(messages))
	for _, msg := range messages {
		sender, ok := senders[msg.UserID]
		if !ok {
			sender = models.Identity{ID: msg.UserID}
		}
		out = append(out, ToMessagePayload(msg, sender))
	}
	return out, nil
}

func (s *ChatService) lookupSenders(ctx context.Context, messages []models.ChatMessage) map[string]models.Identity {
	senders := make(map[string]models.Identity)
	if s.userRepo == nil || len(messages) == 0 {
		return senders
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, msg := range messages {
		if _, ok := seen[msg.UserID]; !ok {
			seen[msg.UserID] = struct{}{}
			ids = append(ids, msg.UserID)
		}
	}

	users, err := s.userRepo.FindByExternalIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("sender lookup failed", "error", err)
		return senders
	}
	for i := range users {
		senders[users[i].ExternalID] = IdentityFromUser(users[i].ExternalID, &users[i])
	}
	return senders
}

// ClearHistory 清空單一房間的聊天紀錄
func (s *ChatService) ClearHistory(ctx context.Context, chatRoomID string) (int64, error) {
	n, err := s.chatRepo.ClearMessages(ctx, chatRoomID)
	if err != nil {
		return 0, fmt.Errorf("clear messages of room %s: %w", chatRoomID, err)
	}
	s.logger.Info("chat history cleared", "chat_room_id", chatRoomID, "removed", n)
	return n, nil
}

// RegisterHandlers 把聊天相關事件綁到 WebSocketManager
func (s *ChatService) RegisterHandlers(m *WebSocketManager) {
	m.On(EventChatMessage, func(ctx context.Context, c *Client, data json.RawMessage) error {
		var in ChatMessageInput
		if err := decode(data, &in); err != nil {
			return err
		}
		_, err := s.SendMessage(ctx, c.Identity, in)
		return err
	})

	m.On(EventTypingStart, func(_ context.Context, c *Client, data json.RawMessage) error {
		var in RoomInput
		if err := decode(data, &in); err != nil {
			return err
		}
		return s.Typing(c.Identity, c.ID, in, true)
	})

	m.On(EventTypingStop, func(_ context.Context, c *Client, data json.RawMessage) error {
		var in RoomInput
		if err := decode(data, &in); err != nil {
			return err
		}
		return s.Typing(c.Identity, c.ID, in, false)
	})

	m.On(EventJoinRoom, func(_ context.Context, c *Client, data json.RawMessage) error {
		var in RoomInput
		if err := decode(data, &in); err != nil {
			return err
		}
		if in.ChatRoomID == "" {
			return fmt.Errorf("%w: chatRoomId is required", ErrInvalidPayload)
		}
		m.Join(c, ChatRoom(in.ChatRoomID))
		return nil
	})

	m.On(EventLeaveRoom, func(_ context.Context, c *Client, data json.RawMessage) error {
		var in RoomInput
		if err := decode(data, &in); err != nil {
			return err
		}
		if in.ChatRoomID == "" {
			return fmt.Errorf("%w: chatRoomId is required", ErrInvalidPayload)
		}
		m.Leave(c, ChatRoom(in.ChatRoomID))
		return nil
	})
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
