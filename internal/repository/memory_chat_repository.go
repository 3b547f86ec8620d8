package repository

import (
	"context"
	"sync"

	"lawconnect/internal/models"
)

type memoryChatRepository struct {
	mu    sync.RWMutex
	rooms map[string][]models.ChatMessage
}

// NewMemoryChatRepository 單機開發用，重啟後訊息即消失
func NewMemoryChatRepository() ChatRepository {
	return &memoryChatRepository{rooms: make(map[string][]models.ChatMessage)}
}

func (r *memoryChatRepository) AppendMessage(_ context.Context, msg *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[msg.ChatRoomID] = append(r.rooms[msg.ChatRoomID], *msg)
	return nil
}

func (r *memoryChatRepository) FindMessages(_ context.Context, chatRoomID string) ([]models.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := make([]models.ChatMessage, len(r.rooms[chatRoomID]))
	copy(messages, r.rooms[chatRoomID])
	return messages, nil
}

func (r *memoryChatRepository) ClearMessages(_ context.Context, chatRoomID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.rooms[chatRoomID]))
	if _, ok := r.rooms[chatRoomID]; ok {
		r.rooms[chatRoomID] = nil
	}
	return n, nil
}
