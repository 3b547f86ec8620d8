package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lawconnect/internal/models"
	"lawconnect/internal/storage"
)

// ChatRepository 保存每個聊天室只增不改的訊息列表
type ChatRepository interface {
	// AppendMessage 房間不存在時先建立，再把訊息接在列表尾端
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	// FindMessages 依插入順序回傳；房間不存在時回傳空列表
	FindMessages(ctx context.Context, chatRoomID string) ([]models.ChatMessage, error)
	// ClearMessages 清空單一房間的訊息並回傳刪除筆數
	ClearMessages(ctx context.Context, chatRoomID string) (int64, error)
}

type chatRepository struct {
	db *storage.Database
}

func NewChatRepository(db *storage.Database) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 同一個新房間的第一批訊息可能同時抵達，已存在就略過
		room := models.ChatRoom{ID: msg.ChatRoomID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&room).Error; err != nil {
			return err
		}
		return tx.Create(msg).Error
	})
}

func (r *chatRepository) FindMessages(ctx context.Context, chatRoomID string) ([]models.ChatMessage, error) {
	messages := []models.ChatMessage{}
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ?", chatRoomID).
		Order("seq asc").
		Find(&messages).Error
	return messages, err
}

func (r *chatRepository) ClearMessages(ctx context.Context, chatRoomID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("chat_room_id = ?", chatRoomID).
		Delete(&models.ChatMessage{})
	return result.RowsAffected, result.Error
}
