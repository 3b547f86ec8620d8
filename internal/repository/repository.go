package repository

import (
	"errors"

	"lawconnect/internal/storage"
)

// ErrNotFound 表示查無資料
var ErrNotFound = errors.New("record not found")

type Repositories struct {
	User UserRepository
	Chat ChatRepository
}

// NewRepositories 預設訊息存在 SQL；main 可依設定替換 Chat
func NewRepositories(db *storage.Database) *Repositories {
	return &Repositories{
		User: NewUserRepository(db),
		Chat: NewChatRepository(db),
	}
}
