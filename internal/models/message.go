package models

import (
	"fmt"
	"strings"
	"time"
)

// MessageType 定義訊息的媒體種類
type MessageType string

const (
	MessageTypeText  MessageType = "TEXT"
	MessageTypeImage MessageType = "IMAGE"
	MessageTypeVideo MessageType = "VIDEO"
	MessageTypeAudio MessageType = "AUDIO"
)

// ParseMessageType 空字串視為 TEXT，大小寫不敏感
func ParseMessageType(s string) (MessageType, error) {
	if s == "" {
		return MessageTypeText, nil
	}
	t := MessageType(strings.ToUpper(s))
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeAudio:
		return t, nil
	}
	return "", fmt.Errorf("unknown message type %q", s)
}

// ChatRoom 只作為訊息列表的鍵，ID 由外部（預約或聊天室）決定
type ChatRoom struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []ChatMessage `gorm:"foreignKey:ChatRoomID"`
}

// ChatMessage 一旦寫入就不再修改；Seq 保存房間內的插入順序
type ChatMessage struct {
	Seq        uint        `gorm:"primaryKey;autoIncrement" json:"-" bson:"-"`
	ID         string      `gorm:"uniqueIndex;not null" json:"id" bson:"_id"`
	ChatRoomID string      `gorm:"index;not null" json:"chatRoomId" bson:"-"`
	UserID     string      `gorm:"not null" json:"userId" bson:"userId"`
	Content    string      `gorm:"type:text" json:"content" bson:"content"`
	Type       MessageType `gorm:"type:varchar(10)" json:"type" bson:"type"`
	CreatedAt  time.Time   `json:"createdAt" bson:"createdAt"`
}
