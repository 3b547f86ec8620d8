package models

import (
	"gorm.io/gorm"
)

// User 是身分提供者使用者在本地同步的資料，ExternalID 為 token 的 subject
type User struct {
	gorm.Model
	ExternalID string `gorm:"uniqueIndex;not null" json:"id"`
	Username   string `gorm:"not null" json:"username"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	ImageURL   string `json:"imageUrl"`
}

// Identity 是通過驗證後附加在連線上的使用者身分
type Identity struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	ImageURL  string `json:"imageUrl"`
}

// ApplyProfile 有本地資料時整份覆蓋身分欄位（包含清空的欄位），ID 不變
func (i *Identity) ApplyProfile(u *User) {
	if u == nil {
		return
	}
	i.Username = u.Username
	i.FirstName = u.FirstName
	i.LastName = u.LastName
	i.ImageURL = u.ImageURL
}

// OnlineUser 代表一條在線連線，以 ConnectionID 為鍵
type OnlineUser struct {
	Identity
	ConnectionID string
}
