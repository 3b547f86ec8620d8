package service

import "lawconnect/internal/models"

func ToSenderPayload(identity models.Identity) SenderPayload {
	return SenderPayload{
		ID:       identity.ID,
		Username: identity.Username,
		Avatar:   identity.ImageURL,
	}
}

func ToMessagePayload(msg models.ChatMessage, sender models.Identity) ChatMessagePayload {
	return ChatMessagePayload{
		ID:         msg.ID,
		ChatRoomID: msg.ChatRoomID,
		Content:    msg.Content,
		Type:       msg.Type,
		CreatedAt:  msg.CreatedAt,
		From:       ToSenderPayload(sender),
	}
}

func ToOnlineUserPayload(u models.OnlineUser) OnlineUserPayload {
	return OnlineUserPayload{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageURL:  u.ImageURL,
		SocketID:  u.ConnectionID,
	}
}

// ToOnlineUsersPayload 空列表輸出為 []，不是 null
func ToOnlineUsersPayload(users []models.OnlineUser) []OnlineUserPayload {
	out := make([]OnlineUserPayload, 0, len(users))
	for _, u := range users {
		out = append(out, ToOnlineUserPayload(u))
	}
	return out
}

// IdentityFromUser 將本地使用者資料轉為身分；nil 時只保留 ID
func IdentityFromUser(id string, u *models.User) models.Identity {
	identity := models.Identity{ID: id}
	identity.ApplyProfile(u)
	return identity
}
