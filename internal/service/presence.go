package service

import (
	"sync"

	"lawconnect/internal/models"
)

// PresenceRegistry 保存本行程內所有在線連線，以連線 ID 為鍵。
// 同一使用者的多條連線各自佔一筆；不做跨行程同步。
type PresenceRegistry struct {
	mu    sync.RWMutex
	users map[string]models.OnlineUser
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{users: make(map[string]models.OnlineUser)}
}

// Add 以連線 ID 新增或覆蓋
func (r *PresenceRegistry) Add(user models.OnlineUser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ConnectionID] = user
}

func (r *PresenceRegistry) Remove(connectionID string) (models.OnlineUser, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[connectionID]
	if ok {
		delete(r.users, connectionID)
	}
	return user, ok
}

// List 回傳快照，順序不固定
func (r *PresenceRegistry) List() []models.OnlineUser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.OnlineUser, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users
}

func (r *PresenceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
