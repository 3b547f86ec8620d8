package auth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"lawconnect/internal/models"
)

const (
	identityKeyPrefix = "identity:"
	versionKeyPrefix  = "identity-version:"
)

// cacheEntry 帶著寫入當下的使用者版本；版本變了就視為未命中
type cacheEntry struct {
	Identity models.Identity `json:"identity"`
	Version  int64           `json:"version"`
}

// ExpiryFunc 回傳 token 的到期時間；零值表示未知
type ExpiryFunc func(token string) time.Time

// CachedProvider 以 Redis 做 cache-aside，快取已驗證的身分
type CachedProvider struct {
	inner  Provider
	client *redis.Client
	ttl    time.Duration
	expiry ExpiryFunc
	logger *slog.Logger
}

func NewCachedProvider(inner Provider, client *redis.Client, ttl time.Duration, expiry ExpiryFunc, logger *slog.Logger) *CachedProvider {
	return &CachedProvider{inner: inner, client: client, ttl: ttl, expiry: expiry, logger: logger}
}

// versionKey 每個使用者一個計數器，InvalidateUser 時遞增
func versionKey(userID string) string {
	return versionKeyPrefix + userID
}

// CacheKey 只保存 token 的摘要，原始 token 不會寫進 Redis
func CacheKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return identityKeyPrefix + hex.EncodeToString(sum[:])
}

func (p *CachedProvider) Verify(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	key := CacheKey(token)
	if identity, ok := p.lookup(ctx, key); ok {
		return identity, nil
	}

	identity, err := p.inner.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	ttl := p.entryTTL(token)
	if ttl <= 0 {
		return identity, nil
	}

	version, err := p.currentVersion(ctx, identity.ID)
	if err != nil {
		p.logger.Warn("identity cache version read failed", "user_id", identity.ID, "error", err)
		return identity, nil
	}

	data, err := json.Marshal(cacheEntry{Identity: *identity, Version: version})
	if err == nil {
		err = p.client.Set(ctx, key, data, ttl).Err()
	}
	if err != nil {
		p.logger.Warn("identity cache set failed", "error", err)
	}

	return identity, nil
}

// lookup 只有在版本仍是最新時才算命中
func (p *CachedProvider) lookup(ctx context.Context, key string) (*models.Identity, bool) {
	data, err := p.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.logger.Warn("identity cache get failed", "error", err)
		}
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		p.logger.Warn("identity cache entry unreadable", "error", err)
		return nil, false
	}

	version, err := p.currentVersion(ctx, entry.Identity.ID)
	if err != nil {
		p.logger.Warn("identity cache version read failed", "user_id", entry.Identity.ID, "error", err)
		return nil, false
	}
	if version != entry.Version {
		return nil, false
	}
	return &entry.Identity, true
}

func (p *CachedProvider) currentVersion(ctx context.Context, userID string) (int64, error) {
	version, err := p.client.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

// entryTTL 取設定 TTL 與 token 剩餘壽命的較小者
func (p *CachedProvider) entryTTL(token string) time.Duration {
	ttl := p.ttl
	if p.expiry == nil {
		return ttl
	}
	if exp := p.expiry(token); !exp.IsZero() {
		if remaining := time.Until(exp); remaining < ttl {
			ttl = remaining
		}
	}
	return ttl
}

// InvalidateUser 讓該使用者所有 token 的快取同時失效
func (p *CachedProvider) InvalidateUser(ctx context.Context, userID string) error {
	return p.client.Incr(ctx, versionKey(userID)).Err()
}
