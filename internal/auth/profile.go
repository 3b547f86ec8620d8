package auth

import (
	"context"
	"errors"
	"log/slog"

	"lawconnect/internal/models"
	"lawconnect/internal/repository"
)

// UserFinder 是 ProfileProvider 需要的最小查詢介面
type UserFinder interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

// ProfileProvider 先交給內層驗證，再以本地同步的個人資料補齊身分
type ProfileProvider struct {
	inner  Provider
	users  UserFinder
	logger *slog.Logger
}

func NewProfileProvider(inner Provider, users UserFinder, logger *slog.Logger) *ProfileProvider {
	return &ProfileProvider{inner: inner, users: users, logger: logger}
}

func (p *ProfileProvider) Verify(ctx context.Context, token string) (*models.Identity, error) {
	identity, err := p.inner.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := p.users.FindByExternalID(ctx, identity.ID)
	switch {
	case err == nil:
		identity.ApplyProfile(user)
	case errors.Is(err, repository.ErrNotFound):
	default:
		// 查詢失敗不影響驗證結果，沿用 token 內的資料
		p.logger.Warn("profile lookup failed", "user_id", identity.ID, "error", err)
	}

	return identity, nil
}
