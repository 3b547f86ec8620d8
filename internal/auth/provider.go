// Package auth 驗證連線或請求帶來的 bearer token，並解析出使用者身分。
package auth

import (
	"context"
	"errors"

	"lawconnect/internal/models"
)

// ErrUnauthenticated 對外的錯誤字串固定為 "Authentication error"
var ErrUnauthenticated = errors.New("Authentication error")

// Provider 驗證 token 並回傳使用者身分
type Provider interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// ProviderFunc 讓一般函式滿足 Provider
type ProviderFunc func(ctx context.Context, token string) (*models.Identity, error)

func (f ProviderFunc) Verify(ctx context.Context, token string) (*models.Identity, error) {
	return f(ctx, token)
}
