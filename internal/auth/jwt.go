package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"lawconnect/internal/models"
)

type Claims struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	jwt.StandardClaims
}

// JWTProvider 驗證以 HS256 簽章的 token，subject 即使用者 ID
type JWTProvider struct {
	secret []byte
	issuer string
}

func NewJWTProvider(secret, issuer string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), issuer: issuer}
}

// GenerateToken 簽發一個新的 token，供本地工具與測試使用
func (p *JWTProvider) GenerateToken(identity models.Identity, ttl time.Duration) (string, error) {
	nowTime := time.Now()

	claims := Claims{
		Username:  identity.Username,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		ImageURL:  identity.ImageURL,
		StandardClaims: jwt.StandardClaims{
			Subject:   identity.ID,
			Issuer:    p.issuer,
			ExpiresAt: nowTime.Add(ttl).Unix(),
			IssuedAt:  nowTime.Unix(),
		},
	}

	tokenClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenClaims.SignedString(p.secret)
}

// ParseToken 解析和驗證 token
func (p *JWTProvider) ParseToken(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	tokenClaims, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	claims, ok := tokenClaims.Claims.(*Claims)
	if !ok || !tokenClaims.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}
	if p.issuer != "" && !claims.VerifyIssuer(p.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrUnauthenticated)
	}

	return claims, nil
}

func (p *JWTProvider) Verify(_ context.Context, token string) (*models.Identity, error) {
	claims, err := p.ParseToken(token)
	if err != nil {
		return nil, err
	}

	return &models.Identity{
		ID:        claims.Subject,
		Username:  claims.Username,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		ImageURL:  claims.ImageURL,
	}, nil
}

// ExpiresAt 回傳 token 的到期時間，解析失敗時回傳零值
func (p *JWTProvider) ExpiresAt(token string) time.Time {
	claims, err := p.ParseToken(token)
	if err != nil || claims.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(claims.ExpiresAt, 0)
}
