package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lawconnect/internal/auth"
	"lawconnect/internal/models"
)

// 上下文鍵
const (
	IdentityKey = "identity"
	TokenKey    = "token"
)

// AuthMiddleware 是一個 Gin 中間件，用 provider 驗證請求帶來的 token
func AuthMiddleware(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c.Request)

		identity, err := provider.Verify(c.Request.Context(), token)
		if err != nil {
			// 不論原因，對外只有一種錯誤字串
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrUnauthenticated.Error()})
			return
		}

		// 將身分設置到上下文中
		c.Set(IdentityKey, *identity)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// TokenFromRequest 優先讀取 Authorization: Bearer，瀏覽器握手時改用 token 查詢參數
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// IdentityFrom 取出 AuthMiddleware 附加的身分
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}
