package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"lawconnect/internal/auth"
	"lawconnect/internal/middleware"
	"lawconnect/internal/service"
)

// IdentityInvalidator 在個人資料變更後清除該使用者所有 token 的快取身分
type IdentityInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// UserHandler 處理與使用者個人資料相關的請求
type UserHandler struct {
	userService *service.UserService
	invalidator IdentityInvalidator
	logger      *slog.Logger
}

// NewUserHandler invalidator 可以是 nil
func NewUserHandler(userService *service.UserService, invalidator IdentityInvalidator, logger *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, invalidator: invalidator, logger: logger}
}

// GetMe 回傳呼叫者解析後的身分
func (h *UserHandler) GetMe(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrUnauthenticated.Error()})
		return
	}
	c.JSON(http.StatusOK, identity)
}

// UpdateMe 同步呼叫者的個人資料
func (h *UserHandler) UpdateMe(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrUnauthenticated.Error()})
		return
	}

	var input service.ProfileInput
	// 解析並驗證請求體
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.userService.UpdateProfile(c.Request.Context(), identity, input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("update profile failed", "user_id", identity.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新個人資料失敗"})
		return
	}

	if h.invalidator != nil {
		if err := h.invalidator.InvalidateUser(c.Request.Context(), identity.ID); err != nil {
			h.logger.Warn("identity cache invalidation failed", "user_id", identity.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, updated)
}
