package service

import (
	"context"
	"fmt"
	"strings"

	"lawconnect/internal/models"
	"lawconnect/internal/repository"
)

// ProfileInput 是使用者可自行同步的個人資料
type ProfileInput struct {
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ImageURL  string `json:"imageUrl"`
}

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// UpdateProfile 以 token 的 subject 為鍵寫入個人資料
func (s *UserService) UpdateProfile(ctx context.Context, identity models.Identity, in ProfileInput) (*models.Identity, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidPayload)
	}

	user := &models.User{
		ExternalID: identity.ID,
		Username:   in.Username,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		ImageURL:   in.ImageURL,
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("save profile of %s: %w", identity.ID, err)
	}

	updated := IdentityFromUser(identity.ID, user)
	return &updated, nil
}
