package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lawconnect/internal/models"
	"lawconnect/internal/storage"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindByExternalIDs(ctx context.Context, externalIDs []string) ([]models.User, error)
}

type userRepository struct {
	db *storage.Database
}

func NewUserRepository(db *storage.Database) UserRepository {
	return &userRepository{db: db}
}

// Upsert 以 external_id 為衝突鍵，存在時更新個人資料欄位
func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "image_url", "updated_at"}),
	}).Create(user).Error
}

func (r *userRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByExternalIDs(ctx context.Context, externalIDs []string) ([]models.User, error) {
	var users []models.User
	if len(externalIDs) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("external_id IN ?", externalIDs).Find(&users).Error
	return users, err
}
