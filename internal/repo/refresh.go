package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/warrantyhub/warranty-system/internal/models"
)

func (r *GormRepo) RefreshTokenByUser(ctx context.Context, userID uint) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// RefreshTokenByValue looks a record up by the opaque token value itself,
// which is stored verbatim.
func (r *GormRepo) RefreshTokenByValue(ctx context.Context, value string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", value).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *GormRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(token).Error
}

// SaveRefreshToken overwrites an existing record. Rotation keeps the row id
// stable, so a user never accumulates a second live token.
func (r *GormRepo) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Save(token).Error
}

func (r *GormRepo) DeleteRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Delete(&models.RefreshToken{}, token.ID).Error
}
