package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/thereayou/wallet-profile/internal/models"
	"gorm.io/gorm"
)

// Колонки, которые разрешено менять через профиль
var mutableColumns = map[string]struct{}{
	"nickname":   {},
	"email":      {},
	"avatar":     {},
	"background": {},
}

func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAddress
		}
		return err
	}
	return nil
}

func (d *Database) GetUserByAddress(ctx context.Context, address string) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).Where("address = ?", address).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers возвращает всех пользователей в порядке регистрации
func (d *Database) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Select("address", "nickname", "email", "created_at").
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserFields применяет только разрешённые колонки и возвращает свежую запись
func (d *Database) UpdateUserFields(ctx context.Context, address string, fields map[string]interface{}) (*models.User, error) {
	allowed := make(map[string]interface{}, len(fields))
	for column, value := range fields {
		if _, ok := mutableColumns[column]; ok {
			allowed[column] = value
		}
	}
	if len(allowed) == 0 {
		return d.GetUserByAddress(ctx, address)
	}

	res := d.db.WithContext(ctx).Model(&models.User{}).Where("address = ?", address).Updates(allowed)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	return d.GetUserByAddress(ctx, address)
}

func (d *Database) SetAgeVerified(ctx context.Context, address string) (*models.User, error) {
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("address = ?", address).Update("age_verified", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return d.GetUserByAddress(ctx, address)
}

// RotateNonce меняет nonce после успешного входа, подпись нельзя переиспользовать
func (d *Database) RotateNonce(ctx context.Context, address string) error {
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("address = ?", address).Update("nonce", uuid.NewString())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
