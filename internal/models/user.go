package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Address     string    `gorm:"uniqueIndex;not null" json:"address"`
	Nickname    string    `json:"nickname"`
	Email       string    `json:"email"`
	Avatar      string    `json:"avatar"`
	Background  string    `json:"background"`
	AgeVerified bool      `gorm:"not null;default:false" json:"age_verified"`
	Nonce       string    `gorm:"not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate генерирует ID на стороне приложения, чтобы не зависеть от gen_random_uuid()
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Листинг и экспорт отдают только эти поля
type UserSummary struct {
	Address   string    `json:"address"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
