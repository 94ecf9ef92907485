package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Business is the tenant root. Every catalog, order, discount, gift card,
// stock and reservation row is scoped by BusinessID.
type Business struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	CountryCode string         `gorm:"type:varchar(2);not null" json:"country_code"` // ISO 3166-1 alpha-2, drives tax resolution
	Currency    string         `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
