package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role constants used in JWT claims and route guards
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// User is an employee account scoped to one business
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessID uuid.UUID      `gorm:"type:uuid;not null;index" json:"business_id"`
	Business   *Business      `gorm:"foreignKey:BusinessID" json:"-"`
	Email      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Password   string         `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, omit from JSON
	Role       string         `gorm:"type:varchar(50);not null" json:"role"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Actor identifies the authenticated caller for every core operation.
// It is built once from JWT claims by the auth middleware and passed
// explicitly; services never read ambient request state.
type Actor struct {
	UserID     uuid.UUID
	BusinessID uuid.UUID
	Role       string
}

// CanManage reports whether the actor may perform administrative
// operations (tax rules, discounts, gift cards, stock adjustments).
func (a Actor) CanManage() bool {
	return a.Role == RoleOwner || a.Role == RoleManager
}
