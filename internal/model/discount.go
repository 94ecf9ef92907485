package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount type, scope and status constants
const (
	DiscountTypePercent = "PERCENT"
	DiscountTypeAmount  = "AMOUNT"

	DiscountScopeOrder = "ORDER"
	DiscountScopeLine  = "LINE"

	DiscountStatusActive   = "ACTIVE"
	DiscountStatusInactive = "INACTIVE"
)

// Discount is a code-redeemable reduction, either order-wide or limited to
// eligible catalog items (LINE scope).
type Discount struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessID  uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_discounts_code" json:"business_id"`
	Code        string                `gorm:"type:varchar(100);not null;uniqueIndex:idx_discounts_code" json:"code"`
	Type        string                `gorm:"type:varchar(20);not null" json:"type"`  // PERCENT, AMOUNT
	Scope       string                `gorm:"type:varchar(20);not null" json:"scope"` // ORDER, LINE
	Value       decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"value"`
	StartsAt    time.Time             `gorm:"not null" json:"starts_at"`
	EndsAt      *time.Time            `json:"ends_at"` // nil = unbounded
	Status      string                `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	Eligibility []DiscountEligibility `gorm:"foreignKey:DiscountID" json:"eligibility"`
	CreatedAt   time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

// Redeemable reports whether the discount is active and inside its window.
func (d Discount) Redeemable(at time.Time) bool {
	if d.Status != DiscountStatusActive || d.StartsAt.After(at) {
		return false
	}
	return d.EndsAt == nil || !d.EndsAt.Before(at)
}

// DiscountEligibility names one catalog item qualifying for a LINE-scope
// discount.
type DiscountEligibility struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DiscountID    uuid.UUID `gorm:"type:uuid;not null;index" json:"discount_id"`
	CatalogItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"catalog_item_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
