package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order status constants
const (
	OrderStatusOpen      = "OPEN"
	OrderStatusClosed    = "CLOSED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusRefunded  = "REFUNDED"
)

// Order is a sales ticket. Lines, discount and tip are mutable only while
// the order is OPEN; closing freezes everything.
type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"business_id"`
	EmployeeID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"employee_id"`
	Status           string          `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	TableOrArea      string          `gorm:"type:varchar(100)" json:"table_or_area"`
	TipAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tip_amount"`
	DiscountID       *uuid.UUID      `gorm:"type:uuid;index" json:"discount_id"`
	DiscountSnapshot string          `gorm:"type:jsonb" json:"discount_snapshot,omitempty"`
	Lines            []OrderLine     `gorm:"foreignKey:OrderID" json:"lines"`
	Payments         []Payment       `gorm:"foreignKey:OrderID" json:"payments"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	ClosedAt         *time.Time      `json:"closed_at"`
}

// IsOpen reports whether the order still accepts mutations.
func (o Order) IsOpen() bool {
	return o.Status == OrderStatusOpen
}

// OrderLine freezes the item name, option name, unit price and tax rate at
// insertion time. Later catalog or tax-rule changes never touch it.
type OrderLine struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	OptionID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"option_id"`
	ItemNameSnapshot   string          `gorm:"type:varchar(255);not null" json:"item_name_snapshot"`
	OptionNameSnapshot string          `gorm:"type:varchar(255);not null" json:"option_name_snapshot"`
	Qty                decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"qty"`
	UnitPriceSnapshot  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price_snapshot"`
	TaxClassSnapshot   string          `gorm:"type:varchar(20);not null" json:"tax_class_snapshot"`
	TaxRateSnapshotPct decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"tax_rate_snapshot_pct"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// Base returns the pre-tax amount: unit price times quantity.
func (l OrderLine) Base() decimal.Decimal {
	return l.UnitPriceSnapshot.Mul(l.Qty)
}

// Tax returns the tax amount on the line's base.
func (l OrderLine) Tax() decimal.Decimal {
	return l.Base().Mul(l.TaxRateSnapshotPct).Div(decimal.NewFromInt(100))
}

// Total returns base plus tax.
func (l OrderLine) Total() decimal.Decimal {
	return l.Base().Add(l.Tax())
}

// AppliedDiscount is the frozen record of a discount applied to an order.
// It is what downstream totals read; the discount row itself may change or
// expire later without affecting orders it was already applied to.
type AppliedDiscount struct {
	Code          string          `json:"code"`
	Type          string          `json:"type"`
	Scope         string          `json:"scope"`
	Value         decimal.Decimal `json:"value"`
	AppliedAmount decimal.Decimal `json:"applied_amount"`
}

// ParseAppliedDiscount parses the order's discount snapshot. A missing or
// malformed snapshot yields (nil, false): the read path degrades to "no
// discount" rather than failing a total computation. Write paths must not
// rely on this leniency.
func (o Order) ParseAppliedDiscount() (*AppliedDiscount, bool) {
	if o.DiscountSnapshot == "" {
		return nil, false
	}
	var snap AppliedDiscount
	if err := json.Unmarshal([]byte(o.DiscountSnapshot), &snap); err != nil {
		return nil, false
	}
	return &snap, true
}
