package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment method constants
const (
	PaymentMethodCash       = "CASH"
	PaymentMethodCardDebit  = "CARD_DEBIT"
	PaymentMethodCardCredit = "CARD_CREDIT"
	PaymentMethodGiftCard   = "GIFT_CARD"
)

// Payment is an append-only ledger row against an order. A refund is a new
// row with a negative amount, never a mutation of an earlier one.
type Payment struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // negative = refund
	Currency          string          `gorm:"type:varchar(3);not null" json:"currency"`
	Method            string          `gorm:"type:varchar(20);not null" json:"method"`
	TipPortion        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tip_portion"`
	GiftCardID        *uuid.UUID      `gorm:"type:uuid;index" json:"gift_card_id"`
	ExternalReference *string         `gorm:"type:varchar(255)" json:"external_reference"`
	Notes             string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// GiftCard status constants
const (
	GiftCardStatusActive  = "ACTIVE"
	GiftCardStatusBlocked = "BLOCKED"
	GiftCardStatusExpired = "EXPIRED"
)

// GiftCard holds a prepaid balance. Balance only ever decreases through
// payment consumption; it is never set directly by a caller.
type GiftCard struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_gift_cards_code" json:"business_id"`
	Code         string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_gift_cards_code" json:"code"`
	InitialValue decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"initial_value"`
	Balance      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance"`
	Status       string          `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	ExpiresAt    *time.Time      `json:"expires_at"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Usable reports whether the card can fund a payment at the given instant.
func (g GiftCard) Usable(at time.Time) bool {
	if g.Status != GiftCardStatusActive {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(at)
}
