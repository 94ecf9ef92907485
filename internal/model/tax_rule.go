package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tax class constants
const (
	TaxClassStandard = "STANDARD"
	TaxClassReduced  = "REDUCED"
	TaxClassZero     = "ZERO"
)

// TaxRule stores a tax rate with temporal validity. Rules are superseded,
// not deleted: creating a new rule deactivates the prior overlapping one.
type TaxRule struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CountryCode string          `gorm:"type:varchar(2);not null;index:idx_tax_rules_lookup" json:"country_code"`
	TaxClass    string          `gorm:"type:varchar(20);not null;index:idx_tax_rules_lookup" json:"tax_class"`
	RatePercent decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"rate_percent"` // e.g. 20.00 = 20%
	ValidFrom   time.Time       `gorm:"not null;index" json:"valid_from"`
	ValidTo     *time.Time      `gorm:"index" json:"valid_to"` // nil = open-ended
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Covers reports whether the rule applies at the given instant.
func (r TaxRule) Covers(at time.Time) bool {
	if !r.IsActive || r.ValidFrom.After(at) {
		return false
	}
	return r.ValidTo == nil || !r.ValidTo.Before(at)
}
