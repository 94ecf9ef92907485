package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMovement type constants
const (
	MovementReceive = "RECEIVE"
	MovementWaste   = "WASTE"
	MovementAdjust  = "ADJUST"
	MovementSale    = "SALE"
	MovementReturn  = "RETURN"
)

// StockItem tracks on-hand quantity for exactly one catalog item.
// QtyOnHand must equal the sum of all movement deltas; the pair is always
// written inside one transaction.
type StockItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CatalogItemID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"catalog_item_id"`
	Unit            string          `gorm:"type:varchar(20);not null;default:'pcs'" json:"unit"`
	QtyOnHand       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"qty_on_hand"`
	AverageUnitCost decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"average_unit_cost"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// StockMovement is the append-only audit ledger of stock changes.
// Rows are never updated or deleted.
type StockMovement struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StockItemID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"stock_item_id"`
	Type             string          `gorm:"type:varchar(20);not null" json:"type"`
	Delta            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"delta"` // signed
	UnitCostSnapshot decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"unit_cost_snapshot"`
	OrderLineID      *uuid.UUID      `gorm:"type:uuid;index" json:"order_line_id"`
	Notes            string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}
