package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogItem type constants
const (
	ItemTypeProduct = "PRODUCT"
	ItemTypeService = "SERVICE"
)

// CatalogItem is a sellable product or service. Code is unique per business
// and treated as immutable identity once created. Price and options may
// change later, which is why order lines snapshot their values.
type CatalogItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_items_code" json:"business_id"`
	Code      string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_catalog_items_code" json:"code"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Type      string          `gorm:"type:varchar(20);not null" json:"type"` // PRODUCT, SERVICE
	BasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_price"`
	TaxClass  string          `gorm:"type:varchar(20);not null;default:'STANDARD'" json:"tax_class"`
	Options   []ItemOption    `gorm:"foreignKey:CatalogItemID" json:"options"`
	StockItem *StockItem      `gorm:"foreignKey:CatalogItemID" json:"stock_item,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ItemOption is a sellable variant of a catalog item. The option's price
// modifier is added to the item's base price when a line is priced.
type ItemOption struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CatalogItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"catalog_item_id"`
	CatalogItem   *CatalogItem    `gorm:"foreignKey:CatalogItemID" json:"-"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	PriceModifier decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price_modifier"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// UnitPrice returns base price plus the option's modifier.
func (o ItemOption) UnitPrice(item CatalogItem) decimal.Decimal {
	return item.BasePrice.Add(o.PriceModifier)
}
