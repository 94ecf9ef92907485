package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	CreateItem(ctx context.Context, item *model.StockItem) error
	SaveItem(ctx context.Context, item *model.StockItem) error
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	// FindItemByIDForUpdate locks the stock row; concurrent sales of the
	// same item serialize their quantity decrements on this lock.
	FindItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindItemByCatalogItem(ctx context.Context, catalogItemID uuid.UUID) (*model.StockItem, error)
	ListItems(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.StockItem, int64, error)
	CreateMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, stockItemID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
	// SumDeltas totals every movement delta for a stock item. Used by the
	// consistency check endpoint, never to maintain qty_on_hand.
	SumDeltas(ctx context.Context, stockItemID uuid.UUID) (decimal.Decimal, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) CreateItem(ctx context.Context, item *model.StockItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *stockRepository) SaveItem(ctx context.Context, item *model.StockItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *stockRepository) FindItemByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepository) FindItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepository) FindItemByCatalogItem(ctx context.Context, catalogItemID uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	if err := GetDB(ctx, r.db).First(&item, "catalog_item_id = ?", catalogItemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepository) ListItems(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.StockItem, int64, error) {
	var items []model.StockItem
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockItem{}).
		Joins("JOIN catalog_items ON catalog_items.id = stock_items.catalog_item_id").
		Where("catalog_items.business_id = ?", businessID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("stock_items.created_at desc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *stockRepository) CreateMovement(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *stockRepository) ListMovements(ctx context.Context, stockItemID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("stock_item_id = ?", stockItemID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

func (r *stockRepository) SumDeltas(ctx context.Context, stockItemID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.StockMovement{}).
		Select("COALESCE(SUM(delta), 0) AS total").
		Where("stock_item_id = ?", stockItemID).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}
