package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogRepository interface {
	CreateItem(ctx context.Context, item *model.CatalogItem) error
	UpdateItem(ctx context.Context, item *model.CatalogItem) error
	DeleteItem(ctx context.Context, businessID, id uuid.UUID) error
	FindItemByID(ctx context.Context, businessID, id uuid.UUID) (*model.CatalogItem, error)
	FindItemByCode(ctx context.Context, businessID uuid.UUID, code string) (*model.CatalogItem, error)
	ListItems(ctx context.Context, businessID uuid.UUID, page, limit int, search string) ([]model.CatalogItem, int64, error)
	CreateOption(ctx context.Context, opt *model.ItemOption) error
	DeleteOption(ctx context.Context, id uuid.UUID) error
	// FindOptionWithItem loads the option together with its parent catalog
	// item (and the item's stock link), scoped to the caller's business.
	FindOptionWithItem(ctx context.Context, businessID, optionID uuid.UUID) (*model.ItemOption, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateItem(ctx context.Context, item *model.CatalogItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *catalogRepository) UpdateItem(ctx context.Context, item *model.CatalogItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *catalogRepository) DeleteItem(ctx context.Context, businessID, id uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("business_id = ? AND id = ?", businessID, id).
		Delete(&model.CatalogItem{}).Error
}

func (r *catalogRepository) FindItemByID(ctx context.Context, businessID, id uuid.UUID) (*model.CatalogItem, error) {
	var item model.CatalogItem
	err := GetDB(ctx, r.db).
		Preload("Options").
		Preload("StockItem").
		First(&item, "business_id = ? AND id = ?", businessID, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *catalogRepository) FindItemByCode(ctx context.Context, businessID uuid.UUID, code string) (*model.CatalogItem, error) {
	var item model.CatalogItem
	err := GetDB(ctx, r.db).
		First(&item, "business_id = ? AND code = ?", businessID, code).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *catalogRepository) ListItems(ctx context.Context, businessID uuid.UUID, page, limit int, search string) ([]model.CatalogItem, int64, error) {
	var items []model.CatalogItem
	var total int64

	db := GetDB(ctx, r.db).Model(&model.CatalogItem{}).Where("business_id = ?", businessID)
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Options").Order("created_at desc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *catalogRepository) CreateOption(ctx context.Context, opt *model.ItemOption) error {
	return GetDB(ctx, r.db).Create(opt).Error
}

func (r *catalogRepository) DeleteOption(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ItemOption{}).Error
}

func (r *catalogRepository) FindOptionWithItem(ctx context.Context, businessID, optionID uuid.UUID) (*model.ItemOption, error) {
	var opt model.ItemOption
	err := GetDB(ctx, r.db).
		Preload("CatalogItem.StockItem").
		Joins("JOIN catalog_items ON catalog_items.id = item_options.catalog_item_id").
		Where("item_options.id = ? AND catalog_items.business_id = ?", optionID, businessID).
		First(&opt).Error
	if err != nil {
		return nil, err
	}
	return &opt, nil
}
