package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DiscountRepository interface {
	Create(ctx context.Context, discount *model.Discount) error
	Save(ctx context.Context, discount *model.Discount) error
	FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Discount, error)
	FindByCode(ctx context.Context, businessID uuid.UUID, code string) (*model.Discount, error)
	List(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.Discount, int64, error)
	// EligibleItemIDs returns the catalog item ids qualifying for a
	// LINE-scope discount.
	EligibleItemIDs(ctx context.Context, discountID uuid.UUID) ([]uuid.UUID, error)
	AddEligibility(ctx context.Context, row *model.DiscountEligibility) error
	RemoveEligibility(ctx context.Context, discountID, catalogItemID uuid.UUID) error
}

type discountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepository{db: db}
}

func (r *discountRepository) Create(ctx context.Context, discount *model.Discount) error {
	return GetDB(ctx, r.db).Create(discount).Error
}

func (r *discountRepository) Save(ctx context.Context, discount *model.Discount) error {
	return GetDB(ctx, r.db).Save(discount).Error
}

func (r *discountRepository) FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Discount, error) {
	var discount model.Discount
	err := GetDB(ctx, r.db).
		Preload("Eligibility").
		First(&discount, "business_id = ? AND id = ?", businessID, id).Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *discountRepository) FindByCode(ctx context.Context, businessID uuid.UUID, code string) (*model.Discount, error) {
	var discount model.Discount
	err := GetDB(ctx, r.db).
		Preload("Eligibility").
		First(&discount, "business_id = ? AND code = ?", businessID, code).Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *discountRepository) List(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.Discount, int64, error) {
	var discounts []model.Discount
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Discount{}).Where("business_id = ?", businessID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Eligibility").Order("created_at desc").Offset(offset).Limit(limit).Find(&discounts).Error; err != nil {
		return nil, 0, err
	}

	return discounts, total, nil
}

func (r *discountRepository) EligibleItemIDs(ctx context.Context, discountID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.DiscountEligibility{}).
		Where("discount_id = ?", discountID).
		Pluck("catalog_item_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *discountRepository) AddEligibility(ctx context.Context, row *model.DiscountEligibility) error {
	return GetDB(ctx, r.db).Create(row).Error
}

func (r *discountRepository) RemoveEligibility(ctx context.Context, discountID, catalogItemID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("discount_id = ? AND catalog_item_id = ?", discountID, catalogItemID).
		Delete(&model.DiscountEligibility{}).Error
}
