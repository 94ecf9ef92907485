package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GiftCardRepository interface {
	Create(ctx context.Context, card *model.GiftCard) error
	Save(ctx context.Context, card *model.GiftCard) error
	FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.GiftCard, error)
	// FindByIDForUpdate locks the card row so a balance check and the
	// following debit are immune to concurrent consumption.
	FindByIDForUpdate(ctx context.Context, businessID, id uuid.UUID) (*model.GiftCard, error)
	FindByCode(ctx context.Context, businessID uuid.UUID, code string) (*model.GiftCard, error)
	List(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.GiftCard, int64, error)
}

type giftCardRepository struct {
	db *gorm.DB
}

func NewGiftCardRepository(db *gorm.DB) GiftCardRepository {
	return &giftCardRepository{db: db}
}

func (r *giftCardRepository) Create(ctx context.Context, card *model.GiftCard) error {
	return GetDB(ctx, r.db).Create(card).Error
}

func (r *giftCardRepository) Save(ctx context.Context, card *model.GiftCard) error {
	return GetDB(ctx, r.db).Save(card).Error
}

func (r *giftCardRepository) FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.GiftCard, error) {
	var card model.GiftCard
	if err := GetDB(ctx, r.db).First(&card, "business_id = ? AND id = ?", businessID, id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *giftCardRepository) FindByIDForUpdate(ctx context.Context, businessID, id uuid.UUID) (*model.GiftCard, error) {
	var card model.GiftCard
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&card, "business_id = ? AND id = ?", businessID, id).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *giftCardRepository) FindByCode(ctx context.Context, businessID uuid.UUID, code string) (*model.GiftCard, error) {
	var card model.GiftCard
	if err := GetDB(ctx, r.db).First(&card, "business_id = ? AND code = ?", businessID, code).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *giftCardRepository) List(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.GiftCard, int64, error) {
	var cards []model.GiftCard
	var total int64

	db := GetDB(ctx, r.db).Model(&model.GiftCard{}).Where("business_id = ?", businessID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&cards).Error; err != nil {
		return nil, 0, err
	}

	return cards, total, nil
}
