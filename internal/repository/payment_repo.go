package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error)
	// SumByOrder returns the signed sum of all payment amounts on the
	// order (refund rows count negative).
	SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	// SumPositiveByOrder returns the sum of positive payment rows only,
	// the ceiling a refund may not exceed.
	SumPositiveByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := GetDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, orderID, false)
}

func (r *paymentRepository) SumPositiveByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, orderID, true)
}

func (r *paymentRepository) sum(ctx context.Context, orderID uuid.UUID, positiveOnly bool) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	query := GetDB(ctx, r.db).Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("order_id = ?", orderID)
	if positiveOnly {
		query = query.Where("amount > 0")
	}
	if err := query.Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

func (r *paymentRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}
