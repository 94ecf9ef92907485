package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Save(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Order, error)
	// FindByIDForUpdate locks the order row (SELECT ... FOR UPDATE) so the
	// status read and the subsequent mutation form one serialized unit.
	// Only meaningful inside TxManager.RunInTx.
	FindByIDForUpdate(ctx context.Context, businessID, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, businessID uuid.UUID, status string, page, limit int) ([]model.Order, int64, error)
	CreateLine(ctx context.Context, line *model.OrderLine) error
	SaveLine(ctx context.Context, line *model.OrderLine) error
	DeleteLine(ctx context.Context, id uuid.UUID) error
	FindLineByID(ctx context.Context, orderID, lineID uuid.UUID) (*model.OrderLine, error)
	FindLines(ctx context.Context, orderID uuid.UUID) ([]model.OrderLine, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) Save(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit("Lines", "Payments").Save(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("Payments").
		First(&order, "business_id = ? AND id = ?", businessID, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, businessID, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "business_id = ? AND id = ?", businessID, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, businessID uuid.UUID, status string, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{}).Where("business_id = ?", businessID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Lines").Order("created_at desc").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) CreateLine(ctx context.Context, line *model.OrderLine) error {
	return GetDB(ctx, r.db).Create(line).Error
}

func (r *orderRepository) SaveLine(ctx context.Context, line *model.OrderLine) error {
	return GetDB(ctx, r.db).Save(line).Error
}

func (r *orderRepository) DeleteLine(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.OrderLine{}).Error
}

func (r *orderRepository) FindLineByID(ctx context.Context, orderID, lineID uuid.UUID) (*model.OrderLine, error) {
	var line model.OrderLine
	if err := GetDB(ctx, r.db).First(&line, "order_id = ? AND id = ?", orderID, lineID).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *orderRepository) FindLines(ctx context.Context, orderID uuid.UUID) ([]model.OrderLine, error) {
	var lines []model.OrderLine
	if err := GetDB(ctx, r.db).Where("order_id = ?", orderID).Order("created_at asc").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
