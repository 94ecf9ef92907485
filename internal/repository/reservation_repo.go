package repository

import (
	"context"
	"time"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	Save(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Reservation, error)
	List(ctx context.Context, businessID uuid.UUID, from, to time.Time, page, limit int) ([]model.Reservation, int64, error)
	// FindBookedOverlapping returns BOOKED reservations whose half-open
	// interval intersects [start, end). When employeeID is non-nil the
	// search is scoped to that employee; otherwise it spans the business.
	// excludeID skips one reservation (conflict check during its own update).
	FindBookedOverlapping(ctx context.Context, businessID uuid.UUID, employeeID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Reservation, error)
	AddService(ctx context.Context, row *model.ReservationService) error
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	return GetDB(ctx, r.db).Create(reservation).Error
}

func (r *reservationRepository) Save(ctx context.Context, reservation *model.Reservation) error {
	return GetDB(ctx, r.db).Omit("Services").Save(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Reservation, error) {
	var reservation model.Reservation
	err := GetDB(ctx, r.db).
		Preload("Services").
		First(&reservation, "business_id = ? AND id = ?", businessID, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) List(ctx context.Context, businessID uuid.UUID, from, to time.Time, page, limit int) ([]model.Reservation, int64, error) {
	var reservations []model.Reservation
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Reservation{}).
		Where("business_id = ?", businessID).
		Where("appointment_start < ? AND appointment_end > ?", to, from)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Services").Order("appointment_start asc").Offset(offset).Limit(limit).Find(&reservations).Error; err != nil {
		return nil, 0, err
	}

	return reservations, total, nil
}

func (r *reservationRepository) FindBookedOverlapping(ctx context.Context, businessID uuid.UUID, employeeID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Reservation, error) {
	query := GetDB(ctx, r.db).
		Where("business_id = ? AND status = ?", businessID, model.ReservationStatusBooked).
		Where("appointment_start < ? AND appointment_end > ?", end, start)

	if employeeID != nil {
		query = query.Where("employee_id = ?", *employeeID)
	}
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var reservations []model.Reservation
	if err := query.Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) AddService(ctx context.Context, row *model.ReservationService) error {
	return GetDB(ctx, r.db).Create(row).Error
}
