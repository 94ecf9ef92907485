package model

import (
	"time"

	"github.com/google/uuid"
)

// Reservation status constants
const (
	ReservationStatusBooked    = "BOOKED"
	ReservationStatusCancelled = "CANCELLED"
	ReservationStatusCompleted = "COMPLETED"
)

// Reservation is an appointment slot. Intervals are half-open [start, end):
// a booking ending at 15:00 does not conflict with one starting at 15:00.
type Reservation struct {
	ID                 uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessID         uuid.UUID            `gorm:"type:uuid;not null;index" json:"business_id"`
	EmployeeID         *uuid.UUID           `gorm:"type:uuid;index" json:"employee_id"` // nil = any staff member
	CustomerName       string               `gorm:"type:varchar(255);not null" json:"customer_name"`
	AppointmentStart   time.Time            `gorm:"not null;index" json:"appointment_start"`
	AppointmentEnd     time.Time            `gorm:"not null;index" json:"appointment_end"`
	PlannedDurationMin int                  `gorm:"not null" json:"planned_duration_min"`
	Status             string               `gorm:"type:varchar(20);not null;default:'BOOKED'" json:"status"`
	Services           []ReservationService `gorm:"foreignKey:ReservationID" json:"services"`
	CreatedAt          time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// Overlaps reports whether [start, end) intersects the reservation's slot.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.AppointmentStart.Before(end) && r.AppointmentEnd.After(start)
}

// ReservationService links a booked appointment to a catalog service item.
type ReservationService struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReservationID uuid.UUID `gorm:"type:uuid;not null;index" json:"reservation_id"`
	CatalogItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"catalog_item_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
