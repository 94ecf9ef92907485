package service

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type BookReservationRequest struct {
	EmployeeID       string   `json:"employee_id"` // empty = any staff member
	CustomerName     string   `json:"customer_name" binding:"required"`
	AppointmentStart string   `json:"appointment_start" binding:"required"` // RFC 3339
	AppointmentEnd   string   `json:"appointment_end" binding:"required"`
	ServiceItems     []string `json:"service_items"` // catalog item ids
}

type ReservationResponse struct {
	ID               string  `json:"id"`
	EmployeeID       *string `json:"employee_id"`
	CustomerName     string  `json:"customer_name"`
	AppointmentStart string  `json:"appointment_start"`
	AppointmentEnd   string  `json:"appointment_end"`
	PlannedDuration  int     `json:"planned_duration_min"`
	Status           string  `json:"status"`
}

// --- Interface ---

// ReservationService books appointment slots with overlap protection.
// Conflict semantics: a slot is checked against BOOKED reservations for the
// same employee when an employee is named; unassigned bookings are checked
// business-wide. Intervals are half-open, back-to-back bookings never clash.
type ReservationService interface {
	Book(ctx context.Context, actor model.Actor, req BookReservationRequest) (ReservationResponse, error)
	Reschedule(ctx context.Context, actor model.Actor, reservationID string, req BookReservationRequest) (ReservationResponse, error)
	Cancel(ctx context.Context, actor model.Actor, reservationID string) error
	Complete(ctx context.Context, actor model.Actor, reservationID string) error
	List(ctx context.Context, actor model.Actor, from, to time.Time, page, limit int) ([]ReservationResponse, int64, error)
	// HasConflict reports whether [start, end) overlaps an existing BOOKED
	// reservation, optionally excluding one reservation id.
	HasConflict(ctx context.Context, actor model.Actor, employeeID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
}

type reservationService struct {
	reservationRepo repository.ReservationRepository
	catalogRepo     repository.CatalogRepository
	txManager       repository.TxManager
}

func NewReservationService(
	reservationRepo repository.ReservationRepository,
	catalogRepo repository.CatalogRepository,
	txManager repository.TxManager,
) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		catalogRepo:     catalogRepo,
		txManager:       txManager,
	}
}

// --- Implementation ---

func (s *reservationService) Book(ctx context.Context, actor model.Actor, req BookReservationRequest) (ReservationResponse, error) {
	slot, err := s.parseSlot(req)
	if err != nil {
		return ReservationResponse{}, err
	}

	reservation := model.Reservation{
		BusinessID:         actor.BusinessID,
		EmployeeID:         slot.employeeID,
		CustomerName:       req.CustomerName,
		AppointmentStart:   slot.start,
		AppointmentEnd:     slot.end,
		PlannedDurationMin: int(slot.end.Sub(slot.start).Minutes()),
		Status:             model.ReservationStatusBooked,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		conflict, txErr := s.HasConflict(txCtx, actor, slot.employeeID, slot.start, slot.end, nil)
		if txErr != nil {
			return txErr
		}
		if conflict {
			return fmt.Errorf("slot %s-%s already booked: %w",
				slot.start.Format(time.RFC3339), slot.end.Format(time.RFC3339), ErrConflict)
		}

		if txErr = s.reservationRepo.Create(txCtx, &reservation); txErr != nil {
			return fmt.Errorf("failed to create reservation: %w", txErr)
		}

		for _, itemID := range req.ServiceItems {
			cid, parseErr := uuid.Parse(itemID)
			if parseErr != nil {
				return fmt.Errorf("invalid service item id %q: %w", itemID, ErrValidation)
			}
			item, findErr := s.catalogRepo.FindItemByID(txCtx, actor.BusinessID, cid)
			if findErr != nil {
				if IsRecordNotFound(findErr) {
					return fmt.Errorf("service item %s: %w", cid, ErrNotFound)
				}
				return fmt.Errorf("failed to load service item: %w", findErr)
			}
			if item.Type != model.ItemTypeService {
				return fmt.Errorf("catalog item %s is not a service: %w", cid, ErrValidation)
			}
			row := model.ReservationService{ReservationID: reservation.ID, CatalogItemID: cid}
			if addErr := s.reservationRepo.AddService(txCtx, &row); addErr != nil {
				return fmt.Errorf("failed to attach service: %w", addErr)
			}
		}
		return nil
	})
	if err != nil {
		return ReservationResponse{}, err
	}

	return toReservationResponse(reservation), nil
}

func (s *reservationService) Reschedule(ctx context.Context, actor model.Actor, reservationID string, req BookReservationRequest) (ReservationResponse, error) {
	rid, err := uuid.Parse(reservationID)
	if err != nil {
		return ReservationResponse{}, fmt.Errorf("invalid reservation id: %w", ErrValidation)
	}
	slot, err := s.parseSlot(req)
	if err != nil {
		return ReservationResponse{}, err
	}

	var reservation *model.Reservation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		reservation, txErr = s.reservationRepo.FindByID(txCtx, actor.BusinessID, rid)
		if txErr != nil {
			if IsRecordNotFound(txErr) {
				return fmt.Errorf("reservation %s: %w", rid, ErrNotFound)
			}
			return fmt.Errorf("failed to load reservation: %w", txErr)
		}
		if reservation.Status != model.ReservationStatusBooked {
			return fmt.Errorf("reservation %s is %s, cannot reschedule: %w", rid, reservation.Status, ErrInvalidState)
		}

		// Exclude the reservation itself so moving it within its own slot
		// does not self-conflict.
		conflict, txErr := s.HasConflict(txCtx, actor, slot.employeeID, slot.start, slot.end, &rid)
		if txErr != nil {
			return txErr
		}
		if conflict {
			return fmt.Errorf("slot %s-%s already booked: %w",
				slot.start.Format(time.RFC3339), slot.end.Format(time.RFC3339), ErrConflict)
		}

		reservation.EmployeeID = slot.employeeID
		reservation.CustomerName = req.CustomerName
		reservation.AppointmentStart = slot.start
		reservation.AppointmentEnd = slot.end
		reservation.PlannedDurationMin = int(slot.end.Sub(slot.start).Minutes())
		if txErr = s.reservationRepo.Save(txCtx, reservation); txErr != nil {
			return fmt.Errorf("failed to update reservation: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return ReservationResponse{}, err
	}

	return toReservationResponse(*reservation), nil
}

func (s *reservationService) Cancel(ctx context.Context, actor model.Actor, reservationID string) error {
	return s.transition(ctx, actor, reservationID, model.ReservationStatusCancelled)
}

func (s *reservationService) Complete(ctx context.Context, actor model.Actor, reservationID string) error {
	return s.transition(ctx, actor, reservationID, model.ReservationStatusCompleted)
}

func (s *reservationService) transition(ctx context.Context, actor model.Actor, reservationID, target string) error {
	rid, err := uuid.Parse(reservationID)
	if err != nil {
		return fmt.Errorf("invalid reservation id: %w", ErrValidation)
	}

	reservation, err := s.reservationRepo.FindByID(ctx, actor.BusinessID, rid)
	if err != nil {
		if IsRecordNotFound(err) {
			return fmt.Errorf("reservation %s: %w", rid, ErrNotFound)
		}
		return fmt.Errorf("failed to load reservation: %w", err)
	}
	if reservation.Status != model.ReservationStatusBooked {
		return fmt.Errorf("reservation %s is %s: %w", rid, reservation.Status, ErrInvalidState)
	}

	reservation.Status = target
	if err = s.reservationRepo.Save(ctx, reservation); err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	return nil
}

func (s *reservationService) List(ctx context.Context, actor model.Actor, from, to time.Time, page, limit int) ([]ReservationResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	reservations, total, err := s.reservationRepo.List(ctx, actor.BusinessID, from, to, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}

	res := make([]ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		res = append(res, toReservationResponse(r))
	}
	return res, total, nil
}

func (s *reservationService) HasConflict(ctx context.Context, actor model.Actor, employeeID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	existing, err := s.reservationRepo.FindBookedOverlapping(ctx, actor.BusinessID, employeeID, start, end, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to query reservations: %w", err)
	}
	for _, r := range existing {
		if r.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

type parsedSlot struct {
	employeeID *uuid.UUID
	start, end time.Time
}

func (s *reservationService) parseSlot(req BookReservationRequest) (parsedSlot, error) {
	var slot parsedSlot

	if req.EmployeeID != "" {
		eid, err := uuid.Parse(req.EmployeeID)
		if err != nil {
			return slot, fmt.Errorf("invalid employee id: %w", ErrValidation)
		}
		slot.employeeID = &eid
	}

	start, err := time.Parse(time.RFC3339, req.AppointmentStart)
	if err != nil {
		return slot, fmt.Errorf("invalid appointment_start (expected RFC 3339): %w", ErrValidation)
	}
	end, err := time.Parse(time.RFC3339, req.AppointmentEnd)
	if err != nil {
		return slot, fmt.Errorf("invalid appointment_end (expected RFC 3339): %w", ErrValidation)
	}
	if !end.After(start) {
		return slot, fmt.Errorf("appointment_end must be after appointment_start: %w", ErrValidation)
	}

	slot.start = start
	slot.end = end
	return slot, nil
}

func toReservationResponse(r model.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:               r.ID.String(),
		CustomerName:     r.CustomerName,
		AppointmentStart: r.AppointmentStart.Format(time.RFC3339),
		AppointmentEnd:   r.AppointmentEnd.Format(time.RFC3339),
		PlannedDuration:  r.PlannedDurationMin,
		Status:           r.Status,
	}
	if r.EmployeeID != nil {
		id := r.EmployeeID.String()
		resp.EmployeeID = &id
	}
	return resp
}
