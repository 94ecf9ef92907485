package service

import (
	"context"
	"testing"
	"time"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reservationTestEnv struct {
	actor       model.Actor
	repo        *fakeReservationRepo
	catalogRepo *fakeCatalogRepo
	svc         ReservationService
	employee    uuid.UUID
}

func newReservationTestEnv(t *testing.T) *reservationTestEnv {
	t.Helper()
	env := &reservationTestEnv{
		actor:       testActor(model.RoleStaff),
		repo:        newFakeReservationRepo(),
		catalogRepo: newFakeCatalogRepo(),
		employee:    uuid.New(),
	}
	env.svc = NewReservationService(env.repo, env.catalogRepo, fakeTxManager{})
	return env
}

func slot(startHour, endHour int) (string, string) {
	base := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(startHour) * time.Hour).Format(time.RFC3339),
		base.Add(time.Duration(endHour) * time.Hour).Format(time.RFC3339)
}

func (env *reservationTestEnv) book(t *testing.T, employeeID string, startHour, endHour int) ReservationResponse {
	t.Helper()
	start, end := slot(startHour, endHour)
	resp, err := env.svc.Book(context.Background(), env.actor, BookReservationRequest{
		EmployeeID:       employeeID,
		CustomerName:     "A. Kunde",
		AppointmentStart: start,
		AppointmentEnd:   end,
	})
	require.NoError(t, err)
	return resp
}

func TestBookValidation(t *testing.T) {
	env := newReservationTestEnv(t)
	start, end := slot(10, 11)

	tests := []struct {
		name string
		req  BookReservationRequest
	}{
		{"end before start", BookReservationRequest{CustomerName: "x", AppointmentStart: end, AppointmentEnd: start}},
		{"end equals start", BookReservationRequest{CustomerName: "x", AppointmentStart: start, AppointmentEnd: start}},
		{"garbage start", BookReservationRequest{CustomerName: "x", AppointmentStart: "tomorrow", AppointmentEnd: end}},
		{"bad employee id", BookReservationRequest{EmployeeID: "nope", CustomerName: "x", AppointmentStart: start, AppointmentEnd: end}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Book(context.Background(), env.actor, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestBookConflicts(t *testing.T) {
	t.Run("same employee overlapping slot", func(t *testing.T) {
		env := newReservationTestEnv(t)
		env.book(t, env.employee.String(), 10, 12)

		start, end := slot(11, 13)
		_, err := env.svc.Book(context.Background(), env.actor, BookReservationRequest{
			EmployeeID: env.employee.String(), CustomerName: "B",
			AppointmentStart: start, AppointmentEnd: end,
		})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("back to back slots do not conflict", func(t *testing.T) {
		env := newReservationTestEnv(t)
		env.book(t, env.employee.String(), 10, 12)
		env.book(t, env.employee.String(), 12, 14)
	})

	t.Run("different employees may overlap", func(t *testing.T) {
		env := newReservationTestEnv(t)
		env.book(t, env.employee.String(), 10, 12)
		env.book(t, uuid.NewString(), 10, 12)
	})

	t.Run("unassigned booking conflicts business wide", func(t *testing.T) {
		env := newReservationTestEnv(t)
		env.book(t, env.employee.String(), 10, 12)

		start, end := slot(11, 13)
		_, err := env.svc.Book(context.Background(), env.actor, BookReservationRequest{
			CustomerName: "B", AppointmentStart: start, AppointmentEnd: end,
		})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("cancelled reservation frees the slot", func(t *testing.T) {
		env := newReservationTestEnv(t)
		first := env.book(t, env.employee.String(), 10, 12)
		require.NoError(t, env.svc.Cancel(context.Background(), env.actor, first.ID))

		env.book(t, env.employee.String(), 10, 12)
	})
}

func TestBookServiceItems(t *testing.T) {
	env := newReservationTestEnv(t)

	haircut := &model.CatalogItem{
		BusinessID: env.actor.BusinessID, Code: "CUT", Name: "Haircut",
		Type: model.ItemTypeService, BasePrice: dec("35.00"), TaxClass: "STANDARD",
	}
	require.NoError(t, env.catalogRepo.CreateItem(context.Background(), haircut))
	shampoo := &model.CatalogItem{
		BusinessID: env.actor.BusinessID, Code: "SHMP", Name: "Shampoo Bottle",
		Type: model.ItemTypeProduct, BasePrice: dec("8.00"), TaxClass: "STANDARD",
	}
	require.NoError(t, env.catalogRepo.CreateItem(context.Background(), shampoo))

	start, end := slot(10, 11)

	t.Run("service item attaches", func(t *testing.T) {
		resp, err := env.svc.Book(context.Background(), env.actor, BookReservationRequest{
			CustomerName: "C", AppointmentStart: start, AppointmentEnd: end,
			ServiceItems: []string{haircut.ID.String()},
		})
		require.NoError(t, err)
		assert.Equal(t, 60, resp.PlannedDuration)
		require.Len(t, env.repo.services, 1)
		assert.Equal(t, haircut.ID, env.repo.services[0].CatalogItemID)
	})

	t.Run("product item rejected", func(t *testing.T) {
		start2, end2 := slot(14, 15)
		_, err := env.svc.Book(context.Background(), env.actor, BookReservationRequest{
			CustomerName: "C", AppointmentStart: start2, AppointmentEnd: end2,
			ServiceItems: []string{shampoo.ID.String()},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown item rejected", func(t *testing.T) {
		start3, end3 := slot(16, 17)
		_, err := env.svc.Book(context.Background(), env.actor, BookReservationRequest{
			CustomerName: "C", AppointmentStart: start3, AppointmentEnd: end3,
			ServiceItems: []string{uuid.NewString()},
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReschedule(t *testing.T) {
	t.Run("moving within own slot does not self-conflict", func(t *testing.T) {
		env := newReservationTestEnv(t)
		booked := env.book(t, env.employee.String(), 10, 12)

		start, end := slot(11, 13)
		resp, err := env.svc.Reschedule(context.Background(), env.actor, booked.ID, BookReservationRequest{
			EmployeeID: env.employee.String(), CustomerName: "A. Kunde",
			AppointmentStart: start, AppointmentEnd: end,
		})
		require.NoError(t, err)
		assert.Equal(t, start, resp.AppointmentStart)
		assert.Equal(t, 120, resp.PlannedDuration)
	})

	t.Run("conflict with another booking", func(t *testing.T) {
		env := newReservationTestEnv(t)
		booked := env.book(t, env.employee.String(), 10, 12)
		env.book(t, env.employee.String(), 14, 16)

		start, end := slot(15, 17)
		_, err := env.svc.Reschedule(context.Background(), env.actor, booked.ID, BookReservationRequest{
			EmployeeID: env.employee.String(), CustomerName: "A. Kunde",
			AppointmentStart: start, AppointmentEnd: end,
		})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("only booked reservations move", func(t *testing.T) {
		env := newReservationTestEnv(t)
		booked := env.book(t, env.employee.String(), 10, 12)
		require.NoError(t, env.svc.Complete(context.Background(), env.actor, booked.ID))

		start, end := slot(14, 15)
		_, err := env.svc.Reschedule(context.Background(), env.actor, booked.ID, BookReservationRequest{
			EmployeeID: env.employee.String(), CustomerName: "A. Kunde",
			AppointmentStart: start, AppointmentEnd: end,
		})
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestReservationTransitions(t *testing.T) {
	env := newReservationTestEnv(t)

	t.Run("cancel then complete fails", func(t *testing.T) {
		booked := env.book(t, "", 8, 9)
		require.NoError(t, env.svc.Cancel(context.Background(), env.actor, booked.ID))
		err := env.svc.Complete(context.Background(), env.actor, booked.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		err := env.svc.Cancel(context.Background(), env.actor, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("foreign business cannot transition", func(t *testing.T) {
		booked := env.book(t, "", 18, 19)
		err := env.svc.Cancel(context.Background(), testActor(model.RoleOwner), booked.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
