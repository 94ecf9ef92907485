package handler

import (
	"net/http"
	"time"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationService service.ReservationService
}

func NewReservationHandler(reservationService service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

func (h *ReservationHandler) RegisterRoutes(router *gin.RouterGroup) {
	reservations := router.Group("/api/reservations")
	reservations.Use(middleware.RequireAuth())
	{
		reservations.GET("", h.List)
		reservations.POST("", h.Book)
		reservations.PUT("/:id", h.Reschedule)
		reservations.POST("/:id/cancel", h.Cancel)
		reservations.POST("/:id/complete", h.Complete)
	}
}

// List handles GET /api/reservations
// @Summary      List reservations
// @Description  Lists reservations whose slot overlaps the requested window (default: the next 7 days)
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        from   query     string  false  "Window start (RFC3339)"
// @Param        to     query     string  false  "Window end (RFC3339)"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.ReservationResponse}
// @Failure      400    {object}  response.Response
// @Router       /api/reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	from := time.Now()
	to := from.Add(7 * 24 * time.Hour)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'from' parameter, expected RFC3339"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'to' parameter, expected RFC3339"))
			return
		}
		to = parsed
	}

	reservations, total, err := h.reservationService.List(c.Request.Context(), actor, from, to, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, reservations, p.Page, p.Limit, total))
}

// Book handles POST /api/reservations
// @Summary      Book reservation
// @Description  Books a service slot; rejected with 409 when the slot overlaps an existing booking
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BookReservationRequest  true  "Booking Payload"
// @Success      201      {object}  response.Response{data=service.ReservationResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/reservations [post]
func (h *ReservationHandler) Book(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.BookReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	reservation, err := h.reservationService.Book(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, reservation))
}

// Reschedule handles PUT /api/reservations/:id
// @Summary      Reschedule reservation
// @Description  Moves a booking to a new slot; the booking's own old slot never counts as a conflict
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Reservation ID"
// @Param        payload  body      service.BookReservationRequest  true  "New Slot Payload"
// @Success      200      {object}  response.Response{data=service.ReservationResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/reservations/{id} [put]
func (h *ReservationHandler) Reschedule(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.BookReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	reservation, err := h.reservationService.Reschedule(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reservation))
}

// Cancel handles POST /api/reservations/:id/cancel
// @Summary      Cancel reservation
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Reservation ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := h.reservationService.Cancel(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Reservation cancelled"}))
}

// Complete handles POST /api/reservations/:id/complete
// @Summary      Complete reservation
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Reservation ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/reservations/{id}/complete [post]
func (h *ReservationHandler) Complete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := h.reservationService.Complete(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Reservation completed"}))
}
