package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	orders.Use(middleware.RequireAuth())
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/:id/due", h.GetDueTotal)
		orders.POST("/:id/lines", h.AddLine)
		orders.PUT("/:id/lines/:lineId", h.UpdateLineQty)
		orders.DELETE("/:id/lines/:lineId", h.DeleteLine)
	}
}

// CreateOrder handles POST /api/orders
// @Summary      Open order
// @Description  Opens a new empty order in OPEN status
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders handles GET /api/orders
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (OPEN, CLOSED, CANCELLED, REFUNDED)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=[]service.OrderResponse}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), actor, c.Query("status"), p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, orders, p.Page, p.Limit, total))
}

// GetOrder handles GET /api/orders/:id
// @Summary      Get order
// @Description  Returns the order with lines, payments and computed totals
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetDueTotal handles GET /api/orders/:id/due
// @Summary      Get due total
// @Description  Returns the authoritative amount still owed on the order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/due [get]
func (h *OrderHandler) GetDueTotal(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	due, err := h.orderService.DueTotal(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"due_total": due}))
}

// AddLine handles POST /api/orders/:id/lines
// @Summary      Add order line
// @Description  Adds a line, freezing current price and tax rate on it
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Order ID"
// @Param        payload  body      service.AddLineRequest  true  "Add Line Payload"
// @Success      201      {object}  response.Response{data=service.OrderLineResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/lines [post]
func (h *OrderHandler) AddLine(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	line, err := h.orderService.AddLine(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, line))
}

// UpdateLineQty handles PUT /api/orders/:id/lines/:lineId
// @Summary      Update line quantity
// @Description  Changes a line's quantity; price and tax snapshots stay frozen
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Order ID"
// @Param        lineId   path      string                        true  "Line ID"
// @Param        payload  body      service.UpdateLineQtyRequest  true  "Quantity Payload"
// @Success      200      {object}  response.Response{data=service.OrderLineResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/lines/{lineId} [put]
func (h *OrderHandler) UpdateLineQty(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.UpdateLineQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	line, err := h.orderService.UpdateLineQty(c.Request.Context(), actor, c.Param("id"), c.Param("lineId"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, line))
}

// DeleteLine handles DELETE /api/orders/:id/lines/:lineId
// @Summary      Delete order line
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true  "Order ID"
// @Param        lineId  path      string  true  "Line ID"
// @Success      200     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Failure      409     {object}  response.Response
// @Router       /api/orders/{id}/lines/{lineId} [delete]
func (h *OrderHandler) DeleteLine(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := h.orderService.DeleteLine(c.Request.Context(), actor, c.Param("id"), c.Param("lineId")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Line removed"}))
}
