package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type DiscountHandler struct {
	discountService service.DiscountService
}

func NewDiscountHandler(discountService service.DiscountService) *DiscountHandler {
	return &DiscountHandler{discountService: discountService}
}

func (h *DiscountHandler) RegisterRoutes(router *gin.RouterGroup) {
	discounts := router.Group("/api/discounts")
	{
		discounts.GET("", middleware.RequireAuth(), h.List)
		discounts.POST("", middleware.RequireManage(), h.Create)
		discounts.POST("/:id/deactivate", middleware.RequireManage(), h.Deactivate)
	}

	orders := router.Group("/api/orders")
	orders.Use(middleware.RequireAuth())
	{
		orders.POST("/:id/discount", h.Apply)
		orders.DELETE("/:id/discount", h.Remove)
	}
}

// List handles GET /api/discounts
// @Summary      List discounts
// @Tags         discounts
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.DiscountResponse}
// @Router       /api/discounts [get]
func (h *DiscountHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	discounts, total, err := h.discountService.List(c.Request.Context(), actor, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, discounts, p.Page, p.Limit, total))
}

// Create handles POST /api/discounts
// @Summary      Create discount
// @Tags         discounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDiscountRequest  true  "Discount Payload"
// @Success      201      {object}  response.Response{data=service.DiscountResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/discounts [post]
func (h *DiscountHandler) Create(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	discount, err := h.discountService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, discount))
}

// Deactivate handles POST /api/discounts/:id/deactivate
// @Summary      Deactivate discount
// @Description  Stops new redemptions; already applied snapshots are unaffected
// @Tags         discounts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Discount ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/discounts/{id}/deactivate [post]
func (h *DiscountHandler) Deactivate(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := h.discountService.Deactivate(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Discount deactivated"}))
}

// Apply handles POST /api/orders/:id/discount
// @Summary      Apply discount to order
// @Description  Validates the code and applies it; replaces any discount already on the order
// @Tags         discounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Order ID"
// @Param        payload  body      service.ApplyDiscountRequest  true  "Apply Discount Payload"
// @Success      200      {object}  response.Response{data=service.AppliedDiscountResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id}/discount [post]
func (h *DiscountHandler) Apply(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	applied, err := h.discountService.ApplyDiscount(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, applied))
}

// Remove handles DELETE /api/orders/:id/discount
// @Summary      Remove discount from order
// @Tags         discounts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/discount [delete]
func (h *DiscountHandler) Remove(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := h.discountService.RemoveDiscount(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Discount removed"}))
}
