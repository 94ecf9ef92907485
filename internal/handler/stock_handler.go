package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	{
		stock.GET("/items", middleware.RequireAuth(), h.ListItems)
		stock.POST("/items", middleware.RequireManage(), h.CreateItem)
		stock.GET("/items/:id/movements", middleware.RequireAuth(), h.ListMovements)
		stock.POST("/items/:id/movements", middleware.RequireManage(), h.RecordMovement)
		stock.GET("/items/:id/consistency", middleware.RequireManage(), h.CheckConsistency)
	}
}

// ListItems handles GET /api/stock/items
// @Summary      List stock items
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.StockItemResponse}
// @Router       /api/stock/items [get]
func (h *StockHandler) ListItems(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.stockService.ListItems(c.Request.Context(), actor, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, items, p.Page, p.Limit, total))
}

// CreateItem handles POST /api/stock/items
// @Summary      Start stock tracking
// @Description  Creates a stock record for a catalog item, seeding an opening movement when an initial quantity is given
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateStockItemRequest  true  "Stock Item Payload"
// @Success      201      {object}  response.Response{data=service.StockItemResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/stock/items [post]
func (h *StockHandler) CreateItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.CreateStockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.stockService.CreateItem(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// ListMovements handles GET /api/stock/items/:id/movements
// @Summary      List stock movements
// @Description  Returns the append-only movement ledger for a stock item, newest first
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Stock Item ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.MovementResponse}
// @Failure      404    {object}  response.Response
// @Router       /api/stock/items/{id}/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	movements, total, err := h.stockService.ListMovements(c.Request.Context(), actor, c.Param("id"), p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, movements, p.Page, p.Limit, total))
}

// RecordMovement handles POST /api/stock/items/:id/movements
// @Summary      Record stock movement
// @Description  Posts a RECEIVE, WASTE or ADJUST movement against a stock item
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Stock Item ID"
// @Param        payload  body      service.PostMovementRequest  true  "Movement Payload"
// @Success      201      {object}  response.Response{data=service.StockItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/stock/items/{id}/movements [post]
func (h *StockHandler) RecordMovement(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.PostMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.stockService.RecordManualMovement(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// CheckConsistency handles GET /api/stock/items/:id/consistency
// @Summary      Check ledger consistency
// @Description  Verifies qty on hand equals the sum of the movement ledger
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Stock Item ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/stock/items/{id}/consistency [get]
func (h *StockHandler) CheckConsistency(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	consistent, err := h.stockService.CheckConsistency(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"consistent": consistent}))
}
