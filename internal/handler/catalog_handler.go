package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/api/items")
	{
		items.GET("", middleware.RequireAuth(), h.ListItems)
		items.GET("/:id", middleware.RequireAuth(), h.GetItem)
		items.POST("", middleware.RequireManage(), h.CreateItem)
		items.PUT("/:id", middleware.RequireManage(), h.UpdateItem)
		items.POST("/:id/options", middleware.RequireManage(), h.AddOption)
		items.DELETE("/:id/options/:optionId", middleware.RequireManage(), h.DeleteOption)
	}
}

// ListItems handles GET /api/items
// @Summary      List catalog items
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        search  query     string  false  "Search by item name or code"
// @Success      200     {object}  response.Response{data=[]service.ItemResponse}
// @Router       /api/items [get]
func (h *CatalogHandler) ListItems(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.catalogService.ListItems(c.Request.Context(), actor, p.Page, p.Limit, c.Query("search"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, items, p.Page, p.Limit, total))
}

// GetItem handles GET /api/items/:id
// @Summary      Get catalog item
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=service.ItemResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/items/{id} [get]
func (h *CatalogHandler) GetItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	item, err := h.catalogService.GetItem(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// CreateItem handles POST /api/items
// @Summary      Create catalog item
// @Description  Creates a sellable item; a default option is added when none is given
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateItemRequest  true  "Create Item Payload"
// @Success      201      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/items [post]
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.catalogService.CreateItem(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem handles PUT /api/items/:id
// @Summary      Update catalog item
// @Description  Updates item fields; the item code is immutable
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Item ID"
// @Param        payload  body      service.UpdateItemRequest  true  "Update Item Payload"
// @Success      200      {object}  response.Response{data=service.ItemResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/items/{id} [put]
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.catalogService.UpdateItem(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// AddOption handles POST /api/items/:id/options
// @Summary      Add item option
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Item ID"
// @Param        payload  body      service.CreateOptionRequest  true  "Option Payload"
// @Success      201      {object}  response.Response{data=service.OptionResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/items/{id}/options [post]
func (h *CatalogHandler) AddOption(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.CreateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	option, err := h.catalogService.AddOption(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, option))
}

// DeleteOption handles DELETE /api/items/:id/options/:optionId
// @Summary      Delete item option
// @Description  Soft-deletes an option; order lines keep their snapshots
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id        path      string  true  "Item ID"
// @Param        optionId  path      string  true  "Option ID"
// @Success      200       {object}  response.Response
// @Failure      404       {object}  response.Response
// @Router       /api/items/{id}/options/{optionId} [delete]
func (h *CatalogHandler) DeleteOption(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteOption(c.Request.Context(), actor, c.Param("id"), c.Param("optionId")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Option deleted"}))
}
