package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type GiftCardHandler struct {
	giftCardService service.GiftCardService
}

func NewGiftCardHandler(giftCardService service.GiftCardService) *GiftCardHandler {
	return &GiftCardHandler{giftCardService: giftCardService}
}

func (h *GiftCardHandler) RegisterRoutes(router *gin.RouterGroup) {
	cards := router.Group("/api/gift-cards")
	{
		cards.GET("", middleware.RequireAuth(), h.List)
		cards.GET("/:code", middleware.RequireAuth(), h.GetByCode)
		cards.POST("", middleware.RequireManage(), h.Issue)
		cards.POST("/:id/block", middleware.RequireManage(), h.Block)
	}
}

// List handles GET /api/gift-cards
// @Summary      List gift cards
// @Tags         gift-cards
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.GiftCardResponse}
// @Router       /api/gift-cards [get]
func (h *GiftCardHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	cards, total, err := h.giftCardService.List(c.Request.Context(), actor, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, cards, p.Page, p.Limit, total))
}

// GetByCode handles GET /api/gift-cards/:code
// @Summary      Look up gift card
// @Description  Returns the card's balance and status for the till
// @Tags         gift-cards
// @Security     BearerAuth
// @Produce      json
// @Param        code  path      string  true  "Gift Card Code"
// @Success      200   {object}  response.Response{data=service.GiftCardResponse}
// @Failure      404   {object}  response.Response
// @Router       /api/gift-cards/{code} [get]
func (h *GiftCardHandler) GetByCode(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	card, err := h.giftCardService.GetByCode(c.Request.Context(), actor, c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, card))
}

// Issue handles POST /api/gift-cards
// @Summary      Issue gift card
// @Tags         gift-cards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.IssueGiftCardRequest  true  "Issue Payload"
// @Success      201      {object}  response.Response{data=service.GiftCardResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/gift-cards [post]
func (h *GiftCardHandler) Issue(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.IssueGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	card, err := h.giftCardService.Issue(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, card))
}

// Block handles POST /api/gift-cards/:id/block
// @Summary      Block gift card
// @Description  Blocks a card so it can no longer pay for orders
// @Tags         gift-cards
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Gift Card ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/gift-cards/{id}/block [post]
func (h *GiftCardHandler) Block(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := h.giftCardService.Block(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Gift card blocked"}))
}
