package service

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type IssueGiftCardRequest struct {
	Code         string `json:"code" binding:"required"`
	InitialValue string `json:"initial_value" binding:"required"` // positive decimal
	ExpiresAt    string `json:"expires_at"`                       // YYYY-MM-DD, empty = never
}

type GiftCardResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	InitialValue string  `json:"initial_value"`
	Balance      string  `json:"balance"`
	Status       string  `json:"status"`
	ExpiresAt    *string `json:"expires_at"`
}

// --- Interface ---

// GiftCardService issues and administers gift cards. Balances change only
// through payment consumption in PaymentService; nothing here writes one.
type GiftCardService interface {
	Issue(ctx context.Context, actor model.Actor, req IssueGiftCardRequest) (GiftCardResponse, error)
	List(ctx context.Context, actor model.Actor, page, limit int) ([]GiftCardResponse, int64, error)
	GetByCode(ctx context.Context, actor model.Actor, code string) (GiftCardResponse, error)
	Block(ctx context.Context, actor model.Actor, cardID string) error
}

type giftCardService struct {
	giftCardRepo repository.GiftCardRepository
}

func NewGiftCardService(giftCardRepo repository.GiftCardRepository) GiftCardService {
	return &giftCardService{giftCardRepo: giftCardRepo}
}

// --- Implementation ---

func (s *giftCardService) Issue(ctx context.Context, actor model.Actor, req IssueGiftCardRequest) (GiftCardResponse, error) {
	if !actor.CanManage() {
		return GiftCardResponse{}, fmt.Errorf("role %s may not issue gift cards: %w", actor.Role, ErrValidation)
	}

	value, err := decimal.NewFromString(req.InitialValue)
	if err != nil || !value.IsPositive() {
		return GiftCardResponse{}, fmt.Errorf("initial_value must be a positive decimal: %w", ErrValidation)
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, parseErr := time.Parse("2006-01-02", req.ExpiresAt)
		if parseErr != nil {
			return GiftCardResponse{}, fmt.Errorf("invalid expires_at date: %w", ErrValidation)
		}
		expiresAt = &t
	}

	if _, err = s.giftCardRepo.FindByCode(ctx, actor.BusinessID, req.Code); err == nil {
		return GiftCardResponse{}, fmt.Errorf("gift card code %q already exists: %w", req.Code, ErrConflict)
	} else if !IsRecordNotFound(err) {
		return GiftCardResponse{}, fmt.Errorf("failed to check gift card code: %w", err)
	}

	card := model.GiftCard{
		BusinessID:   actor.BusinessID,
		Code:         req.Code,
		InitialValue: value,
		Balance:      value,
		Status:       model.GiftCardStatusActive,
		ExpiresAt:    expiresAt,
	}
	if err = s.giftCardRepo.Create(ctx, &card); err != nil {
		return GiftCardResponse{}, fmt.Errorf("failed to issue gift card: %w", err)
	}

	return toGiftCardResponse(card), nil
}

func (s *giftCardService) List(ctx context.Context, actor model.Actor, page, limit int) ([]GiftCardResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	cards, total, err := s.giftCardRepo.List(ctx, actor.BusinessID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list gift cards: %w", err)
	}

	res := make([]GiftCardResponse, 0, len(cards))
	for _, c := range cards {
		res = append(res, toGiftCardResponse(c))
	}
	return res, total, nil
}

func (s *giftCardService) GetByCode(ctx context.Context, actor model.Actor, code string) (GiftCardResponse, error) {
	card, err := s.giftCardRepo.FindByCode(ctx, actor.BusinessID, code)
	if err != nil {
		if IsRecordNotFound(err) {
			return GiftCardResponse{}, fmt.Errorf("gift card %q: %w", code, ErrNotFound)
		}
		return GiftCardResponse{}, fmt.Errorf("failed to load gift card: %w", err)
	}
	return toGiftCardResponse(*card), nil
}

func (s *giftCardService) Block(ctx context.Context, actor model.Actor, cardID string) error {
	if !actor.CanManage() {
		return fmt.Errorf("role %s may not block gift cards: %w", actor.Role, ErrValidation)
	}
	id, err := uuid.Parse(cardID)
	if err != nil {
		return fmt.Errorf("invalid gift card id: %w", ErrValidation)
	}

	card, err := s.giftCardRepo.FindByID(ctx, actor.BusinessID, id)
	if err != nil {
		if IsRecordNotFound(err) {
			return fmt.Errorf("gift card %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to load gift card: %w", err)
	}

	card.Status = model.GiftCardStatusBlocked
	if err = s.giftCardRepo.Save(ctx, card); err != nil {
		return fmt.Errorf("failed to block gift card: %w", err)
	}
	return nil
}

func toGiftCardResponse(c model.GiftCard) GiftCardResponse {
	resp := GiftCardResponse{
		ID:           c.ID.String(),
		Code:         c.Code,
		InitialValue: c.InitialValue.StringFixed(2),
		Balance:      c.Balance.StringFixed(2),
		Status:       c.Status,
	}
	if c.ExpiresAt != nil {
		s := c.ExpiresAt.Format("2006-01-02")
		resp.ExpiresAt = &s
	}
	return resp
}
