package service

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/metrics"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type RecordPaymentRequest struct {
	Amount            string  `json:"amount" binding:"required"` // positive decimal
	Currency          string  `json:"currency"`                  // defaults to the business currency
	Method            string  `json:"method" binding:"required,oneof=CASH CARD_DEBIT CARD_CREDIT GIFT_CARD"`
	TipPortion        string  `json:"tip_portion"`               // decimal >= 0
	GiftCardID        string  `json:"gift_card_id"`              // required for GIFT_CARD
	ExternalReference *string `json:"external_reference"`        // processor reference for card payments
}

type RefundRequest struct {
	Amount string `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

type PaymentResponse struct {
	ID         string  `json:"id"`
	OrderID    string  `json:"order_id"`
	Amount     string  `json:"amount"`
	Currency   string  `json:"currency"`
	Method     string  `json:"method"`
	TipPortion string  `json:"tip_portion"`
	GiftCardID *string `json:"gift_card_id"`
	CreatedAt  string  `json:"created_at"`
}

// --- Interface ---

// PaymentService is the settlement ledger: it records tenders against open
// orders, gates closure on full payment, and coordinates refund with the
// inventory return posting. Card payments arrive pre-authorized by an
// external processor; this ledger only records the outcome.
type PaymentService interface {
	RecordPayment(ctx context.Context, actor model.Actor, orderID string, req RecordPaymentRequest) (PaymentResponse, error)
	// CloseOrder transitions OPEN -> CLOSED when recorded payments cover
	// the due total, then posts SALE movements for every line backed by a
	// stock-tracked item.
	CloseOrder(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error)
	// Refund records a negative payment against a CLOSED order, marks it
	// REFUNDED and posts RETURN movements restoring every line's full
	// original quantity regardless of the refunded amount (a documented
	// simplification; partial-quantity refunds are not modeled).
	Refund(ctx context.Context, actor model.Actor, orderID string, req RefundRequest) (PaymentResponse, error)
	// CancelOrder voids an OPEN order that has no payment rows of any
	// sign. Orders with payments must be refunded instead.
	CancelOrder(ctx context.Context, actor model.Actor, orderID string) error
}

type paymentService struct {
	orderRepo    repository.OrderRepository
	paymentRepo  repository.PaymentRepository
	giftCardRepo repository.GiftCardRepository
	catalogRepo  repository.CatalogRepository
	businessRepo repository.BusinessRepository
	stockService StockService
	orderService OrderService
	txManager    repository.TxManager
	now          func() time.Time
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	giftCardRepo repository.GiftCardRepository,
	catalogRepo repository.CatalogRepository,
	businessRepo repository.BusinessRepository,
	stockService StockService,
	orderService OrderService,
	txManager repository.TxManager,
) PaymentService {
	return &paymentService{
		orderRepo:    orderRepo,
		paymentRepo:  paymentRepo,
		giftCardRepo: giftCardRepo,
		catalogRepo:  catalogRepo,
		businessRepo: businessRepo,
		stockService: stockService,
		orderService: orderService,
		txManager:    txManager,
		now:          time.Now,
	}
}

// --- Implementation ---

func (s *paymentService) RecordPayment(ctx context.Context, actor model.Actor, orderID string, req RecordPaymentRequest) (PaymentResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("invalid order id: %w", ErrValidation)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return PaymentResponse{}, fmt.Errorf("amount must be a positive decimal: %w", ErrValidation)
	}

	tipPortion := decimal.Zero
	if req.TipPortion != "" {
		tipPortion, err = decimal.NewFromString(req.TipPortion)
		if err != nil || tipPortion.IsNegative() {
			return PaymentResponse{}, fmt.Errorf("tip_portion must be a non-negative decimal: %w", ErrValidation)
		}
	}

	var giftCardID *uuid.UUID
	if req.Method == model.PaymentMethodGiftCard {
		if req.GiftCardID == "" {
			return PaymentResponse{}, fmt.Errorf("gift_card_id required for gift card payments: %w", ErrValidation)
		}
		gid, parseErr := uuid.Parse(req.GiftCardID)
		if parseErr != nil {
			return PaymentResponse{}, fmt.Errorf("invalid gift_card_id: %w", ErrValidation)
		}
		giftCardID = &gid
	}

	var payment model.Payment
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, txErr := s.lockOrder(txCtx, actor, oid)
		if txErr != nil {
			return txErr
		}
		if !order.IsOpen() {
			return fmt.Errorf("order %s is %s, cannot take payments: %w", oid, order.Status, ErrInvalidState)
		}

		currency := req.Currency
		if currency == "" {
			business, bizErr := s.businessRepo.FindByID(txCtx, actor.BusinessID)
			if bizErr != nil {
				return fmt.Errorf("failed to load business: %w", bizErr)
			}
			currency = business.Currency
		}

		if giftCardID != nil {
			// Lock the card row: the balance check and the debit must see
			// the same balance even under concurrent redemptions.
			card, cardErr := s.giftCardRepo.FindByIDForUpdate(txCtx, actor.BusinessID, *giftCardID)
			if cardErr != nil {
				if IsRecordNotFound(cardErr) {
					return fmt.Errorf("gift card %s: %w", *giftCardID, ErrNotFound)
				}
				return fmt.Errorf("failed to lock gift card: %w", cardErr)
			}
			if !card.Usable(s.now()) {
				return fmt.Errorf("gift card %s is %s or expired: %w", card.Code, card.Status, ErrInvalidState)
			}
			if card.Balance.LessThan(amount) {
				return fmt.Errorf("gift card %s balance %s short of %s: %w",
					card.Code, card.Balance.StringFixed(2), amount.StringFixed(2), ErrInsufficientFunds)
			}
			card.Balance = card.Balance.Sub(amount)
			if saveErr := s.giftCardRepo.Save(txCtx, card); saveErr != nil {
				return fmt.Errorf("failed to debit gift card: %w", saveErr)
			}
		}

		payment = model.Payment{
			OrderID:           order.ID,
			Amount:            amount,
			Currency:          currency,
			Method:            req.Method,
			TipPortion:        tipPortion,
			GiftCardID:        giftCardID,
			ExternalReference: req.ExternalReference,
		}
		if txErr = s.paymentRepo.Create(txCtx, &payment); txErr != nil {
			return fmt.Errorf("failed to record payment: %w", txErr)
		}

		// Tip accumulates across payments; it is part of the due total
		// from this point on.
		if tipPortion.IsPositive() {
			order.TipAmount = order.TipAmount.Add(tipPortion)
			if txErr = s.orderRepo.Save(txCtx, order); txErr != nil {
				return fmt.Errorf("failed to accumulate tip: %w", txErr)
			}
		}
		return nil
	})
	if err != nil {
		return PaymentResponse{}, err
	}

	metrics.PaymentsRecorded.WithLabelValues(req.Method).Inc()
	return toPaymentResponse(payment), nil
}

func (s *paymentService) CloseOrder(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("invalid order id: %w", ErrValidation)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, txErr := s.lockOrder(txCtx, actor, oid)
		if txErr != nil {
			return txErr
		}
		if !order.IsOpen() {
			return fmt.Errorf("order %s is %s, cannot close: %w", oid, order.Status, ErrInvalidState)
		}

		lines, txErr := s.orderRepo.FindLines(txCtx, order.ID)
		if txErr != nil {
			return fmt.Errorf("failed to load order lines: %w", txErr)
		}

		discount, _ := order.ParseAppliedDiscount()
		due := DueTotal(lines, discount, order.TipAmount)

		paid, txErr := s.paymentRepo.SumByOrder(txCtx, order.ID)
		if txErr != nil {
			return fmt.Errorf("failed to sum payments: %w", txErr)
		}
		if paid.LessThan(due) {
			return fmt.Errorf("paid %s of %s due: %w", paid.StringFixed(2), due.StringFixed(2), ErrInsufficientFunds)
		}

		closedAt := s.now()
		order.Status = model.OrderStatusClosed
		order.ClosedAt = &closedAt
		if txErr = s.orderRepo.Save(txCtx, order); txErr != nil {
			return fmt.Errorf("failed to close order: %w", txErr)
		}

		if txErr = s.postStockForLines(txCtx, actor, lines, model.MovementSale); txErr != nil {
			return txErr
		}

		log.Info().
			Str("order_id", order.ID.String()).
			Str("due_total", due.StringFixed(2)).
			Str("paid_total", paid.StringFixed(2)).
			Msg("order closed")
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	metrics.OrdersClosed.Inc()
	return s.orderService.GetOrder(ctx, actor, orderID)
}

func (s *paymentService) Refund(ctx context.Context, actor model.Actor, orderID string, req RefundRequest) (PaymentResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("invalid order id: %w", ErrValidation)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return PaymentResponse{}, fmt.Errorf("amount must be a positive decimal: %w", ErrValidation)
	}

	var payment model.Payment
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, txErr := s.lockOrder(txCtx, actor, oid)
		if txErr != nil {
			return txErr
		}
		if order.Status != model.OrderStatusClosed {
			return fmt.Errorf("order %s is %s, only closed orders can be refunded: %w", oid, order.Status, ErrInvalidState)
		}

		paidPositive, txErr := s.paymentRepo.SumPositiveByOrder(txCtx, order.ID)
		if txErr != nil {
			return fmt.Errorf("failed to sum payments: %w", txErr)
		}
		if amount.GreaterThan(paidPositive) {
			return fmt.Errorf("refund %s exceeds collected %s: %w",
				amount.StringFixed(2), paidPositive.StringFixed(2), ErrValidation)
		}

		business, txErr := s.businessRepo.FindByID(txCtx, actor.BusinessID)
		if txErr != nil {
			return fmt.Errorf("failed to load business: %w", txErr)
		}

		payment = model.Payment{
			OrderID:  order.ID,
			Amount:   amount.Neg(),
			Currency: business.Currency,
			Method:   model.PaymentMethodCash,
			Notes:    req.Reason,
		}
		if txErr = s.paymentRepo.Create(txCtx, &payment); txErr != nil {
			return fmt.Errorf("failed to record refund: %w", txErr)
		}

		order.Status = model.OrderStatusRefunded
		if txErr = s.orderRepo.Save(txCtx, order); txErr != nil {
			return fmt.Errorf("failed to mark order refunded: %w", txErr)
		}

		lines, txErr := s.orderRepo.FindLines(txCtx, order.ID)
		if txErr != nil {
			return fmt.Errorf("failed to load order lines: %w", txErr)
		}
		if txErr = s.postStockForLines(txCtx, actor, lines, model.MovementReturn); txErr != nil {
			return txErr
		}

		log.Info().
			Str("order_id", order.ID.String()).
			Str("amount", amount.StringFixed(2)).
			Str("reason", req.Reason).
			Msg("order refunded")
		return nil
	})
	if err != nil {
		return PaymentResponse{}, err
	}

	metrics.OrdersRefunded.Inc()
	return toPaymentResponse(payment), nil
}

func (s *paymentService) CancelOrder(ctx context.Context, actor model.Actor, orderID string) error {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return fmt.Errorf("invalid order id: %w", ErrValidation)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, txErr := s.lockOrder(txCtx, actor, oid)
		if txErr != nil {
			return txErr
		}
		if !order.IsOpen() {
			return fmt.Errorf("order %s is %s, cannot cancel: %w", oid, order.Status, ErrInvalidState)
		}

		// Any payment row, refund rows included, blocks cancellation.
		count, txErr := s.paymentRepo.CountByOrder(txCtx, order.ID)
		if txErr != nil {
			return fmt.Errorf("failed to count payments: %w", txErr)
		}
		if count > 0 {
			return fmt.Errorf("order %s has payments, refund instead: %w", oid, ErrInvalidState)
		}

		order.Status = model.OrderStatusCancelled
		if txErr = s.orderRepo.Save(txCtx, order); txErr != nil {
			return fmt.Errorf("failed to cancel order: %w", txErr)
		}
		return nil
	})
}

// postStockForLines posts one movement per line whose catalog item is
// stock-tracked: SALE decrements by line qty at the item's current average
// cost; RETURN restores the full original quantity.
func (s *paymentService) postStockForLines(txCtx context.Context, actor model.Actor, lines []model.OrderLine, movementType string) error {
	for i := range lines {
		line := lines[i]
		opt, err := s.catalogRepo.FindOptionWithItem(txCtx, actor.BusinessID, line.OptionID)
		if err != nil {
			if IsRecordNotFound(err) {
				// Option deleted from the catalog after the sale; the line
				// snapshot stands on its own and there is nothing to move.
				continue
			}
			return fmt.Errorf("failed to resolve line option: %w", err)
		}
		if opt.CatalogItem == nil || opt.CatalogItem.StockItem == nil {
			continue
		}
		stockItem := opt.CatalogItem.StockItem

		delta := line.Qty.Neg()
		if movementType == model.MovementReturn {
			delta = line.Qty
		}
		lineID := line.ID
		if _, err = s.stockService.PostMovement(txCtx, stockItem.ID, movementType, delta, stockItem.AverageUnitCost, &lineID, ""); err != nil {
			return err
		}
	}
	return nil
}

func (s *paymentService) lockOrder(txCtx context.Context, actor model.Actor, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDForUpdate(txCtx, actor.BusinessID, orderID)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return order, nil
}

func toPaymentResponse(p model.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:         p.ID.String(),
		OrderID:    p.OrderID.String(),
		Amount:     p.Amount.StringFixed(2),
		Currency:   p.Currency,
		Method:     p.Method,
		TipPortion: p.TipPortion.StringFixed(2),
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
	if p.GiftCardID != nil {
		id := p.GiftCardID.String()
		resp.GiftCardID = &id
	}
	return resp
}
