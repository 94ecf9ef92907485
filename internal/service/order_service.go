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

type CreateOrderRequest struct {
	TableOrArea string `json:"table_or_area"`
}

type AddLineRequest struct {
	OptionID string `json:"option_id" binding:"required,uuid"`
	Qty      string `json:"qty" binding:"required"` // decimal string > 0
}

type UpdateLineQtyRequest struct {
	Qty string `json:"qty" binding:"required"`
}

type OrderLineResponse struct {
	ID                 string `json:"id"`
	OptionID           string `json:"option_id"`
	ItemName           string `json:"item_name"`
	OptionName         string `json:"option_name"`
	Qty                string `json:"qty"`
	UnitPrice          string `json:"unit_price"`
	TaxRatePct         string `json:"tax_rate_pct"`
	LineBase           string `json:"line_base"`
	LineTax            string `json:"line_tax"`
	LineTotal          string `json:"line_total"`
}

type OrderResponse struct {
	ID               string                 `json:"id"`
	Status           string                 `json:"status"`
	EmployeeID       string                 `json:"employee_id"`
	TableOrArea      string                 `json:"table_or_area"`
	TipAmount        string                 `json:"tip_amount"`
	Discount         *model.AppliedDiscount `json:"discount,omitempty"`
	Lines            []OrderLineResponse    `json:"lines"`
	LinesTotal       string                 `json:"lines_total"`
	DueTotal         string                 `json:"due_total"`
	PaidTotal        string                 `json:"paid_total"`
	CreatedAt        string                 `json:"created_at"`
	ClosedAt         *string                `json:"closed_at"`
}

// --- Interface ---

// OrderService owns the order lifecycle up to settlement: creation, line
// pricing with snapshot capture, and the due-total aggregation that gates
// closure. Line mutations re-read order status under a row lock inside the
// same transaction; a stale in-memory status is never trusted.
type OrderService interface {
	CreateOrder(ctx context.Context, actor model.Actor, req CreateOrderRequest) (OrderResponse, error)
	GetOrder(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error)
	ListOrders(ctx context.Context, actor model.Actor, status string, page, limit int) ([]OrderResponse, int64, error)
	// AddLine prices the option at current catalog price and tax rate and
	// freezes both on the new line. Fails with ErrNotFound when no active
	// tax rule covers the business country and item tax class.
	AddLine(ctx context.Context, actor model.Actor, orderID string, req AddLineRequest) (OrderLineResponse, error)
	UpdateLineQty(ctx context.Context, actor model.Actor, orderID, lineID string, req UpdateLineQtyRequest) (OrderLineResponse, error)
	DeleteLine(ctx context.Context, actor model.Actor, orderID, lineID string) error
	// DueTotal returns the authoritative amount still owed.
	DueTotal(ctx context.Context, actor model.Actor, orderID string) (decimal.Decimal, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	catalogRepo  repository.CatalogRepository
	businessRepo repository.BusinessRepository
	paymentRepo  repository.PaymentRepository
	taxService   TaxService
	txManager    repository.TxManager
	now          func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	catalogRepo repository.CatalogRepository,
	businessRepo repository.BusinessRepository,
	paymentRepo repository.PaymentRepository,
	taxService TaxService,
	txManager repository.TxManager,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		catalogRepo:  catalogRepo,
		businessRepo: businessRepo,
		paymentRepo:  paymentRepo,
		taxService:   taxService,
		txManager:    txManager,
		now:          time.Now,
	}
}

// --- Implementation ---

func (s *orderService) CreateOrder(ctx context.Context, actor model.Actor, req CreateOrderRequest) (OrderResponse, error) {
	order := model.Order{
		BusinessID:  actor.BusinessID,
		EmployeeID:  actor.UserID,
		Status:      model.OrderStatusOpen,
		TableOrArea: req.TableOrArea,
		TipAmount:   decimal.Zero,
	}
	if err := s.orderRepo.Create(ctx, &order); err != nil {
		return OrderResponse{}, fmt.Errorf("failed to create order: %w", err)
	}
	return s.toOrderResponse(order), nil
}

func (s *orderService) GetOrder(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error) {
	order, err := s.findOrder(ctx, actor, orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	return s.toOrderResponse(*order), nil
}

func (s *orderService) ListOrders(ctx context.Context, actor model.Actor, status string, page, limit int) ([]OrderResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	orders, total, err := s.orderRepo.List(ctx, actor.BusinessID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	res := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, s.toOrderResponse(o))
	}
	return res, total, nil
}

func (s *orderService) AddLine(ctx context.Context, actor model.Actor, orderID string, req AddLineRequest) (OrderLineResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderLineResponse{}, fmt.Errorf("invalid order id: %w", ErrValidation)
	}
	optID, err := uuid.Parse(req.OptionID)
	if err != nil {
		return OrderLineResponse{}, fmt.Errorf("invalid option id: %w", ErrValidation)
	}
	qty, err := decimal.NewFromString(req.Qty)
	if err != nil || !qty.IsPositive() {
		return OrderLineResponse{}, fmt.Errorf("qty must be a positive decimal: %w", ErrValidation)
	}

	var line model.OrderLine
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, txErr := s.lockOpenOrder(txCtx, actor, oid)
		if txErr != nil {
			return txErr
		}

		opt, txErr := s.catalogRepo.FindOptionWithItem(txCtx, actor.BusinessID, optID)
		if txErr != nil {
			if IsRecordNotFound(txErr) {
				return fmt.Errorf("option %s: %w", optID, ErrNotFound)
			}
			return fmt.Errorf("failed to load option: %w", txErr)
		}
		item := opt.CatalogItem

		business, txErr := s.businessRepo.FindByID(txCtx, actor.BusinessID)
		if txErr != nil {
			return fmt.Errorf("failed to load business: %w", txErr)
		}

		rate, txErr := s.taxService.CurrentRate(txCtx, business.CountryCode, item.TaxClass, s.now())
		if txErr != nil {
			return txErr
		}

		line = model.OrderLine{
			OrderID:            order.ID,
			OptionID:           opt.ID,
			ItemNameSnapshot:   item.Name,
			OptionNameSnapshot: opt.Name,
			Qty:                qty,
			UnitPriceSnapshot:  opt.UnitPrice(*item),
			TaxClassSnapshot:   item.TaxClass,
			TaxRateSnapshotPct: rate,
		}
		if txErr = s.orderRepo.CreateLine(txCtx, &line); txErr != nil {
			return fmt.Errorf("failed to create order line: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return OrderLineResponse{}, err
	}

	return toLineResponse(line), nil
}

func (s *orderService) UpdateLineQty(ctx context.Context, actor model.Actor, orderID, lineID string, req UpdateLineQtyRequest) (OrderLineResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderLineResponse{}, fmt.Errorf("invalid order id: %w", ErrValidation)
	}
	lid, err := uuid.Parse(lineID)
	if err != nil {
		return OrderLineResponse{}, fmt.Errorf("invalid line id: %w", ErrValidation)
	}
	qty, err := decimal.NewFromString(req.Qty)
	if err != nil || !qty.IsPositive() {
		return OrderLineResponse{}, fmt.Errorf("qty must be a positive decimal: %w", ErrValidation)
	}

	var line *model.OrderLine
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, txErr := s.lockOpenOrder(txCtx, actor, oid)
		if txErr != nil {
			return txErr
		}

		line, txErr = s.orderRepo.FindLineByID(txCtx, order.ID, lid)
		if txErr != nil {
			if IsRecordNotFound(txErr) {
				return fmt.Errorf("order line %s: %w", lid, ErrNotFound)
			}
			return fmt.Errorf("failed to load order line: %w", txErr)
		}

		// Only the quantity changes; price and tax snapshots stay frozen.
		line.Qty = qty
		if txErr = s.orderRepo.SaveLine(txCtx, line); txErr != nil {
			return fmt.Errorf("failed to update order line: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return OrderLineResponse{}, err
	}

	return toLineResponse(*line), nil
}

func (s *orderService) DeleteLine(ctx context.Context, actor model.Actor, orderID, lineID string) error {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return fmt.Errorf("invalid order id: %w", ErrValidation)
	}
	lid, err := uuid.Parse(lineID)
	if err != nil {
		return fmt.Errorf("invalid line id: %w", ErrValidation)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, txErr := s.lockOpenOrder(txCtx, actor, oid)
		if txErr != nil {
			return txErr
		}

		if _, txErr = s.orderRepo.FindLineByID(txCtx, order.ID, lid); txErr != nil {
			if IsRecordNotFound(txErr) {
				return fmt.Errorf("order line %s: %w", lid, ErrNotFound)
			}
			return fmt.Errorf("failed to load order line: %w", txErr)
		}
		if txErr = s.orderRepo.DeleteLine(txCtx, lid); txErr != nil {
			return fmt.Errorf("failed to delete order line: %w", txErr)
		}
		return nil
	})
}

func (s *orderService) DueTotal(ctx context.Context, actor model.Actor, orderID string) (decimal.Decimal, error) {
	order, err := s.findOrder(ctx, actor, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	discount, _ := order.ParseAppliedDiscount()
	return DueTotal(order.Lines, discount, order.TipAmount), nil
}

// lockOpenOrder loads the order FOR UPDATE and verifies it is still open.
// Must run inside TxManager.RunInTx.
func (s *orderService) lockOpenOrder(txCtx context.Context, actor model.Actor, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDForUpdate(txCtx, actor.BusinessID, orderID)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !order.IsOpen() {
		return nil, fmt.Errorf("order %s is %s, not modifiable: %w", orderID, order.Status, ErrInvalidState)
	}
	return order, nil
}

func (s *orderService) findOrder(ctx context.Context, actor model.Actor, orderID string) (*model.Order, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, fmt.Errorf("invalid order id: %w", ErrValidation)
	}
	order, err := s.orderRepo.FindByID(ctx, actor.BusinessID, oid)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, fmt.Errorf("order %s: %w", oid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *orderService) toOrderResponse(order model.Order) OrderResponse {
	discount, _ := order.ParseAppliedDiscount()

	lines := make([]OrderLineResponse, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, toLineResponse(l))
	}

	paid := decimal.Zero
	for _, p := range order.Payments {
		paid = paid.Add(p.Amount)
	}

	resp := OrderResponse{
		ID:          order.ID.String(),
		Status:      order.Status,
		EmployeeID:  order.EmployeeID.String(),
		TableOrArea: order.TableOrArea,
		TipAmount:   order.TipAmount.StringFixed(2),
		Discount:    discount,
		Lines:       lines,
		LinesTotal:  LinesTotal(order.Lines).StringFixed(2),
		DueTotal:    DueTotal(order.Lines, discount, order.TipAmount).StringFixed(2),
		PaidTotal:   paid.StringFixed(2),
		CreatedAt:   order.CreatedAt.Format(time.RFC3339),
	}
	if order.ClosedAt != nil {
		closed := order.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &closed
	}
	return resp
}

func toLineResponse(l model.OrderLine) OrderLineResponse {
	return OrderLineResponse{
		ID:         l.ID.String(),
		OptionID:   l.OptionID.String(),
		ItemName:   l.ItemNameSnapshot,
		OptionName: l.OptionNameSnapshot,
		Qty:        l.Qty.StringFixed(2),
		UnitPrice:  l.UnitPriceSnapshot.StringFixed(2),
		TaxRatePct: l.TaxRateSnapshotPct.StringFixed(2),
		LineBase:   l.Base().StringFixed(2),
		LineTax:    l.Tax().StringFixed(2),
		LineTotal:  l.Total().StringFixed(2),
	}
}
