package service

import (
	"context"
	"encoding/json"
	"fmt"

	"backoffice/internal/metrics"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	ws "backoffice/internal/websocket"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateStockItemRequest struct {
	CatalogItemID string `json:"catalog_item_id" binding:"required,uuid"`
	Unit          string `json:"unit"`
	InitialQty    string `json:"initial_qty"`    // decimal, may be "0"
	UnitCost      string `json:"unit_cost"`      // decimal, cost of the initial quantity
}

type PostMovementRequest struct {
	Type     string `json:"type" binding:"required,oneof=RECEIVE WASTE ADJUST"`
	Qty      string `json:"qty" binding:"required"` // positive decimal; sign derives from type
	UnitCost string `json:"unit_cost"`              // RECEIVE only
	Notes    string `json:"notes"`
}

type StockItemResponse struct {
	ID              string `json:"id"`
	CatalogItemID   string `json:"catalog_item_id"`
	Unit            string `json:"unit"`
	QtyOnHand       string `json:"qty_on_hand"`
	AverageUnitCost string `json:"average_unit_cost"`
}

type MovementResponse struct {
	ID               string  `json:"id"`
	Type             string  `json:"type"`
	Delta            string  `json:"delta"`
	UnitCostSnapshot string  `json:"unit_cost_snapshot"`
	OrderLineID      *string `json:"order_line_id"`
	Notes            string  `json:"notes,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// stockEvent is pushed to connected admin UIs after a movement commits.
type stockEvent struct {
	Event       string `json:"event"`
	StockItemID string `json:"stock_item_id"`
	Type        string `json:"type"`
	Delta       string `json:"delta"`
	QtyOnHand   string `json:"qty_on_hand"`
}

// --- Interface ---

// StockService keeps qty_on_hand in lockstep with the movement ledger.
// Every change is one atomic unit: append a movement row, then adjust the
// locked stock row. qty_on_hand is never recomputed on read.
type StockService interface {
	CreateItem(ctx context.Context, actor model.Actor, req CreateStockItemRequest) (StockItemResponse, error)
	ListItems(ctx context.Context, actor model.Actor, page, limit int) ([]StockItemResponse, int64, error)
	ListMovements(ctx context.Context, actor model.Actor, stockItemID string, page, limit int) ([]MovementResponse, int64, error)
	// RecordManualMovement posts a RECEIVE, WASTE or ADJUST movement from
	// the stock management UI.
	RecordManualMovement(ctx context.Context, actor model.Actor, stockItemID string, req PostMovementRequest) (StockItemResponse, error)
	// PostMovement is the primitive every stock change funnels through.
	// It must be called inside a TxManager transaction; the movement insert
	// and quantity update commit or roll back together. RECEIVE overwrites
	// the item's average unit cost with the movement's cost (simple
	// replacement, not a weighted average).
	PostMovement(txCtx context.Context, stockItemID uuid.UUID, movementType string, delta, unitCost decimal.Decimal, orderLineID *uuid.UUID, notes string) (*model.StockItem, error)
	// CheckConsistency compares qty_on_hand against the ledger sum.
	CheckConsistency(ctx context.Context, actor model.Actor, stockItemID string) (bool, error)
}

type stockService struct {
	stockRepo   repository.StockRepository
	catalogRepo repository.CatalogRepository
	txManager   repository.TxManager
	hub         *ws.Hub
}

func NewStockService(
	stockRepo repository.StockRepository,
	catalogRepo repository.CatalogRepository,
	txManager repository.TxManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		stockRepo:   stockRepo,
		catalogRepo: catalogRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Implementation ---

func (s *stockService) CreateItem(ctx context.Context, actor model.Actor, req CreateStockItemRequest) (StockItemResponse, error) {
	if !actor.CanManage() {
		return StockItemResponse{}, fmt.Errorf("role %s may not manage stock: %w", actor.Role, ErrValidation)
	}

	cid, err := uuid.Parse(req.CatalogItemID)
	if err != nil {
		return StockItemResponse{}, fmt.Errorf("invalid catalog_item_id: %w", ErrValidation)
	}

	initialQty := decimal.Zero
	if req.InitialQty != "" {
		initialQty, err = decimal.NewFromString(req.InitialQty)
		if err != nil || initialQty.IsNegative() {
			return StockItemResponse{}, fmt.Errorf("initial_qty must be a non-negative decimal: %w", ErrValidation)
		}
	}
	unitCost := decimal.Zero
	if req.UnitCost != "" {
		unitCost, err = decimal.NewFromString(req.UnitCost)
		if err != nil || unitCost.IsNegative() {
			return StockItemResponse{}, fmt.Errorf("unit_cost must be a non-negative decimal: %w", ErrValidation)
		}
	}

	if _, err = s.catalogRepo.FindItemByID(ctx, actor.BusinessID, cid); err != nil {
		if IsRecordNotFound(err) {
			return StockItemResponse{}, fmt.Errorf("catalog item %s: %w", cid, ErrNotFound)
		}
		return StockItemResponse{}, fmt.Errorf("failed to load catalog item: %w", err)
	}
	if _, err = s.stockRepo.FindItemByCatalogItem(ctx, cid); err == nil {
		return StockItemResponse{}, fmt.Errorf("catalog item %s already has a stock item: %w", cid, ErrConflict)
	} else if !IsRecordNotFound(err) {
		return StockItemResponse{}, fmt.Errorf("failed to check stock item: %w", err)
	}

	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}

	item := model.StockItem{
		CatalogItemID:   cid,
		Unit:            unit,
		QtyOnHand:       decimal.Zero,
		AverageUnitCost: unitCost,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if txErr := s.stockRepo.CreateItem(txCtx, &item); txErr != nil {
			return fmt.Errorf("failed to create stock item: %w", txErr)
		}
		if initialQty.IsPositive() {
			// Seed the ledger so the on-hand figure is auditable from the
			// first movement on.
			updated, txErr := s.PostMovement(txCtx, item.ID, model.MovementAdjust, initialQty, unitCost, nil, "initial quantity")
			if txErr != nil {
				return txErr
			}
			item = *updated
		}
		return nil
	})
	if err != nil {
		return StockItemResponse{}, err
	}

	return toStockItemResponse(item), nil
}

func (s *stockService) ListItems(ctx context.Context, actor model.Actor, page, limit int) ([]StockItemResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	items, total, err := s.stockRepo.ListItems(ctx, actor.BusinessID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock items: %w", err)
	}

	res := make([]StockItemResponse, 0, len(items))
	for _, it := range items {
		res = append(res, toStockItemResponse(it))
	}
	return res, total, nil
}

func (s *stockService) ListMovements(ctx context.Context, actor model.Actor, stockItemID string, page, limit int) ([]MovementResponse, int64, error) {
	sid, err := uuid.Parse(stockItemID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid stock item id: %w", ErrValidation)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	if _, err = s.scopedStockItem(ctx, actor, sid); err != nil {
		return nil, 0, err
	}

	movements, total, err := s.stockRepo.ListMovements(ctx, sid, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movements: %w", err)
	}

	res := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		res = append(res, toMovementResponse(m))
	}
	return res, total, nil
}

func (s *stockService) RecordManualMovement(ctx context.Context, actor model.Actor, stockItemID string, req PostMovementRequest) (StockItemResponse, error) {
	if !actor.CanManage() {
		return StockItemResponse{}, fmt.Errorf("role %s may not manage stock: %w", actor.Role, ErrValidation)
	}

	sid, err := uuid.Parse(stockItemID)
	if err != nil {
		return StockItemResponse{}, fmt.Errorf("invalid stock item id: %w", ErrValidation)
	}
	qty, err := decimal.NewFromString(req.Qty)
	if err != nil || qty.IsZero() {
		return StockItemResponse{}, fmt.Errorf("qty must be a non-zero decimal: %w", ErrValidation)
	}
	// RECEIVE and WASTE take magnitudes; only ADJUST may carry a sign.
	if req.Type != model.MovementAdjust && !qty.IsPositive() {
		return StockItemResponse{}, fmt.Errorf("qty must be positive for %s: %w", req.Type, ErrValidation)
	}
	unitCost := decimal.Zero
	if req.UnitCost != "" {
		unitCost, err = decimal.NewFromString(req.UnitCost)
		if err != nil || unitCost.IsNegative() {
			return StockItemResponse{}, fmt.Errorf("unit_cost must be a non-negative decimal: %w", ErrValidation)
		}
	}

	if _, err = s.scopedStockItem(ctx, actor, sid); err != nil {
		return StockItemResponse{}, err
	}

	delta := qty
	if req.Type == model.MovementWaste {
		delta = qty.Neg()
	}

	var updated *model.StockItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		updated, txErr = s.PostMovement(txCtx, sid, req.Type, delta, unitCost, nil, req.Notes)
		return txErr
	})
	if err != nil {
		return StockItemResponse{}, err
	}

	return toStockItemResponse(*updated), nil
}

func (s *stockService) PostMovement(txCtx context.Context, stockItemID uuid.UUID, movementType string, delta, unitCost decimal.Decimal, orderLineID *uuid.UUID, notes string) (*model.StockItem, error) {
	item, err := s.stockRepo.FindItemByIDForUpdate(txCtx, stockItemID)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, fmt.Errorf("stock item %s: %w", stockItemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock stock item: %w", err)
	}

	movement := model.StockMovement{
		StockItemID:      item.ID,
		Type:             movementType,
		Delta:            delta,
		UnitCostSnapshot: unitCost,
		OrderLineID:      orderLineID,
		Notes:            notes,
	}
	if err = s.stockRepo.CreateMovement(txCtx, &movement); err != nil {
		return nil, fmt.Errorf("failed to append stock movement: %w", err)
	}

	item.QtyOnHand = item.QtyOnHand.Add(delta)
	if movementType == model.MovementReceive {
		item.AverageUnitCost = unitCost
	}
	if err = s.stockRepo.SaveItem(txCtx, item); err != nil {
		return nil, fmt.Errorf("failed to update stock quantity: %w", err)
	}

	metrics.StockMovementsPosted.WithLabelValues(movementType).Inc()
	s.broadcast(stockEvent{
		Event:       "stock_movement",
		StockItemID: item.ID.String(),
		Type:        movementType,
		Delta:       delta.StringFixed(2),
		QtyOnHand:   item.QtyOnHand.StringFixed(2),
	})

	return item, nil
}

func (s *stockService) CheckConsistency(ctx context.Context, actor model.Actor, stockItemID string) (bool, error) {
	sid, err := uuid.Parse(stockItemID)
	if err != nil {
		return false, fmt.Errorf("invalid stock item id: %w", ErrValidation)
	}

	item, err := s.scopedStockItem(ctx, actor, sid)
	if err != nil {
		return false, err
	}

	ledgerSum, err := s.stockRepo.SumDeltas(ctx, sid)
	if err != nil {
		return false, fmt.Errorf("failed to sum movements: %w", err)
	}

	if !item.QtyOnHand.Equal(ledgerSum) {
		log.Error().
			Str("stock_item_id", sid.String()).
			Str("qty_on_hand", item.QtyOnHand.String()).
			Str("ledger_sum", ledgerSum.String()).
			Msg("stock quantity diverged from movement ledger")
		return false, nil
	}
	return true, nil
}

// scopedStockItem loads the stock item and verifies its catalog item
// belongs to the actor's business.
func (s *stockService) scopedStockItem(ctx context.Context, actor model.Actor, stockItemID uuid.UUID) (*model.StockItem, error) {
	item, err := s.stockRepo.FindItemByID(ctx, stockItemID)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, fmt.Errorf("stock item %s: %w", stockItemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load stock item: %w", err)
	}
	if _, err = s.catalogRepo.FindItemByID(ctx, actor.BusinessID, item.CatalogItemID); err != nil {
		if IsRecordNotFound(err) {
			return nil, fmt.Errorf("stock item %s: %w", stockItemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scope stock item: %w", err)
	}
	return item, nil
}

func (s *stockService) broadcast(event stockEvent) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
		// Never block a transaction commit on slow UI consumers.
	}
}

func toStockItemResponse(item model.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:              item.ID.String(),
		CatalogItemID:   item.CatalogItemID.String(),
		Unit:            item.Unit,
		QtyOnHand:       item.QtyOnHand.StringFixed(2),
		AverageUnitCost: item.AverageUnitCost.StringFixed(4),
	}
}

func toMovementResponse(m model.StockMovement) MovementResponse {
	resp := MovementResponse{
		ID:               m.ID.String(),
		Type:             m.Type,
		Delta:            m.Delta.StringFixed(2),
		UnitCostSnapshot: m.UnitCostSnapshot.StringFixed(4),
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if m.OrderLineID != nil {
		id := m.OrderLineID.String()
		resp.OrderLineID = &id
	}
	return resp
}
