package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateDiscountRequest struct {
	Code          string   `json:"code" binding:"required"`
	Type          string   `json:"type" binding:"required,oneof=PERCENT AMOUNT"`
	Scope         string   `json:"scope" binding:"required,oneof=ORDER LINE"`
	Value         string   `json:"value" binding:"required"`
	StartsAt      string   `json:"starts_at" binding:"required"` // YYYY-MM-DD
	EndsAt        string   `json:"ends_at"`                      // YYYY-MM-DD, empty = unbounded
	EligibleItems []string `json:"eligible_items"`               // catalog item ids, LINE scope only
}

type ApplyDiscountRequest struct {
	Code string `json:"code" binding:"required"`
}

type DiscountResponse struct {
	ID            string   `json:"id"`
	Code          string   `json:"code"`
	Type          string   `json:"type"`
	Scope         string   `json:"scope"`
	Value         string   `json:"value"`
	StartsAt      string   `json:"starts_at"`
	EndsAt        *string  `json:"ends_at"`
	Status        string   `json:"status"`
	EligibleItems []string `json:"eligible_items"`
}

type AppliedDiscountResponse struct {
	Code          string `json:"code"`
	AppliedAmount string `json:"applied_amount"`
	DueTotal      string `json:"due_total"`
}

// --- Interface ---

// DiscountService evaluates discount codes against open orders. The
// computed amount is frozen as a JSON snapshot on the order; downstream
// totals read the snapshot, never the live discount row.
type DiscountService interface {
	Create(ctx context.Context, actor model.Actor, req CreateDiscountRequest) (DiscountResponse, error)
	List(ctx context.Context, actor model.Actor, page, limit int) ([]DiscountResponse, int64, error)
	Deactivate(ctx context.Context, actor model.Actor, discountID string) error
	// ApplyDiscount validates the code, computes the applied amount under
	// the scope rules and clamps it to the order's pre-discount total.
	// Re-applying replaces any previously applied discount.
	ApplyDiscount(ctx context.Context, actor model.Actor, orderID string, req ApplyDiscountRequest) (AppliedDiscountResponse, error)
	RemoveDiscount(ctx context.Context, actor model.Actor, orderID string) error
}

type discountService struct {
	discountRepo repository.DiscountRepository
	orderRepo    repository.OrderRepository
	catalogRepo  repository.CatalogRepository
	txManager    repository.TxManager
	now          func() time.Time
}

func NewDiscountService(
	discountRepo repository.DiscountRepository,
	orderRepo repository.OrderRepository,
	catalogRepo repository.CatalogRepository,
	txManager repository.TxManager,
) DiscountService {
	return &discountService{
		discountRepo: discountRepo,
		orderRepo:    orderRepo,
		catalogRepo:  catalogRepo,
		txManager:    txManager,
		now:          time.Now,
	}
}

// --- Implementation ---

func (s *discountService) Create(ctx context.Context, actor model.Actor, req CreateDiscountRequest) (DiscountResponse, error) {
	if !actor.CanManage() {
		return DiscountResponse{}, fmt.Errorf("role %s may not manage discounts: %w", actor.Role, ErrValidation)
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil || !value.IsPositive() {
		return DiscountResponse{}, fmt.Errorf("value must be a positive decimal: %w", ErrValidation)
	}
	if req.Type == model.DiscountTypePercent && value.GreaterThan(decimal.NewFromInt(100)) {
		return DiscountResponse{}, fmt.Errorf("percent value exceeds 100: %w", ErrValidation)
	}

	startsAt, err := time.Parse("2006-01-02", req.StartsAt)
	if err != nil {
		return DiscountResponse{}, fmt.Errorf("invalid starts_at date: %w", ErrValidation)
	}
	var endsAt *time.Time
	if req.EndsAt != "" {
		t, parseErr := time.Parse("2006-01-02", req.EndsAt)
		if parseErr != nil {
			return DiscountResponse{}, fmt.Errorf("invalid ends_at date: %w", ErrValidation)
		}
		endsAt = &t
	}

	if _, err = s.discountRepo.FindByCode(ctx, actor.BusinessID, req.Code); err == nil {
		return DiscountResponse{}, fmt.Errorf("discount code %q already exists: %w", req.Code, ErrConflict)
	} else if !IsRecordNotFound(err) {
		return DiscountResponse{}, fmt.Errorf("failed to check discount code: %w", err)
	}

	discount := model.Discount{
		BusinessID: actor.BusinessID,
		Code:       req.Code,
		Type:       req.Type,
		Scope:      req.Scope,
		Value:      value,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		Status:     model.DiscountStatusActive,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if txErr := s.discountRepo.Create(txCtx, &discount); txErr != nil {
			return fmt.Errorf("failed to create discount: %w", txErr)
		}
		for _, itemID := range req.EligibleItems {
			cid, parseErr := uuid.Parse(itemID)
			if parseErr != nil {
				return fmt.Errorf("invalid eligible item id %q: %w", itemID, ErrValidation)
			}
			if _, findErr := s.catalogRepo.FindItemByID(txCtx, actor.BusinessID, cid); findErr != nil {
				if IsRecordNotFound(findErr) {
					return fmt.Errorf("eligible item %s: %w", cid, ErrNotFound)
				}
				return fmt.Errorf("failed to load eligible item: %w", findErr)
			}
			row := model.DiscountEligibility{DiscountID: discount.ID, CatalogItemID: cid}
			if addErr := s.discountRepo.AddEligibility(txCtx, &row); addErr != nil {
				return fmt.Errorf("failed to add eligibility: %w", addErr)
			}
			discount.Eligibility = append(discount.Eligibility, row)
		}
		return nil
	})
	if err != nil {
		return DiscountResponse{}, err
	}

	return toDiscountResponse(discount), nil
}

func (s *discountService) List(ctx context.Context, actor model.Actor, page, limit int) ([]DiscountResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	discounts, total, err := s.discountRepo.List(ctx, actor.BusinessID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list discounts: %w", err)
	}

	res := make([]DiscountResponse, 0, len(discounts))
	for _, d := range discounts {
		res = append(res, toDiscountResponse(d))
	}
	return res, total, nil
}

func (s *discountService) Deactivate(ctx context.Context, actor model.Actor, discountID string) error {
	if !actor.CanManage() {
		return fmt.Errorf("role %s may not manage discounts: %w", actor.Role, ErrValidation)
	}
	did, err := uuid.Parse(discountID)
	if err != nil {
		return fmt.Errorf("invalid discount id: %w", ErrValidation)
	}

	discount, err := s.discountRepo.FindByID(ctx, actor.BusinessID, did)
	if err != nil {
		if IsRecordNotFound(err) {
			return fmt.Errorf("discount %s: %w", did, ErrNotFound)
		}
		return fmt.Errorf("failed to load discount: %w", err)
	}

	discount.Status = model.DiscountStatusInactive
	if err := s.discountRepo.Save(ctx, discount); err != nil {
		return fmt.Errorf("failed to deactivate discount: %w", err)
	}
	return nil
}

func (s *discountService) ApplyDiscount(ctx context.Context, actor model.Actor, orderID string, req ApplyDiscountRequest) (AppliedDiscountResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return AppliedDiscountResponse{}, fmt.Errorf("invalid order id: %w", ErrValidation)
	}

	var resp AppliedDiscountResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, txErr := s.orderRepo.FindByIDForUpdate(txCtx, actor.BusinessID, oid)
		if txErr != nil {
			if IsRecordNotFound(txErr) {
				return fmt.Errorf("order %s: %w", oid, ErrNotFound)
			}
			return fmt.Errorf("failed to load order: %w", txErr)
		}
		if !order.IsOpen() {
			return fmt.Errorf("order %s is %s, not modifiable: %w", oid, order.Status, ErrInvalidState)
		}

		discount, txErr := s.discountRepo.FindByCode(txCtx, actor.BusinessID, req.Code)
		if txErr != nil {
			if IsRecordNotFound(txErr) {
				return fmt.Errorf("discount code %q: %w", req.Code, ErrNotFound)
			}
			return fmt.Errorf("failed to load discount: %w", txErr)
		}
		if !discount.Redeemable(s.now()) {
			return fmt.Errorf("discount %q is inactive or outside its window: %w", req.Code, ErrNotApplicable)
		}

		lines, txErr := s.orderRepo.FindLines(txCtx, order.ID)
		if txErr != nil {
			return fmt.Errorf("failed to load order lines: %w", txErr)
		}

		var eligible map[uuid.UUID]bool
		if discount.Scope == model.DiscountScopeLine {
			eligible = make(map[uuid.UUID]bool)
			for _, e := range discount.Eligibility {
				eligible[e.CatalogItemID] = true
			}
		}

		eligibleLines := lines
		if discount.Scope == model.DiscountScopeLine {
			eligibleLines = nil
			for _, l := range lines {
				opt, optErr := s.catalogRepo.FindOptionWithItem(txCtx, actor.BusinessID, l.OptionID)
				if optErr != nil {
					return fmt.Errorf("failed to resolve line item: %w", optErr)
				}
				if eligible[opt.CatalogItemID] {
					eligibleLines = append(eligibleLines, l)
				}
			}
			if len(eligibleLines) == 0 {
				return fmt.Errorf("discount %q matches no lines on this order: %w", req.Code, ErrNotApplicable)
			}
		}

		applied := ComputeDiscountAmount(*discount, lines, eligibleLines)

		snap := model.AppliedDiscount{
			Code:          discount.Code,
			Type:          discount.Type,
			Scope:         discount.Scope,
			Value:         discount.Value,
			AppliedAmount: applied,
		}
		raw, marshalErr := json.Marshal(snap)
		if marshalErr != nil {
			return fmt.Errorf("failed to encode discount snapshot: %w", marshalErr)
		}

		order.DiscountID = &discount.ID
		order.DiscountSnapshot = string(raw)
		if txErr = s.orderRepo.Save(txCtx, order); txErr != nil {
			return fmt.Errorf("failed to persist discount on order: %w", txErr)
		}

		resp = AppliedDiscountResponse{
			Code:          discount.Code,
			AppliedAmount: applied.StringFixed(2),
			DueTotal:      DueTotal(lines, &snap, order.TipAmount).StringFixed(2),
		}
		return nil
	})
	if err != nil {
		return AppliedDiscountResponse{}, err
	}
	return resp, nil
}

func (s *discountService) RemoveDiscount(ctx context.Context, actor model.Actor, orderID string) error {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return fmt.Errorf("invalid order id: %w", ErrValidation)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, txErr := s.orderRepo.FindByIDForUpdate(txCtx, actor.BusinessID, oid)
		if txErr != nil {
			if IsRecordNotFound(txErr) {
				return fmt.Errorf("order %s: %w", oid, ErrNotFound)
			}
			return fmt.Errorf("failed to load order: %w", txErr)
		}
		if !order.IsOpen() {
			return fmt.Errorf("order %s is %s, not modifiable: %w", oid, order.Status, ErrInvalidState)
		}

		order.DiscountID = nil
		order.DiscountSnapshot = ""
		if txErr = s.orderRepo.Save(txCtx, order); txErr != nil {
			return fmt.Errorf("failed to clear discount: %w", txErr)
		}
		return nil
	})
}

// ComputeDiscountAmount computes the applied amount for a discount given
// all order lines and the subset qualifying under the discount's scope
// (identical slices for ORDER scope).
//
// ORDER scope applies the percent or fixed amount against the full order
// total (tax inclusive). LINE scope accumulates per qualifying line against
// the line's pre-tax base, one discount unit per line for AMOUNT type. The
// result is always clamped so it never exceeds the order's pre-discount
// total.
func ComputeDiscountAmount(discount model.Discount, allLines, eligibleLines []model.OrderLine) decimal.Decimal {
	orderTotal := LinesTotal(allLines)
	hundred := decimal.NewFromInt(100)

	var applied decimal.Decimal
	switch discount.Scope {
	case model.DiscountScopeLine:
		eligibleBase := decimal.Zero
		for _, l := range eligibleLines {
			eligibleBase = eligibleBase.Add(l.Base())
			if discount.Type == model.DiscountTypePercent {
				applied = applied.Add(l.Base().Mul(discount.Value).Div(hundred))
			} else {
				// One discount unit per qualifying line, cumulative.
				applied = applied.Add(discount.Value)
			}
		}
		// A line-scope discount cannot exceed what the qualifying lines
		// are worth pre-tax.
		if applied.GreaterThan(eligibleBase) {
			applied = eligibleBase
		}
	default: // ORDER scope
		if discount.Type == model.DiscountTypePercent {
			applied = orderTotal.Mul(discount.Value).Div(hundred)
		} else {
			applied = discount.Value
		}
	}

	if applied.GreaterThan(orderTotal) {
		applied = orderTotal
	}
	return applied
}

func toDiscountResponse(d model.Discount) DiscountResponse {
	items := make([]string, 0, len(d.Eligibility))
	for _, e := range d.Eligibility {
		items = append(items, e.CatalogItemID.String())
	}

	resp := DiscountResponse{
		ID:            d.ID.String(),
		Code:          d.Code,
		Type:          d.Type,
		Scope:         d.Scope,
		Value:         d.Value.StringFixed(2),
		StartsAt:      d.StartsAt.Format("2006-01-02"),
		Status:        d.Status,
		EligibleItems: items,
	}
	if d.EndsAt != nil {
		s := d.EndsAt.Format("2006-01-02")
		resp.EndsAt = &s
	}
	return resp
}
