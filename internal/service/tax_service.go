package service

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateTaxRuleRequest struct {
	CountryCode string `json:"country_code" binding:"required,len=2"`
	TaxClass    string `json:"tax_class" binding:"required,oneof=STANDARD REDUCED ZERO"`
	RatePercent string `json:"rate_percent" binding:"required"` // decimal string, e.g. "20.00"
	ValidFrom   string `json:"valid_from" binding:"required"`   // YYYY-MM-DD
	ValidTo     string `json:"valid_to"`                        // YYYY-MM-DD, empty = open-ended
}

type TaxRuleResponse struct {
	ID          string  `json:"id"`
	CountryCode string  `json:"country_code"`
	TaxClass    string  `json:"tax_class"`
	RatePercent string  `json:"rate_percent"`
	ValidFrom   string  `json:"valid_from"`
	ValidTo     *string `json:"valid_to"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
}

// --- Interface ---

// TaxService resolves tax rates. CurrentRate is the single lookup used by
// line pricing: rate resolution failure on the write path is a hard error.
// There is no silent zero fallback anywhere; totals are computed from line
// snapshots, so a rule deleted after the fact cannot affect existing orders.
type TaxService interface {
	// CurrentRate returns the applicable rate percentage for a country and
	// tax class at the given instant, or ErrNotFound if no active rule's
	// validity window covers it. When overlapping rules qualify (a data
	// anomaly), the most recently introduced one wins.
	CurrentRate(ctx context.Context, countryCode, taxClass string, at time.Time) (decimal.Decimal, error)
	CreateRule(ctx context.Context, actor model.Actor, req CreateTaxRuleRequest) (TaxRuleResponse, error)
	ListRules(ctx context.Context, actor model.Actor, page, limit int) ([]TaxRuleResponse, int64, error)
}

type taxService struct {
	taxRepo   repository.TaxRuleRepository
	txManager repository.TxManager
}

func NewTaxService(taxRepo repository.TaxRuleRepository, txManager repository.TxManager) TaxService {
	return &taxService{taxRepo: taxRepo, txManager: txManager}
}

// --- Implementation ---

func (s *taxService) CurrentRate(ctx context.Context, countryCode, taxClass string, at time.Time) (decimal.Decimal, error) {
	candidates, err := s.taxRepo.FindCandidates(ctx, countryCode, taxClass, at)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query tax rules: %w", err)
	}
	if len(candidates) == 0 {
		return decimal.Zero, fmt.Errorf("no tax rule for %s/%s at %s: %w",
			countryCode, taxClass, at.Format("2006-01-02"), ErrNotFound)
	}
	if len(candidates) > 1 {
		log.Warn().
			Str("country_code", countryCode).
			Str("tax_class", taxClass).
			Int("candidates", len(candidates)).
			Msg("overlapping tax rules, picking latest valid_from")
	}

	// Candidates arrive ordered valid_from DESC; the newest rule wins.
	return candidates[0].RatePercent, nil
}

func (s *taxService) CreateRule(ctx context.Context, actor model.Actor, req CreateTaxRuleRequest) (TaxRuleResponse, error) {
	if !actor.CanManage() {
		return TaxRuleResponse{}, fmt.Errorf("role %s may not manage tax rules: %w", actor.Role, ErrValidation)
	}

	rate, err := decimal.NewFromString(req.RatePercent)
	if err != nil {
		return TaxRuleResponse{}, fmt.Errorf("invalid rate_percent: %w", ErrValidation)
	}
	if rate.IsNegative() {
		return TaxRuleResponse{}, fmt.Errorf("rate_percent must not be negative: %w", ErrValidation)
	}

	validFrom, err := time.Parse("2006-01-02", req.ValidFrom)
	if err != nil {
		return TaxRuleResponse{}, fmt.Errorf("invalid valid_from date (expected YYYY-MM-DD): %w", ErrValidation)
	}

	var validTo *time.Time
	if req.ValidTo != "" {
		t, parseErr := time.Parse("2006-01-02", req.ValidTo)
		if parseErr != nil {
			return TaxRuleResponse{}, fmt.Errorf("invalid valid_to date (expected YYYY-MM-DD): %w", ErrValidation)
		}
		if t.Before(validFrom) {
			return TaxRuleResponse{}, fmt.Errorf("valid_to before valid_from: %w", ErrValidation)
		}
		validTo = &t
	}

	rule := model.TaxRule{
		CountryCode: req.CountryCode,
		TaxClass:    req.TaxClass,
		RatePercent: rate,
		ValidFrom:   validFrom,
		ValidTo:     validTo,
		IsActive:    true,
	}

	// Rules are superseded, not deleted: the new rule deactivates any
	// active rule it overlaps, in the same transaction.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		superseded, deactivateErr := s.taxRepo.DeactivateOverlapping(txCtx, req.CountryCode, req.TaxClass, validFrom, validTo)
		if deactivateErr != nil {
			return fmt.Errorf("failed to deactivate overlapping rules: %w", deactivateErr)
		}
		if superseded > 0 {
			log.Info().
				Str("country_code", req.CountryCode).
				Str("tax_class", req.TaxClass).
				Int64("superseded", superseded).
				Msg("tax rules superseded")
		}
		if createErr := s.taxRepo.Create(txCtx, &rule); createErr != nil {
			return fmt.Errorf("failed to create tax rule: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return TaxRuleResponse{}, err
	}

	return toTaxRuleResponse(rule), nil
}

func (s *taxService) ListRules(ctx context.Context, actor model.Actor, page, limit int) ([]TaxRuleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	rules, total, err := s.taxRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tax rules: %w", err)
	}

	res := make([]TaxRuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toTaxRuleResponse(r))
	}
	return res, total, nil
}

func toTaxRuleResponse(r model.TaxRule) TaxRuleResponse {
	resp := TaxRuleResponse{
		ID:          r.ID.String(),
		CountryCode: r.CountryCode,
		TaxClass:    r.TaxClass,
		RatePercent: r.RatePercent.StringFixed(2),
		ValidFrom:   r.ValidFrom.Format("2006-01-02"),
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.ValidTo != nil {
		s := r.ValidTo.Format("2006-01-02")
		resp.ValidTo = &s
	}
	return resp
}
