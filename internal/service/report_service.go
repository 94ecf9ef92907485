package service

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type SettlementDataPoint struct {
	Period        string `json:"period"`
	GrossTaken    string `json:"gross_taken"`
	Refunded      string `json:"refunded"`
	NetTaken      string `json:"net_taken"`
	Tips          string `json:"tips"`
	GiftCardTaken string `json:"gift_card_taken"`
	PaymentCount  int64  `json:"payment_count"`
	Currency      string `json:"currency"`
}

type SettlementFilter struct {
	GroupBy  string // day, week, month, quarter
	From     time.Time
	To       time.Time
	Currency string // optional, defaults to the business currency
}

// --- Interface ---

type ReportService interface {
	// SettlementReport aggregates the payment ledger per period. When the
	// filter names a currency other than the business's, amounts are
	// converted at the current cached exchange rate.
	SettlementReport(ctx context.Context, actor model.Actor, filter SettlementFilter) ([]SettlementDataPoint, error)
}

type reportService struct {
	reportRepo   repository.ReportRepository
	businessRepo repository.BusinessRepository
	fxService    FxService
}

func NewReportService(reportRepo repository.ReportRepository, businessRepo repository.BusinessRepository, fxService FxService) ReportService {
	return &reportService{reportRepo: reportRepo, businessRepo: businessRepo, fxService: fxService}
}

// --- Implementation ---

func (s *reportService) SettlementReport(ctx context.Context, actor model.Actor, filter SettlementFilter) ([]SettlementDataPoint, error) {
	if !actor.CanManage() {
		return nil, fmt.Errorf("settlement reports require owner or manager role: %w", ErrValidation)
	}

	groupBy := filter.GroupBy
	switch groupBy {
	case "day", "week", "month", "quarter":
	default:
		groupBy = "day"
	}
	if !filter.To.After(filter.From) {
		return nil, fmt.Errorf("report window end must be after start: %w", ErrValidation)
	}

	business, err := s.businessRepo.FindByID(ctx, actor.BusinessID)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, fmt.Errorf("business %s: %w", actor.BusinessID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load business: %w", err)
	}

	targetCurrency := filter.Currency
	if targetCurrency == "" {
		targetCurrency = business.Currency
	}

	rate := decimal.NewFromInt(1)
	if targetCurrency != business.Currency {
		rate, err = s.fxService.Rate(ctx, business.Currency, targetCurrency)
		if err != nil {
			return nil, err
		}
	}

	rows, err := s.reportRepo.SettlementByPeriod(ctx, actor.BusinessID, groupBy, filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	result := make([]SettlementDataPoint, 0, len(rows))
	for _, r := range rows {
		net := r.GrossTaken.Sub(r.Refunded)
		result = append(result, SettlementDataPoint{
			Period:        r.Period,
			GrossTaken:    r.GrossTaken.Mul(rate).Round(2).String(),
			Refunded:      r.Refunded.Mul(rate).Round(2).String(),
			NetTaken:      net.Mul(rate).Round(2).String(),
			Tips:          r.Tips.Mul(rate).Round(2).String(),
			GiftCardTaken: r.GiftCardTaken.Mul(rate).Round(2).String(),
			PaymentCount:  r.PaymentCount,
			Currency:      targetCurrency,
		})
	}

	return result, nil
}
