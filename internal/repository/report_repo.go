package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SettlementDataRow struct {
	Period        string          `gorm:"column:period"`
	GrossTaken    decimal.Decimal `gorm:"column:gross_taken"`
	Refunded      decimal.Decimal `gorm:"column:refunded"`
	Tips          decimal.Decimal `gorm:"column:tips"`
	PaymentCount  int64           `gorm:"column:payment_count"`
	GiftCardTaken decimal.Decimal `gorm:"column:gift_card_taken"`
}

type ReportRepository interface {
	// SettlementByPeriod aggregates payment rows for a business grouped by
	// DATE_TRUNC period. Positive amounts are takings, negative refunds.
	SettlementByPeriod(ctx context.Context, businessID uuid.UUID, groupBy string, from, to time.Time) ([]SettlementDataRow, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) SettlementByPeriod(ctx context.Context, businessID uuid.UUID, groupBy string, from, to time.Time) ([]SettlementDataRow, error) {
	query := `
		SELECT
			TO_CHAR(DATE_TRUNC($1, p.created_at), 'YYYY-MM-DD') AS period,
			COALESCE(SUM(CASE WHEN p.amount > 0 THEN p.amount ELSE 0 END), 0) AS gross_taken,
			COALESCE(SUM(CASE WHEN p.amount < 0 THEN -p.amount ELSE 0 END), 0) AS refunded,
			COALESCE(SUM(p.tip_portion), 0) AS tips,
			COUNT(*) AS payment_count,
			COALESCE(SUM(CASE WHEN p.method = 'GIFT_CARD' AND p.amount > 0 THEN p.amount ELSE 0 END), 0) AS gift_card_taken
		FROM payments p
		INNER JOIN orders o ON o.id = p.order_id
		WHERE o.business_id = $2
		  AND p.created_at >= $3::timestamptz
		  AND p.created_at <= $4::timestamptz
		GROUP BY DATE_TRUNC($1, p.created_at)
		ORDER BY period
	`

	var rows []SettlementDataRow
	if err := GetDB(ctx, r.db).Raw(query, groupBy, businessID, from, to).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query settlement report: %w", err)
	}

	return rows, nil
}
