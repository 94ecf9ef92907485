package service

import (
	"testing"

	"backoffice/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(qty, unitPrice, ratePct string) model.OrderLine {
	return model.OrderLine{
		Qty:                dec(qty),
		UnitPriceSnapshot:  dec(unitPrice),
		TaxRateSnapshotPct: dec(ratePct),
	}
}

func TestOrderLineAmounts(t *testing.T) {
	l := line("2", "3.50", "20")

	assert.True(t, l.Base().Equal(dec("7.00")), "base = %s", l.Base())
	assert.True(t, l.Tax().Equal(dec("1.40")), "tax = %s", l.Tax())
	assert.True(t, l.Total().Equal(dec("8.40")), "total = %s", l.Total())
}

func TestLinesTotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []model.OrderLine
		want  string
	}{
		{"empty", nil, "0"},
		{"single line", []model.OrderLine{line("2", "3.50", "20")}, "8.40"},
		{
			"mixed rates",
			[]model.OrderLine{
				line("2", "3.50", "20"),
				line("1", "10.00", "7"),
			},
			"19.10",
		},
		{"zero rate", []model.OrderLine{line("3", "5.00", "0")}, "15.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LinesTotal(tt.lines)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestDueTotal(t *testing.T) {
	lines := []model.OrderLine{line("2", "3.50", "20")} // totals 8.40

	tests := []struct {
		name     string
		discount *model.AppliedDiscount
		tip      string
		want     string
	}{
		{"no discount no tip", nil, "0", "8.40"},
		{"tip only", nil, "1.50", "9.90"},
		{
			"ten percent off",
			&model.AppliedDiscount{AppliedAmount: dec("0.84")},
			"0",
			"7.56",
		},
		{
			"discount plus tip",
			&model.AppliedDiscount{AppliedAmount: dec("0.84")},
			"2.00",
			"9.56",
		},
		{
			"discount exceeding total clamps to zero",
			&model.AppliedDiscount{AppliedAmount: dec("50.00")},
			"0",
			"0",
		},
		{
			"tip survives full discount",
			&model.AppliedDiscount{AppliedAmount: dec("50.00")},
			"1.00",
			"1.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DueTotal(lines, tt.discount, dec(tt.tip))
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseAppliedDiscount(t *testing.T) {
	t.Run("empty snapshot", func(t *testing.T) {
		var o model.Order
		snap, ok := o.ParseAppliedDiscount()
		assert.False(t, ok)
		assert.Nil(t, snap)
	})

	t.Run("malformed snapshot", func(t *testing.T) {
		o := model.Order{DiscountSnapshot: "{not json"}
		snap, ok := o.ParseAppliedDiscount()
		assert.False(t, ok)
		assert.Nil(t, snap)
	})

	t.Run("valid snapshot", func(t *testing.T) {
		o := model.Order{DiscountSnapshot: `{"code":"WELCOME10","type":"PERCENT","scope":"ORDER","value":"10","applied_amount":"0.84"}`}
		snap, ok := o.ParseAppliedDiscount()
		assert.True(t, ok)
		assert.Equal(t, "WELCOME10", snap.Code)
		assert.True(t, snap.AppliedAmount.Equal(decimal.RequireFromString("0.84")))
	})
}
