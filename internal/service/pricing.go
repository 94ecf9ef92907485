package service

import (
	"backoffice/internal/model"

	"github.com/shopspring/decimal"
)

// Pricing helpers. Every total in the system funnels through these
// functions; nothing else re-derives amounts with its own rounding.

// LinesTotal sums line totals (base + tax) over all lines.
func LinesTotal(lines []model.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}

// DueTotal is the authoritative amount owed on an order: line totals minus
// the applied discount (clamped at zero) plus the accumulated tip. It gates
// order closure and quotes balances to payers.
func DueTotal(lines []model.OrderLine, discount *model.AppliedDiscount, tip decimal.Decimal) decimal.Decimal {
	net := LinesTotal(lines)
	if discount != nil {
		net = net.Sub(discount.AppliedAmount)
		if net.IsNegative() {
			net = decimal.Zero
		}
	}
	return net.Add(tip)
}
