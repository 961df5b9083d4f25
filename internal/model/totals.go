package model

import "github.com/shopspring/decimal"

// VATRate is the fixed statutory IVA rate applied to every quotation (16%)
var VATRate = decimal.NewFromFloat(0.16)

// Totals holds the unrounded monetary breakdown of a quotation. Rounding is
// applied only at the persistence/serialization boundary (see Rounded) so
// repeated recomputation never compounds rounding error.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Rounded returns the totals rounded half-up to 2 decimal places
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Tax:      t.Tax.Round(2),
		Total:    t.Total.Round(2),
	}
}

// ComputeTotals derives subtotal, tax, and total from line items and expenses.
// The function is total: entries with non-positive quantity or negative
// price/cost contribute zero instead of failing, leaving entry validation to
// the service boundary. Expenses fall back to their stored TotalCost when
// quantity and unit cost were not supplied.
func ComputeTotals(items []QuotationItem, expenses []QuotationExpense) Totals {
	subtotal := decimal.Zero

	for _, item := range items {
		if !item.Quantity.IsPositive() || item.UnitPrice.IsNegative() {
			continue
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(item.Quantity))
	}

	for _, exp := range expenses {
		subtotal = subtotal.Add(expenseContribution(exp))
	}

	tax := subtotal.Mul(VATRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

func expenseContribution(exp QuotationExpense) decimal.Decimal {
	if exp.Quantity.IsPositive() && !exp.UnitCost.IsNegative() && !exp.UnitCost.IsZero() {
		return exp.UnitCost.Mul(exp.Quantity)
	}
	// quantity/unit_cost absent: the stored total is authoritative
	if !exp.TotalCost.IsNegative() {
		return exp.TotalCost
	}
	return decimal.Zero
}
