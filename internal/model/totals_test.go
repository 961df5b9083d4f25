package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestComputeTotals(t *testing.T) {
	cases := []struct {
		name     string
		items    []QuotationItem
		expenses []QuotationExpense
		subtotal string
		tax      string
		total    string
	}{
		{
			name: "items plus expense at 16 percent",
			items: []QuotationItem{
				{UnitPrice: dec(t, "125.00"), Quantity: dec(t, "2")},
			},
			expenses: []QuotationExpense{
				{Quantity: dec(t, "1"), UnitCost: dec(t, "40.00")},
			},
			subtotal: "290",
			tax:      "46.4",
			total:    "336.4",
		},
		{
			name:     "empty lines yield zero",
			subtotal: "0",
			tax:      "0",
			total:    "0",
		},
		{
			name: "invalid entries contribute zero",
			items: []QuotationItem{
				{UnitPrice: dec(t, "100"), Quantity: dec(t, "0")},
				{UnitPrice: dec(t, "-5"), Quantity: dec(t, "3")},
				{UnitPrice: dec(t, "50"), Quantity: dec(t, "1")},
			},
			expenses: []QuotationExpense{
				{Quantity: dec(t, "-2"), UnitCost: dec(t, "10"), TotalCost: dec(t, "-20")},
			},
			subtotal: "50",
			tax:      "8",
			total:    "58",
		},
		{
			name: "expense falls back to stored total cost",
			expenses: []QuotationExpense{
				{TotalCost: dec(t, "75.50")},
			},
			subtotal: "75.5",
			tax:      "12.08",
			total:    "87.58",
		},
		{
			name: "fractional quantities",
			items: []QuotationItem{
				{UnitPrice: dec(t, "19.99"), Quantity: dec(t, "2.5")},
			},
			subtotal: "49.975",
			tax:      "7.996",
			total:    "57.971",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(tc.items, tc.expenses)
			if !got.Subtotal.Equal(dec(t, tc.subtotal)) {
				t.Errorf("subtotal = %s, want %s", got.Subtotal, tc.subtotal)
			}
			if !got.Tax.Equal(dec(t, tc.tax)) {
				t.Errorf("tax = %s, want %s", got.Tax, tc.tax)
			}
			if !got.Total.Equal(dec(t, tc.total)) {
				t.Errorf("total = %s, want %s", got.Total, tc.total)
			}
		})
	}
}

func TestComputeTotalsIdempotent(t *testing.T) {
	items := []QuotationItem{
		{UnitPrice: dec(t, "33.33"), Quantity: dec(t, "3")},
	}
	expenses := []QuotationExpense{
		{Quantity: dec(t, "2"), UnitCost: dec(t, "7.77")},
	}

	first := ComputeTotals(items, expenses)
	second := ComputeTotals(items, expenses)

	if !first.Total.Equal(second.Total) || !first.Tax.Equal(second.Tax) || !first.Subtotal.Equal(second.Subtotal) {
		t.Errorf("recomputation changed totals: %+v vs %+v", first, second)
	}
}

func TestTotalsRounded(t *testing.T) {
	totals := Totals{
		Subtotal: dec(t, "49.975"),
		Tax:      dec(t, "7.996"),
		Total:    dec(t, "57.971"),
	}.Rounded()

	if got := totals.Subtotal.StringFixed(2); got != "49.98" {
		t.Errorf("subtotal = %s, want 49.98", got)
	}
	if got := totals.Tax.StringFixed(2); got != "8.00" {
		t.Errorf("tax = %s, want 8.00", got)
	}
	if got := totals.Total.StringFixed(2); got != "57.97" {
		t.Errorf("total = %s, want 57.97", got)
	}
}

func TestPaymentStatus(t *testing.T) {
	cases := []struct {
		name  string
		total string
		paid  string
		want  string
	}{
		{"nothing paid", "100", "0", SalePending},
		{"partial", "100", "40", SalePartiallyPaid},
		{"exact", "100", "100", SalePaid},
		{"overpaid", "100", "150", SalePaid},
		{"zero total unpaid", "0", "0", SalePending},
		{"zero total with payment", "0", "10", SalePaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PaymentStatus(dec(t, tc.total), dec(t, tc.paid))
			if got != tc.want {
				t.Errorf("PaymentStatus(%s, %s) = %s, want %s", tc.total, tc.paid, got, tc.want)
			}
		})
	}
}

func TestSaleTransitionPredicates(t *testing.T) {
	cases := []struct {
		status      string
		addPayment  bool
		delivered   bool
		closed      bool
		cancellable bool
	}{
		{SalePending, true, false, false, true},
		{SalePartiallyPaid, true, false, false, true},
		{SalePaid, true, true, false, true},
		{SaleDelivered, false, false, true, false},
		{SaleClosed, false, false, false, false},
		{SaleCancelled, false, false, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			s := Sale{Status: tc.status}
			if got := s.CanAddPayment(); got != tc.addPayment {
				t.Errorf("CanAddPayment = %v, want %v", got, tc.addPayment)
			}
			if got := s.CanMarkDelivered(); got != tc.delivered {
				t.Errorf("CanMarkDelivered = %v, want %v", got, tc.delivered)
			}
			if got := s.CanMarkClosed(); got != tc.closed {
				t.Errorf("CanMarkClosed = %v, want %v", got, tc.closed)
			}
			if got := s.CanCancel(); got != tc.cancellable {
				t.Errorf("CanCancel = %v, want %v", got, tc.cancellable)
			}
		})
	}
}

func TestQuotationTransitionPredicates(t *testing.T) {
	saleID := uuid.New()

	draft := Quotation{Status: QuotationDraft}
	if !draft.CanEdit() || !draft.CanConfirm() || !draft.CanGenerateSale() || !draft.CanCancel() {
		t.Error("draft should allow edit, confirm, generate-sale, and cancel")
	}
	if draft.CanDuplicate() {
		t.Error("draft should not be duplicable")
	}

	confirmed := Quotation{Status: QuotationConfirmed}
	if confirmed.CanEdit() || confirmed.CanConfirm() || confirmed.CanGenerateSale() {
		t.Error("confirmed should reject edit, confirm, and generate-sale")
	}
	if !confirmed.CanDuplicate() || !confirmed.CanCancel() {
		t.Error("confirmed should allow duplicate and cancel")
	}

	withSale := Quotation{Status: QuotationConfirmed, SaleID: &saleID}
	if withSale.CanCancel() {
		t.Error("a quotation with a sale must not be cancellable")
	}

	cancelled := Quotation{Status: QuotationCancelled}
	if cancelled.CanCancel() || cancelled.CanEdit() || cancelled.CanGenerateSale() {
		t.Error("cancelled is terminal for edit, cancel, and generate-sale")
	}
	if !cancelled.CanDuplicate() {
		t.Error("cancelled should allow duplicate")
	}
}

func TestInvoiceAmountsFromTotal(t *testing.T) {
	subtotal, tax := InvoiceAmountsFromTotal(dec(t, "336.40"))
	if got := subtotal.StringFixed(2); got != "290.00" {
		t.Errorf("subtotal = %s, want 290.00", got)
	}
	if got := tax.StringFixed(2); got != "46.40" {
		t.Errorf("tax = %s, want 46.40", got)
	}
	if !subtotal.Add(tax).Equal(dec(t, "336.40")) {
		t.Error("subtotal + tax must reconstruct the total exactly")
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	if got := FormatInvoiceNumber(1); got != "INV-0001" {
		t.Errorf("got %s, want INV-0001", got)
	}
	if got := FormatInvoiceNumber(12345); got != "INV-12345" {
		t.Errorf("got %s, want INV-12345", got)
	}
}
