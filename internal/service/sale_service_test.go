package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/client"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"gorm.io/gorm"
)

// fakeInvoicingClient records render calls and can be told to fail
type fakeInvoicingClient struct {
	failWith error
	calls    []client.InvoiceRenderRequest
}

func (f *fakeInvoicingClient) RenderInvoice(_ context.Context, req client.InvoiceRenderRequest) (string, error) {
	f.calls = append(f.calls, req)
	if f.failWith != nil {
		return "", f.failWith
	}
	return "https://files.example.com/" + req.InvoiceNumber + ".pdf", nil
}

func newSaleService(t *testing.T, db *gorm.DB, invoicing client.InvoicingClient) SaleService {
	t.Helper()
	return NewSaleService(
		repository.NewSaleRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		invoicing,
	)
}

// generateTestSale creates a quotation worth 336.40 and generates its sale
func generateTestSale(t *testing.T, db *gorm.DB) string {
	t.Helper()
	qsvc := newQuotationService(t, db)
	created := mustCreateDraft(t, qsvc)
	saleID, err := qsvc.GenerateSale(context.Background(), "", created.ID)
	if err != nil {
		t.Fatalf("generate sale: %v", err)
	}
	return saleID
}

func TestAddPaymentFullAmount(t *testing.T) {
	db := setupTestDB(t)
	svc := newSaleService(t, db, &fakeInvoicingClient{})
	saleID := generateTestSale(t, db)

	sale, err := svc.AddPayment(context.Background(), "", saleID, AddPaymentRequest{Amount: "336.40", Method: "transfer"})
	if err != nil {
		t.Fatalf("add payment: %v", err)
	}
	if sale.Status != model.SalePaid {
		t.Errorf("status = %s, want paid", sale.Status)
	}
	if sale.PaidAmount != "336.40" {
		t.Errorf("paid = %s, want 336.40", sale.PaidAmount)
	}
	if len(sale.Payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(sale.Payments))
	}
}

func TestAddPaymentAccumulates(t *testing.T) {
	db := setupTestDB(t)
	svc := newSaleService(t, db, &fakeInvoicingClient{})
	saleID := generateTestSale(t, db)
	ctx := context.Background()

	sale, err := svc.AddPayment(ctx, "", saleID, AddPaymentRequest{Amount: "100.00", Method: "cash"})
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if sale.Status != model.SalePartiallyPaid {
		t.Errorf("after 100: status = %s, want partially_paid", sale.Status)
	}

	sale, err = svc.AddPayment(ctx, "", saleID, AddPaymentRequest{Amount: "236.40", Method: "transfer"})
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if sale.Status != model.SalePaid {
		t.Errorf("after 336.40: status = %s, want paid", sale.Status)
	}
	if len(sale.Payments) != 2 {
		t.Errorf("payments = %d, want 2", len(sale.Payments))
	}
}

func TestAddPaymentOverpaymentTolerated(t *testing.T) {
	db := setupTestDB(t)
	svc := newSaleService(t, db, &fakeInvoicingClient{})
	saleID := generateTestSale(t, db)

	sale, err := svc.AddPayment(context.Background(), "", saleID, AddPaymentRequest{Amount: "500.00"})
	if err != nil {
		t.Fatalf("overpayment rejected: %v", err)
	}
	if sale.Status != model.SalePaid {
		t.Errorf("status = %s, want paid", sale.Status)
	}
	if sale.PaidAmount != "500.00" {
		t.Errorf("paid = %s, want 500.00", sale.PaidAmount)
	}
}

func TestAddPaymentValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := newSaleService(t, db, &fakeInvoicingClient{})
	saleID := generateTestSale(t, db)
	ctx := context.Background()

	cases := []struct {
		name string
		req  AddPaymentRequest
	}{
		{"zero amount", AddPaymentRequest{Amount: "0"}},
		{"negative amount", AddPaymentRequest{Amount: "-10"}},
		{"garbage amount", AddPaymentRequest{Amount: "ten"}},
		{"unknown method", AddPaymentRequest{Amount: "10", Method: "barter"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddPayment(ctx, "", saleID, tc.req)
			if apperror.KindOf(err) != apperror.KindValidation {
				t.Errorf("kind = %q, want validation_error", apperror.KindOf(err))
			}
		})
	}

	t.Run("cancelled sale rejects payments", func(t *testing.T) {
		if _, err := svc.Cancel(ctx, "", saleID); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		_, err := svc.AddPayment(ctx, "", saleID, AddPaymentRequest{Amount: "10"})
		if apperror.KindOf(err) != apperror.KindInvalidState {
			t.Errorf("kind = %q, want invalid_state", apperror.KindOf(err))
		}
	})
}

func TestMarkDelivered(t *testing.T) {
	db := setupTestDB(t)
	svc := newSaleService(t, db, &fakeInvoicingClient{})
	saleID := generateTestSale(t, db)
	ctx := context.Background()

	// pending sale cannot ship
	_, err := svc.MarkDelivered(ctx, "", saleID)
	if apperror.KindOf(err) != apperror.KindInvalidState {
		t.Errorf("pending: kind = %q, want invalid_state", apperror.KindOf(err))
	}

	if _, err := svc.AddPayment(ctx, "", saleID, AddPaymentRequest{Amount: "336.40"}); err != nil {
		t.Fatalf("pay: %v", err)
	}

	sale, err := svc.MarkDelivered(ctx, "", saleID)
	if err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if sale.Status != model.SaleDelivered {
		t.Errorf("status = %s, want delivered", sale.Status)
	}
	if sale.DeliveryDate == nil {
		t.Fatal("delivery date not stamped")
	}
	if sale.WarrantyEnd == nil {
		t.Fatal("warranty end not stamped")
	}

	delivered, _ := time.Parse("2006-01-02", *sale.DeliveryDate)
	warranty, _ := time.Parse("2006-01-02", *sale.WarrantyEnd)
	if !delivered.AddDate(0, 0, model.WarrantyDays).Equal(warranty) {
		t.Errorf("warranty end = %s, want %s + 90 days", *sale.WarrantyEnd, *sale.DeliveryDate)
	}

	// delivered sale cannot be delivered again
	_, err = svc.MarkDelivered(ctx, "", saleID)
	if apperror.KindOf(err) != apperror.KindInvalidState {
		t.Errorf("double deliver: kind = %q, want invalid_state", apperror.KindOf(err))
	}
}

func TestMarkClosed(t *testing.T) {
	db := setupTestDB(t)
	fake := &fakeInvoicingClient{}
	svc := newSaleService(t, db, fake)
	saleID := generateTestSale(t, db)
	ctx := context.Background()

	if _, err := svc.AddPayment(ctx, "", saleID, AddPaymentRequest{Amount: "336.40"}); err != nil {
		t.Fatalf("pay: %v", err)
	}

	// not delivered yet
	_, err := svc.MarkClosed(ctx, "", saleID)
	if apperror.KindOf(err) != apperror.KindInvalidState {
		t.Errorf("paid: kind = %q, want invalid_state", apperror.KindOf(err))
	}

	if _, err := svc.MarkDelivered(ctx, "", saleID); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	sale, err := svc.MarkClosed(ctx, "", saleID)
	if err != nil {
		t.Fatalf("mark closed: %v", err)
	}
	if sale.Status != model.SaleClosed {
		t.Errorf("status = %s, want closed", sale.Status)
	}
	if sale.InvoiceNumber == nil || *sale.InvoiceNumber != "INV-0001" {
		t.Errorf("invoice number = %v, want INV-0001", sale.InvoiceNumber)
	}
	if sale.InvoicePDFURL == nil {
		t.Fatal("pdf url not stored")
	}

	if len(fake.calls) != 1 {
		t.Fatalf("render calls = %d, want 1", len(fake.calls))
	}
	req := fake.calls[0]
	if req.Subtotal != "290.00" || req.Tax != "46.40" || req.Total != "336.40" {
		t.Errorf("render amounts = %s/%s/%s, want 290.00/46.40/336.40", req.Subtotal, req.Tax, req.Total)
	}
	if req.CustomerName != "Aceros del Norte" {
		t.Errorf("render customer = %s", req.CustomerName)
	}
}

func TestMarkClosedRollsBackOnCollaboratorFailure(t *testing.T) {
	db := setupTestDB(t)
	fake := &fakeInvoicingClient{failWith: errors.New("renderer down")}
	svc := newSaleService(t, db, fake)
	saleID := generateTestSale(t, db)
	ctx := context.Background()

	if _, err := svc.AddPayment(ctx, "", saleID, AddPaymentRequest{Amount: "336.40"}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := svc.MarkDelivered(ctx, "", saleID); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	_, err := svc.MarkClosed(ctx, "", saleID)
	if apperror.KindOf(err) != apperror.KindExternal {
		t.Fatalf("kind = %q, want external_error", apperror.KindOf(err))
	}

	// the sale stays delivered and no invoice row survives the rollback
	sale, err := svc.Get(ctx, saleID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if sale.Status != model.SaleDelivered {
		t.Errorf("status = %s, want delivered after rollback", sale.Status)
	}
	var count int64
	if err := db.Model(&model.Invoice{}).Count(&count).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if count != 0 {
		t.Errorf("invoice rows = %d, want 0 after rollback", count)
	}

	// retry succeeds once the collaborator recovers
	fake.failWith = nil
	sale, err = svc.MarkClosed(ctx, "", saleID)
	if err != nil {
		t.Fatalf("retry close: %v", err)
	}
	if sale.Status != model.SaleClosed {
		t.Errorf("status = %s, want closed after retry", sale.Status)
	}
}

func TestSaleCancelMatrix(t *testing.T) {
	db := setupTestDB(t)
	svc := newSaleService(t, db, &fakeInvoicingClient{})
	ctx := context.Background()

	t.Run("pending cancels without a reason", func(t *testing.T) {
		saleID := generateTestSale(t, db)
		sale, err := svc.Cancel(ctx, "", saleID)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if sale.Status != model.SaleCancelled {
			t.Errorf("status = %s, want cancelada", sale.Status)
		}
	})

	t.Run("paid still cancels", func(t *testing.T) {
		saleID := generateTestSale(t, db)
		if _, err := svc.AddPayment(ctx, "", saleID, AddPaymentRequest{Amount: "336.40"}); err != nil {
			t.Fatalf("pay: %v", err)
		}
		if _, err := svc.Cancel(ctx, "", saleID); err != nil {
			t.Fatalf("cancel paid: %v", err)
		}
	})

	t.Run("delivered is past the point of no return", func(t *testing.T) {
		saleID := generateTestSale(t, db)
		if _, err := svc.AddPayment(ctx, "", saleID, AddPaymentRequest{Amount: "336.40"}); err != nil {
			t.Fatalf("pay: %v", err)
		}
		if _, err := svc.MarkDelivered(ctx, "", saleID); err != nil {
			t.Fatalf("deliver: %v", err)
		}
		_, err := svc.Cancel(ctx, "", saleID)
		if apperror.KindOf(err) != apperror.KindInvalidState {
			t.Errorf("kind = %q, want invalid_state", apperror.KindOf(err))
		}
	})
}

func TestSalePatch(t *testing.T) {
	db := setupTestDB(t)
	svc := newSaleService(t, db, &fakeInvoicingClient{})
	ctx := context.Background()

	t.Run("notes only", func(t *testing.T) {
		saleID := generateTestSale(t, db)
		notes := "deliver to dock 4"
		sale, err := svc.Patch(ctx, "", saleID, PatchSaleRequest{Notes: &notes})
		if err != nil {
			t.Fatalf("patch: %v", err)
		}
		if sale.Notes == nil || *sale.Notes != notes {
			t.Error("notes not stored")
		}
		if sale.Status != model.SalePending {
			t.Errorf("status changed to %s", sale.Status)
		}
	})

	t.Run("status cancelada via patch", func(t *testing.T) {
		saleID := generateTestSale(t, db)
		status := model.SaleCancelled
		sale, err := svc.Patch(ctx, "", saleID, PatchSaleRequest{Status: &status})
		if err != nil {
			t.Fatalf("patch: %v", err)
		}
		if sale.Status != model.SaleCancelled {
			t.Errorf("status = %s, want cancelada", sale.Status)
		}
	})

	t.Run("other statuses rejected", func(t *testing.T) {
		saleID := generateTestSale(t, db)
		status := model.SalePaid
		_, err := svc.Patch(ctx, "", saleID, PatchSaleRequest{Status: &status})
		if apperror.KindOf(err) != apperror.KindInvalidState {
			t.Errorf("kind = %q, want invalid_state", apperror.KindOf(err))
		}
	})

	t.Run("empty patch rejected", func(t *testing.T) {
		saleID := generateTestSale(t, db)
		_, err := svc.Patch(ctx, "", saleID, PatchSaleRequest{})
		if apperror.KindOf(err) != apperror.KindValidation {
			t.Errorf("kind = %q, want validation_error", apperror.KindOf(err))
		}
	})
}

func TestSaleList(t *testing.T) {
	db := setupTestDB(t)
	svc := newSaleService(t, db, &fakeInvoicingClient{})
	ctx := context.Background()

	first := generateTestSale(t, db)
	second := generateTestSale(t, db)
	if _, err := svc.Cancel(ctx, "", second); err != nil {
		t.Fatalf("cancel second: %v", err)
	}

	rows, total, err := svc.List(ctx, SaleFilter{Status: model.SalePending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != first {
		t.Errorf("status filter returned %d rows (total %d)", len(rows), total)
	}
}
