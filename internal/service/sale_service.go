package service

import (
	"context"
	"encoding/json"
	"time"

	"backend/internal/client"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type AddPaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
	Method string `json:"method"`
	Note   string `json:"note"`
}

// PatchSaleRequest updates notes and/or status. Status changes are accepted
// only when the lifecycle allows the transition; everything else must go
// through the dedicated actions.
type PatchSaleRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

type SaleFilter struct {
	Status string
	Page   int
	Limit  int
}

type PaymentResponse struct {
	ID          string  `json:"id"`
	Amount      string  `json:"amount"`
	Method      string  `json:"method"`
	Note        *string `json:"note"`
	PaymentDate string  `json:"payment_date"`
}

type SaleResponse struct {
	ID            string            `json:"id"`
	QuotationID   string            `json:"quotation_id"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail *string           `json:"customer_email"`
	Currency      string            `json:"currency"`
	TotalAmount   string            `json:"total_amount"`
	PaidAmount    string            `json:"paid_amount"`
	Status        string            `json:"status"`
	SaleDate      string            `json:"sale_date"`
	DeliveryDate  *string           `json:"delivery_date"`
	WarrantyEnd   *string           `json:"warranty_end"`
	Notes         *string           `json:"notes"`
	Payments      []PaymentResponse `json:"payments"`
	InvoiceNumber *string           `json:"invoice_number"`
	InvoicePDFURL *string           `json:"invoice_pdf_url"`
}

// --- Interface ---

type SaleService interface {
	Get(ctx context.Context, id string) (SaleResponse, error)
	List(ctx context.Context, filter SaleFilter) ([]SaleResponse, int64, error)
	AddPayment(ctx context.Context, userID string, id string, req AddPaymentRequest) (SaleResponse, error)
	MarkDelivered(ctx context.Context, userID string, id string) (SaleResponse, error)
	MarkClosed(ctx context.Context, userID string, id string) (SaleResponse, error)
	Cancel(ctx context.Context, userID string, id string) (SaleResponse, error)
	Patch(ctx context.Context, userID string, id string, req PatchSaleRequest) (SaleResponse, error)
}

type saleService struct {
	saleRepo    repository.SaleRepository
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	invoicing   client.InvoicingClient
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	invoicing client.InvoicingClient,
) SaleService {
	return &saleService{
		saleRepo:    saleRepo,
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		invoicing:   invoicing,
	}
}

// --- Implementation ---

func (s *saleService) Get(ctx context.Context, id string) (SaleResponse, error) {
	saleID, err := parseID(id)
	if err != nil {
		return SaleResponse{}, err
	}
	sale, err := s.saleRepo.FindByIDWithPayments(ctx, saleID)
	if err != nil {
		return SaleResponse{}, notFoundOr(err, "sale %s not found", id)
	}
	return s.toResponse(ctx, sale), nil
}

func (s *saleService) List(ctx context.Context, filter SaleFilter) ([]SaleResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	sales, total, err := s.saleRepo.List(ctx, repository.SaleListFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	result := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		result = append(result, s.toResponse(ctx, &sales[i]))
	}
	return result, total, nil
}

// AddPayment records a payment and re-derives the sale status from the paid
// sum. Payment row and status land in the same transaction: a payment
// without its status effect would be a corruption, not a partial success.
func (s *saleService) AddPayment(ctx context.Context, userID string, id string, req AddPaymentRequest) (SaleResponse, error) {
	saleID, err := parseID(id)
	if err != nil {
		return SaleResponse{}, err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return SaleResponse{}, apperror.Validation("invalid amount %q", req.Amount)
	}
	if !amount.IsPositive() {
		return SaleResponse{}, apperror.Validation("amount must be greater than 0")
	}

	method := req.Method
	if method == "" {
		method = model.PaymentTransfer
	}
	if !model.ValidPaymentMethod(method) {
		return SaleResponse{}, apperror.Validation("unknown payment method %q", method)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByIDWithPayments(txCtx, saleID)
		if err != nil {
			return notFoundOr(err, "sale %s not found", id)
		}
		if !sale.CanAddPayment() {
			return apperror.InvalidState("sale in status %q does not accept payments", sale.Status)
		}

		payment := &model.Payment{
			SaleID:      sale.ID,
			Amount:      amount,
			Method:      method,
			PaymentDate: time.Now(),
		}
		if req.Note != "" {
			payment.Note = &req.Note
		}
		if err := s.saleRepo.AddPayment(txCtx, payment); err != nil {
			return err
		}

		paidSum := sale.PaidSum().Add(amount)
		sale.Status = model.PaymentStatus(sale.TotalAmount, paidSum)
		if err := s.saleRepo.Update(txCtx, sale); err != nil {
			return err
		}

		return s.writeAudit(txCtx, userID, model.ActionAddPayment, sale, map[string]string{
			"amount": amount.StringFixed(2),
			"method": method,
			"paid":   paidSum.StringFixed(2),
		})
	})
	if err != nil {
		return SaleResponse{}, err
	}

	return s.reload(ctx, saleID)
}

func (s *saleService) MarkDelivered(ctx context.Context, userID string, id string) (SaleResponse, error) {
	saleID, err := parseID(id)
	if err != nil {
		return SaleResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByID(txCtx, saleID)
		if err != nil {
			return notFoundOr(err, "sale %s not found", id)
		}
		if !sale.CanMarkDelivered() {
			return apperror.InvalidState("sale in status %q cannot be delivered, it must be fully paid", sale.Status)
		}

		now := time.Now()
		warranty := now.AddDate(0, 0, model.WarrantyDays)
		sale.Status = model.SaleDelivered
		sale.DeliveryDate = &now
		sale.WarrantyEnd = &warranty

		if err := s.saleRepo.Update(txCtx, sale); err != nil {
			return err
		}
		return s.writeAudit(txCtx, userID, model.ActionMarkDelivered, sale, nil)
	})
	if err != nil {
		return SaleResponse{}, err
	}

	return s.reload(ctx, saleID)
}

// MarkClosed closes a delivered sale: the fiscal invoice is numbered and
// stored and the external invoicing collaborator renders the PDF. The
// collaborator is called inside the transaction so its failure rolls back
// everything and the sale stays delivered.
func (s *saleService) MarkClosed(ctx context.Context, userID string, id string) (SaleResponse, error) {
	saleID, err := parseID(id)
	if err != nil {
		return SaleResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByIDWithPayments(txCtx, saleID)
		if err != nil {
			return notFoundOr(err, "sale %s not found", id)
		}
		if !sale.CanMarkClosed() {
			return apperror.InvalidState("sale in status %q cannot be closed, it must be delivered first", sale.Status)
		}

		count, err := s.invoiceRepo.Count(txCtx)
		if err != nil {
			return err
		}

		subtotal, tax := model.InvoiceAmountsFromTotal(sale.TotalAmount)
		invoice := &model.Invoice{
			SaleID:        sale.ID,
			InvoiceNumber: model.FormatInvoiceNumber(count + 1),
			IssueDate:     time.Now(),
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         sale.TotalAmount,
		}

		renderReq := client.InvoiceRenderRequest{
			InvoiceNumber: invoice.InvoiceNumber,
			IssueDate:     invoice.IssueDate.Format("2006-01-02"),
			Subtotal:      invoice.Subtotal.StringFixed(2),
			Tax:           invoice.Tax.StringFixed(2),
			Total:         invoice.Total.StringFixed(2),
		}
		if sale.Quotation != nil {
			renderReq.CustomerName = sale.Quotation.CustomerName
			renderReq.Currency = sale.Quotation.Currency
			if sale.Quotation.CustomerEmail != nil {
				renderReq.CustomerEmail = *sale.Quotation.CustomerEmail
			}
		}

		pdfURL, err := s.invoicing.RenderInvoice(txCtx, renderReq)
		if err != nil {
			return apperror.External("invoicing collaborator failed", err)
		}

		invoice.PDFURL = &pdfURL
		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return err
		}

		sale.Status = model.SaleClosed
		sale.InvoicePDFURL = &pdfURL
		if err := s.saleRepo.Update(txCtx, sale); err != nil {
			return err
		}
		return s.writeAudit(txCtx, userID, model.ActionMarkClosed, sale, map[string]string{
			"invoice_number": invoice.InvoiceNumber,
		})
	})
	if err != nil {
		return SaleResponse{}, err
	}

	return s.reload(ctx, saleID)
}

// Cancel aborts a sale that has not shipped. No reason is collected here,
// unlike quotation cancellation — the asymmetry is inherited from the
// observed product behavior and kept deliberately.
func (s *saleService) Cancel(ctx context.Context, userID string, id string) (SaleResponse, error) {
	saleID, err := parseID(id)
	if err != nil {
		return SaleResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByID(txCtx, saleID)
		if err != nil {
			return notFoundOr(err, "sale %s not found", id)
		}
		if !sale.CanCancel() {
			return apperror.InvalidState("sale in status %q cannot be cancelled", sale.Status)
		}

		sale.Status = model.SaleCancelled
		if err := s.saleRepo.Update(txCtx, sale); err != nil {
			return err
		}
		return s.writeAudit(txCtx, userID, model.ActionCancelSale, sale, nil)
	})
	if err != nil {
		return SaleResponse{}, err
	}

	return s.reload(ctx, saleID)
}

func (s *saleService) Patch(ctx context.Context, userID string, id string, req PatchSaleRequest) (SaleResponse, error) {
	if req.Status == nil && req.Notes == nil {
		return SaleResponse{}, apperror.Validation("nothing to update")
	}
	if req.Status != nil && *req.Status == model.SaleCancelled {
		// the only status reachable via PATCH; other transitions have actions
		if req.Notes != nil {
			if _, err := s.patchNotes(ctx, id, req.Notes); err != nil {
				return SaleResponse{}, err
			}
		}
		return s.Cancel(ctx, userID, id)
	}
	if req.Status != nil {
		return SaleResponse{}, apperror.InvalidState("status %q cannot be set directly, use the lifecycle actions", *req.Status)
	}
	return s.patchNotes(ctx, id, req.Notes)
}

func (s *saleService) patchNotes(ctx context.Context, id string, notes *string) (SaleResponse, error) {
	saleID, err := parseID(id)
	if err != nil {
		return SaleResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByID(txCtx, saleID)
		if err != nil {
			return notFoundOr(err, "sale %s not found", id)
		}
		sale.Notes = notes
		return s.saleRepo.Update(txCtx, sale)
	})
	if err != nil {
		return SaleResponse{}, err
	}
	return s.reload(ctx, saleID)
}

// --- Helpers ---

func (s *saleService) reload(ctx context.Context, saleID uuid.UUID) (SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDWithPayments(ctx, saleID)
	if err != nil {
		return SaleResponse{}, err
	}
	return s.toResponse(ctx, sale), nil
}

func (s *saleService) writeAudit(ctx context.Context, userID, action string, sale *model.Sale, extra map[string]string) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	details := map[string]string{"status": sale.Status, "total": sale.TotalAmount.StringFixed(2)}
	for k, v := range extra {
		details[k] = v
	}
	payload, _ := json.Marshal(details)

	entityName := ""
	if sale.Quotation != nil {
		entityName = sale.Quotation.CustomerName
	}

	return s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   sale.ID.String(),
		EntityName: entityName,
		Details:    string(payload),
	})
}

// --- Mapping ---

func (s *saleService) toResponse(ctx context.Context, sale *model.Sale) SaleResponse {
	resp := SaleResponse{
		ID:            sale.ID.String(),
		QuotationID:   sale.QuotationID.String(),
		TotalAmount:   sale.TotalAmount.StringFixed(2),
		PaidAmount:    sale.PaidSum().StringFixed(2),
		Status:        sale.Status,
		SaleDate:      sale.SaleDate.Format("2006-01-02"),
		Notes:         sale.Notes,
		InvoicePDFURL: sale.InvoicePDFURL,
	}

	if sale.Quotation != nil {
		resp.CustomerName = sale.Quotation.CustomerName
		resp.CustomerEmail = sale.Quotation.CustomerEmail
		resp.Currency = sale.Quotation.Currency
	}
	if sale.DeliveryDate != nil {
		d := sale.DeliveryDate.Format("2006-01-02")
		resp.DeliveryDate = &d
	}
	if sale.WarrantyEnd != nil {
		w := sale.WarrantyEnd.Format("2006-01-02")
		resp.WarrantyEnd = &w
	}

	resp.Payments = make([]PaymentResponse, 0, len(sale.Payments))
	for _, p := range sale.Payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			ID:          p.ID.String(),
			Amount:      p.Amount.StringFixed(2),
			Method:      p.Method,
			Note:        p.Note,
			PaymentDate: p.PaymentDate.Format("2006-01-02"),
		})
	}

	if invoice, err := s.invoiceRepo.FindBySaleID(ctx, sale.ID); err == nil {
		number := invoice.InvoiceNumber
		resp.InvoiceNumber = &number
	}

	return resp
}
