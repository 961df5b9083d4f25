package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

// QuotationItemInput is one line of an incoming quotation payload. Amounts
// travel as decimal strings to avoid float truncation in transit. UnitPrice
// may be omitted for metal-tracked items; the service then resolves it from
// the latest stored metal price and currency rate.
type QuotationItemInput struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name" binding:"required"`
	MetalSymbol string `json:"metal_symbol"`
	UnitPrice   string `json:"unit_price"`
	Quantity    string `json:"quantity" binding:"required"`
}

type QuotationExpenseInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Quantity    string `json:"quantity"`
	UnitCost    string `json:"unit_cost"`
	TotalCost   string `json:"total_cost"`
}

type QuotationInput struct {
	CustomerName  string                  `json:"customer_name" binding:"required"`
	CustomerEmail string                  `json:"customer_email"`
	Company       string                  `json:"company"`
	Currency      string                  `json:"currency"`
	Date          string                  `json:"date"` // YYYY-MM-DD, defaults to today
	Notes         string                  `json:"notes"`
	Items         []QuotationItemInput    `json:"items"`
	Expenses      []QuotationExpenseInput `json:"expenses"`
}

type CancelQuotationRequest struct {
	Reason string `json:"reason"`
}

type QuotationFilter struct {
	Status   string
	Search   string
	DateFrom string // YYYY-MM-DD, inclusive
	DateTo   string // YYYY-MM-DD, inclusive
	Page     int
	Limit    int
}

type QuotationItemResponse struct {
	ID          string  `json:"id"`
	ProductID   *string `json:"product_id"`
	ProductName string  `json:"product_name"`
	MetalSymbol *string `json:"metal_symbol"`
	UnitPrice   string  `json:"unit_price"`
	Quantity    string  `json:"quantity"`
	LineTotal   string  `json:"line_total"`
}

type QuotationExpenseResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Quantity    string `json:"quantity"`
	UnitCost    string `json:"unit_cost"`
	TotalCost   string `json:"total_cost"`
}

type QuotationResponse struct {
	ID                 string                     `json:"id"`
	CustomerName       string                     `json:"customer_name"`
	CustomerEmail      *string                    `json:"customer_email"`
	Company            *string                    `json:"company"`
	Currency           string                     `json:"currency"`
	Date               string                     `json:"date"`
	Status             string                     `json:"status"`
	Subtotal           string                     `json:"subtotal"`
	Tax                string                     `json:"tax"`
	Total              string                     `json:"total"`
	Notes              *string                    `json:"notes"`
	Items              []QuotationItemResponse    `json:"items"`
	Expenses           []QuotationExpenseResponse `json:"expenses"`
	CancellationReason *string                    `json:"cancellation_reason"`
	CancelledAt        *string                    `json:"cancelled_at"`
	SaleID             *string                    `json:"sale_id"`
	CreatedAt          string                     `json:"created_at"`
}

// --- Interface ---

type QuotationService interface {
	Create(ctx context.Context, userID string, input QuotationInput) (QuotationResponse, error)
	Get(ctx context.Context, id string) (QuotationResponse, error)
	List(ctx context.Context, filter QuotationFilter) ([]QuotationResponse, int64, error)
	Update(ctx context.Context, userID string, id string, input QuotationInput) (QuotationResponse, error)
	Confirm(ctx context.Context, userID string, id string) (QuotationResponse, error)
	Cancel(ctx context.Context, userID string, id string, reason string) (QuotationResponse, error)
	Duplicate(ctx context.Context, userID string, id string) (QuotationResponse, error)
	GenerateSale(ctx context.Context, userID string, id string) (saleID string, err error)
}

type quotationService struct {
	quotationRepo repository.QuotationRepository
	saleRepo      repository.SaleRepository
	priceRepo     repository.PriceRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
}

func NewQuotationService(
	quotationRepo repository.QuotationRepository,
	saleRepo repository.SaleRepository,
	priceRepo repository.PriceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) QuotationService {
	return &quotationService{
		quotationRepo: quotationRepo,
		saleRepo:      saleRepo,
		priceRepo:     priceRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
	}
}

// --- Implementation ---

func (s *quotationService) Create(ctx context.Context, userID string, input QuotationInput) (QuotationResponse, error) {
	quotation, err := s.buildQuotation(ctx, input)
	if err != nil {
		return QuotationResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.quotationRepo.Create(txCtx, quotation); err != nil {
			return err
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateQuotation, quotation, nil)
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	return toQuotationResponse(*quotation), nil
}

func (s *quotationService) Get(ctx context.Context, id string) (QuotationResponse, error) {
	quotation, err := s.findByID(ctx, id)
	if err != nil {
		return QuotationResponse{}, err
	}
	return toQuotationResponse(*quotation), nil
}

func (s *quotationService) List(ctx context.Context, filter QuotationFilter) ([]QuotationResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.QuotationListFilter{
		Status: filter.Status,
		Search: filter.Search,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.DateFrom != "" {
		from, err := time.Parse("2006-01-02", filter.DateFrom)
		if err != nil {
			return nil, 0, apperror.Validation("invalid date__gte %q, expected YYYY-MM-DD", filter.DateFrom)
		}
		repoFilter.DateFrom = &from
	}
	if filter.DateTo != "" {
		to, err := time.Parse("2006-01-02", filter.DateTo)
		if err != nil {
			return nil, 0, apperror.Validation("invalid date__lte %q, expected YYYY-MM-DD", filter.DateTo)
		}
		repoFilter.DateTo = &to
	}

	quotations, total, err := s.quotationRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]QuotationResponse, 0, len(quotations))
	for _, q := range quotations {
		result = append(result, toQuotationResponse(q))
	}
	return result, total, nil
}

func (s *quotationService) Update(ctx context.Context, userID string, id string, input QuotationInput) (QuotationResponse, error) {
	quotationID, err := parseID(id)
	if err != nil {
		return QuotationResponse{}, err
	}

	updated, err := s.buildQuotation(ctx, input)
	if err != nil {
		return QuotationResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.quotationRepo.FindByID(txCtx, quotationID)
		if err != nil {
			return notFoundOr(err, "quotation %s not found", id)
		}
		if !current.CanEdit() {
			return apperror.InvalidState("quotation in status %q cannot be edited", current.Status)
		}

		current.CustomerName = updated.CustomerName
		current.CustomerEmail = updated.CustomerEmail
		current.Company = updated.Company
		current.Currency = updated.Currency
		current.Date = updated.Date
		current.Notes = updated.Notes
		current.Subtotal = updated.Subtotal
		current.Tax = updated.Tax
		current.Total = updated.Total

		if err := s.quotationRepo.Update(txCtx, current); err != nil {
			return err
		}
		if err := s.quotationRepo.ReplaceLines(txCtx, current.ID, updated.Items, updated.Expenses); err != nil {
			return err
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateQuotation, current, nil)
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	reloaded, err := s.quotationRepo.FindByIDWithLines(ctx, quotationID)
	if err != nil {
		return QuotationResponse{}, err
	}
	return toQuotationResponse(*reloaded), nil
}

func (s *quotationService) Confirm(ctx context.Context, userID string, id string) (QuotationResponse, error) {
	quotationID, err := parseID(id)
	if err != nil {
		return QuotationResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotation, err := s.quotationRepo.FindByID(txCtx, quotationID)
		if err != nil {
			return notFoundOr(err, "quotation %s not found", id)
		}
		if !quotation.CanConfirm() {
			return apperror.InvalidState("quotation in status %q cannot be confirmed", quotation.Status)
		}

		quotation.Status = model.QuotationConfirmed
		if err := s.quotationRepo.Update(txCtx, quotation); err != nil {
			return err
		}
		return s.writeAudit(txCtx, userID, model.ActionConfirmQuotation, quotation, nil)
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	reloaded, err := s.quotationRepo.FindByIDWithLines(ctx, quotationID)
	if err != nil {
		return QuotationResponse{}, err
	}
	return toQuotationResponse(*reloaded), nil
}

func (s *quotationService) Cancel(ctx context.Context, userID string, id string, reason string) (QuotationResponse, error) {
	quotationID, err := parseID(id)
	if err != nil {
		return QuotationResponse{}, err
	}
	if isBlank(reason) {
		return QuotationResponse{}, apperror.Validation("cancellation reason is required")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotation, err := s.quotationRepo.FindByID(txCtx, quotationID)
		if err != nil {
			return notFoundOr(err, "quotation %s not found", id)
		}
		if quotation.Status == model.QuotationCancelled {
			return apperror.InvalidState("quotation is already cancelled")
		}
		if quotation.SaleID != nil {
			return apperror.InvalidState("quotation already has a sale and cannot be cancelled")
		}

		now := time.Now()
		quotation.Status = model.QuotationCancelled
		quotation.CancellationReason = &reason
		quotation.CancelledAt = &now

		if err := s.quotationRepo.Update(txCtx, quotation); err != nil {
			return err
		}
		return s.writeAudit(txCtx, userID, model.ActionCancelQuotation, quotation, map[string]string{"reason": reason})
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	reloaded, err := s.quotationRepo.FindByIDWithLines(ctx, quotationID)
	if err != nil {
		return QuotationResponse{}, err
	}
	return toQuotationResponse(*reloaded), nil
}

// Duplicate deep-copies items and expenses into a fresh draft dated today.
// Payments, sale reference, and cancellation fields never travel with the
// copy; totals are recomputed from the copied lines.
func (s *quotationService) Duplicate(ctx context.Context, userID string, id string) (QuotationResponse, error) {
	quotationID, err := parseID(id)
	if err != nil {
		return QuotationResponse{}, err
	}

	var duplicate *model.Quotation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		original, err := s.quotationRepo.FindByIDWithLines(txCtx, quotationID)
		if err != nil {
			return notFoundOr(err, "quotation %s not found", id)
		}
		if !original.CanDuplicate() {
			return apperror.InvalidState("quotation in status %q cannot be duplicated, edit the draft instead", original.Status)
		}

		items := make([]model.QuotationItem, len(original.Items))
		for i, item := range original.Items {
			items[i] = model.QuotationItem{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				MetalSymbol: item.MetalSymbol,
				UnitPrice:   item.UnitPrice,
				Quantity:    item.Quantity,
			}
		}
		expenses := make([]model.QuotationExpense, len(original.Expenses))
		for i, exp := range original.Expenses {
			expenses[i] = model.QuotationExpense{
				Name:        exp.Name,
				Description: exp.Description,
				Category:    exp.Category,
				Quantity:    exp.Quantity,
				UnitCost:    exp.UnitCost,
				TotalCost:   exp.TotalCost,
			}
		}

		totals := model.ComputeTotals(items, expenses).Rounded()
		duplicate = &model.Quotation{
			CustomerName:  original.CustomerName,
			CustomerEmail: original.CustomerEmail,
			Company:       original.Company,
			Currency:      original.Currency,
			Date:          time.Now(),
			Status:        model.QuotationDraft,
			Subtotal:      totals.Subtotal,
			Tax:           totals.Tax,
			Total:         totals.Total,
			Notes:         original.Notes,
			Items:         items,
			Expenses:      expenses,
		}

		if err := s.quotationRepo.Create(txCtx, duplicate); err != nil {
			return err
		}
		return s.writeAudit(txCtx, userID, model.ActionDuplicateQuotation, duplicate, map[string]string{"source": original.ID.String()})
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	return toQuotationResponse(*duplicate), nil
}

// GenerateSale confirms the quotation and creates its sale in one
// transaction. The sale total is frozen from the quotation total; the
// guarded claim guarantees a second caller observes a conflict instead of a
// second sale.
func (s *quotationService) GenerateSale(ctx context.Context, userID string, id string) (string, error) {
	quotationID, err := parseID(id)
	if err != nil {
		return "", err
	}

	var saleID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotation, err := s.quotationRepo.FindByID(txCtx, quotationID)
		if err != nil {
			return notFoundOr(err, "quotation %s not found", id)
		}
		if quotation.SaleID != nil {
			return apperror.Conflict("quotation already has sale %s", quotation.SaleID.String())
		}
		if !quotation.CanGenerateSale() {
			return apperror.InvalidState("quotation in status %q cannot generate a sale", quotation.Status)
		}

		sale := &model.Sale{
			QuotationID: quotation.ID,
			TotalAmount: quotation.Total,
			Status:      model.SalePending,
			SaleDate:    time.Now(),
		}
		if err := s.saleRepo.Create(txCtx, sale); err != nil {
			return err
		}

		claimed, err := s.quotationRepo.ClaimForSale(txCtx, quotation.ID, sale.ID)
		if err != nil {
			return err
		}
		if !claimed {
			// lost the race against a concurrent generate-sale
			return apperror.Conflict("quotation %s was claimed by a concurrent sale generation", id)
		}

		saleID = sale.ID
		quotation.SaleID = &sale.ID
		return s.writeAudit(txCtx, userID, model.ActionGenerateSale, quotation, map[string]string{"sale_id": sale.ID.String()})
	})
	if err != nil {
		return "", err
	}

	return saleID.String(), nil
}

// --- Helpers ---

// buildQuotation validates raw input and assembles an unsaved draft with
// recomputed totals. Client-sent totals are ignored by construction: the
// only monetary inputs read are per-line prices and quantities.
func (s *quotationService) buildQuotation(ctx context.Context, input QuotationInput) (*model.Quotation, error) {
	if isBlank(input.CustomerName) {
		return nil, apperror.Validation("customer_name is required")
	}

	currency := input.Currency
	if currency == "" {
		currency = model.CurrencyMXN
	}
	if !model.ValidCurrency(currency) {
		return nil, apperror.Validation("unsupported currency %q", currency)
	}

	date := time.Now()
	if input.Date != "" {
		parsed, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return nil, apperror.Validation("invalid date %q, expected YYYY-MM-DD", input.Date)
		}
		date = parsed
	}

	items := make([]model.QuotationItem, 0, len(input.Items))
	for i, in := range input.Items {
		item, err := s.buildItem(ctx, currency, i, in)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	expenses := make([]model.QuotationExpense, 0, len(input.Expenses))
	for i, in := range input.Expenses {
		expense, err := buildExpense(i, in)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	totals := model.ComputeTotals(items, expenses).Rounded()

	quotation := &model.Quotation{
		CustomerName: input.CustomerName,
		Currency:     currency,
		Date:         date,
		Status:       model.QuotationDraft,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Total,
		Items:        items,
		Expenses:     expenses,
	}
	if input.CustomerEmail != "" {
		quotation.CustomerEmail = &input.CustomerEmail
	}
	if input.Company != "" {
		quotation.Company = &input.Company
	}
	if input.Notes != "" {
		quotation.Notes = &input.Notes
	}
	return quotation, nil
}

func (s *quotationService) buildItem(ctx context.Context, currency string, idx int, in QuotationItemInput) (model.QuotationItem, error) {
	quantity, err := decimal.NewFromString(in.Quantity)
	if err != nil {
		return model.QuotationItem{}, apperror.Validation("items[%d]: invalid quantity %q", idx, in.Quantity)
	}
	if !quantity.IsPositive() {
		return model.QuotationItem{}, apperror.Validation("items[%d]: quantity must be greater than 0", idx)
	}

	var unitPrice decimal.Decimal
	switch {
	case in.UnitPrice != "":
		unitPrice, err = decimal.NewFromString(in.UnitPrice)
		if err != nil {
			return model.QuotationItem{}, apperror.Validation("items[%d]: invalid unit_price %q", idx, in.UnitPrice)
		}
		if unitPrice.IsNegative() {
			return model.QuotationItem{}, apperror.Validation("items[%d]: unit_price must not be negative", idx)
		}
	case in.MetalSymbol != "":
		unitPrice = s.resolveMetalPrice(ctx, in.MetalSymbol, currency)
	default:
		return model.QuotationItem{}, apperror.Validation("items[%d]: unit_price is required when no metal_symbol is given", idx)
	}

	item := model.QuotationItem{
		ProductName: in.ProductName,
		UnitPrice:   unitPrice.Round(2),
		Quantity:    quantity,
	}
	if in.ProductID != "" {
		productID, err := uuid.Parse(in.ProductID)
		if err != nil {
			return model.QuotationItem{}, apperror.Validation("items[%d]: invalid product_id %q", idx, in.ProductID)
		}
		item.ProductID = &productID
	}
	if in.MetalSymbol != "" {
		symbol := in.MetalSymbol
		item.MetalSymbol = &symbol
	}
	return item, nil
}

// resolveMetalPrice converts the latest stored USD metal quote into the
// quotation currency. Missing price rows or rates degrade to zero/1.00 with
// a log warning; entry validation stays at the boundary and the totals
// engine treats the result like any other price.
func (s *quotationService) resolveMetalPrice(ctx context.Context, symbol, currency string) decimal.Decimal {
	price, err := s.priceRepo.LatestMetalPrice(ctx, symbol)
	if err != nil {
		log.Printf("WARNING: no stored price for metal %s, defaulting to 0", symbol)
		return decimal.Zero
	}

	rate := decimal.NewFromInt(1)
	if currency != model.CurrencyUSD {
		stored, err := s.priceRepo.LatestCurrencyRate(ctx, currency)
		if err != nil {
			log.Printf("WARNING: no stored USD/%s rate, using 1.00", currency)
		} else {
			rate = stored.Rate
		}
	}
	return price.PriceUSD.Mul(rate)
}

func buildExpense(idx int, in QuotationExpenseInput) (model.QuotationExpense, error) {
	if isBlank(in.Name) {
		return model.QuotationExpense{}, apperror.Validation("expenses[%d]: name is required", idx)
	}

	category := in.Category
	if category == "" {
		category = model.ExpenseOther
	}
	if !model.ValidExpenseCategory(category) {
		return model.QuotationExpense{}, apperror.Validation("expenses[%d]: unknown category %q", idx, category)
	}

	quantity := decimal.NewFromInt(1)
	if in.Quantity != "" {
		parsed, err := decimal.NewFromString(in.Quantity)
		if err != nil {
			return model.QuotationExpense{}, apperror.Validation("expenses[%d]: invalid quantity %q", idx, in.Quantity)
		}
		if !parsed.IsPositive() {
			return model.QuotationExpense{}, apperror.Validation("expenses[%d]: quantity must be greater than 0", idx)
		}
		quantity = parsed
	}

	unitCost := decimal.Zero
	if in.UnitCost != "" {
		parsed, err := decimal.NewFromString(in.UnitCost)
		if err != nil {
			return model.QuotationExpense{}, apperror.Validation("expenses[%d]: invalid unit_cost %q", idx, in.UnitCost)
		}
		if parsed.IsNegative() {
			return model.QuotationExpense{}, apperror.Validation("expenses[%d]: unit_cost must not be negative", idx)
		}
		unitCost = parsed
	}

	// stored total stays consistent with quantity × unit_cost at creation;
	// an explicit total_cost is honored only when unit_cost was not supplied
	totalCost := quantity.Mul(unitCost)
	if in.UnitCost == "" && in.TotalCost != "" {
		parsed, err := decimal.NewFromString(in.TotalCost)
		if err != nil {
			return model.QuotationExpense{}, apperror.Validation("expenses[%d]: invalid total_cost %q", idx, in.TotalCost)
		}
		if parsed.IsNegative() {
			return model.QuotationExpense{}, apperror.Validation("expenses[%d]: total_cost must not be negative", idx)
		}
		totalCost = parsed
	}

	return model.QuotationExpense{
		Name:        in.Name,
		Description: in.Description,
		Category:    category,
		Quantity:    quantity,
		UnitCost:    unitCost,
		TotalCost:   totalCost.Round(2),
	}, nil
}

func (s *quotationService) findByID(ctx context.Context, id string) (*model.Quotation, error) {
	quotationID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	quotation, err := s.quotationRepo.FindByIDWithLines(ctx, quotationID)
	if err != nil {
		return nil, notFoundOr(err, "quotation %s not found", id)
	}
	return quotation, nil
}

func (s *quotationService) writeAudit(ctx context.Context, userID, action string, quotation *model.Quotation, extra map[string]string) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	details := map[string]string{"status": quotation.Status, "total": quotation.Total.StringFixed(2)}
	for k, v := range extra {
		details[k] = v
	}
	payload, _ := json.Marshal(details)

	return s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   quotation.ID.String(),
		EntityName: quotation.CustomerName,
		Details:    string(payload),
	})
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid id %q", id)
	}
	return parsed, nil
}

func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(format, args...)
	}
	return err
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// parseOptionalID parses a uuid that may legitimately be absent (system actions)
func parseOptionalID(id string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}

// --- Mapping ---

func toQuotationResponse(q model.Quotation) QuotationResponse {
	resp := QuotationResponse{
		ID:           q.ID.String(),
		CustomerName: q.CustomerName,
		Currency:     q.Currency,
		Date:         q.Date.Format("2006-01-02"),
		Status:       q.Status,
		Subtotal:     q.Subtotal.StringFixed(2),
		Tax:          q.Tax.StringFixed(2),
		Total:        q.Total.StringFixed(2),
		CreatedAt:    q.CreatedAt.Format(time.RFC3339),
	}
	resp.CustomerEmail = q.CustomerEmail
	resp.Company = q.Company
	resp.Notes = q.Notes
	resp.CancellationReason = q.CancellationReason

	if q.CancelledAt != nil {
		at := q.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &at
	}
	if q.SaleID != nil {
		id := q.SaleID.String()
		resp.SaleID = &id
	}

	resp.Items = make([]QuotationItemResponse, 0, len(q.Items))
	for _, item := range q.Items {
		ir := QuotationItemResponse{
			ID:          item.ID.String(),
			ProductName: item.ProductName,
			MetalSymbol: item.MetalSymbol,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Quantity:    item.Quantity.String(),
			LineTotal:   item.UnitPrice.Mul(item.Quantity).StringFixed(2),
		}
		if item.ProductID != nil {
			id := item.ProductID.String()
			ir.ProductID = &id
		}
		resp.Items = append(resp.Items, ir)
	}

	resp.Expenses = make([]QuotationExpenseResponse, 0, len(q.Expenses))
	for _, exp := range q.Expenses {
		resp.Expenses = append(resp.Expenses, QuotationExpenseResponse{
			ID:          exp.ID.String(),
			Name:        exp.Name,
			Description: exp.Description,
			Category:    exp.Category,
			Quantity:    exp.Quantity.String(),
			UnitCost:    exp.UnitCost.StringFixed(2),
			TotalCost:   exp.TotalCost.StringFixed(2),
		})
	}

	return resp
}
