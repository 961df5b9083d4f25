package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuotationStatus enum constants
const (
	QuotationDraft     = "draft"
	QuotationConfirmed = "confirmed"
	QuotationCancelled = "cancelled"
)

// Currency enum constants — currencies the console quotes in
const (
	CurrencyMXN = "MXN"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// ExpenseCategory enum constants
const (
	ExpenseMaterial  = "material"
	ExpenseService   = "service"
	ExpenseLabor     = "labor"
	ExpenseTransport = "transport"
	ExpenseOther     = "other"
)

// Quotation is a draft commercial offer built from priced catalog items plus
// ad-hoc expenses. Totals are always recomputed server-side; client-supplied
// subtotal/tax/total are never trusted.
type Quotation struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerName       string             `gorm:"type:varchar(100);not null;index" json:"customer_name"`
	CustomerEmail      *string            `gorm:"type:varchar(255)" json:"customer_email"`
	Company            *string            `gorm:"type:varchar(150)" json:"company"`
	Currency           string             `gorm:"type:varchar(10);not null;default:'MXN'" json:"currency"`
	Date               time.Time          `gorm:"type:date;not null;index" json:"date"`
	Status             string             `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Subtotal           decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	Tax                decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"tax"`
	Total              decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	Notes              *string            `gorm:"type:text" json:"notes"`
	Items              []QuotationItem    `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE" json:"items"`
	Expenses           []QuotationExpense `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE" json:"expenses"`
	CancellationReason *string            `gorm:"type:text" json:"cancellation_reason"`
	CancelledAt        *time.Time         `json:"cancelled_at"`
	SaleID             *uuid.UUID         `gorm:"type:uuid;uniqueIndex" json:"sale_id"` // set exactly once, by generate-sale
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (q *Quotation) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QuotationItem is a catalog product reference with a price snapshot taken at
// quotation time. Line total = unit_price × quantity.
type QuotationItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	QuotationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"quotation_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(150);not null" json:"product_name"`
	MetalSymbol *string         `gorm:"type:varchar(20)" json:"metal_symbol"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:1" json:"quantity"`
}

func (i *QuotationItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// QuotationExpense is a non-catalog cost line (labor, transport, ...).
// TotalCost is stored at creation so it can be overridden independently, but
// starts out consistent with quantity × unit_cost.
type QuotationExpense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	QuotationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"quotation_id"`
	Name        string          `gorm:"type:varchar(150);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"type:varchar(20);not null;default:'other'" json:"category"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:1" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_cost"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_cost"`
}

func (e *QuotationExpense) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ValidExpenseCategory reports whether the category is one of the known set
func ValidExpenseCategory(category string) bool {
	switch category {
	case ExpenseMaterial, ExpenseService, ExpenseLabor, ExpenseTransport, ExpenseOther:
		return true
	}
	return false
}

// ValidCurrency reports whether the console quotes in the given currency
func ValidCurrency(currency string) bool {
	switch currency {
	case CurrencyMXN, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// CanEdit reports whether item/expense/customer fields may still be mutated.
// Only drafts are editable; confirmation freezes the document.
func (q *Quotation) CanEdit() bool {
	return q.Status == QuotationDraft
}

// CanConfirm reports whether the quotation may move to confirmed
func (q *Quotation) CanConfirm() bool {
	return q.Status == QuotationDraft
}

// CanCancel reports whether cancellation is allowed. A quotation whose sale
// already exists cannot be cancelled: ownership has transferred to the sale.
func (q *Quotation) CanCancel() bool {
	return q.Status != QuotationCancelled && q.SaleID == nil
}

// CanDuplicate reports whether duplication is allowed. Drafts are excluded
// since they can simply be edited in place.
func (q *Quotation) CanDuplicate() bool {
	return q.Status == QuotationConfirmed || q.Status == QuotationCancelled
}

// CanGenerateSale reports whether a sale may be generated. Only drafts
// qualify; confirmed quotations already went through generate-sale and
// cancelled ones are terminal. The one-sale-per-quotation invariant is
// enforced separately via SaleID.
func (q *Quotation) CanGenerateSale() bool {
	return q.Status == QuotationDraft
}
