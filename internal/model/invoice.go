package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceNumberPrefix prefixes every consecutive invoice number
const InvoiceNumberPrefix = "INV-"

// Invoice is the fiscal snapshot issued when a sale is closed. The amounts
// are back-computed from the frozen sale total: subtotal = total / 1.16,
// tax = total - subtotal.
type Invoice struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"sale_id"`
	Sale          *Sale           `gorm:"foreignKey:SaleID" json:"sale,omitempty"`
	InvoiceNumber string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"invoice_number"`
	IssueDate     time.Time       `gorm:"type:date;not null" json:"issue_date"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PDFURL        *string         `gorm:"type:text" json:"pdf_url"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// FormatInvoiceNumber renders the consecutive invoice number, e.g. INV-0042
func FormatInvoiceNumber(seq int64) string {
	return fmt.Sprintf("%s%04d", InvoiceNumberPrefix, seq)
}

// InvoiceAmountsFromTotal splits a VAT-inclusive sale total back into
// subtotal and tax at the fixed 16% rate, rounded to cents.
func InvoiceAmountsFromTotal(total decimal.Decimal) (subtotal, tax decimal.Decimal) {
	divisor := decimal.NewFromInt(1).Add(VATRate)
	subtotal = total.Div(divisor).Round(2)
	tax = total.Sub(subtotal)
	return subtotal, tax
}
