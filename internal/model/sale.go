package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleStatus enum constants. The lifecycle is linear with a cancellation
// branch: pending → partially_paid → paid → delivered → closed, with
// cancelada reachable from any status up to paid. The cancelled status keeps
// its observed Spanish wire value.
const (
	SalePending       = "pending"
	SalePartiallyPaid = "partially_paid"
	SalePaid          = "paid"
	SaleDelivered     = "delivered"
	SaleClosed        = "closed"
	SaleCancelled     = "cancelada"
)

// PaymentMethod enum constants
const (
	PaymentTransfer = "transfer"
	PaymentCash     = "cash"
	PaymentCredit   = "credit"
)

// WarrantyDays is the warranty window started when a sale is delivered
const WarrantyDays = 90

// Sale is the commercial transaction born from a quotation. TotalAmount is a
// frozen snapshot of the quotation total at generation time and never changes
// afterwards, regardless of what happens to the quotation.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	QuotationID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"quotation_id"`
	Quotation     *Quotation      `gorm:"foreignKey:QuotationID" json:"quotation,omitempty"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SaleDate      time.Time       `gorm:"type:date;not null" json:"sale_date"`
	DeliveryDate  *time.Time      `gorm:"type:date" json:"delivery_date"`
	WarrantyEnd   *time.Time      `gorm:"type:date" json:"warranty_end"`
	Notes         *string         `gorm:"type:text" json:"notes"`
	Payments      []Payment       `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"payments"`
	InvoicePDFURL *string         `gorm:"type:text" json:"invoice_pdf_url"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Payment is a single recorded payment against a sale. Payments are
// append-only: there is no edit or delete operation.
type Payment struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method      string          `gorm:"type:varchar(20);not null;default:'transfer'" json:"method"`
	Note        *string         `gorm:"type:text" json:"note"`
	PaymentDate time.Time       `gorm:"type:date;not null" json:"payment_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ValidPaymentMethod reports whether the method is one of the known set
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentTransfer, PaymentCash, PaymentCredit:
		return true
	}
	return false
}

// PaymentStatus derives the payment-related status for a sale from the paid
// sum. This is the single authority for status derivation: overpayment is
// tolerated and simply maps to paid, with no remainder tracking.
func PaymentStatus(totalAmount, paidSum decimal.Decimal) string {
	switch {
	case paidSum.GreaterThanOrEqual(totalAmount) && paidSum.IsPositive():
		return SalePaid
	case paidSum.IsPositive():
		return SalePartiallyPaid
	default:
		return SalePending
	}
}

// PaidSum totals the recorded payments
func (s *Sale) PaidSum() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range s.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// CanAddPayment reports whether payments may still be recorded. Paid sales
// still accept payments since overpayment is tolerated; delivered, closed,
// and cancelled sales do not.
func (s *Sale) CanAddPayment() bool {
	switch s.Status {
	case SalePending, SalePartiallyPaid, SalePaid:
		return true
	}
	return false
}

// CanMarkDelivered reports whether delivery may be recorded; only fully paid
// sales ship.
func (s *Sale) CanMarkDelivered() bool {
	return s.Status == SalePaid
}

// CanMarkClosed reports whether the sale may be closed (invoiced)
func (s *Sale) CanMarkClosed() bool {
	return s.Status == SaleDelivered
}

// CanCancel reports whether cancellation is allowed. Delivered and closed
// sales are past the point of no return. Unlike quotation cancellation no
// reason is required — asymmetry carried over from the observed system.
func (s *Sale) CanCancel() bool {
	switch s.Status {
	case SalePending, SalePartiallyPaid, SalePaid:
		return true
	}
	return false
}
