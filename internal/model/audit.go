package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateQuotation    = "CREATE_QUOTATION"
	ActionUpdateQuotation    = "UPDATE_QUOTATION"
	ActionConfirmQuotation   = "CONFIRM_QUOTATION"
	ActionCancelQuotation    = "CANCEL_QUOTATION"
	ActionDuplicateQuotation = "DUPLICATE_QUOTATION"
	ActionGenerateSale       = "GENERATE_SALE"
	ActionAddPayment         = "ADD_PAYMENT"
	ActionMarkDelivered      = "MARK_DELIVERED"
	ActionMarkClosed         = "MARK_CLOSED"
	ActionCancelSale         = "CANCEL_SALE"
	ActionRefreshPrices      = "REFRESH_PRICES"
)

// AuditLog tracks Who, What, and When for every lifecycle transition
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for automated jobs (price refresh)
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // human readable, e.g. customer name
	Details    string     `gorm:"type:text" json:"details"`                       // serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
