package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MetalPrice is a point-in-time USD quote for a metal symbol pulled from the
// external pricing collaborator. The latest row per symbol wins.
type MetalPrice struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(50);not null" json:"name"`
	Symbol      string          `gorm:"type:varchar(20);not null;index" json:"symbol"`
	PriceUSD    decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"price_usd"`
	LastUpdated time.Time       `gorm:"not null;index" json:"last_updated"`
}

func (m *MetalPrice) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// CurrencyRate is the USD → target conversion rate used to localize prices
type CurrencyRate struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BaseCurrency   string          `gorm:"type:varchar(10);not null;default:'USD'" json:"base_currency"`
	TargetCurrency string          `gorm:"type:varchar(10);not null;index" json:"target_currency"`
	Rate           decimal.Decimal `gorm:"type:decimal(12,6);not null" json:"rate"`
	LastUpdated    time.Time       `gorm:"not null;index" json:"last_updated"`
}

func (c *CurrencyRate) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
