package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. Price is the base price in USD; entries that
// track a metal quote carry the symbol so the pricing layer can override the
// base price with the live rate.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(150);not null;index" json:"name"`
	Category    string          `gorm:"type:varchar(50)" json:"category"`
	MetalSymbol *string         `gorm:"type:varchar(20);index" json:"metal_symbol"`
	PriceUSD    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price_usd"`
	Unit        string          `gorm:"type:varchar(20);not null;default:'pieza'" json:"unit"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
