package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

// PriceRepository stores the metal price and currency rate snapshots pulled
// from the external pricing collaborator. Lookups always return the latest
// row for the requested symbol/currency.
type PriceRepository interface {
	SaveMetalPrice(ctx context.Context, price *model.MetalPrice) error
	LatestMetalPrice(ctx context.Context, symbol string) (*model.MetalPrice, error)
	ListLatestMetalPrices(ctx context.Context) ([]model.MetalPrice, error)
	SaveCurrencyRate(ctx context.Context, rate *model.CurrencyRate) error
	LatestCurrencyRate(ctx context.Context, targetCurrency string) (*model.CurrencyRate, error)
}

type priceRepository struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) PriceRepository {
	return &priceRepository{db: db}
}

func (r *priceRepository) SaveMetalPrice(ctx context.Context, price *model.MetalPrice) error {
	return GetDB(ctx, r.db).Create(price).Error
}

func (r *priceRepository) LatestMetalPrice(ctx context.Context, symbol string) (*model.MetalPrice, error) {
	var price model.MetalPrice
	err := GetDB(ctx, r.db).Where("symbol = ?", symbol).Order("last_updated desc").First(&price).Error
	if err != nil {
		return nil, err
	}
	return &price, nil
}

// ListLatestMetalPrices returns the most recent quote per symbol
func (r *priceRepository) ListLatestMetalPrices(ctx context.Context) ([]model.MetalPrice, error) {
	var prices []model.MetalPrice
	err := GetDB(ctx, r.db).
		Where("(symbol, last_updated) IN (SELECT symbol, MAX(last_updated) FROM metal_prices GROUP BY symbol)").
		Order("symbol asc").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *priceRepository) SaveCurrencyRate(ctx context.Context, rate *model.CurrencyRate) error {
	return GetDB(ctx, r.db).Create(rate).Error
}

func (r *priceRepository) LatestCurrencyRate(ctx context.Context, targetCurrency string) (*model.CurrencyRate, error) {
	var rate model.CurrencyRate
	err := GetDB(ctx, r.db).Where("target_currency = ?", targetCurrency).Order("last_updated desc").First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
