package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"backend/internal/client"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
)

type MetalPriceResponse struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	PriceUSD    string `json:"price_usd"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	LastUpdated string `json:"last_updated"`
}

type CurrencyRateResponse struct {
	BaseCurrency   string `json:"base_currency"`
	TargetCurrency string `json:"target_currency"`
	Rate           string `json:"rate"`
	LastUpdated    string `json:"last_updated"`
}

// priceTick is what goes over the websocket after a refresh
type priceTick struct {
	Type   string               `json:"type"`
	Prices []MetalPriceResponse `json:"prices"`
}

// PricingService serves stored metal/currency quotes and refreshes them from
// the external pricing collaborator.
type PricingService interface {
	GetMetalPrice(ctx context.Context, symbol, currency string) (MetalPriceResponse, error)
	ListMetalPrices(ctx context.Context, currency string) ([]MetalPriceResponse, error)
	GetCurrencyRate(ctx context.Context, target string) (CurrencyRateResponse, error)
	Refresh(ctx context.Context, userID string) ([]MetalPriceResponse, error)
}

// Broadcaster pushes a message to every connected websocket client
type Broadcaster interface {
	Send(message []byte)
}

type pricingService struct {
	priceRepo   repository.PriceRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	pricing     client.PricingClient
	broadcaster Broadcaster
}

func NewPricingService(
	priceRepo repository.PriceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	pricing client.PricingClient,
	broadcaster Broadcaster,
) PricingService {
	return &pricingService{
		priceRepo:   priceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		pricing:     pricing,
		broadcaster: broadcaster,
	}
}

func (s *pricingService) GetMetalPrice(ctx context.Context, symbol, currency string) (MetalPriceResponse, error) {
	if _, ok := client.MetalTickers[symbol]; !ok {
		return MetalPriceResponse{}, apperror.Validation("unknown metal symbol %q", symbol)
	}
	if currency == "" {
		currency = model.CurrencyUSD
	}
	if !model.ValidCurrency(currency) {
		return MetalPriceResponse{}, apperror.Validation("unknown currency %q", currency)
	}

	price, err := s.priceRepo.LatestMetalPrice(ctx, symbol)
	if err != nil {
		return MetalPriceResponse{}, notFoundOr(err, "no stored price for %s", symbol)
	}

	rate, err := s.rateFor(ctx, currency)
	if err != nil {
		return MetalPriceResponse{}, err
	}
	return toMetalPriceResponse(price, currency, rate), nil
}

func (s *pricingService) ListMetalPrices(ctx context.Context, currency string) ([]MetalPriceResponse, error) {
	if currency == "" {
		currency = model.CurrencyUSD
	}
	if !model.ValidCurrency(currency) {
		return nil, apperror.Validation("unknown currency %q", currency)
	}

	prices, err := s.priceRepo.ListLatestMetalPrices(ctx)
	if err != nil {
		return nil, err
	}
	rate, err := s.rateFor(ctx, currency)
	if err != nil {
		return nil, err
	}

	result := make([]MetalPriceResponse, 0, len(prices))
	for i := range prices {
		result = append(result, toMetalPriceResponse(&prices[i], currency, rate))
	}
	return result, nil
}

func (s *pricingService) GetCurrencyRate(ctx context.Context, target string) (CurrencyRateResponse, error) {
	rate, err := s.priceRepo.LatestCurrencyRate(ctx, target)
	if err != nil {
		return CurrencyRateResponse{}, notFoundOr(err, "no stored rate for %s", target)
	}
	return CurrencyRateResponse{
		BaseCurrency:   rate.BaseCurrency,
		TargetCurrency: rate.TargetCurrency,
		Rate:           rate.Rate.String(),
		LastUpdated:    rate.LastUpdated.Format(time.RFC3339),
	}, nil
}

// Refresh pulls fresh quotes from the collaborator, stores them, and pushes a
// tick over the websocket. A collaborator failure surfaces as an external
// error and leaves the stored quotes untouched.
func (s *pricingService) Refresh(ctx context.Context, userID string) ([]MetalPriceResponse, error) {
	metals, err := s.pricing.FetchMetalPrices(ctx)
	if err != nil {
		return nil, apperror.External("pricing collaborator failed", err)
	}
	rates, ratesErr := s.pricing.FetchCurrencyRates(ctx)
	if ratesErr != nil {
		// metal quotes are still worth storing; rates keep their last value
		log.Printf("currency rate refresh failed: %v", ratesErr)
	}

	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, q := range metals {
			row := &model.MetalPrice{
				Name:        q.Name,
				Symbol:      q.Symbol,
				PriceUSD:    q.PriceUSD,
				LastUpdated: now,
			}
			if err := s.priceRepo.SaveMetalPrice(txCtx, row); err != nil {
				return err
			}
		}
		for _, q := range rates {
			row := &model.CurrencyRate{
				BaseCurrency:   model.CurrencyUSD,
				TargetCurrency: q.TargetCurrency,
				Rate:           q.Rate,
				LastUpdated:    now,
			}
			if err := s.priceRepo.SaveCurrencyRate(txCtx, row); err != nil {
				return err
			}
		}

		details, _ := json.Marshal(map[string]int{"metals": len(metals), "rates": len(rates)})
		entry := &model.AuditLog{
			Action:   model.ActionRefreshPrices,
			EntityID: "metal_prices",
			Details:  string(details),
		}
		if uid, ok := parseOptionalID(userID); ok {
			entry.UserID = &uid
		}
		return s.auditRepo.Log(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	result, err := s.ListMetalPrices(ctx, model.CurrencyUSD)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil && len(result) > 0 {
		if msg, err := json.Marshal(priceTick{Type: "metal_prices", Prices: result}); err == nil {
			s.broadcaster.Send(msg)
		}
	}
	return result, nil
}

// rateFor resolves the USD → currency conversion rate; USD is identity
func (s *pricingService) rateFor(ctx context.Context, currency string) (decimal.Decimal, error) {
	if currency == model.CurrencyUSD {
		return decimal.NewFromInt(1), nil
	}
	rate, err := s.priceRepo.LatestCurrencyRate(ctx, currency)
	if err != nil {
		return decimal.Decimal{}, notFoundOr(err, "no stored rate for %s", currency)
	}
	return rate.Rate, nil
}

func toMetalPriceResponse(price *model.MetalPrice, currency string, rate decimal.Decimal) MetalPriceResponse {
	return MetalPriceResponse{
		Symbol:      price.Symbol,
		Name:        price.Name,
		PriceUSD:    price.PriceUSD.StringFixed(4),
		Price:       price.PriceUSD.Mul(rate).Round(4).StringFixed(4),
		Currency:    currency,
		LastUpdated: price.LastUpdated.Format(time.RFC3339),
	}
}
