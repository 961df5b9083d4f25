package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"backend/internal/client"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"
)

type fakePricingClient struct {
	metals    []client.MetalQuote
	rates     []client.CurrencyQuote
	metalsErr error
	ratesErr  error
}

func (f *fakePricingClient) FetchMetalPrices(ctx context.Context) ([]client.MetalQuote, error) {
	if f.metalsErr != nil {
		return nil, f.metalsErr
	}
	return f.metals, nil
}

func (f *fakePricingClient) FetchCurrencyRates(ctx context.Context) ([]client.CurrencyQuote, error) {
	if f.ratesErr != nil {
		return nil, f.ratesErr
	}
	return f.rates, nil
}

type fakeBroadcaster struct {
	messages [][]byte
}

func (f *fakeBroadcaster) Send(message []byte) {
	f.messages = append(f.messages, message)
}

func TestPricingRefresh(t *testing.T) {
	db := setupTestDB(t)
	pricing := &fakePricingClient{
		metals: []client.MetalQuote{
			{Symbol: "GOLD", Name: "Gold", PriceUSD: dec(t, "2000.00")},
			{Symbol: "SILVER", Name: "Silver", PriceUSD: dec(t, "25.50")},
		},
		rates: []client.CurrencyQuote{
			{TargetCurrency: "MXN", Rate: dec(t, "17.50")},
		},
	}
	broadcaster := &fakeBroadcaster{}
	svc := NewPricingService(
		repository.NewPriceRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		pricing,
		broadcaster,
	)

	result, err := svc.Refresh(context.Background(), "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("got %d prices, want 2", len(result))
	}

	var priceRows, rateRows int64
	db.Model(&model.MetalPrice{}).Count(&priceRows)
	db.Model(&model.CurrencyRate{}).Count(&rateRows)
	if priceRows != 2 || rateRows != 1 {
		t.Errorf("stored %d prices and %d rates, want 2 and 1", priceRows, rateRows)
	}

	if len(broadcaster.messages) != 1 {
		t.Fatalf("got %d broadcasts, want 1", len(broadcaster.messages))
	}
	var tick struct {
		Type   string               `json:"type"`
		Prices []MetalPriceResponse `json:"prices"`
	}
	if err := json.Unmarshal(broadcaster.messages[0], &tick); err != nil {
		t.Fatalf("decode tick: %v", err)
	}
	if tick.Type != "metal_prices" || len(tick.Prices) != 2 {
		t.Errorf("tick = %s with %d prices, want metal_prices with 2", tick.Type, len(tick.Prices))
	}

	var audits int64
	db.Model(&model.AuditLog{}).Where("action = ?", model.ActionRefreshPrices).Count(&audits)
	if audits != 1 {
		t.Errorf("got %d refresh audit entries, want 1", audits)
	}
}

func TestPricingRefreshCollaboratorFailure(t *testing.T) {
	db := setupTestDB(t)
	pricing := &fakePricingClient{metalsErr: errors.New("feed unreachable")}
	broadcaster := &fakeBroadcaster{}
	svc := NewPricingService(
		repository.NewPriceRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		pricing,
		broadcaster,
	)

	_, err := svc.Refresh(context.Background(), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := apperror.KindOf(err); kind != apperror.KindExternal {
		t.Errorf("kind = %s, want %s", kind, apperror.KindExternal)
	}

	var priceRows int64
	db.Model(&model.MetalPrice{}).Count(&priceRows)
	if priceRows != 0 {
		t.Errorf("stored %d prices after failure, want 0", priceRows)
	}
	if len(broadcaster.messages) != 0 {
		t.Errorf("got %d broadcasts after failure, want 0", len(broadcaster.messages))
	}
}

func TestPricingRefreshSurvivesRateFailure(t *testing.T) {
	db := setupTestDB(t)
	pricing := &fakePricingClient{
		metals: []client.MetalQuote{
			{Symbol: "COPPER", Name: "Copper", PriceUSD: dec(t, "4.25")},
		},
		ratesErr: errors.New("rates unavailable"),
	}
	svc := NewPricingService(
		repository.NewPriceRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		pricing,
		&fakeBroadcaster{},
	)

	result, err := svc.Refresh(context.Background(), "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("got %d prices, want 1", len(result))
	}

	var rateRows int64
	db.Model(&model.CurrencyRate{}).Count(&rateRows)
	if rateRows != 0 {
		t.Errorf("stored %d rates, want 0", rateRows)
	}
}

func TestGetMetalPriceConversion(t *testing.T) {
	db := setupTestDB(t)
	seedPrices(t, db)
	svc := NewPricingService(
		repository.NewPriceRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		&fakePricingClient{},
		nil,
	)

	t.Run("usd is identity", func(t *testing.T) {
		got, err := svc.GetMetalPrice(context.Background(), "GOLD", "USD")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.PriceUSD != "2000.0000" || got.Price != "2000.0000" {
			t.Errorf("price = %s (usd %s), want 2000.0000", got.Price, got.PriceUSD)
		}
	})

	t.Run("converts through stored rate", func(t *testing.T) {
		got, err := svc.GetMetalPrice(context.Background(), "GOLD", "MXN")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Price != "35000.0000" {
			t.Errorf("price = %s, want 35000.0000", got.Price)
		}
		if got.Currency != "MXN" {
			t.Errorf("currency = %s, want MXN", got.Currency)
		}
	})

	t.Run("unknown symbol rejected", func(t *testing.T) {
		_, err := svc.GetMetalPrice(context.Background(), "URANIUM", "USD")
		if kind := apperror.KindOf(err); kind != apperror.KindValidation {
			t.Errorf("kind = %s, want %s", kind, apperror.KindValidation)
		}
	})
}
