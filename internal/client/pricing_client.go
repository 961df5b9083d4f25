package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Metal symbols quoted by the console mapped to their futures tickers on the
// upstream quote feed.
var MetalTickers = map[string]string{
	"GOLD":     "GC=F",
	"SILVER":   "SI=F",
	"COPPER":   "HG=F",
	"ALUMINUM": "ALI=F",
	"IRON":     "TIO=F",
}

// Currency pairs tracked for localization, target currency → ticker
var CurrencyTickers = map[string]string{
	"MXN": "MXN=X",
	"EUR": "EUR=X",
}

// MetalQuote is one upstream metal price observation
type MetalQuote struct {
	Symbol   string
	Name     string
	PriceUSD decimal.Decimal
}

// CurrencyQuote is one upstream USD → target rate observation
type CurrencyQuote struct {
	TargetCurrency string
	Rate           decimal.Decimal
}

// PricingClient is the external pricing collaborator: live metal quotes and
// currency rates. Implementations must not touch local state.
type PricingClient interface {
	FetchMetalPrices(ctx context.Context) ([]MetalQuote, error)
	FetchCurrencyRates(ctx context.Context) ([]CurrencyQuote, error)
}

type httpPricingClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPPricingClient builds a PricingClient against a quote-feed endpoint
// (quoteResponse shape). baseURL without trailing slash.
func NewHTTPPricingClient(baseURL string) PricingClient {
	return &httpPricingClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// quoteFeedResponse mirrors the upstream quote payload
type quoteFeedResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			ShortName          string  `json:"shortName"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

func (c *httpPricingClient) fetchQuotes(ctx context.Context, tickers []string) (map[string]quoteResult, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(strings.Join(tickers, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote feed returned status %d", resp.StatusCode)
	}

	var payload quoteFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode quote feed response: %w", err)
	}

	quotes := make(map[string]quoteResult, len(payload.QuoteResponse.Result))
	for _, r := range payload.QuoteResponse.Result {
		quotes[r.Symbol] = quoteResult{name: r.ShortName, price: r.RegularMarketPrice}
	}
	return quotes, nil
}

type quoteResult struct {
	name  string
	price float64
}

func (c *httpPricingClient) FetchMetalPrices(ctx context.Context) ([]MetalQuote, error) {
	tickers := make([]string, 0, len(MetalTickers))
	for _, t := range MetalTickers {
		tickers = append(tickers, t)
	}

	quotes, err := c.fetchQuotes(ctx, tickers)
	if err != nil {
		return nil, err
	}

	var result []MetalQuote
	for symbol, ticker := range MetalTickers {
		q, ok := quotes[ticker]
		if !ok || q.price <= 0 {
			continue // market closed or symbol missing — keep the last stored price
		}
		result = append(result, MetalQuote{
			Symbol:   symbol,
			Name:     q.name,
			PriceUSD: decimal.NewFromFloat(q.price).Round(4),
		})
	}
	return result, nil
}

func (c *httpPricingClient) FetchCurrencyRates(ctx context.Context) ([]CurrencyQuote, error) {
	tickers := make([]string, 0, len(CurrencyTickers))
	for _, t := range CurrencyTickers {
		tickers = append(tickers, t)
	}

	quotes, err := c.fetchQuotes(ctx, tickers)
	if err != nil {
		return nil, err
	}

	var result []CurrencyQuote
	for currency, ticker := range CurrencyTickers {
		q, ok := quotes[ticker]
		if !ok || q.price <= 0 {
			continue
		}
		result = append(result, CurrencyQuote{
			TargetCurrency: currency,
			Rate:           decimal.NewFromFloat(q.price).Round(6),
		})
	}
	return result, nil
}
