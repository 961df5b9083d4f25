package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RevenueBucket struct {
	Period  string `json:"period"`
	Revenue string `json:"revenue"`
	Sales   int    `json:"sales"`
}

type RevenueStatistics struct {
	Period       string          `json:"period"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	TotalRevenue string          `json:"total_revenue"`
	Buckets      []RevenueBucket `json:"buckets"`
}

type QuotationStatistics struct {
	Total          int64   `json:"total"`
	Draft          int64   `json:"draft"`
	Confirmed      int64   `json:"confirmed"`
	Cancelled      int64   `json:"cancelled"`
	ConversionRate float64 `json:"conversion_rate"` // confirmed / total, 0 when empty
}

type StatisticsService interface {
	Revenue(ctx context.Context, period string, startDate, endDate time.Time) (RevenueStatistics, error)
	Quotations(ctx context.Context) (QuotationStatistics, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// Revenue buckets revenue from non-cancelled sales by day, week, or month.
// Bucketing happens in Go so the query stays portable across dialects.
func (s *statisticsService) Revenue(ctx context.Context, period string, startDate, endDate time.Time) (RevenueStatistics, error) {
	if period == "" {
		period = "month"
	}
	if period != "day" && period != "week" && period != "month" {
		return RevenueStatistics{}, apperror.Validation("unknown period %q, expected day, week or month", period)
	}
	if endDate.Before(startDate) {
		return RevenueStatistics{}, apperror.Validation("end date precedes start date")
	}

	var sales []model.Sale
	err := s.db.WithContext(ctx).
		Where("status <> ? AND sale_date >= ? AND sale_date <= ?", model.SaleCancelled, startDate, endDate).
		Order("sale_date asc").
		Find(&sales).Error
	if err != nil {
		return RevenueStatistics{}, err
	}

	totals := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	grandTotal := decimal.Zero
	for i := range sales {
		key := bucketKey(period, sales[i].SaleDate)
		totals[key] = totals[key].Add(sales[i].TotalAmount)
		counts[key]++
		grandTotal = grandTotal.Add(sales[i].TotalAmount)
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]RevenueBucket, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, RevenueBucket{
			Period:  k,
			Revenue: totals[k].StringFixed(2),
			Sales:   counts[k],
		})
	}

	return RevenueStatistics{
		Period:       period,
		StartDate:    startDate.Format("2006-01-02"),
		EndDate:      endDate.Format("2006-01-02"),
		TotalRevenue: grandTotal.StringFixed(2),
		Buckets:      buckets,
	}, nil
}

// bucketKey renders the grouping key: ISO week for week, lexicographically
// sortable in all three modes.
func bucketKey(period string, date time.Time) string {
	switch period {
	case "day":
		return date.Format("2006-01-02")
	case "week":
		year, week := date.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return date.Format("2006-01")
	}
}

// Quotations counts quotations per status and derives the conversion rate
func (s *statisticsService) Quotations(ctx context.Context) (QuotationStatistics, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&model.Quotation{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return QuotationStatistics{}, err
	}

	var stats QuotationStatistics
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case model.QuotationDraft:
			stats.Draft = row.Count
		case model.QuotationConfirmed:
			stats.Confirmed = row.Count
		case model.QuotationCancelled:
			stats.Cancelled = row.Count
		}
	}
	if stats.Total > 0 {
		stats.ConversionRate = float64(stats.Confirmed) / float64(stats.Total)
	}
	return stats, nil
}
