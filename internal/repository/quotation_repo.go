package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuotationListFilter narrows quotation listings. All predicates AND
// together; the date range is inclusive on both ends and Search matches
// customer name, email, or id as a case-insensitive substring.
type QuotationListFilter struct {
	Status   string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

type QuotationRepository interface {
	Create(ctx context.Context, quotation *model.Quotation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	List(ctx context.Context, filter QuotationListFilter) ([]model.Quotation, int64, error)
	Update(ctx context.Context, quotation *model.Quotation) error
	ReplaceLines(ctx context.Context, quotationID uuid.UUID, items []model.QuotationItem, expenses []model.QuotationExpense) error
	ClaimForSale(ctx context.Context, quotationID, saleID uuid.UUID) (bool, error)
}

type quotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) QuotationRepository {
	return &quotationRepository{db: db}
}

func (r *quotationRepository) Create(ctx context.Context, quotation *model.Quotation) error {
	return GetDB(ctx, r.db).Create(quotation).Error
}

func (r *quotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var quotation model.Quotation
	if err := GetDB(ctx, r.db).First(&quotation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *quotationRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var quotation model.Quotation
	if err := GetDB(ctx, r.db).Preload("Items").Preload("Expenses").First(&quotation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *quotationRepository) List(ctx context.Context, filter QuotationListFilter) ([]model.Quotation, int64, error) {
	var quotations []model.Quotation
	var total int64

	db := GetDB(ctx, r.db)
	applyFilter := func(q *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Search != "" {
			pattern := "%" + filter.Search + "%"
			q = q.Where(
				"LOWER(customer_name) LIKE LOWER(?) OR LOWER(customer_email) LIKE LOWER(?) OR CAST(id AS TEXT) LIKE LOWER(?)",
				pattern, pattern, pattern,
			)
		}
		if filter.DateFrom != nil {
			q = q.Where("date >= ?", *filter.DateFrom)
		}
		if filter.DateTo != nil {
			q = q.Where("date <= ?", *filter.DateTo)
		}
		return q
	}

	if err := applyFilter(db.Model(&model.Quotation{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetchQuery := applyFilter(db.Preload("Items").Preload("Expenses"))
	if err := fetchQuery.Order("date desc, created_at desc").Offset(offset).Limit(filter.Limit).Find(&quotations).Error; err != nil {
		return nil, 0, err
	}

	return quotations, total, nil
}

func (r *quotationRepository) Update(ctx context.Context, quotation *model.Quotation) error {
	return GetDB(ctx, r.db).Omit("Items", "Expenses").Save(quotation).Error
}

// ReplaceLines swaps the full item/expense set of a quotation. The console
// always submits the complete line set on update, so delete-and-recreate
// matches the contract and keeps ordering deterministic.
func (r *quotationRepository) ReplaceLines(ctx context.Context, quotationID uuid.UUID, items []model.QuotationItem, expenses []model.QuotationExpense) error {
	db := GetDB(ctx, r.db)

	if err := db.Where("quotation_id = ?", quotationID).Delete(&model.QuotationItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("quotation_id = ?", quotationID).Delete(&model.QuotationExpense{}).Error; err != nil {
		return err
	}

	for i := range items {
		items[i].ID = uuid.Nil
		items[i].QuotationID = quotationID
	}
	for i := range expenses {
		expenses[i].ID = uuid.Nil
		expenses[i].QuotationID = quotationID
	}

	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return err
		}
	}
	if len(expenses) > 0 {
		if err := db.Create(&expenses).Error; err != nil {
			return err
		}
	}
	return nil
}

// ClaimForSale atomically stamps the sale reference on a quotation that does
// not have one yet. The guarded UPDATE is the optimistic check that makes
// two concurrent generate-sale calls resolve to exactly one winner; the
// loser sees zero rows affected.
func (r *quotationRepository) ClaimForSale(ctx context.Context, quotationID, saleID uuid.UUID) (bool, error) {
	result := GetDB(ctx, r.db).Model(&model.Quotation{}).
		Where("id = ? AND sale_id IS NULL AND status = ?", quotationID, model.QuotationDraft).
		Updates(map[string]interface{}{
			"sale_id": saleID,
			"status":  model.QuotationConfirmed,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
