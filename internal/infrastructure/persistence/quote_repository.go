package persistence

import (
	"context"
	"errors"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/shared"
	"github.com/captech/portal/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQuoteRepository implements billing.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByID finds a quote by its ID with items preloaded
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForCompany returns the company's quotes ordered by issue date descending
func (r *GormQuoteRepository) FindForCompany(ctx context.Context, companyID uuid.UUID) ([]billing.Quote, error) {
	var rows []models.QuoteModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Preload("Items", orderItems).
		Order("issue_date DESC, number DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	quotes := make([]billing.Quote, 0, len(rows))
	for i := range rows {
		quotes = append(quotes, *rows[i].ToDomain())
	}
	return quotes, nil
}

// Save persists the quote and replaces its items
func (r *GormQuoteRepository) Save(ctx context.Context, quote *billing.Quote) error {
	var model models.QuoteModel
	model.FromDomain(quote)
	items := model.Items
	model.Items = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", model.ID).
			Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var _ billing.QuoteRepository = (*GormQuoteRepository)(nil)
