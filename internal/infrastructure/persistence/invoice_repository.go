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

// ErrVersionConflict signals a concurrent modification of the same aggregate
var ErrVersionConflict = shared.NewDomainError("VERSION_CONFLICT", "Invoice was modified concurrently")

// GormInvoiceRepository implements billing.InvoiceRepository using GORM.
// Pending domain events are published only after the transaction commits,
// so subscribers such as the dashboard invalidation handler never observe
// a write that later rolled back.
type GormInvoiceRepository struct {
	db     *gorm.DB
	events shared.EventPublisher
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB, events shared.EventPublisher) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db, events: events}
}

// FindByID finds an invoice by its ID with items preloaded
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
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

// FindForCompany returns the company's invoices matching the filter,
// ordered by issue date descending
func (r *GormInvoiceRepository) FindForCompany(ctx context.Context, companyID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	query := applyInvoiceFilter(
		r.db.WithContext(ctx).Where("company_id = ?", companyID), filter).
		Preload("Items", orderItems).
		Order("issue_date DESC, number DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var rows []models.InvoiceModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.Invoice, 0, len(rows))
	for i := range rows {
		invoices = append(invoices, *rows[i].ToDomain())
	}
	return invoices, nil
}

// CountForCompany counts the company's invoices matching the filter
func (r *GormInvoiceRepository) CountForCompany(ctx context.Context, companyID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	var count int64
	err := applyInvoiceFilter(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("company_id = ?", companyID), filter).
		Count(&count).Error
	return count, err
}

// Save persists the aggregate and publishes its pending events after commit
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(invoice)
	items := model.Items
	model.Items = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.InvoiceModel{}).
			Where("id = ?", model.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		} else {
			res := tx.Model(&models.InvoiceModel{}).
				Where("id = ? AND version = ?", model.ID, invoice.Version).
				Updates(map[string]interface{}{
					"number":      model.Number,
					"customer_id": model.CustomerID,
					"issue_date":  model.IssueDate,
					"due_date":    model.DueDate,
					"status":      model.Status,
					"updated_at":  model.UpdatedAt,
					"version":     invoice.Version + 1,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrVersionConflict
			}
			invoice.IncrementVersion()
		}

		// items are replaced wholesale, the aggregate owns them
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
	if err != nil {
		return err
	}

	r.publish(ctx, invoice)
	return nil
}

// Delete removes the invoice with its items and publishes the deletion
func (r *GormInvoiceRepository) Delete(ctx context.Context, invoice *billing.Invoice) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).
			Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.InvoiceModel{}, "id = ?", invoice.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	invoice.MarkDeleted()
	r.publish(ctx, invoice)
	return nil
}

func (r *GormInvoiceRepository) publish(ctx context.Context, invoice *billing.Invoice) {
	if r.events == nil {
		return
	}
	events := invoice.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// the in-memory bus only logs handler failures, so this cannot undo
	// the committed write
	_ = r.events.Publish(ctx, events...)
	invoice.ClearDomainEvents()
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func applyInvoiceFilter(db *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, s.String())
		}
		db = db.Where("status IN ?", statuses)
	}
	if filter.IssuedFrom != nil {
		db = db.Where("issue_date >= ?", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		db = db.Where("issue_date <= ?", *filter.IssuedTo)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	return db
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
