package persistence

import (
	"context"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/shared"
	"github.com/captech/portal/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements billing.PaymentRepository using GORM.
// Like the invoice repository it publishes pending events after commit,
// because a recorded payment stales the dashboard too.
type GormPaymentRepository struct {
	db     *gorm.DB
	events shared.EventPublisher
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB, events shared.EventPublisher) *GormPaymentRepository {
	return &GormPaymentRepository{db: db, events: events}
}

// Save upserts the payment and publishes its pending events
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	var model models.PaymentModel
	model.FromDomain(payment)
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return err
	}
	r.publish(ctx, payment)
	return nil
}

// Delete removes the payment and publishes the deletion
func (r *GormPaymentRepository) Delete(ctx context.Context, payment *billing.Payment) error {
	res := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", payment.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	payment.MarkDeleted()
	r.publish(ctx, payment)
	return nil
}

func (r *GormPaymentRepository) publish(ctx context.Context, payment *billing.Payment) {
	if r.events == nil {
		return
	}
	events := payment.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = r.events.Publish(ctx, events...)
	payment.ClearDomainEvents()
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
