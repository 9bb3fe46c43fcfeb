package dashboard

import (
	"context"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/shared"
	"go.uber.org/zap"
)

// InvalidationHandler drops a company's cached snapshot whenever one of its
// invoices or payments changes, so the next dashboard read recomputes.
type InvalidationHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewInvalidationHandler(service *Service, logger *zap.Logger) *InvalidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvalidationHandler{service: service, logger: logger}
}

// EventTypes lists the write notifications that stale the dashboard
func (h *InvalidationHandler) EventTypes() []string {
	return []string{
		billing.EventTypeInvoiceChanged,
		billing.EventTypePaymentChanged,
	}
}

// Handle invalidates the snapshot of the company the event belongs to
func (h *InvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	companyID := event.CompanyID()
	if err := h.service.Invalidate(ctx, companyID); err != nil {
		h.logger.Error("dashboard invalidation failed",
			zap.String("event_type", event.EventType()),
			zap.String("company_id", companyID.String()),
			zap.Error(err))
		return err
	}
	h.logger.Debug("dashboard snapshot invalidated",
		zap.String("event_type", event.EventType()),
		zap.String("company_id", companyID.String()))
	return nil
}
