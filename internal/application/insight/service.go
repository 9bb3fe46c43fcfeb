package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/insight"
	"github.com/captech/portal/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service evaluates the configured insight rules against a company's
// current data. Every call re-reads the repositories; insights are never
// persisted or cached.
type Service struct {
	invoices  billing.InvoiceRepository
	customers partner.Repository
	rules     []insight.Rule
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRules replaces the default rule set
func WithRules(rules ...insight.Rule) Option {
	return func(s *Service) { s.rules = rules }
}

// DefaultRules returns the standard rule set with the given thresholds
func DefaultRules(lowMarginThresholdPct decimal.Decimal, lostMonths int) []insight.Rule {
	return []insight.Rule{
		insight.NewLowMarginRule(lowMarginThresholdPct),
		insight.NewLostClientRule(lostMonths),
	}
}

// NewService creates an insight service with the default rule set
func NewService(invoices billing.InvoiceRepository, customers partner.Repository, opts ...Option) *Service {
	s := &Service{
		invoices:  invoices,
		customers: customers,
		rules: DefaultRules(
			decimal.NewFromInt(insight.DefaultLowMarginThresholdPct),
			insight.DefaultLostMonths,
		),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate runs every rule over the company's invoices and customers and
// returns the concatenated records in rule order. No matches is an empty
// slice, not nil, so the API always renders a JSON array.
func (s *Service) Evaluate(ctx context.Context, companyID uuid.UUID) ([]insight.Record, error) {
	invoices, err := s.invoices.FindForCompany(ctx, companyID, billing.InvoiceFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	customers, err := s.customers.FindForCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	input := insight.Input{
		Today:     s.now().UTC().Truncate(24 * time.Hour),
		Invoices:  invoices,
		Customers: customers,
	}

	records := make([]insight.Record, 0)
	for _, rule := range s.rules {
		found, err := rule.Evaluate(input)
		if err != nil {
			return nil, fmt.Errorf("rule %s failed: %w", rule.Name(), err)
		}
		s.logger.Debug("insight rule evaluated",
			zap.String("rule", rule.Name()),
			zap.String("company_id", companyID.String()),
			zap.Int("records", len(found)))
		records = append(records, found...)
	}
	return records, nil
}
