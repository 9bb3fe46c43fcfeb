package company

import (
	"context"

	"github.com/captech/portal/internal/domain/shared"
	"github.com/captech/portal/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Company is the tenant of the portal. Every aggregate and every
// computation is scoped to exactly one company.
type Company struct {
	shared.BaseAggregateRoot
	Name     string
	Email    string
	SIRET    string
	Currency valueobject.Currency
}

// NewCompany creates a new company
func NewCompany(name string) (*Company, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	return &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Currency:          valueobject.DefaultCurrency,
	}, nil
}

// TurnoverEntry is a signed manual ledger entry for a company.
// The sum of entries is the cash-balance proxy shown on the dashboard;
// the portal does not interpret why entries exist, it only sums them.
// This stands in for real bank-account integration.
type TurnoverEntry struct {
	shared.CompanyAggregateRoot
	Label  string
	Amount decimal.Decimal
}

// NewTurnoverEntry creates a new ledger entry. The amount may be negative.
func NewTurnoverEntry(companyID uuid.UUID, label string, amount decimal.Decimal) (*TurnoverEntry, error) {
	if companyID == uuid.Nil {
		return nil, shared.ErrCompanyMissing
	}
	return &TurnoverEntry{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Label:                label,
		Amount:               valueobject.Quantize2(amount),
	}, nil
}

// Repository provides access to companies
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	Save(ctx context.Context, company *Company) error
}

// TurnoverEntryRepository provides access to turnover ledger entries
type TurnoverEntryRepository interface {
	Save(ctx context.Context, entry *TurnoverEntry) error
	// SumForCompany returns the signed sum of all entry amounts for the
	// company. An absent total is 0.00, never an error.
	SumForCompany(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error)
}
