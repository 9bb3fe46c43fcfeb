package partner

import (
	"context"

	"github.com/captech/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// Customer is a company's client. Invoices optionally reference one.
type Customer struct {
	shared.CompanyAggregateRoot
	Name           string
	Email          string
	BillingAddress string
	VATNumber      string
}

// NewCustomer creates a new customer for a company
func NewCustomer(companyID uuid.UUID, name string) (*Customer, error) {
	if companyID == uuid.Nil {
		return nil, shared.ErrCompanyMissing
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	return &Customer{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 name,
	}, nil
}

// Repository provides access to customers
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindForCompany(ctx context.Context, companyID uuid.UUID) ([]Customer, error)
	Save(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}
